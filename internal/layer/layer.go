// Package layer provides feed-forward neural network layers with
// analytic backward passes.
package layer

// Layer is a neural network layer.
//
// Params and Gradients return views of the layer's backing storage so
// that optimizers can update parameters in place. Backward accumulates
// into the gradient buffers; callers reset them with ZeroGrad between
// optimization steps.
type Layer interface {
	Forward(x []float64) []float64
	Backward(grad []float64) []float64
	Params() []float64
	SetParams(params []float64)
	Gradients() []float64
	ZeroGrad()
	InSize() int
	OutSize() int
}

// Trainer is implemented by layers whose behavior differs between
// training and inference (e.g. Dropout).
type Trainer interface {
	SetTraining(training bool)
}

// rng is a small deterministic xorshift generator used for weight
// initialization, so that a given architecture always starts from the
// same parameters.
type rng struct {
	state uint64
}

func newRNG(seed uint64) *rng {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &rng{state: seed}
}

func (r *rng) next() uint64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return r.state
}

// Float64 returns a deterministic value in [0, 1).
func (r *rng) Float64() float64 {
	return float64(r.next()>>11) / float64(1<<53)
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
