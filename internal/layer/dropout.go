package layer

import "fmt"

// Dropout randomly zeroes inputs with probability p during training,
// scaling survivors by 1/(1-p) (inverted dropout). During inference it
// passes inputs through unchanged.
type Dropout struct {
	p        float64
	size     int
	training bool

	r         *rng
	maskBuf   []float64
	outputBuf []float64
	gradInBuf []float64
}

// NewDropout creates a dropout layer. p is the drop probability.
func NewDropout(p float64, size int) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: p = %v, want [0, 1)", p))
	}
	return &Dropout{
		p:         p,
		size:      size,
		training:  true,
		r:         newRNG(uint64(size)*1000 + 7),
		maskBuf:   make([]float64, size),
		outputBuf: make([]float64, size),
		gradInBuf: make([]float64, size),
	}
}

// SetTraining toggles between training and inference behavior.
func (d *Dropout) SetTraining(training bool) {
	d.training = training
}

// Forward applies the dropout mask (training) or the identity (inference).
func (d *Dropout) Forward(x []float64) []float64 {
	if len(x) != d.size {
		panic(fmt.Sprintf("Dropout: input length %d, want %d", len(x), d.size))
	}

	if !d.training {
		copy(d.outputBuf, x)
		return d.outputBuf
	}

	keepScale := 1 / (1 - d.p)
	for i := range x {
		if d.r.Float64() < d.p {
			d.maskBuf[i] = 0
		} else {
			d.maskBuf[i] = keepScale
		}
		d.outputBuf[i] = x[i] * d.maskBuf[i]
	}
	return d.outputBuf
}

// Backward applies the saved mask to the gradient.
func (d *Dropout) Backward(grad []float64) []float64 {
	if len(grad) != d.size {
		panic(fmt.Sprintf("Dropout: gradient length %d, want %d", len(grad), d.size))
	}

	if !d.training {
		copy(d.gradInBuf, grad)
		return d.gradInBuf
	}
	for i := range grad {
		d.gradInBuf[i] = grad[i] * d.maskBuf[i]
	}
	return d.gradInBuf
}

// Params returns nil; dropout has no learnable parameters.
func (d *Dropout) Params() []float64 { return nil }

// SetParams is a no-op.
func (d *Dropout) SetParams(params []float64) {}

// Gradients returns nil.
func (d *Dropout) Gradients() []float64 { return nil }

// ZeroGrad is a no-op.
func (d *Dropout) ZeroGrad() {}

// InSize returns the feature count.
func (d *Dropout) InSize() int { return d.size }

// OutSize returns the feature count.
func (d *Dropout) OutSize() int { return d.size }
