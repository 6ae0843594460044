package layer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ecs-vlc/gobearer/internal/activations"
)

// Dense is a fully connected layer: y = act(Wx + b).
//
// Weights and biases share one contiguous backing slice so Params and
// Gradients expose a single parameter group to the optimizer.
type Dense struct {
	weights *mat.Dense    // out x in, view over params[:out*in]
	gradW   *mat.Dense    // view over grads[:out*in]
	params  []float64     // weights followed by biases
	grads   []float64
	act     activations.Activation
	inSize  int
	outSize int

	// Reusable buffers
	inputBuf  []float64
	preActBuf []float64
	outputBuf []float64
	dzBuf     []float64
	gradInBuf []float64
}

// NewDense creates a dense layer with Xavier-initialized weights.
// Initialization is deterministic for a given shape.
func NewDense(in, out int, act activations.Activation) *Dense {
	params := make([]float64, out*in+out)
	grads := make([]float64, out*in+out)

	scale := math.Sqrt(2.0 / (float64(in) + float64(out)))
	r := newRNG(uint64(in)*1000 + uint64(out)*100 + 42)
	for i := 0; i < out*in; i++ {
		params[i] = r.Float64()*2*scale - scale
	}
	for i := out * in; i < len(params); i++ {
		params[i] = r.Float64()*0.2 - 0.1
	}

	return &Dense{
		weights:   mat.NewDense(out, in, params[:out*in]),
		gradW:     mat.NewDense(out, in, grads[:out*in]),
		params:    params,
		grads:     grads,
		act:       act,
		inSize:    in,
		outSize:   out,
		inputBuf:  make([]float64, in),
		preActBuf: make([]float64, out),
		outputBuf: make([]float64, out),
		dzBuf:     make([]float64, out),
		gradInBuf: make([]float64, in),
	}
}

// Forward computes act(Wx + b).
func (d *Dense) Forward(x []float64) []float64 {
	if len(x) != d.inSize {
		panic("Dense: input length does not match layer input size")
	}
	copy(d.inputBuf, x)

	in := mat.NewVecDense(d.inSize, d.inputBuf)
	pre := mat.NewVecDense(d.outSize, d.preActBuf)
	pre.MulVec(d.weights, in)

	biases := d.params[d.outSize*d.inSize:]
	for o := 0; o < d.outSize; o++ {
		d.preActBuf[o] += biases[o]
		d.outputBuf[o] = d.act.Activate(d.preActBuf[o])
	}
	return d.outputBuf
}

// Backward accumulates weight and bias gradients from the most recent
// Forward call and returns the gradient w.r.t. the layer input.
func (d *Dense) Backward(grad []float64) []float64 {
	if len(grad) != d.outSize {
		panic("Dense: gradient length does not match layer output size")
	}

	// dz = dL/d(output) * act'(preact)
	for o := 0; o < d.outSize; o++ {
		d.dzBuf[o] = grad[o] * d.act.Derivative(d.preActBuf[o])
	}

	dz := mat.NewVecDense(d.outSize, d.dzBuf)
	in := mat.NewVecDense(d.inSize, d.inputBuf)

	// gradW += dz * input^T
	d.gradW.RankOne(d.gradW, 1, dz, in)

	// gradB += dz
	gradB := d.grads[d.outSize*d.inSize:]
	floats.Add(gradB, d.dzBuf)

	// gradIn = W^T * dz
	gradIn := mat.NewVecDense(d.inSize, d.gradInBuf)
	gradIn.MulVec(d.weights.T(), dz)
	return d.gradInBuf
}

// Params returns the layer's parameter storage (weights then biases).
func (d *Dense) Params() []float64 { return d.params }

// SetParams copies params into the layer's backing storage.
func (d *Dense) SetParams(params []float64) {
	if len(params) != len(d.params) {
		panic("Dense: parameter length mismatch")
	}
	copy(d.params, params)
}

// Gradients returns the layer's accumulated gradient storage.
func (d *Dense) Gradients() []float64 { return d.grads }

// ZeroGrad clears the accumulated gradients.
func (d *Dense) ZeroGrad() { zero(d.grads) }

// InSize returns the input width.
func (d *Dense) InSize() int { return d.inSize }

// OutSize returns the output width.
func (d *Dense) OutSize() int { return d.outSize }

// Activation returns the layer's activation function.
func (d *Dense) Activation() activations.Activation { return d.act }
