package layer

import (
	"fmt"
	"math"

	"github.com/ecs-vlc/gobearer/internal/activations"
)

// Conv2D implements a 2D convolutional layer using direct convolution.
//
// Input and output are flattened channel-major: [channels, height, width].
// Spatial dimensions are fixed at construction; feeding an input of a
// different size is a configuration error and panics.
type Conv2D struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	inH, inW    int
	outH, outW  int

	// Weights [outC, inC, k, k] followed by biases [outC], one backing slice.
	params []float64
	grads  []float64

	act activations.Activation

	preActBuf  []float64
	outputBuf  []float64
	gradInBuf  []float64
	savedInput []float64
}

// NewConv2D creates a 2D convolutional layer for inH x inW inputs with
// He-initialized weights. Initialization is deterministic for a given shape.
func NewConv2D(inChannels, outChannels, kernelSize, stride, padding, inH, inW int,
	act activations.Activation) *Conv2D {

	outH := (inH+2*padding-kernelSize)/stride + 1
	outW := (inW+2*padding-kernelSize)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("Conv2D: kernel %d stride %d padding %d does not fit %dx%d input",
			kernelSize, stride, padding, inH, inW))
	}

	numWeights := outChannels * inChannels * kernelSize * kernelSize
	params := make([]float64, numWeights+outChannels)
	grads := make([]float64, len(params))

	// He initialization (better for ReLU).
	scale := math.Sqrt(2.0 / float64(inChannels*kernelSize*kernelSize))
	r := newRNG(uint64(inChannels)*10000 + uint64(outChannels)*100 + uint64(kernelSize))
	for i := 0; i < numWeights; i++ {
		params[i] = r.Float64()*2*scale - scale
	}
	for i := numWeights; i < len(params); i++ {
		params[i] = r.Float64()*0.2 - 0.1
	}

	inSize := inChannels * inH * inW
	outSize := outChannels * outH * outW
	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		inH:         inH,
		inW:         inW,
		outH:        outH,
		outW:        outW,
		params:      params,
		grads:       grads,
		act:         act,
		preActBuf:   make([]float64, outSize),
		outputBuf:   make([]float64, outSize),
		gradInBuf:   make([]float64, inSize),
		savedInput:  make([]float64, inSize),
	}
}

// Forward convolves the input with the layer's kernels.
func (c *Conv2D) Forward(input []float64) []float64 {
	if len(input) != c.InSize() {
		panic(fmt.Sprintf("Conv2D: input length %d, want %d", len(input), c.InSize()))
	}
	copy(c.savedInput, input)
	zero(c.preActBuf)

	k := c.kernelSize
	icStride := k * k
	ocStride := c.inChannels * icStride
	weights := c.params[:c.outChannels*ocStride]
	biases := c.params[c.outChannels*ocStride:]
	outPlane := c.outH * c.outW

	for oc := 0; oc < c.outChannels; oc++ {
		ocWeightBase := oc * ocStride
		ocOutBase := oc * outPlane

		for ic := 0; ic < c.inChannels; ic++ {
			icWeightBase := ocWeightBase + ic*icStride
			inBase := ic * c.inH * c.inW

			for kh := 0; kh < k; kh++ {
				for kw := 0; kw < k; kw++ {
					w := weights[icWeightBase+kh*k+kw]
					for oh := 0; oh < c.outH; oh++ {
						ih := oh*c.stride + kh - c.padding
						if ih < 0 || ih >= c.inH {
							continue
						}
						rowBase := inBase + ih*c.inW
						outRow := ocOutBase + oh*c.outW
						for ow := 0; ow < c.outW; ow++ {
							iw := ow*c.stride + kw - c.padding
							if iw < 0 || iw >= c.inW {
								continue
							}
							c.preActBuf[outRow+ow] += w * input[rowBase+iw]
						}
					}
				}
			}
		}

		for i := ocOutBase; i < ocOutBase+outPlane; i++ {
			c.preActBuf[i] += biases[oc]
			c.outputBuf[i] = c.act.Activate(c.preActBuf[i])
		}
	}

	return c.outputBuf
}

// Backward accumulates kernel and bias gradients and returns the
// gradient w.r.t. the input.
func (c *Conv2D) Backward(grad []float64) []float64 {
	if len(grad) != c.OutSize() {
		panic(fmt.Sprintf("Conv2D: gradient length %d, want %d", len(grad), c.OutSize()))
	}
	zero(c.gradInBuf)

	k := c.kernelSize
	icStride := k * k
	ocStride := c.inChannels * icStride
	numWeights := c.outChannels * ocStride
	weights := c.params[:numWeights]
	gradW := c.grads[:numWeights]
	gradB := c.grads[numWeights:]
	outPlane := c.outH * c.outW

	for oc := 0; oc < c.outChannels; oc++ {
		ocWeightBase := oc * ocStride
		ocOutBase := oc * outPlane

		for oh := 0; oh < c.outH; oh++ {
			for ow := 0; ow < c.outW; ow++ {
				pos := ocOutBase + oh*c.outW + ow
				dz := grad[pos] * c.act.Derivative(c.preActBuf[pos])
				if dz == 0 {
					continue
				}
				gradB[oc] += dz

				for ic := 0; ic < c.inChannels; ic++ {
					icWeightBase := ocWeightBase + ic*icStride
					inBase := ic * c.inH * c.inW

					for kh := 0; kh < k; kh++ {
						ih := oh*c.stride + kh - c.padding
						if ih < 0 || ih >= c.inH {
							continue
						}
						rowBase := inBase + ih*c.inW
						for kw := 0; kw < k; kw++ {
							iw := ow*c.stride + kw - c.padding
							if iw < 0 || iw >= c.inW {
								continue
							}
							wIdx := icWeightBase + kh*k + kw
							gradW[wIdx] += dz * c.savedInput[rowBase+iw]
							c.gradInBuf[rowBase+iw] += dz * weights[wIdx]
						}
					}
				}
			}
		}
	}

	return c.gradInBuf
}

// Params returns the layer's parameter storage (kernels then biases).
func (c *Conv2D) Params() []float64 { return c.params }

// SetParams copies params into the layer's backing storage.
func (c *Conv2D) SetParams(params []float64) {
	if len(params) != len(c.params) {
		panic("Conv2D: parameter length mismatch")
	}
	copy(c.params, params)
}

// Gradients returns the layer's accumulated gradient storage.
func (c *Conv2D) Gradients() []float64 { return c.grads }

// ZeroGrad clears the accumulated gradients.
func (c *Conv2D) ZeroGrad() { zero(c.grads) }

// InSize returns the flattened input size (channels * height * width).
func (c *Conv2D) InSize() int { return c.inChannels * c.inH * c.inW }

// OutSize returns the flattened output size.
func (c *Conv2D) OutSize() int { return c.outChannels * c.outH * c.outW }

// OutShape returns the output dimensions (channels, height, width).
func (c *Conv2D) OutShape() (int, int, int) { return c.outChannels, c.outH, c.outW }
