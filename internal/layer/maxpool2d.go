package layer

import (
	"fmt"
	"math"
)

// MaxPool2D downsamples by taking the maximum over sliding windows.
// Argmax indices are stored for gradient routing in the backward pass.
type MaxPool2D struct {
	channels   int
	kernelSize int
	stride     int
	inH, inW   int
	outH, outW int

	outputBuf []float64
	gradInBuf []float64
	argmaxBuf []int
}

// NewMaxPool2D creates a pooling layer for inH x inW inputs.
func NewMaxPool2D(channels, kernelSize, stride, inH, inW int) *MaxPool2D {
	outH := (inH-kernelSize)/stride + 1
	outW := (inW-kernelSize)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("MaxPool2D: kernel %d stride %d does not fit %dx%d input",
			kernelSize, stride, inH, inW))
	}

	return &MaxPool2D{
		channels:   channels,
		kernelSize: kernelSize,
		stride:     stride,
		inH:        inH,
		inW:        inW,
		outH:       outH,
		outW:       outW,
		outputBuf:  make([]float64, channels*outH*outW),
		gradInBuf:  make([]float64, channels*inH*inW),
		argmaxBuf:  make([]int, channels*outH*outW),
	}
}

// Forward takes the max over each pooling window.
func (m *MaxPool2D) Forward(input []float64) []float64 {
	if len(input) != m.InSize() {
		panic(fmt.Sprintf("MaxPool2D: input length %d, want %d", len(input), m.InSize()))
	}

	inPlane := m.inH * m.inW
	outPlane := m.outH * m.outW

	for c := 0; c < m.channels; c++ {
		inBase := c * inPlane
		outBase := c * outPlane

		for oh := 0; oh < m.outH; oh++ {
			for ow := 0; ow < m.outW; ow++ {
				maxVal := math.Inf(-1)
				maxIdx := -1
				for kh := 0; kh < m.kernelSize; kh++ {
					ih := oh*m.stride + kh
					rowBase := inBase + ih*m.inW
					for kw := 0; kw < m.kernelSize; kw++ {
						idx := rowBase + ow*m.stride + kw
						if input[idx] > maxVal {
							maxVal = input[idx]
							maxIdx = idx
						}
					}
				}
				pos := outBase + oh*m.outW + ow
				m.outputBuf[pos] = maxVal
				m.argmaxBuf[pos] = maxIdx
			}
		}
	}

	return m.outputBuf
}

// Backward routes each output gradient to the input position that won
// the corresponding max.
func (m *MaxPool2D) Backward(grad []float64) []float64 {
	if len(grad) != m.OutSize() {
		panic(fmt.Sprintf("MaxPool2D: gradient length %d, want %d", len(grad), m.OutSize()))
	}
	zero(m.gradInBuf)

	for pos, maxIdx := range m.argmaxBuf {
		m.gradInBuf[maxIdx] += grad[pos]
	}
	return m.gradInBuf
}

// Params returns nil; pooling has no learnable parameters.
func (m *MaxPool2D) Params() []float64 { return nil }

// SetParams is a no-op.
func (m *MaxPool2D) SetParams(params []float64) {}

// Gradients returns nil.
func (m *MaxPool2D) Gradients() []float64 { return nil }

// ZeroGrad is a no-op.
func (m *MaxPool2D) ZeroGrad() {}

// InSize returns the flattened input size.
func (m *MaxPool2D) InSize() int { return m.channels * m.inH * m.inW }

// OutSize returns the flattened output size.
func (m *MaxPool2D) OutSize() int { return m.channels * m.outH * m.outW }
