package layer

import "fmt"

// Flatten marks the transition from spatial layers to dense layers.
// With the flat channel-major layout used throughout, it is an identity
// that validates the expected size.
type Flatten struct {
	size int
}

// NewFlatten creates a flatten layer for the given feature count.
func NewFlatten(size int) *Flatten {
	return &Flatten{size: size}
}

// Forward passes the input through unchanged.
func (f *Flatten) Forward(x []float64) []float64 {
	if len(x) != f.size {
		panic(fmt.Sprintf("Flatten: input length %d, want %d", len(x), f.size))
	}
	return x
}

// Backward passes the gradient through unchanged.
func (f *Flatten) Backward(grad []float64) []float64 {
	if len(grad) != f.size {
		panic(fmt.Sprintf("Flatten: gradient length %d, want %d", len(grad), f.size))
	}
	return grad
}

// Params returns nil.
func (f *Flatten) Params() []float64 { return nil }

// SetParams is a no-op.
func (f *Flatten) SetParams(params []float64) {}

// Gradients returns nil.
func (f *Flatten) Gradients() []float64 { return nil }

// ZeroGrad is a no-op.
func (f *Flatten) ZeroGrad() {}

// InSize returns the feature count.
func (f *Flatten) InSize() int { return f.size }

// OutSize returns the feature count.
func (f *Flatten) OutSize() int { return f.size }
