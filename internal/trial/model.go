// Package trial drives neural network training and evaluation: epochs,
// batches, forward, loss, backward, optimizer step and metric
// accumulation, with callbacks observing progress.
package trial

import (
	"fmt"

	"github.com/ecs-vlc/gobearer/internal/layer"
)

// Param is one parameter group: views over a model's backing storage
// for values and their accumulated gradients.
type Param struct {
	Values []float64
	Grads  []float64
}

// Model is the forward/backward contract the trial runner drives.
// Implementations own their parameters; the runner mutates them only
// through the optimizer, via the views returned by Parameters.
type Model interface {
	Forward(x []float64) []float64
	Backward(grad []float64) []float64
	ZeroGrad()
	Parameters() []Param
}

// Sequential is a model built from a stack of layers.
type Sequential struct {
	layers []layer.Layer
}

// NewSequential creates a sequential model from the given layers.
func NewSequential(layers ...layer.Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward performs a forward pass through all layers.
func (s *Sequential) Forward(x []float64) []float64 {
	curr := x
	for i := range s.layers {
		curr = s.layers[i].Forward(curr)
	}
	return curr
}

// Backward performs a backward pass through all layers in reverse.
func (s *Sequential) Backward(grad []float64) []float64 {
	curr := grad
	for i := len(s.layers) - 1; i >= 0; i-- {
		curr = s.layers[i].Backward(curr)
	}
	return curr
}

// ZeroGrad clears the accumulated gradients of every layer.
func (s *Sequential) ZeroGrad() {
	for _, l := range s.layers {
		l.ZeroGrad()
	}
}

// Parameters returns one parameter group per layer that has parameters.
func (s *Sequential) Parameters() []Param {
	params := make([]Param, 0, len(s.layers))
	for _, l := range s.layers {
		if p := l.Params(); len(p) > 0 {
			params = append(params, Param{Values: p, Grads: l.Gradients()})
		}
	}
	return params
}

// SetTraining propagates training mode to layers that distinguish it.
func (s *Sequential) SetTraining(training bool) {
	for _, l := range s.layers {
		if t, ok := l.(layer.Trainer); ok {
			t.SetTraining(training)
		}
	}
}

// Layers returns the model's layer stack.
func (s *Sequential) Layers() []layer.Layer {
	return s.layers
}

// Summary prints the architecture with parameter counts.
func (s *Sequential) Summary() {
	fmt.Println("Model: Sequential")
	fmt.Println("-----------------------------------------------")
	total := 0
	for i, l := range s.layers {
		n := len(l.Params())
		total += n
		fmt.Printf("%-3d %-12T in=%-6d out=%-6d params=%d\n", i, l, l.InSize(), l.OutSize(), n)
	}
	fmt.Println("-----------------------------------------------")
	fmt.Printf("Total params: %d\n", total)
}

// CopyParams flattens a model's parameters into a fresh slice.
func CopyParams(m Model) []float64 {
	var out []float64
	for _, p := range m.Parameters() {
		out = append(out, p.Values...)
	}
	return out
}

// RestoreParams copies a flattened snapshot back into the model.
func RestoreParams(m Model, snapshot []float64) error {
	offset := 0
	for _, p := range m.Parameters() {
		if offset+len(p.Values) > len(snapshot) {
			return fmt.Errorf("trial: snapshot has %d values, model needs more", len(snapshot))
		}
		copy(p.Values, snapshot[offset:offset+len(p.Values)])
		offset += len(p.Values)
	}
	if offset != len(snapshot) {
		return fmt.Errorf("trial: snapshot has %d values, model uses %d", len(snapshot), offset)
	}
	return nil
}
