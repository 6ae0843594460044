// Package opt provides optimization algorithms and learning rate schedulers.
package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Optimizer updates parameters in place from previously computed gradients.
// Step is called once per parameter group (one layer's flattened parameters);
// stateful optimizers key their internal state off the group's backing array,
// so groups must be stable across steps.
type Optimizer interface {
	// Step updates params in place: params <- params - update(gradients)
	Step(params, gradients []float64)

	// LearningRate returns the current learning rate.
	LearningRate() float64

	// SetLearningRate replaces the learning rate, used by schedulers.
	SetLearningRate(lr float64)
}

// SGD (Stochastic Gradient Descent) optimizer with optional momentum.
type SGD struct {
	LR       float64
	Momentum float64

	velocity map[*float64][]float64
}

// NewSGD creates an SGD optimizer with the given learning rate and no momentum.
func NewSGD(lr float64) *SGD {
	return &SGD{LR: lr}
}

// NewSGDMomentum creates an SGD optimizer with classical momentum.
func NewSGDMomentum(lr, momentum float64) *SGD {
	return &SGD{LR: lr, Momentum: momentum}
}

// Step updates params in place: params -= lr * (momentum-filtered) gradients
func (s *SGD) Step(params, gradients []float64) {
	if len(params) == 0 {
		return
	}
	if len(params) != len(gradients) {
		panic("SGD: params and gradients must have same length")
	}

	if s.Momentum == 0 {
		floats.AddScaled(params, -s.LR, gradients)
		return
	}

	if s.velocity == nil {
		s.velocity = make(map[*float64][]float64)
	}
	key := &params[0]
	v, ok := s.velocity[key]
	if !ok {
		v = make([]float64, len(params))
		s.velocity[key] = v
	}

	// v <- momentum*v + g; params <- params - lr*v
	floats.Scale(s.Momentum, v)
	floats.Add(v, gradients)
	floats.AddScaled(params, -s.LR, v)
}

// LearningRate returns the current learning rate.
func (s *SGD) LearningRate() float64 { return s.LR }

// SetLearningRate replaces the learning rate.
func (s *SGD) SetLearningRate(lr float64) { s.LR = lr }

// Adam optimizer with bias-corrected first and second moment estimates.
type Adam struct {
	LR      float64
	Beta1   float64 // Exponential decay rate for first moment
	Beta2   float64 // Exponential decay rate for second moment
	Epsilon float64 // Small constant for numerical stability

	state map[*float64]*adamState
}

type adamState struct {
	m, v []float64
	t    int
}

// NewAdam creates a new Adam optimizer with default decay rates.
func NewAdam(lr float64) *Adam {
	return &Adam{
		LR:      lr,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
	}
}

// Step updates params in place using Adam.
func (a *Adam) Step(params, gradients []float64) {
	if len(params) == 0 {
		return
	}
	if len(params) != len(gradients) {
		panic("Adam: params and gradients must have same length")
	}

	if a.state == nil {
		a.state = make(map[*float64]*adamState)
	}
	key := &params[0]
	st, ok := a.state[key]
	if !ok {
		st = &adamState{
			m: make([]float64, len(params)),
			v: make([]float64, len(params)),
		}
		a.state[key] = st
	}
	st.t++

	c1 := 1 - math.Pow(a.Beta1, float64(st.t))
	c2 := 1 - math.Pow(a.Beta2, float64(st.t))

	for i, g := range gradients {
		st.m[i] = a.Beta1*st.m[i] + (1-a.Beta1)*g
		st.v[i] = a.Beta2*st.v[i] + (1-a.Beta2)*g*g
		mHat := st.m[i] / c1
		vHat := st.v[i] / c2
		params[i] -= a.LR * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

// LearningRate returns the current learning rate.
func (a *Adam) LearningRate() float64 { return a.LR }

// SetLearningRate replaces the learning rate.
func (a *Adam) SetLearningRate(lr float64) { a.LR = lr }
