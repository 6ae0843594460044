package trial

import (
	"math"
	"testing"
)

func TestRunningLossWarmsUp(t *testing.T) {
	r := NewRunningLoss(0.99)
	if r.Value() != 0 {
		t.Fatalf("initial value = %v, want 0", r.Value())
	}

	r.Update(nil, nil, 2.0)
	if got := r.Value(); math.Abs(got-0.02) > 1e-15 {
		t.Errorf("after one update = %v, want 0.02", got)
	}

	r.Update(nil, nil, 2.0)
	want := 0.99*0.02 + 0.01*2.0
	if got := r.Value(); math.Abs(got-want) > 1e-15 {
		t.Errorf("after two updates = %v, want %v", got, want)
	}

	// Constant losses converge toward the constant.
	for i := 0; i < 2000; i++ {
		r.Update(nil, nil, 2.0)
	}
	if got := r.Value(); math.Abs(got-2.0) > 1e-6 {
		t.Errorf("after warm-up = %v, want close to 2", got)
	}

	r.Reset()
	if r.Value() != 0 {
		t.Errorf("value after Reset = %v, want 0", r.Value())
	}
}

func TestMeanLoss(t *testing.T) {
	m := NewMeanLoss()
	if m.Value() != 0 {
		t.Fatalf("empty mean = %v, want 0", m.Value())
	}
	m.Update(nil, nil, 1.0)
	m.Update(nil, nil, 3.0)
	if got := m.Value(); got != 2.0 {
		t.Errorf("mean = %v, want 2", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("mean after Reset = %v, want 0", m.Value())
	}
}

func TestCategoricalAccuracy(t *testing.T) {
	a := NewCategoricalAccuracy()
	if a.Value() != 0 {
		t.Fatalf("empty accuracy = %v, want 0", a.Value())
	}

	preds := [][]float64{
		{0.9, 0.1},
		{0.2, 0.8},
		{0.6, 0.4},
	}
	targets := [][]float64{
		{1, 0},
		{1, 0},
		{0, 1},
	}
	a.Update(preds, targets, 0)
	if got := a.Value(); math.Abs(got-1.0/3.0) > 1e-15 {
		t.Errorf("accuracy = %v, want 1/3", got)
	}

	// Logits work the same as probabilities under arg-max.
	a.Reset()
	a.Update([][]float64{{-3.2, 1.7}}, [][]float64{{0, 1}}, 0)
	if a.Value() != 1 {
		t.Errorf("logit accuracy = %v, want 1", a.Value())
	}
}
