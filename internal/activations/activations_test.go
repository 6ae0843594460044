package activations

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

func TestReLU(t *testing.T) {
	r := ReLU{}
	tests := []struct {
		in, out, deriv float64
	}{
		{-2, 0, 0},
		{0, 0, 0},
		{3.5, 3.5, 1},
	}
	for _, tt := range tests {
		if got := r.Activate(tt.in); got != tt.out {
			t.Errorf("ReLU(%v) = %v, want %v", tt.in, got, tt.out)
		}
		if got := r.Derivative(tt.in); got != tt.deriv {
			t.Errorf("ReLU'(%v) = %v, want %v", tt.in, got, tt.deriv)
		}
	}
}

func TestSigmoidRange(t *testing.T) {
	s := Sigmoid{}
	for _, x := range []float64{-10, -1, 0, 1, 10} {
		y := s.Activate(x)
		if y <= 0 || y >= 1 {
			t.Errorf("Sigmoid(%v) = %v, want value in (0,1)", x, y)
		}
	}
	if got := s.Activate(0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
}

// TestDerivativesMatchFiniteDifference cross-checks every analytic
// derivative against a central finite difference.
func TestDerivativesMatchFiniteDifference(t *testing.T) {
	acts := map[string]Activation{
		"ReLU":      ReLU{},
		"Sigmoid":   Sigmoid{},
		"Tanh":      Tanh{},
		"Linear":    Linear{},
		"LeakyReLU": NewLeakyReLU(0.01),
	}

	points := []float64{-2.3, -0.7, 0.4, 1.9}
	for name, act := range acts {
		for _, x := range points {
			want := fd.Derivative(act.Activate, x, &fd.Settings{Formula: fd.Central})
			got := act.Derivative(x)
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("%s'(%v) = %v, finite difference gives %v", name, x, got, want)
			}
		}
	}
}
