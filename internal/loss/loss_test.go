package loss

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

const tol = 1e-6

func TestMSEForward(t *testing.T) {
	m := MSE{}
	got := m.Forward([]float64{1, 2, 3}, []float64{1, 2, 3})
	if got != 0 {
		t.Errorf("MSE of identical vectors = %v, want 0", got)
	}

	got = m.Forward([]float64{2, 0}, []float64{0, 0})
	if math.Abs(got-2) > tol {
		t.Errorf("MSE = %v, want 2", got)
	}
}

func TestMSEShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MSE.Forward with mismatched lengths should panic")
		}
	}()
	MSE{}.Forward([]float64{1, 2}, []float64{1})
}

func TestCrossEntropyForward(t *testing.T) {
	c := CrossEntropy{}

	// Uniform logits over 4 classes: loss = log(4).
	logits := []float64{0, 0, 0, 0}
	target := []float64{0, 1, 0, 0}
	got := c.Forward(logits, target)
	if math.Abs(got-math.Log(4)) > tol {
		t.Errorf("CrossEntropy(uniform) = %v, want %v", got, math.Log(4))
	}

	// Strongly confident correct prediction: loss near zero.
	confident := []float64{-10, 10, -10, -10}
	got = c.Forward(confident, target)
	if got > 1e-3 {
		t.Errorf("CrossEntropy(confident correct) = %v, want near 0", got)
	}
}

func TestCrossEntropyBackwardSumsToZero(t *testing.T) {
	// softmax - onehot always sums to zero across classes.
	c := CrossEntropy{}
	grad := c.Backward([]float64{1.2, -0.3, 0.7}, []float64{0, 0, 1})
	var sum float64
	for _, g := range grad {
		sum += g
	}
	if math.Abs(sum) > tol {
		t.Errorf("CrossEntropy gradient sums to %v, want 0", sum)
	}
}

func TestBCEWithLogitsMatchesBCE(t *testing.T) {
	// BCEWithLogits(x, y) must equal BCE(sigmoid(x), y).
	logits := []float64{-2.5, -0.1, 0.4, 3.0}
	target := []float64{0, 1, 1, 0}

	probs := make([]float64, len(logits))
	for i, x := range logits {
		probs[i] = 1 / (1 + math.Exp(-x))
	}

	a := BCEWithLogits{}.Forward(logits, target)
	b := BCE{}.Forward(probs, target)
	if math.Abs(a-b) > tol {
		t.Errorf("BCEWithLogits = %v, BCE(sigmoid) = %v", a, b)
	}
}

func TestKLDivOfIdenticalDistributions(t *testing.T) {
	p := []float64{0.2, 0.3, 0.5}
	got := KLDiv{}.Forward(p, p)
	if math.Abs(got) > tol {
		t.Errorf("KLDiv(p, p) = %v, want 0", got)
	}
}

// TestGradientsMatchFiniteDifference checks each analytic Backward against
// a numeric gradient of Forward.
func TestGradientsMatchFiniteDifference(t *testing.T) {
	cases := []struct {
		name   string
		loss   Loss
		pred   []float64
		target []float64
	}{
		{"MSE", MSE{}, []float64{0.2, -1.3, 0.8}, []float64{0, -1, 1}},
		{"CrossEntropy", CrossEntropy{}, []float64{1.5, -0.2, 0.3}, []float64{0, 1, 0}},
		{"BCEWithLogits", BCEWithLogits{}, []float64{-0.8, 1.2}, []float64{1, 0}},
		{"BCE", BCE{}, []float64{0.3, 0.7}, []float64{1, 0}},
	}

	for _, tc := range cases {
		f := func(x []float64) float64 {
			return tc.loss.Forward(x, tc.target)
		}
		want := fd.Gradient(nil, f, tc.pred, &fd.Settings{Formula: fd.Central})
		got := tc.loss.Backward(tc.pred, tc.target)
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-5 {
				t.Errorf("%s gradient[%d] = %v, finite difference gives %v", tc.name, i, got[i], want[i])
			}
		}
	}
}

func TestBackwardInPlaceMatchesBackward(t *testing.T) {
	pred := []float64{0.4, -0.9, 1.1}
	target := []float64{0, 1, 0}

	losses := []Loss{MSE{}, CrossEntropy{}, BCEWithLogits{}}
	for _, l := range losses {
		want := l.Backward(pred, target)
		got := make([]float64, len(pred))
		l.(BackwardInPlacer).BackwardInPlace(pred, target, got)
		for i := range want {
			if math.Abs(got[i]-want[i]) > tol {
				t.Errorf("%T: BackwardInPlace[%d] = %v, Backward = %v", l, i, got[i], want[i])
			}
		}
	}
}
