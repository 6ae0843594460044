package opt

import (
	"math"
	"testing"
)

func TestSGDStep(t *testing.T) {
	sgd := NewSGD(0.1)
	params := []float64{1.0, -2.0}
	grads := []float64{0.5, -0.5}

	sgd.Step(params, grads)

	want := []float64{0.95, -1.95}
	for i := range want {
		if math.Abs(params[i]-want[i]) > 1e-12 {
			t.Errorf("params[%d] = %v, want %v", i, params[i], want[i])
		}
	}
}

func TestSGDMomentumAccumulates(t *testing.T) {
	sgd := NewSGDMomentum(0.1, 0.9)
	params := []float64{0}
	grads := []float64{1}

	// First step: v = 1, update = -0.1.
	sgd.Step(params, grads)
	if math.Abs(params[0]+0.1) > 1e-12 {
		t.Fatalf("after first step params[0] = %v, want -0.1", params[0])
	}

	// Second step: v = 0.9 + 1 = 1.9, update = -0.19.
	sgd.Step(params, grads)
	if math.Abs(params[0]+0.29) > 1e-12 {
		t.Errorf("after second step params[0] = %v, want -0.29", params[0])
	}
}

func TestAdamFirstStepMagnitude(t *testing.T) {
	// With bias correction, the first Adam step is ~lr regardless of the
	// gradient magnitude.
	adam := NewAdam(0.001)
	params := []float64{0, 0}
	grads := []float64{100, 1e-4}

	adam.Step(params, grads)

	for i := range params {
		if math.Abs(math.Abs(params[i])-0.001) > 1e-4 {
			t.Errorf("first Adam step moved params[%d] by %v, want ~0.001", i, params[i])
		}
	}
}

func TestAdamKeepsStatePerGroup(t *testing.T) {
	adam := NewAdam(0.01)
	groupA := []float64{0}
	groupB := []float64{0}

	for i := 0; i < 5; i++ {
		adam.Step(groupA, []float64{1})
	}
	adam.Step(groupB, []float64{1})

	// groupB just took its first step; it must not inherit groupA's moments.
	if math.Abs(math.Abs(groupB[0])-0.01) > 1e-3 {
		t.Errorf("fresh group first step = %v, want ~0.01", groupB[0])
	}
}

func TestStepMismatchedLengthsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Step with mismatched lengths should panic")
		}
	}()
	NewSGD(0.1).Step([]float64{1, 2}, []float64{1})
}

func TestStepLR(t *testing.T) {
	sgd := NewSGD(1.0)
	sched := NewStepLR(sgd, 2, 0.5)

	sched.Step()
	if sched.LR() != 1.0 {
		t.Errorf("LR after 1 epoch = %v, want 1.0", sched.LR())
	}
	sched.Step()
	if sched.LR() != 0.5 {
		t.Errorf("LR after 2 epochs = %v, want 0.5", sched.LR())
	}
}

func TestExponentialLR(t *testing.T) {
	sgd := NewSGD(1.0)
	sched := NewExponentialLR(sgd, 0.9)

	for i := 0; i < 3; i++ {
		sched.Step()
	}
	want := math.Pow(0.9, 3)
	if math.Abs(sched.LR()-want) > 1e-12 {
		t.Errorf("LR after 3 epochs = %v, want %v", sched.LR(), want)
	}
}

func TestReduceLROnPlateau(t *testing.T) {
	sgd := NewSGD(1.0)
	sched := NewReduceLROnPlateau(sgd, 0.1, 2, 1e-4, 0.001)

	sched.StepWithLoss(1.0) // new best
	sched.StepWithLoss(1.0) // bad epoch 1
	sched.StepWithLoss(1.0) // bad epoch 2 -> reduce
	if math.Abs(sched.LR()-0.1) > 1e-12 {
		t.Errorf("LR after plateau = %v, want 0.1", sched.LR())
	}

	// Floor at minLR.
	for i := 0; i < 10; i++ {
		sched.StepWithLoss(1.0)
	}
	if sched.LR() < 0.001 {
		t.Errorf("LR went below floor: %v", sched.LR())
	}
}
