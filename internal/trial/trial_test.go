package trial

import (
	"errors"
	"math"
	"testing"

	"github.com/ecs-vlc/gobearer/internal/activations"
	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/layer"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
)

// andDataset is the AND gate with two-wide one-hot targets.
func andDataset(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.New(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[][]float64{{1, 0}, {1, 0}, {1, 0}, {0, 1}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func smallModel() *Sequential {
	return NewSequential(
		layer.NewDense(2, 8, activations.Tanh{}),
		layer.NewDense(8, 2, activations.Linear{}),
	)
}

func newTrainLoader(t *testing.T, ds *data.Dataset, batchSize int) *data.Loader {
	t.Helper()
	l, err := data.NewLoader(ds, batchSize, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRunZeroEpochsLeavesParamsUntouched(t *testing.T) {
	model := smallModel()
	before := CopyParams(model)

	tr := New(model, loss.CrossEntropy{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, andDataset(t), 2)))
	if err := tr.Run(0); err != nil {
		t.Fatal(err)
	}

	after := CopyParams(model)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("param %d changed after Run(0): %v -> %v", i, before[i], after[i])
		}
	}
}

func TestRunShapeMismatch(t *testing.T) {
	// Model outputs 2 values, targets are 3 wide.
	ds, err := data.New(
		[][]float64{{0, 0}, {1, 1}},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}

	model := smallModel()
	before := CopyParams(model)

	tr := New(model, loss.CrossEntropy{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, ds, 2)))
	err = tr.Run(1)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Run = %v, want ErrShapeMismatch", err)
	}

	after := CopyParams(model)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("param %d changed despite shape mismatch", i)
		}
	}
}

func TestRunNegativeEpochs(t *testing.T) {
	tr := New(smallModel(), loss.CrossEntropy{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, andDataset(t), 2)))
	if err := tr.Run(-1); err == nil {
		t.Error("Run(-1) should fail")
	}
}

func TestRunWithoutLoader(t *testing.T) {
	tr := New(smallModel(), loss.CrossEntropy{}, opt.NewSGD(0.1))
	if err := tr.Run(1); err == nil {
		t.Error("Run without a training loader should fail")
	}
}

// runningProbe records the running loss and batch loss seen on the
// first batch of every epoch.
type runningProbe struct {
	BaseCallback
	firstRunning []float64
	firstLoss    []float64
}

func (p *runningProbe) OnBatchEnd(batch int, batchLoss float64, t *Trial) {
	if batch == 0 {
		p.firstRunning = append(p.firstRunning, t.RunningLoss())
		p.firstLoss = append(p.firstLoss, batchLoss)
	}
}

func TestRunningLossResetsEachEpoch(t *testing.T) {
	probe := &runningProbe{}
	tr := New(smallModel(), loss.CrossEntropy{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, andDataset(t), 1)),
		WithCallbacks(probe))
	if err := tr.Run(3); err != nil {
		t.Fatal(err)
	}

	if len(probe.firstRunning) != 3 {
		t.Fatalf("probe saw %d epochs, want 3", len(probe.firstRunning))
	}
	for e := range probe.firstRunning {
		want := (1 - RunningLossDecay) * probe.firstLoss[e]
		if math.Abs(probe.firstRunning[e]-want) > 1e-12 {
			t.Errorf("epoch %d first-batch running loss = %v, want %v",
				e, probe.firstRunning[e], want)
		}
	}
}

func TestRunIsReproducible(t *testing.T) {
	train := func() []float64 {
		ds := data.Blobs(40, 2, 2, 0.3, 11)
		l, err := data.NewLoader(ds, 8, true, 5)
		if err != nil {
			t.Fatal(err)
		}
		model := smallModel()
		tr := New(model, loss.CrossEntropy{}, opt.NewSGD(0.1), WithTrainLoader(l))
		if err := tr.Run(3); err != nil {
			t.Fatal(err)
		}
		return CopyParams(model)
	}

	a := train()
	b := train()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("param %d differs between identical runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	ds := andDataset(t)
	l := newTrainLoader(t, ds, 4)
	model := smallModel()
	tr := New(model, loss.CrossEntropy{}, opt.NewSGD(0.5),
		WithTrainLoader(l), WithMetrics(NewMeanLoss()))

	if err := tr.Run(1); err != nil {
		t.Fatal(err)
	}
	initial, _ := tr.MetricValue("loss")

	if err := tr.Run(200); err != nil {
		t.Fatal(err)
	}
	final, _ := tr.MetricValue("loss")

	if final >= initial {
		t.Errorf("loss did not decrease: %v -> %v", initial, final)
	}

	acc, err := tr.Evaluate(l)
	if err != nil {
		t.Fatal(err)
	}
	if acc != 1 {
		t.Errorf("accuracy after training = %v, want 1", acc)
	}
}

func TestEvaluateBoundsAndNoMutation(t *testing.T) {
	ds := data.Blobs(30, 3, 2, 0.5, 3)
	l := newTrainLoader(t, ds, 7)

	model := NewSequential(
		layer.NewDense(2, 6, activations.Tanh{}),
		layer.NewDense(6, 3, activations.Linear{}),
	)
	tr := New(model, loss.CrossEntropy{}, opt.NewSGD(0.1))

	before := CopyParams(model)
	acc, err := tr.Evaluate(l)
	if err != nil {
		t.Fatal(err)
	}
	if acc < 0 || acc > 1 {
		t.Errorf("accuracy = %v, want within [0, 1]", acc)
	}

	after := CopyParams(model)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("param %d changed during Evaluate", i)
		}
	}
}

func TestEvaluateNilLoader(t *testing.T) {
	tr := New(smallModel(), loss.CrossEntropy{}, opt.NewSGD(0.1))
	if _, err := tr.Evaluate(nil); err == nil {
		t.Error("Evaluate(nil) should fail")
	}
}

func TestValidationLossTracked(t *testing.T) {
	ds := andDataset(t)
	tr := New(smallModel(), loss.CrossEntropy{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, ds, 2)),
		WithValLoader(newTrainLoader(t, ds, 2)))

	if _, ok := tr.ValLoss(); ok {
		t.Fatal("ValLoss reported before any epoch")
	}
	if err := tr.Run(1); err != nil {
		t.Fatal(err)
	}
	vl, ok := tr.ValLoss()
	if !ok {
		t.Fatal("ValLoss not reported after epoch with validation loader")
	}
	if vl <= 0 {
		t.Errorf("validation loss = %v, want > 0", vl)
	}
}

// midRunEval evaluates from inside a run and records whether dropout is
// active again on the forward pass that follows.
type midRunEval struct {
	BaseCallback
	loader         *data.Loader
	dropoutActive  bool
	evaluateFailed error
}

func (m *midRunEval) OnEpochEnd(epoch int, _ float64, t *Trial) {
	if epoch != 0 {
		return
	}
	if _, err := t.Evaluate(m.loader); err != nil {
		m.evaluateFailed = err
		return
	}

	ones := make([]float64, 16)
	for i := range ones {
		ones[i] = 1
	}
	for _, v := range t.Model().Forward(ones) {
		if v == 0 {
			m.dropoutActive = true
			return
		}
	}
}

func TestEvaluateRestoresTrainingModeMidRun(t *testing.T) {
	inputs := make([][]float64, 4)
	targets := make([][]float64, 4)
	for i := range inputs {
		row := make([]float64, 16)
		for j := range row {
			row[j] = 1
		}
		inputs[i] = row
		targets[i] = row
	}
	ds, err := data.New(inputs, targets)
	if err != nil {
		t.Fatal(err)
	}

	model := NewSequential(layer.NewDropout(0.9, 16))
	cb := &midRunEval{loader: newTrainLoader(t, ds, 2)}
	tr := New(model, loss.MSE{}, opt.NewSGD(0.1),
		WithTrainLoader(newTrainLoader(t, ds, 2)),
		WithCallbacks(cb))

	if err := tr.Run(2); err != nil {
		t.Fatal(err)
	}
	if cb.evaluateFailed != nil {
		t.Fatal(cb.evaluateFailed)
	}
	if !cb.dropoutActive {
		t.Error("dropout inactive after mid-run Evaluate; training mode not restored")
	}

	// Outside a run, Evaluate leaves the model in inference mode.
	if _, err := tr.Evaluate(cb.loader); err != nil {
		t.Fatal(err)
	}
	ones := make([]float64, 16)
	for i := range ones {
		ones[i] = 1
	}
	for i, v := range model.Forward(ones) {
		if v != 1 {
			t.Fatalf("output %d = %v after post-run Evaluate, want passthrough", i, v)
		}
	}
}

func TestRestoreParamsRoundTrip(t *testing.T) {
	model := smallModel()
	snapshot := CopyParams(model)

	// Perturb, then restore.
	for _, p := range model.Parameters() {
		for i := range p.Values {
			p.Values[i] += 1
		}
	}
	if err := RestoreParams(model, snapshot); err != nil {
		t.Fatal(err)
	}

	restored := CopyParams(model)
	for i := range snapshot {
		if restored[i] != snapshot[i] {
			t.Fatalf("param %d not restored: %v vs %v", i, restored[i], snapshot[i])
		}
	}

	if err := RestoreParams(model, snapshot[:3]); err == nil {
		t.Error("RestoreParams with short snapshot should fail")
	}
}
