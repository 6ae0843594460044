package trial

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
)

// ErrShapeMismatch is returned when a model's output length disagrees
// with the target length. The run stops before any optimizer step for
// the offending batch, leaving parameters as they were.
var ErrShapeMismatch = errors.New("trial: prediction and target shapes differ")

// RunningLossDecay is the smoothing factor of the trial's built-in
// running loss.
const RunningLossDecay = 0.99

// trainer is implemented by models that distinguish train from eval
// mode, such as those containing dropout.
type trainer interface {
	SetTraining(training bool)
}

// Option configures a Trial.
type Option func(*Trial)

// WithTrainLoader sets the training data loader.
func WithTrainLoader(l *data.Loader) Option {
	return func(t *Trial) { t.train = l }
}

// WithValLoader sets a validation loader, evaluated after each epoch.
func WithValLoader(l *data.Loader) Option {
	return func(t *Trial) { t.val = l }
}

// WithMetrics appends metrics accumulated during training epochs.
func WithMetrics(ms ...Metric) Option {
	return func(t *Trial) { t.metrics = append(t.metrics, ms...) }
}

// WithCallbacks appends callbacks observing the run.
func WithCallbacks(cs ...Callback) Option {
	return func(t *Trial) { t.callbacks = append(t.callbacks, cs...) }
}

// Trial wires a model, a criterion and an optimizer into a training and
// evaluation loop. It owns no data; loaders are attached via options.
type Trial struct {
	model     Model
	criterion loss.Loss
	optimizer opt.Optimizer
	train     *data.Loader
	val       *data.Loader
	metrics   []Metric
	callbacks []Callback

	running  *RunningLoss
	valLoss  float64
	hasVal   bool
	training bool

	gradBuf []float64
	predBuf [][]float64
}

// New creates a trial. The running loss metric is always present; extra
// metrics and callbacks come from options.
func New(model Model, criterion loss.Loss, optimizer opt.Optimizer, opts ...Option) *Trial {
	t := &Trial{
		model:     model,
		criterion: criterion,
		optimizer: optimizer,
		running:   NewRunningLoss(RunningLossDecay),
	}
	t.metrics = append(t.metrics, t.running)
	for _, o := range opts {
		o(t)
	}
	return t
}

// Model returns the model under training.
func (t *Trial) Model() Model { return t.model }

// Optimizer returns the optimizer in use.
func (t *Trial) Optimizer() opt.Optimizer { return t.optimizer }

// RunningLoss returns the current smoothed training loss.
func (t *Trial) RunningLoss() float64 { return t.running.Value() }

// Metrics returns the metrics accumulated during training.
func (t *Trial) Metrics() []Metric { return t.metrics }

// MetricValue looks up a training metric by name.
func (t *Trial) MetricValue(name string) (float64, bool) {
	for _, m := range t.metrics {
		if m.Name() == name {
			return m.Value(), true
		}
	}
	return 0, false
}

// ValLoss returns the most recent validation loss and whether a
// validation pass has run.
func (t *Trial) ValLoss() (float64, bool) { return t.valLoss, t.hasVal }

// Run trains for the given number of epochs. Zero epochs is a no-op
// that leaves parameters untouched. An error aborts the run; parameters
// keep the values they had when it occurred.
func (t *Trial) Run(epochs int) error {
	if t.train == nil {
		return errors.New("trial: no training loader attached")
	}
	if epochs < 0 {
		return fmt.Errorf("trial: negative epoch count %d", epochs)
	}
	if epochs == 0 {
		return nil
	}

	t.training = true
	defer func() { t.training = false }()
	if tr, ok := t.model.(trainer); ok {
		tr.SetTraining(true)
		defer tr.SetTraining(false)
	}

	for _, c := range t.callbacks {
		c.OnTrainBegin(t)
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for _, m := range t.metrics {
			m.Reset()
		}
		for _, c := range t.callbacks {
			c.OnEpochBegin(epoch, t)
		}

		t.train.Reset()
		epochLoss := 0.0
		batches := 0
		for {
			batch, ok := t.train.Next()
			if !ok {
				break
			}
			batchLoss, err := t.trainBatch(batch)
			if err != nil {
				return err
			}
			epochLoss += batchLoss
			batches++

			for _, m := range t.metrics {
				m.Update(t.predBuf, batch.Targets, batchLoss)
			}
			for _, c := range t.callbacks {
				c.OnBatchEnd(batches-1, batchLoss, t)
			}
		}
		if batches > 0 {
			epochLoss /= float64(batches)
		}

		if t.val != nil {
			vl, err := t.meanLoss(t.val)
			if err != nil {
				return err
			}
			t.valLoss, t.hasVal = vl, true
		}

		stop := false
		for _, c := range t.callbacks {
			c.OnEpochEnd(epoch, epochLoss, t)
			if s, ok := c.(stopper); ok && s.ShouldStop() {
				stop = true
			}
		}
		if stop {
			break
		}
	}

	for _, c := range t.callbacks {
		c.OnTrainEnd(t)
	}
	return nil
}

// trainBatch runs one optimization step over a batch and returns the
// mean sample loss. Predictions are kept in predBuf for the metrics.
func (t *Trial) trainBatch(batch data.Batch) (float64, error) {
	t.model.ZeroGrad()
	t.predBuf = t.predBuf[:0]

	total := 0.0
	for i := range batch.Inputs {
		pred := t.model.Forward(batch.Inputs[i])
		target := batch.Targets[i]
		if len(pred) != len(target) {
			return 0, fmt.Errorf("%w: model produced %d values, target has %d",
				ErrShapeMismatch, len(pred), len(target))
		}
		t.predBuf = append(t.predBuf, append([]float64(nil), pred...))

		total += t.criterion.Forward(pred, target)

		if cap(t.gradBuf) < len(pred) {
			t.gradBuf = make([]float64, len(pred))
		}
		t.gradBuf = t.gradBuf[:len(pred)]
		if bp, ok := t.criterion.(loss.BackwardInPlacer); ok {
			bp.BackwardInPlace(pred, target, t.gradBuf)
		} else {
			copy(t.gradBuf, t.criterion.Backward(pred, target))
		}
		t.model.Backward(t.gradBuf)
	}

	// Gradients accumulated over the batch become means before the step.
	inv := 1.0 / float64(batch.Size())
	for _, p := range t.model.Parameters() {
		floats.Scale(inv, p.Grads)
		t.optimizer.Step(p.Values, p.Grads)
	}

	return total * inv, nil
}

// Evaluate runs an inference-only pass and returns arg-max accuracy.
// Parameters are not modified. When called from a callback during a
// run, the model's training mode is restored afterwards.
func (t *Trial) Evaluate(l *data.Loader) (float64, error) {
	if l == nil {
		return 0, errors.New("trial: no loader given to Evaluate")
	}
	if tr, ok := t.model.(trainer); ok {
		tr.SetTraining(false)
		defer tr.SetTraining(t.training)
	}

	acc := NewCategoricalAccuracy()
	l.Reset()
	for {
		batch, ok := l.Next()
		if !ok {
			break
		}
		preds := make([][]float64, 0, batch.Size())
		for i := range batch.Inputs {
			pred := t.model.Forward(batch.Inputs[i])
			if len(pred) != len(batch.Targets[i]) {
				return 0, fmt.Errorf("%w: model produced %d values, target has %d",
					ErrShapeMismatch, len(pred), len(batch.Targets[i]))
			}
			preds = append(preds, append([]float64(nil), pred...))
		}
		acc.Update(preds, batch.Targets, 0)
	}
	return acc.Value(), nil
}

// meanLoss computes the mean sample loss over a loader without touching
// gradients or parameters.
func (t *Trial) meanLoss(l *data.Loader) (float64, error) {
	if tr, ok := t.model.(trainer); ok {
		tr.SetTraining(false)
		defer tr.SetTraining(t.training)
	}

	total := 0.0
	n := 0
	l.Reset()
	for {
		batch, ok := l.Next()
		if !ok {
			break
		}
		for i := range batch.Inputs {
			pred := t.model.Forward(batch.Inputs[i])
			if len(pred) != len(batch.Targets[i]) {
				return 0, fmt.Errorf("%w: model produced %d values, target has %d",
					ErrShapeMismatch, len(pred), len(batch.Targets[i]))
			}
			total += t.criterion.Forward(pred, batch.Targets[i])
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}
