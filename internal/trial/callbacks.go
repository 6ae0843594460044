package trial

import (
	"fmt"
	"math"
)

// Callback receives notifications at the boundaries of a training run.
// Embed BaseCallback to implement only the hooks you need.
type Callback interface {
	OnTrainBegin(t *Trial)
	OnTrainEnd(t *Trial)
	OnEpochBegin(epoch int, t *Trial)
	OnEpochEnd(epoch int, epochLoss float64, t *Trial)
	OnBatchEnd(batch int, batchLoss float64, t *Trial)
}

// stopper is implemented by callbacks that can end the run early.
type stopper interface {
	ShouldStop() bool
}

// BaseCallback provides no-op implementations of every hook.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(*Trial)             {}
func (BaseCallback) OnTrainEnd(*Trial)               {}
func (BaseCallback) OnEpochBegin(int, *Trial)        {}
func (BaseCallback) OnEpochEnd(int, float64, *Trial) {}
func (BaseCallback) OnBatchEnd(int, float64, *Trial) {}

// EarlyStopping ends the run when the monitored loss has not improved
// by at least Threshold for Patience consecutive epochs. It monitors
// the validation loss when one is available, the epoch loss otherwise.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	best    float64
	numBad  int
	stopped bool
}

// NewEarlyStopping creates an early-stopping callback.
func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{Patience: patience, Threshold: threshold}
}

func (e *EarlyStopping) OnTrainBegin(*Trial) {
	e.best = math.Inf(1)
	e.numBad = 0
	e.stopped = false
}

func (e *EarlyStopping) OnEpochEnd(epoch int, epochLoss float64, t *Trial) {
	monitored := epochLoss
	if vl, ok := t.ValLoss(); ok {
		monitored = vl
	}

	if monitored < e.best-e.Threshold {
		e.best = monitored
		e.numBad = 0
		return
	}
	e.numBad++
	if e.numBad >= e.Patience {
		e.stopped = true
	}
}

// ShouldStop reports whether patience has run out.
func (e *EarlyStopping) ShouldStop() bool { return e.stopped }

// Logger prints epoch progress to stdout every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
}

// NewLogger creates a logger printing every interval epochs.
func NewLogger(interval int) *Logger {
	if interval <= 0 {
		interval = 1
	}
	return &Logger{Interval: interval}
}

func (l *Logger) OnEpochEnd(epoch int, epochLoss float64, t *Trial) {
	if (epoch+1)%l.Interval != 0 {
		return
	}
	line := fmt.Sprintf("epoch %d: loss=%.6f running_loss=%.6f", epoch+1, epochLoss, t.RunningLoss())
	if acc, ok := t.MetricValue("acc"); ok {
		line += fmt.Sprintf(" acc=%.4f", acc)
	}
	if vl, ok := t.ValLoss(); ok {
		line += fmt.Sprintf(" val_loss=%.6f", vl)
	}
	fmt.Println(line)
}

// ModelCheckpoint saves the model parameters whenever the monitored
// loss improves. It monitors validation loss when available, the epoch
// loss otherwise.
type ModelCheckpoint struct {
	BaseCallback
	Filename string

	best float64
}

// NewModelCheckpoint creates a best-only checkpoint callback writing to
// the given file.
func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{Filename: filename}
}

func (m *ModelCheckpoint) OnTrainBegin(*Trial) {
	m.best = math.Inf(1)
}

func (m *ModelCheckpoint) OnEpochEnd(epoch int, epochLoss float64, t *Trial) {
	monitored := epochLoss
	if vl, ok := t.ValLoss(); ok {
		monitored = vl
	}
	if monitored >= m.best {
		return
	}
	m.best = monitored
	if err := SaveParams(t.Model(), m.Filename); err != nil {
		fmt.Printf("checkpoint: failed to save %s: %v\n", m.Filename, err)
	}
}
