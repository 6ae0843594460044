package trial

import "gonum.org/v1/gonum/floats"

// Metric accumulates a statistic over one pass of data. The runner calls
// Reset at the start of every epoch or evaluation, Update once per batch
// with the batch predictions, targets and mean loss, and reads Value at
// any point between updates.
type Metric interface {
	Reset()
	Update(preds, targets [][]float64, batchLoss float64)
	Value() float64
	Name() string
}

// RunningLoss smooths batch losses with an exponentially weighted moving
// average. It resets to zero each epoch, so early readings underestimate
// the true mean and warm up over roughly 1/(1-decay) batches.
type RunningLoss struct {
	decay float64
	value float64
}

// NewRunningLoss creates a running loss with the given decay, typically 0.99.
func NewRunningLoss(decay float64) *RunningLoss {
	return &RunningLoss{decay: decay}
}

func (r *RunningLoss) Reset() { r.value = 0 }

func (r *RunningLoss) Update(_, _ [][]float64, batchLoss float64) {
	r.value = r.decay*r.value + (1-r.decay)*batchLoss
}

func (r *RunningLoss) Value() float64 { return r.value }
func (r *RunningLoss) Name() string  { return "running_loss" }

// MeanLoss averages batch losses over the pass.
type MeanLoss struct {
	sum   float64
	count int
}

func NewMeanLoss() *MeanLoss { return &MeanLoss{} }

func (m *MeanLoss) Reset() { m.sum, m.count = 0, 0 }

func (m *MeanLoss) Update(_, _ [][]float64, batchLoss float64) {
	m.sum += batchLoss
	m.count++
}

func (m *MeanLoss) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *MeanLoss) Name() string { return "loss" }

// CategoricalAccuracy counts samples whose arg-max prediction matches the
// arg-max target. One-wide outputs degenerate to always-correct under
// arg-max, so thresholded binary problems should use a two-wide head.
type CategoricalAccuracy struct {
	correct int
	total   int
}

func NewCategoricalAccuracy() *CategoricalAccuracy { return &CategoricalAccuracy{} }

func (c *CategoricalAccuracy) Reset() { c.correct, c.total = 0, 0 }

func (c *CategoricalAccuracy) Update(preds, targets [][]float64, _ float64) {
	for i := range preds {
		if floats.MaxIdx(preds[i]) == floats.MaxIdx(targets[i]) {
			c.correct++
		}
		c.total++
	}
}

func (c *CategoricalAccuracy) Value() float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.correct) / float64(c.total)
}

func (c *CategoricalAccuracy) Name() string { return "acc" }
