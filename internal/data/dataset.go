// Package data provides in-memory datasets and restartable batch loaders.
package data

import (
	"errors"
	"fmt"
	"math/rand"
)

// Dataset is an ordered collection of (input, target) pairs.
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64
}

// New creates a dataset, validating that inputs and targets are parallel.
func New(inputs, targets [][]float64) (*Dataset, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("data: %d inputs but %d targets", len(inputs), len(targets))
	}
	return &Dataset{Inputs: inputs, Targets: targets}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Inputs) }

// At returns the i-th sample.
func (d *Dataset) At(i int) ([]float64, []float64) {
	return d.Inputs[i], d.Targets[i]
}

// Split splits the dataset at the given ratio, returning (head, tail).
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}
	idx := int(float64(d.Len()) * ratio)
	head := &Dataset{Inputs: d.Inputs[:idx], Targets: d.Targets[:idx]}
	tail := &Dataset{Inputs: d.Inputs[idx:], Targets: d.Targets[idx:]}
	return head, tail
}

// Batch is an ordered pair of parallel input and target slices, produced
// by a Loader per iteration step and consumed immediately.
type Batch struct {
	Inputs  [][]float64
	Targets [][]float64
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int { return len(b.Inputs) }

// Loader yields a dataset in fixed-size batches. Iteration is finite and
// restartable: Reset rewinds to the start and, when shuffling is enabled,
// draws a fresh permutation. The last batch may be short.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
	pos       int
}

// NewLoader creates a batch loader over the dataset.
// A seed is only consulted when shuffle is true.
func NewLoader(ds *Dataset, batchSize int, shuffle bool, seed int64) (*Loader, error) {
	if batchSize <= 0 {
		return nil, errors.New("data: batch size must be > 0")
	}

	l := &Loader{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		order:     make([]int, ds.Len()),
	}
	if shuffle {
		l.rng = rand.New(rand.NewSource(seed))
	}
	l.Reset()
	return l, nil
}

// Reset rewinds the loader; with shuffling enabled a new permutation is drawn.
func (l *Loader) Reset() {
	for i := range l.order {
		l.order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next returns the next batch, or ok=false when the pass is exhausted.
func (l *Loader) Next() (Batch, bool) {
	if l.pos >= len(l.order) {
		return Batch{}, false
	}

	end := l.pos + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}

	batch := Batch{
		Inputs:  make([][]float64, 0, end-l.pos),
		Targets: make([][]float64, 0, end-l.pos),
	}
	for _, idx := range l.order[l.pos:end] {
		x, y := l.ds.At(idx)
		batch.Inputs = append(batch.Inputs, x)
		batch.Targets = append(batch.Targets, y)
	}
	l.pos = end
	return batch, true
}

// Batches returns the number of batches in one full pass.
func (l *Loader) Batches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}
