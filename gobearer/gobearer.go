package gobearer

import (
	"github.com/ecs-vlc/gobearer/internal/activations"
	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/layer"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
	"github.com/ecs-vlc/gobearer/internal/trial"
)

// Re-export common types and functions for easier access
type (
	Model      = trial.Model
	Sequential = trial.Sequential
	Trial      = trial.Trial
	Param      = trial.Param
	Metric     = trial.Metric
	Callback   = trial.Callback
	Layer      = layer.Layer
	Optimizer  = opt.Optimizer
	Scheduler  = opt.Scheduler
	Loss       = loss.Loss
	Dataset    = data.Dataset
	Loader     = data.Loader
	Batch      = data.Batch
)

// BaseCallback provides no-op callback hooks for embedding.
type BaseCallback = trial.BaseCallback

// ErrShapeMismatch reports a prediction/target width disagreement.
var ErrShapeMismatch = trial.ErrShapeMismatch

// Trial creation
func NewTrial(model Model, criterion Loss, optimizer Optimizer, opts ...trial.Option) *Trial {
	return trial.New(model, criterion, optimizer, opts...)
}

var (
	WithTrainLoader = trial.WithTrainLoader
	WithValLoader   = trial.WithValLoader
	WithMetrics     = trial.WithMetrics
	WithCallbacks   = trial.WithCallbacks
)

// Model creation
func NewSequential(layers ...Layer) *Sequential {
	return trial.NewSequential(layers...)
}

// Activations
var (
	ReLU    = activations.ReLU{}
	Sigmoid = activations.Sigmoid{}
	Tanh    = activations.Tanh{}
	Linear  = activations.Linear{}
)

func LeakyReLU(alpha float64) activations.Activation {
	return activations.NewLeakyReLU(alpha)
}

// Layers
func Dense(in, out int, act activations.Activation) Layer {
	return layer.NewDense(in, out, act)
}

func Conv2D(inChannels, outChannels, kernelSize, stride, padding, inH, inW int, act activations.Activation) Layer {
	return layer.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, inH, inW, act)
}

func MaxPool2D(channels, kernelSize, stride, inH, inW int) Layer {
	return layer.NewMaxPool2D(channels, kernelSize, stride, inH, inW)
}

func Flatten(size int) Layer {
	return layer.NewFlatten(size)
}

func Dropout(prob float64, size int) Layer {
	return layer.NewDropout(prob, size)
}

// Losses
var (
	MSE           = loss.MSE{}
	CrossEntropy  = loss.CrossEntropy{}
	BCE           = loss.BCE{}
	BCEWithLogits = loss.BCEWithLogits{}
	KLDiv         = loss.KLDiv{}
)

// Optimizers
func SGD(lr float64) Optimizer {
	return opt.NewSGD(lr)
}

func SGDMomentum(lr, momentum float64) Optimizer {
	return opt.NewSGDMomentum(lr, momentum)
}

func Adam(lr float64) Optimizer {
	return opt.NewAdam(lr)
}

// Schedulers
func StepLR(optimizer Optimizer, stepSize int, gamma float64) Scheduler {
	return opt.NewStepLR(optimizer, stepSize, gamma)
}

func ExponentialLR(optimizer Optimizer, gamma float64) Scheduler {
	return opt.NewExponentialLR(optimizer, gamma)
}

func ReduceLROnPlateau(optimizer Optimizer, factor float64, patience int, threshold, minLR float64) Scheduler {
	return opt.NewReduceLROnPlateau(optimizer, factor, patience, threshold, minLR)
}

// Metrics
func RunningLoss(decay float64) Metric {
	return trial.NewRunningLoss(decay)
}

func MeanLoss() Metric {
	return trial.NewMeanLoss()
}

func CategoricalAccuracy() Metric {
	return trial.NewCategoricalAccuracy()
}

// Callbacks
func EarlyStopping(patience int, threshold float64) Callback {
	return trial.NewEarlyStopping(patience, threshold)
}

func ProgressLogger(interval int) Callback {
	return trial.NewLogger(interval)
}

func CSVLogger(filename string, append bool) Callback {
	return trial.NewCSVLogger(filename, append)
}

func ModelCheckpoint(filename string) Callback {
	return trial.NewModelCheckpoint(filename)
}

// Data
func NewDataset(inputs, targets [][]float64) (*Dataset, error) {
	return data.New(inputs, targets)
}

func NewLoader(ds *Dataset, batchSize int, shuffle bool, seed int64) (*Loader, error) {
	return data.NewLoader(ds, batchSize, shuffle, seed)
}

func LoadCSV(filename string, targetCols []int, hasHeader bool) (*Dataset, error) {
	return data.LoadCSV(filename, targetCols, hasHeader)
}

// Checkpoints
func SaveParams(m Model, filename string) error {
	return trial.SaveParams(m, filename)
}

func LoadParams(m Model, filename string) error {
	return trial.LoadParams(m, filename)
}
