// Package loss provides loss functions with analytic gradients.
//
// All functions operate on a single prediction/target pair. Shape
// mismatches are programmer errors and panic; orchestration code is
// expected to validate shapes before reaching these kernels.
package loss

import "math"

// BackwardInPlacer is an optional interface for loss functions that support
// in-place gradient computation to avoid allocations.
type BackwardInPlacer interface {
	BackwardInPlace(yPred, yTrue, grad []float64)
}

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the loss w.r.t. prediction.
	Backward(yPred, yTrue []float64) []float64
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (m MSE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("MSE: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred[i] - yTrue[i]
		sum += diff * diff
	}
	return sum / float64(n)
}

// Backward computes gradient: dL/dy_pred = (2/n) * (y_pred - y_true)
func (m MSE) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	m.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient into a pre-allocated slice.
func (m MSE) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("MSE: slices must have same length")
	}

	factor := 2.0 / float64(n)
	for i := 0; i < n; i++ {
		grad[i] = factor * (yPred[i] - yTrue[i])
	}
}

// CrossEntropy is the softmax cross entropy loss for classification.
// It expects raw logits as predictions and a one-hot target vector;
// the softmax is applied internally for numerical stability.
type CrossEntropy struct{}

// logSumExp computes log(sum(exp(x))) shifted by the max for stability.
func logSumExp(x []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range x {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}

// Forward computes -sum(y_true * log(softmax(y_pred))).
func (c CrossEntropy) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("CrossEntropy: prediction and target must have same length")
	}

	lse := logSumExp(yPred)
	var sum float64
	for i := 0; i < n; i++ {
		sum += yTrue[i] * (lse - yPred[i])
	}
	return sum
}

// Backward computes the combined softmax + cross entropy gradient,
// which simplifies to softmax(y_pred) - y_true.
func (c CrossEntropy) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	c.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient into a pre-allocated slice.
func (c CrossEntropy) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("CrossEntropy: slices must have same length")
	}

	lse := logSumExp(yPred)
	for i := 0; i < n; i++ {
		grad[i] = math.Exp(yPred[i]-lse) - yTrue[i]
	}
}

// BCE (Binary Cross Entropy) loss.
// Requires predictions to be in range (0, 1).
type BCE struct{}

// Forward computes binary cross entropy: -(1/n) * sum(y*log(p) + (1-y)*log(1-p))
func (b BCE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCE: prediction and target must have same length")
	}

	const eps = 1e-10
	var sum float64
	for i := 0; i < n; i++ {
		pred := clamp(yPred[i], eps, 1-eps)
		sum += yTrue[i]*math.Log(pred) + (1.0-yTrue[i])*math.Log(1.0-pred)
	}
	return -sum / float64(n)
}

// Backward computes gradient: (pred - y) / (pred * (1-pred) * n)
func (b BCE) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	b.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient into a pre-allocated slice.
func (b BCE) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("BCE: slices must have same length")
	}

	const eps = 1e-10
	for i := 0; i < n; i++ {
		pred := clamp(yPred[i], eps, 1-eps)
		grad[i] = (pred - yTrue[i]) / (pred * (1.0 - pred) * float64(n))
	}
}

// BCEWithLogits combines BCE loss with sigmoid for numerical stability.
type BCEWithLogits struct{}

// Forward computes BCE with the sigmoid applied internally.
// Uses the stable form max(x, 0) - x*y + log(1 + exp(-|x|)).
func (b BCEWithLogits) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCEWithLogits: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		x := yPred[i]
		y := yTrue[i]
		if x >= 0 {
			sum += math.Log(1+math.Exp(-x)) + x - x*y
		} else {
			sum += -x*y + math.Log(1+math.Exp(x))
		}
	}
	return sum / float64(n)
}

// Backward computes gradient: (sigmoid(x) - y) / n
func (b BCEWithLogits) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	b.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient into a pre-allocated slice.
func (b BCEWithLogits) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("BCEWithLogits: slices must have same length")
	}

	for i := 0; i < n; i++ {
		sigma := 1.0 / (1.0 + math.Exp(-yPred[i]))
		grad[i] = (sigma - yTrue[i]) / float64(n)
	}
}

// KLDiv (Kullback-Leibler divergence) loss between two distributions.
type KLDiv struct{}

// Forward computes sum(y_true * log(y_true / y_pred)) / n
func (k KLDiv) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("KLDiv: prediction and target must have same length")
	}

	const eps = 1e-10
	var sum float64
	for i := 0; i < n; i++ {
		pred := math.Max(yPred[i], eps)
		trueVal := math.Max(yTrue[i], eps)
		sum += trueVal * math.Log(trueVal/pred)
	}
	return sum / float64(n)
}

// Backward computes gradient: -y_true / (y_pred * n)
func (k KLDiv) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	k.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient into a pre-allocated slice.
func (k KLDiv) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("KLDiv: slices must have same length")
	}

	const eps = 1e-10
	for i := 0; i < n; i++ {
		pred := math.Max(yPred[i], eps)
		grad[i] = -yTrue[i] / (pred * float64(n))
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
