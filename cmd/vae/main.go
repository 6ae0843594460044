// Variational autoencoder on the synthetic glyph images, implemented as
// a custom model driven by the trial runner. The reconstruction term
// comes from the criterion; the KL term and its gradients are applied
// inside the model's backward pass.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/ecs-vlc/gobearer/internal/activations"
	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/layer"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
	"github.com/ecs-vlc/gobearer/internal/trial"
)

const (
	latentDim = 8
	hiddenDim = 64
	epochs    = 15
	batchSize = 32
	lr        = 0.001
)

// vae is an encoder with Gaussian reparameterisation and a decoder.
type vae struct {
	encoder *layer.Dense
	muHead  *layer.Dense
	lvHead  *layer.Dense
	dec1    *layer.Dense
	dec2    *layer.Dense

	rng *rand.Rand

	// BCE averages over pixels, so the KL term is weighted 1/inputDim
	// to keep the two losses on the same scale.
	klScale float64

	mu, logvar, eps []float64
	lastKL          float64
}

func newVAE(inputDim int, seed int64) *vae {
	return &vae{
		klScale: 1 / float64(inputDim),
		encoder: layer.NewDense(inputDim, hiddenDim, activations.ReLU{}),
		muHead:  layer.NewDense(hiddenDim, latentDim, activations.Linear{}),
		lvHead:  layer.NewDense(hiddenDim, latentDim, activations.Linear{}),
		dec1:    layer.NewDense(latentDim, hiddenDim, activations.ReLU{}),
		dec2:    layer.NewDense(hiddenDim, inputDim, activations.Sigmoid{}),
		rng:     rand.New(rand.NewSource(seed)),
		mu:      make([]float64, latentDim),
		logvar:  make([]float64, latentDim),
		eps:     make([]float64, latentDim),
	}
}

func (v *vae) layers() []layer.Layer {
	return []layer.Layer{v.encoder, v.muHead, v.lvHead, v.dec1, v.dec2}
}

func (v *vae) Forward(x []float64) []float64 {
	h := v.encoder.Forward(x)
	copy(v.mu, v.muHead.Forward(h))
	copy(v.logvar, v.lvHead.Forward(h))

	// z = mu + sigma*eps with sigma = exp(logvar/2).
	z := make([]float64, latentDim)
	kl := 0.0
	for i := range z {
		v.eps[i] = v.rng.NormFloat64()
		z[i] = v.mu[i] + math.Exp(0.5*v.logvar[i])*v.eps[i]
		kl += -0.5 * (1 + v.logvar[i] - v.mu[i]*v.mu[i] - math.Exp(v.logvar[i]))
	}
	v.lastKL = kl * v.klScale

	return v.dec2.Forward(v.dec1.Forward(z))
}

func (v *vae) Backward(grad []float64) []float64 {
	gz := v.dec1.Backward(v.dec2.Backward(grad))

	gmu := make([]float64, latentDim)
	glv := make([]float64, latentDim)
	for i := range gz {
		// Reparameterisation path plus the weighted KL term's gradients.
		gmu[i] = gz[i] + v.mu[i]*v.klScale
		glv[i] = gz[i]*v.eps[i]*0.5*math.Exp(0.5*v.logvar[i]) + 0.5*(math.Exp(v.logvar[i])-1)*v.klScale
	}

	gh := v.muHead.Backward(gmu)
	ghLV := v.lvHead.Backward(glv)
	sum := make([]float64, len(gh))
	for i := range sum {
		sum[i] = gh[i] + ghLV[i]
	}
	return v.encoder.Backward(sum)
}

func (v *vae) ZeroGrad() {
	for _, l := range v.layers() {
		l.ZeroGrad()
	}
}

func (v *vae) Parameters() []trial.Param {
	var params []trial.Param
	for _, l := range v.layers() {
		params = append(params, trial.Param{Values: l.Params(), Grads: l.Gradients()})
	}
	return params
}

// LastKL returns the weighted KL term of the most recent forward pass.
func (v *vae) LastKL() float64 { return v.lastKL }

// klMetric averages the model's per-sample KL term over an epoch.
type klMetric struct {
	model *vae
	sum   float64
	count int
}

func (k *klMetric) Reset() { k.sum, k.count = 0, 0 }

func (k *klMetric) Update(preds, _ [][]float64, _ float64) {
	// One batch, one reading: the KL of the batch's last sample is a
	// cheap proxy that tracks the trend well enough for logging.
	k.sum += k.model.LastKL()
	k.count++
}

func (k *klMetric) Value() float64 {
	if k.count == 0 {
		return 0
	}
	return k.sum / float64(k.count)
}

func (k *klMetric) Name() string { return "kl" }

func main() {
	fmt.Println("=== Glyph VAE ===")

	glyphs := data.Glyphs(800, 0.1, 42)
	// Autoencoding: targets are the inputs themselves.
	ds, err := data.New(glyphs.Inputs, glyphs.Inputs)
	if err != nil {
		fmt.Printf("Error building dataset: %v\n", err)
		os.Exit(1)
	}
	loader, err := data.NewLoader(ds, batchSize, true, 7)
	if err != nil {
		fmt.Printf("Error creating loader: %v\n", err)
		os.Exit(1)
	}

	model := newVAE(data.GlyphSize*data.GlyphSize, 3)
	kl := &klMetric{model: model}

	t := trial.New(model, loss.BCE{}, opt.NewAdam(lr),
		trial.WithTrainLoader(loader),
		trial.WithMetrics(kl),
		trial.WithCallbacks(trial.NewLogger(1)),
	)
	if err := t.Run(epochs); err != nil {
		fmt.Printf("Training failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nFinal running reconstruction loss: %.6f\n", t.RunningLoss())
	fmt.Printf("Final mean KL: %.6f\n", kl.Value())

	// Reconstruct a few samples and report per-pixel error.
	for i := 0; i < 3; i++ {
		x, _ := ds.At(i)
		recon := model.Forward(x)
		var mae float64
		for j := range x {
			mae += math.Abs(recon[j] - x[j])
		}
		fmt.Printf("Sample %d mean absolute reconstruction error: %.4f\n",
			i, mae/float64(len(x)))
	}
}
