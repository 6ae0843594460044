// Throughput benchmark for the layer kernels and the training loop,
// with a report of the hardware it ran on.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/klauspost/cpuid/v2"

	"github.com/ecs-vlc/gobearer/internal/activations"
	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/layer"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
	"github.com/ecs-vlc/gobearer/internal/trial"
)

func main() {
	fmt.Println("=== Hardware ===")
	fmt.Printf("CPU: %s\n", cpuid.CPU.BrandName)
	fmt.Printf("Cores: %d physical, %d logical\n",
		cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
	fmt.Printf("Cache line: %d bytes\n", cpuid.CPU.CacheLine)
	fmt.Printf("AVX2: %v, FMA3: %v\n",
		cpuid.CPU.Supports(cpuid.AVX2), cpuid.CPU.Supports(cpuid.FMA3))
	fmt.Printf("GOMAXPROCS: %d\n\n", runtime.GOMAXPROCS(0))

	benchDense()
	benchConv()
	benchTrainingLoop()
}

func benchDense() {
	d := layer.NewDense(256, 256, activations.ReLU{})
	x := make([]float64, 256)
	for i := range x {
		x[i] = float64(i) / 256
	}

	const iters = 20000
	start := time.Now()
	for i := 0; i < iters; i++ {
		d.Forward(x)
	}
	elapsed := time.Since(start)
	fmt.Printf("Dense 256x256 forward: %d iters in %v (%.0f/s)\n",
		iters, elapsed, float64(iters)/elapsed.Seconds())
}

func benchConv() {
	side := data.GlyphSize
	c := layer.NewConv2D(1, 8, 3, 1, 1, side, side, activations.ReLU{})
	x := make([]float64, side*side)
	for i := range x {
		x[i] = float64(i%7) / 7
	}

	const iters = 5000
	start := time.Now()
	for i := 0; i < iters; i++ {
		c.Forward(x)
	}
	elapsed := time.Since(start)
	fmt.Printf("Conv2D 1->8 3x3 on %dx%d forward: %d iters in %v (%.0f/s)\n",
		side, side, iters, elapsed, float64(iters)/elapsed.Seconds())
}

func benchTrainingLoop() {
	ds := data.Blobs(512, 4, 16, 0.4, 42)
	loader, err := data.NewLoader(ds, 32, true, 1)
	if err != nil {
		fmt.Printf("Error creating loader: %v\n", err)
		return
	}

	model := trial.NewSequential(
		layer.NewDense(16, 64, activations.Tanh{}),
		layer.NewDense(64, 4, activations.Linear{}),
	)
	t := trial.New(model, loss.CrossEntropy{}, opt.NewAdam(0.001),
		trial.WithTrainLoader(loader))

	const epochs = 20
	start := time.Now()
	if err := t.Run(epochs); err != nil {
		fmt.Printf("Training failed: %v\n", err)
		return
	}
	elapsed := time.Since(start)
	samples := epochs * ds.Len()
	fmt.Printf("Training loop: %d samples in %v (%.0f samples/s)\n",
		samples, elapsed, float64(samples)/elapsed.Seconds())
}
