// Hand-written training and evaluation loops for the glyph task, for
// comparison with the trial runner in cmd/quickstart.
package main

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/ecs-vlc/gobearer/internal/activations"
	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/layer"
	"github.com/ecs-vlc/gobearer/internal/loss"
	"github.com/ecs-vlc/gobearer/internal/opt"
	"github.com/ecs-vlc/gobearer/internal/trial"
)

const (
	epochs    = 10
	batchSize = 32
	lr        = 0.001
)

func main() {
	fmt.Println("=== Glyph Classification (hand-written loops) ===")

	train, test := data.Glyphs(1200, 0.15, 42).Split(0.8)

	trainLoader, err := data.NewLoader(train, batchSize, true, 7)
	if err != nil {
		fmt.Printf("Error creating train loader: %v\n", err)
		os.Exit(1)
	}

	side := data.GlyphSize
	model := trial.NewSequential(
		layer.NewConv2D(1, 8, 3, 1, 1, side, side, activations.ReLU{}),
		layer.NewMaxPool2D(8, 2, 2, side, side),
		layer.NewFlatten(8*(side/2)*(side/2)),
		layer.NewDense(8*(side/2)*(side/2), 64, activations.ReLU{}),
		layer.NewDense(64, data.GlyphClasses, activations.Linear{}),
	)
	criterion := loss.CrossEntropy{}
	optimizer := opt.NewAdam(lr)

	for epoch := 0; epoch < epochs; epoch++ {
		trainLoader.Reset()
		running := 0.0
		epochLoss := 0.0
		batches := 0
		for {
			batch, ok := trainLoader.Next()
			if !ok {
				break
			}

			model.ZeroGrad()
			batchLoss := 0.0
			for i := range batch.Inputs {
				pred := model.Forward(batch.Inputs[i])
				batchLoss += criterion.Forward(pred, batch.Targets[i])
				model.Backward(criterion.Backward(pred, batch.Targets[i]))
			}
			batchLoss /= float64(batch.Size())

			inv := 1.0 / float64(batch.Size())
			for _, p := range model.Parameters() {
				floats.Scale(inv, p.Grads)
				optimizer.Step(p.Values, p.Grads)
			}

			running = 0.99*running + 0.01*batchLoss
			epochLoss += batchLoss
			batches++
		}
		fmt.Printf("Epoch %d, Loss: %.6f, Running: %.6f\n",
			epoch+1, epochLoss/float64(batches), running)
	}

	// Evaluation: arg-max accuracy over the held-out split.
	correct := 0
	for i := 0; i < test.Len(); i++ {
		x, y := test.At(i)
		pred := model.Forward(x)
		if floats.MaxIdx(pred) == floats.MaxIdx(y) {
			correct++
		}
	}
	fmt.Printf("\nTest accuracy: %.4f (%d/%d)\n",
		float64(correct)/float64(test.Len()), correct, test.Len())
}
