package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ecs-vlc/gobearer/gobearer"
	"github.com/ecs-vlc/gobearer/internal/data"
)

func main() {
	epochs := flag.Int("epochs", 10, "number of training epochs")
	batchSize := flag.Int("batch-size", 32, "training batch size")
	lr := flag.Float64("lr", 0.001, "learning rate")
	history := flag.String("history", "", "optional CSV file for training history")
	flag.Parse()

	fmt.Println("=== Glyph Classification Quickstart ===")

	// Synthetic 16x16 glyph images, ten classes, split 80/20.
	train, test := data.Glyphs(1200, 0.15, 42).Split(0.8)
	fmt.Printf("Training samples: %d, test samples: %d\n", train.Len(), test.Len())

	trainLoader, err := gobearer.NewLoader(train, *batchSize, true, 7)
	if err != nil {
		fmt.Printf("Error creating train loader: %v\n", err)
		os.Exit(1)
	}
	testLoader, err := gobearer.NewLoader(test, *batchSize, false, 0)
	if err != nil {
		fmt.Printf("Error creating test loader: %v\n", err)
		os.Exit(1)
	}

	// Small convolutional classifier. The final layer emits raw logits
	// for the cross-entropy criterion.
	side := data.GlyphSize
	model := gobearer.NewSequential(
		gobearer.Conv2D(1, 8, 3, 1, 1, side, side, gobearer.ReLU),
		gobearer.MaxPool2D(8, 2, 2, side, side),
		gobearer.Flatten(8*(side/2)*(side/2)),
		gobearer.Dense(8*(side/2)*(side/2), 64, gobearer.ReLU),
		gobearer.Dropout(0.25, 64),
		gobearer.Dense(64, data.GlyphClasses, gobearer.Linear),
	)
	model.Summary()

	optimizer := gobearer.Adam(*lr)
	scheduler := gobearer.StepLR(optimizer, 5, 0.5)

	callbacks := []gobearer.Callback{
		gobearer.ProgressLogger(1),
		gobearer.EarlyStopping(5, 1e-4),
		&schedulerCallback{scheduler: scheduler},
	}
	if *history != "" {
		callbacks = append(callbacks, gobearer.CSVLogger(*history, false))
	}

	t := gobearer.NewTrial(model, gobearer.CrossEntropy, optimizer,
		gobearer.WithTrainLoader(trainLoader),
		gobearer.WithMetrics(gobearer.CategoricalAccuracy()),
		gobearer.WithCallbacks(callbacks...),
	)

	if err := t.Run(*epochs); err != nil {
		fmt.Printf("Training failed: %v\n", err)
		os.Exit(1)
	}

	acc, err := t.Evaluate(testLoader)
	if err != nil {
		fmt.Printf("Evaluation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nTest accuracy: %.4f (final lr %.5f)\n", acc, scheduler.LR())
}

// schedulerCallback advances the learning rate schedule once per epoch.
type schedulerCallback struct {
	gobearer.BaseCallback
	scheduler gobearer.Scheduler
}

func (s *schedulerCallback) OnEpochEnd(epoch int, epochLoss float64, t *gobearer.Trial) {
	s.scheduler.Step()
}
