// Direct function optimisation with the trial runner: the "model" is a
// point in the plane and the "criterion" is the Himmelblau function, so
// every optimizer step moves the point downhill.
package main

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/ecs-vlc/gobearer/internal/data"
	"github.com/ecs-vlc/gobearer/internal/opt"
	"github.com/ecs-vlc/gobearer/internal/trial"
)

// point is a trainable 2-d coordinate.
type point struct {
	values []float64
	grads  []float64
}

func newPoint(x, y float64) *point {
	return &point{values: []float64{x, y}, grads: make([]float64, 2)}
}

func (p *point) Forward(_ []float64) []float64 {
	out := make([]float64, 2)
	copy(out, p.values)
	return out
}

func (p *point) Backward(grad []float64) []float64 {
	p.grads[0] += grad[0]
	p.grads[1] += grad[1]
	return nil
}

func (p *point) ZeroGrad() {
	p.grads[0], p.grads[1] = 0, 0
}

func (p *point) Parameters() []trial.Param {
	return []trial.Param{{Values: p.values, Grads: p.grads}}
}

// himmelblau is f(x,y) = (x^2+y-11)^2 + (x+y^2-7)^2, with four global
// minima at value zero.
func himmelblau(v []float64) float64 {
	x, y := v[0], v[1]
	a := x*x + y - 11
	b := x + y*y - 7
	return a*a + b*b
}

// himmelblauLoss treats the prediction as the point to evaluate; the
// target is ignored.
type himmelblauLoss struct{}

func (himmelblauLoss) Forward(pred, _ []float64) float64 {
	return himmelblau(pred)
}

func (himmelblauLoss) Backward(pred, _ []float64) []float64 {
	x, y := pred[0], pred[1]
	a := x*x + y - 11
	b := x + y*y - 7
	return []float64{
		4*a*x + 2*b,
		2*a + 4*b*y,
	}
}

func main() {
	fmt.Println("=== Himmelblau Function Optimisation ===")

	p := newPoint(0, 0)

	// Sanity-check the analytic gradient against finite differences.
	grad := make([]float64, 2)
	fd.Gradient(grad, himmelblau, p.values, nil)
	analytic := himmelblauLoss{}.Backward(p.values, nil)
	for i := range grad {
		if math.Abs(grad[i]-analytic[i]) > 1e-4 {
			fmt.Printf("Gradient check failed at %d: analytic %v, numeric %v\n",
				i, analytic[i], grad[i])
			os.Exit(1)
		}
	}
	fmt.Println("Analytic gradient matches finite differences")

	// One dummy sample per step; inputs and targets are placeholders.
	ds, err := data.New([][]float64{{0}}, [][]float64{{0, 0}})
	if err != nil {
		fmt.Printf("Error building dataset: %v\n", err)
		os.Exit(1)
	}
	loader, err := data.NewLoader(ds, 1, false, 0)
	if err != nil {
		fmt.Printf("Error creating loader: %v\n", err)
		os.Exit(1)
	}

	t := trial.New(p, himmelblauLoss{}, opt.NewSGD(0.01),
		trial.WithTrainLoader(loader),
		trial.WithCallbacks(trial.NewLogger(100)),
	)
	if err := t.Run(1000); err != nil {
		fmt.Printf("Optimisation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nReached (%.4f, %.4f), f = %.8f\n",
		p.values[0], p.values[1], himmelblau(p.values))
	if himmelblau(p.values) < 1e-4 {
		fmt.Println("Converged to a global minimum")
	}
}
