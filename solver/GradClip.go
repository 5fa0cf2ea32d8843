package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// ClipGradNorm rescales the gradients of model in place so that their
// global L2 norm is at most maxNorm. The gradients are left untouched
// when their norm is already within maxNorm or when maxNorm <= 0.
func ClipGradNorm(model []G.ValueGrad, maxNorm float64) error {
	if maxNorm <= 0 {
		return nil
	}

	grads := make([][]float64, 0, len(model))
	total := 0.0
	for _, learnable := range model {
		grad, err := learnable.Grad()
		if err != nil {
			return fmt.Errorf("clipGradNorm: could not get gradient: %v",
				err)
		}

		data, ok := grad.Data().([]float64)
		if !ok {
			return fmt.Errorf("clipGradNorm: expected []float64 gradient "+
				"but got %T", grad.Data())
		}

		norm := floats.Norm(data, 2.0)
		total += norm * norm
		grads = append(grads, data)
	}

	total = math.Sqrt(total)
	if total <= maxNorm {
		return nil
	}

	scale := maxNorm / (total + 1e-6)
	for _, grad := range grads {
		floats.Scale(scale, grad)
	}

	return nil
}
