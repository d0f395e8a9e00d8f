package opportunities

import (
	"errors"
	"fmt"

	"github.com/modelfleuriet/valuation/pkg/formulas"
	"gonum.org/v1/gonum/mat"
)

// ErrNoSamples is returned when fitting a scaler on an empty matrix.
var ErrNoSamples = errors.New("no samples to fit")

// ScalerState holds the per-feature mean and scale learned by Fit.
type ScalerState struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// Fit learns zero-mean unit-variance scaling for every column of x using the
// population standard deviation. Constant columns get a scale of 1.
func Fit(x *mat.Dense) (ScalerState, error) {
	if x == nil || x.IsEmpty() {
		return ScalerState{}, ErrNoSamples
	}

	_, cols := x.Dims()
	state := ScalerState{
		Means:  make([]float64, cols),
		Scales: make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		mean, std := formulas.PopMeanStdDev(mat.Col(nil, j, x))
		if std == 0 {
			std = 1
		}
		state.Means[j] = mean
		state.Scales[j] = std
	}
	return state, nil
}

// Transform applies a fitted scaling to x and returns a new matrix.
func Transform(state ScalerState, x *mat.Dense) (*mat.Dense, error) {
	if x == nil || x.IsEmpty() {
		return nil, ErrNoSamples
	}

	rows, cols := x.Dims()
	if cols != len(state.Means) || cols != len(state.Scales) {
		return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(state.Means), cols)
	}

	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - state.Means[j]) / state.Scales[j]
	}, x)
	return out, nil
}
