package report

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// OptInfo summarises how well the contributions fit the targets.
type OptInfo struct {
	MeanSquaredError float64
	MinProjected     float64
	MaxProjected     float64
	MinSquaredError  float64
	MaxSquaredError  float64
}

// Projected returns the benefit each run is projected to have by matrix
// multiplication.
func (m *Model) Projected() []float64 {
	var projected mat.VecDense
	projected.MulVec(m.Matrices.BenefitRelations, mat.NewVecDense(len(m.Contributions), m.Contributions))
	return projected.RawVector().Data
}

// OptInfo computes fit statistics over every run.
func (m *Model) OptInfo() OptInfo {
	projected := m.Projected()
	squared := make([]float64, len(projected))
	floats.SubTo(squared, m.Targets, projected)
	floats.Mul(squared, squared)
	return OptInfo{
		MeanSquaredError: stat.Mean(squared, nil),
		MinProjected:     floats.Min(projected),
		MaxProjected:     floats.Max(projected),
		MinSquaredError:  floats.Min(squared),
		MaxSquaredError:  floats.Max(squared),
	}
}

// Write prints the statistics one per line.
func (o OptInfo) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Mean squared error: %g\nMinimum projected: %g\nMaximum projected: %g\nMinimum error: %g\nMaximum error: %g\n",
		o.MeanSquaredError, o.MinProjected, o.MaxProjected, o.MinSquaredError, o.MaxSquaredError)
	return err
}
