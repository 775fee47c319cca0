package learn

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Fitter solves a linear regression without intercept: it finds weights w
// with features * w ~ targets.
type Fitter interface {
	Fit(features mat.Matrix, targets []float64) ([]float64, error)
}

// Fitter names accepted by NewFitter.
const (
	ModelRidge = "ridge"
	ModelLasso = "lasso"
)

// ValidModels lists the fitter names NewFitter accepts.
func ValidModels() []string { return []string{ModelRidge, ModelLasso} }

// NewFitter returns the named fitter regularised by alpha.
func NewFitter(model string, alpha float64) (Fitter, error) {
	switch model {
	case ModelRidge:
		return Ridge{Alpha: alpha}, nil
	case ModelLasso:
		return Lasso{Alpha: alpha, MaxIter: 1000, Tol: 1e-4}, nil
	}
	return nil, fmt.Errorf("unknown model %q; valid options: %v", model, ValidModels())
}

// ErrSingular is returned when the regularised system has no unique solution.
var ErrSingular = errors.New("system is singular; use a positive regularisation factor")

func checkShapes(features mat.Matrix, targets []float64) (int, int, error) {
	n, d := features.Dims()
	if n != len(targets) {
		return 0, 0, fmt.Errorf("%d feature rows but %d targets", n, len(targets))
	}
	if n == 0 || d == 0 {
		return 0, 0, fmt.Errorf("empty regression: %d rows, %d features", n, d)
	}
	return n, d, nil
}

// Ridge minimises ||y - Aw||^2 + Alpha*||w||^2. With at least as many rows
// as columns it solves the normal equations (AᵀA + αI)w = Aᵀy; otherwise it
// solves the dual (AAᵀ + αI)c = y and returns w = Aᵀc, which keeps the
// factorised system at the smaller of the two sizes.
type Ridge struct {
	Alpha float64
}

func (r Ridge) Fit(features mat.Matrix, targets []float64) ([]float64, error) {
	n, d, err := checkShapes(features, targets)
	if err != nil {
		return nil, err
	}
	y := mat.NewVecDense(n, append([]float64(nil), targets...))

	if n >= d {
		var gram mat.SymDense
		gram.SymOuterK(1, features.T())
		addDiagonal(&gram, r.Alpha)
		var chol mat.Cholesky
		if ok := chol.Factorize(&gram); !ok {
			return nil, ErrSingular
		}
		var rhs mat.VecDense
		rhs.MulVec(features.T(), y)
		w := mat.NewVecDense(d, nil)
		if err := chol.SolveVecTo(w, &rhs); err != nil {
			return nil, solveError("solving normal equations", err)
		}
		return w.RawVector().Data, nil
	}

	var kernel mat.SymDense
	kernel.SymOuterK(1, features)
	addDiagonal(&kernel, r.Alpha)
	var chol mat.Cholesky
	if ok := chol.Factorize(&kernel); !ok {
		return nil, ErrSingular
	}
	c := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(c, y); err != nil {
		return nil, solveError("solving dual system", err)
	}
	w := mat.NewVecDense(d, nil)
	w.MulVec(features.T(), c)
	return w.RawVector().Data, nil
}

// solveError reports an ill-conditioned solve as ErrSingular. A rank-deficient
// system can still factorise through rounding and only fail here.
func solveError(op string, err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return fmt.Errorf("%s: %w (condition number %g)", op, ErrSingular, float64(cond))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func addDiagonal(s *mat.SymDense, alpha float64) {
	for i := 0; i < s.SymmetricDim(); i++ {
		s.SetSym(i, i, s.At(i, i)+alpha)
	}
}

// Lasso minimises (1/2n)*||y - Aw||^2 + Alpha*||w||_1 by cyclic coordinate
// descent, stopping when no weight moves more than Tol in a sweep.
type Lasso struct {
	Alpha   float64
	MaxIter int
	Tol     float64
}

func (l Lasso) Fit(features mat.Matrix, targets []float64) ([]float64, error) {
	n, d, err := checkShapes(features, targets)
	if err != nil {
		return nil, err
	}
	cols := make([][]float64, d)
	norms := make([]float64, d)
	for j := range cols {
		cols[j] = mat.Col(nil, j, features)
		norms[j] = floats.Dot(cols[j], cols[j]) / float64(n)
	}

	w := make([]float64, d)
	residual := append([]float64(nil), targets...)
	for iter := 0; iter < l.MaxIter; iter++ {
		maxDelta := 0.0
		for j, col := range cols {
			if norms[j] == 0 {
				continue
			}
			rho := floats.Dot(col, residual)/float64(n) + norms[j]*w[j]
			next := softThreshold(rho, l.Alpha) / norms[j]
			if delta := next - w[j]; delta != 0 {
				floats.AddScaled(residual, -delta, col)
				maxDelta = math.Max(maxDelta, math.Abs(delta))
				w[j] = next
			}
		}
		if maxDelta < l.Tol {
			logrus.Debugf("lasso converged after %d sweeps", iter+1)
			return w, nil
		}
	}
	logrus.Warnf("lasso did not converge within %d sweeps", l.MaxIter)
	return w, nil
}

func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	}
	return 0
}
