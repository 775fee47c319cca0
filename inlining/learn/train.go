package learn

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// ContributionsFile holds the learned weight vector of an experiment.
const ContributionsFile = "contributions.csv"

var contributionsColumns = []string{"index", "weight"}

// Solution is a trained model together with the matrices and targets it
// was trained on.
type Solution struct {
	Matrices      *ProblemMatrices
	Targets       []float64
	Contributions []float64
}

// PropagationConfig returns the propagation settings implied by hp.
func (hp HyperParameters) PropagationConfig() inlining.PropagationConfig {
	return inlining.PropagationConfig{
		DecayFactor:              hp.DecayFactor,
		NormaliseWithNumChildren: hp.NormaliseWithNumChildren,
	}
}

// ExperimentName is the per-model directory under a problem directory.
func ExperimentName(model string, normalise bool) string {
	if normalise {
		return model + "-normalised"
	}
	return model
}

// ExperimentDirectory is where a model trained with hp is stored.
func ExperimentDirectory(problemDir, model string, hp HyperParameters) string {
	return filepath.Join(problemDir, ExperimentName(model, hp.NormaliseWithNumChildren), hp.DirectoryName())
}

// Train builds the problem matrices and target benefits for hp and fits
// the benefit relations to the targets.
func Train(ctx context.Context, p *problem.Problem, hp HyperParameters, fitter Fitter) (*Solution, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	pm, err := ConstructProblemMatrices(ctx, p, hp)
	if err != nil {
		return nil, fmt.Errorf("constructing problem matrices: %w", err)
	}
	targets, err := TargetBenefit(hp.BenefitFunction, p)
	if err != nil {
		return nil, fmt.Errorf("computing target benefit: %w", err)
	}

	rows, cols := pm.BenefitRelations.Dims()
	logrus.Infof("Fitting %d runs over %d features", rows, cols)
	logrus.Infof("  decay factor = %.6f", hp.DecayFactor)
	logrus.Infof("  ridge factor (aka regularisation) = %.6f", hp.RidgeFactor)
	logrus.Infof("  benefit function = %s", hp.BenefitFunction)

	w, err := fitter.Fit(pm.BenefitRelations, targets)
	if err != nil {
		return nil, fmt.Errorf("fitting contributions: %w", err)
	}
	if len(w) != cols {
		return nil, fmt.Errorf("fitter returned %d weights for %d features", len(w), cols)
	}
	return &Solution{Matrices: pm, Targets: targets, Contributions: w}, nil
}

// SaveContributions writes the weight vector to dir/contributions.csv.
func SaveContributions(dir string, w []float64) error {
	file, err := os.Create(filepath.Join(dir, ContributionsFile))
	if err != nil {
		return fmt.Errorf("creating contributions file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(contributionsColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, v := range w {
		if err := writer.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("writing contribution %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing contributions: %w", err)
	}
	return file.Close()
}

// LoadContributions reads dir/contributions.csv. Indices must be dense and
// in order.
func LoadContributions(dir string) ([]float64, error) {
	file, err := os.Open(filepath.Join(dir, ContributionsFile))
	if err != nil {
		return nil, fmt.Errorf("opening contributions: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(contributionsColumns)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	var w []float64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading contributions: %w", err)
		}
		idx, err := strconv.Atoi(row[0])
		if err != nil || idx != len(w) {
			return nil, fmt.Errorf("contribution index %q, want %d", row[0], len(w))
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("contribution %d: %w", idx, err)
		}
		w = append(w, v)
	}
	return w, nil
}
