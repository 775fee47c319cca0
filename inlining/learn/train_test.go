package learn

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTrain_RidgeInterpolatesFewRuns(t *testing.T) {
	// GIVEN three runs over ten features and almost no regularisation
	p := sampleProblem(t)
	hp := HyperParameters{DecayFactor: 0.5, RidgeFactor: 1e-8, BenefitFunction: LinearSpeedupOverMean}

	// WHEN trained
	sol, err := Train(context.Background(), p, hp, Ridge{Alpha: hp.RidgeFactor})
	require.NoError(t, err)

	// THEN the benefit relations reproduce the targets
	require.Len(t, sol.Contributions, 10)
	var fitted mat.VecDense
	fitted.MulVec(sol.Matrices.BenefitRelations, mat.NewVecDense(len(sol.Contributions), sol.Contributions))
	assert.InDeltaSlice(t, sol.Targets, fitted.RawVector().Data, 1e-5)

	// and slots no run ever selected get no weight
	counts := sol.Matrices.ParticipationCount()
	for i, c := range counts {
		if c == 0 {
			assert.Zero(t, sol.Contributions[i], "slot %d", i)
		}
	}
}

func TestTrain_InvalidHyperParameters_ReturnsError(t *testing.T) {
	p := sampleProblem(t)
	_, err := Train(context.Background(), p, HyperParameters{DecayFactor: -1, BenefitFunction: LinearSpeedupOverMean}, Ridge{Alpha: 1})
	assert.Error(t, err)
	_, err = Train(context.Background(), p, HyperParameters{DecayFactor: 1, BenefitFunction: "nope"}, Ridge{Alpha: 1})
	assert.Error(t, err)
}

func TestContributions_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := []float64{0, -1.5, 3.25e-12, 42}

	require.NoError(t, SaveContributions(dir, w))
	got, err := LoadContributions(dir)
	require.NoError(t, err)

	assert.Equal(t, w, got)
}

func TestLoadContributions_RejectsGaps(t *testing.T) {
	dir := t.TempDir()
	content := "index,weight\n0,1\n2,3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ContributionsFile), []byte(content), 0644))

	_, err := LoadContributions(dir)
	assert.Error(t, err)
}

func TestHyperParameters_DirectoryName(t *testing.T) {
	hp := HyperParameters{DecayFactor: 0.5, RidgeFactor: 0.01, BenefitFunction: LinearSpeedupOverMean}
	assert.Equal(t, "decay-0.500000-ridge-0.010000-benefit-linear_speedup_over_mean", hp.DirectoryName())
	assert.Equal(t, filepath.Join("p", "ridge", hp.DirectoryName()), ExperimentDirectory("p", ModelRidge, hp))

	hp.NormaliseWithNumChildren = true
	assert.Equal(t, filepath.Join("p", "lasso-normalised", hp.DirectoryName()), ExperimentDirectory("p", ModelLasso, hp))
}

func TestHyperParameters_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	hp := HyperParameters{DecayFactor: 0.9, RidgeFactor: 0.1, BenefitFunction: TanhSpeedupOverBaseline, NormaliseWithNumChildren: true}

	require.NoError(t, SaveHyperParameters(dir, hp))
	got, err := LoadHyperParameters(dir)
	require.NoError(t, err)
	assert.Equal(t, hp, got)
}

func TestLoadHyperParameters_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "decay_factor: 1\nridge_factor: 1\nbenefit_function: linear_speedup_over_mean\nalpha: 3\n",
		"unknown function": "decay_factor: 1\nridge_factor: 1\nbenefit_function: quadratic\n",
		"negative ridge":   "decay_factor: 1\nridge_factor: -1\nbenefit_function: linear_speedup_over_mean\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, HyperParametersFile), []byte(content), 0644))
			_, err := LoadHyperParameters(dir)
			assert.Error(t, err)
		})
	}
}
