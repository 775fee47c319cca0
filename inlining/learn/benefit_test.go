package learn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

func TestTargetBenefit_Variants(t *testing.T) {
	// Execution times are 1.0 (initial), 2.0 and 1.5: the mean is 1.5 and
	// the baseline (geometric mean of initial runs) is 1.0.
	p := sampleProblem(t)
	tests := []struct {
		fn   BenefitFunction
		want []float64
	}{
		{LinearSpeedupOverMean, []float64{1.0 / 3, -1.0 / 3, 0}},
		{LinearSpeedupOverBaseline, []float64{0, -1, -0.5}},
		{LogSpeedupOverMean, []float64{-math.Log(1 / 1.5), -math.Log(2 / 1.5), 0}},
		{LogSpeedupOverBaseline, []float64{0, -math.Log(2), -math.Log(1.5)}},
		{SigmoidSpeedupOverMean, []float64{sigmoid(20.0 / 3), sigmoid(-20.0 / 3), 0.5}},
		{SigmoidSpeedupOverBaseline, []float64{0.5, sigmoid(-20), sigmoid(-10)}},
		{TanhSpeedupOverMean, []float64{math.Tanh(10.0 / 3), math.Tanh(-10.0 / 3), 0}},
		{TanhSpeedupOverBaseline, []float64{0, math.Tanh(-10), math.Tanh(-5)}},
	}
	for _, tt := range tests {
		t.Run(string(tt.fn), func(t *testing.T) {
			got, err := TargetBenefit(tt.fn, p)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestTargetBenefit_FasterRunsScoreHigher(t *testing.T) {
	p := sampleProblem(t)
	for _, name := range BenefitFunctions() {
		got, err := TargetBenefit(BenefitFunction(name), p)
		require.NoError(t, err)
		// run 0 (1.0s) < run 2 (1.5s) < run 1 (2.0s)
		assert.Greater(t, got[0], got[2], name)
		assert.Greater(t, got[2], got[1], name)
	}
}

func TestTargetBenefit_BaselineWithoutInitialRuns_ReturnsError(t *testing.T) {
	p := &problem.Problem{
		ExecutionTimes:       []float64{1, 2},
		ExecutionDirectories: []string{"a/opt_data/0/current", "a/opt_data/1/0"},
	}
	_, err := TargetBenefit(LinearSpeedupOverBaseline, p)
	assert.Error(t, err)

	_, err = TargetBenefit(LinearSpeedupOverMean, p)
	assert.NoError(t, err)
}

func TestBenefitFunction_Valid(t *testing.T) {
	assert.Len(t, BenefitFunctions(), 8)
	for _, name := range BenefitFunctions() {
		assert.True(t, BenefitFunction(name).Valid(), name)
	}
	for _, name := range []string{"", "sigmoid", "cubic_speedup_over_mean", "linear_speedup_over_median"} {
		assert.False(t, BenefitFunction(name).Valid(), name)
	}
}

func TestBaselineExecutionTime_GeometricMean(t *testing.T) {
	p := &problem.Problem{
		ExecutionTimes:       []float64{2, 8, 100},
		ExecutionDirectories: []string{"x/initial/0", "x/initial/1", "x/3/current"},
	}
	got, err := BaselineExecutionTime(p)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)
}
