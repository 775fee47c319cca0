package learn

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// BenefitFunction names a mapping from execution time to regression target.
// Faster runs always map to larger targets.
type BenefitFunction string

const (
	SigmoidSpeedupOverMean     BenefitFunction = "sigmoid_speedup_over_mean"
	LinearSpeedupOverMean      BenefitFunction = "linear_speedup_over_mean"
	LogSpeedupOverMean         BenefitFunction = "log_speedup_over_mean"
	TanhSpeedupOverMean        BenefitFunction = "tanh_speedup_over_mean"
	SigmoidSpeedupOverBaseline BenefitFunction = "sigmoid_speedup_over_baseline"
	LinearSpeedupOverBaseline  BenefitFunction = "linear_speedup_over_baseline"
	LogSpeedupOverBaseline     BenefitFunction = "log_speedup_over_baseline"
	TanhSpeedupOverBaseline    BenefitFunction = "tanh_speedup_over_baseline"
)

// InitialRunMarker identifies runs of the initial (baseline) sweep by
// their execution directory.
const InitialRunMarker = "initial"

type speedup func(t, baseline float64) float64

var speedups = map[string]speedup{
	"sigmoid": func(t, b float64) float64 { return sigmoid(-20 * (t - b) / b) },
	"linear":  func(t, b float64) float64 { return -(t - b) / b },
	"log":     func(t, b float64) float64 { return -math.Log(t / b) },
	"tanh":    func(t, b float64) float64 { return math.Tanh(-10 * (t - b) / b) },
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// BenefitFunctions lists every valid benefit function, sorted.
func BenefitFunctions() []string {
	var names []string
	for shape := range speedups {
		names = append(names, shape+"_speedup_over_mean", shape+"_speedup_over_baseline")
	}
	sort.Strings(names)
	return names
}

// Valid reports whether b names a known benefit function.
func (b BenefitFunction) Valid() bool {
	_, _, err := b.split()
	return err == nil
}

func (b BenefitFunction) split() (speedup, string, error) {
	shape, over, ok := strings.Cut(string(b), "_speedup_over_")
	if !ok {
		return nil, "", fmt.Errorf("unknown benefit function %q", b)
	}
	f, ok := speedups[shape]
	if !ok || (over != "mean" && over != "baseline") {
		return nil, "", fmt.Errorf("unknown benefit function %q", b)
	}
	return f, over, nil
}

// TargetBenefit maps every run's execution time to its regression target.
// The "mean" variants are relative to the arithmetic mean of all execution
// times; the "baseline" variants to the geometric mean of the initial runs.
func TargetBenefit(b BenefitFunction, p *problem.Problem) ([]float64, error) {
	f, over, err := b.split()
	if err != nil {
		return nil, err
	}
	if p.NumRuns() == 0 {
		return nil, fmt.Errorf("no execution times")
	}
	var baseline float64
	switch over {
	case "mean":
		baseline = stat.Mean(p.ExecutionTimes, nil)
	case "baseline":
		baseline, err = BaselineExecutionTime(p)
		if err != nil {
			return nil, err
		}
	}
	if baseline <= 0 {
		return nil, fmt.Errorf("baseline execution time must be positive, got %v", baseline)
	}

	targets := make([]float64, p.NumRuns())
	for i, t := range p.ExecutionTimes {
		targets[i] = f(t, baseline)
	}
	return targets, nil
}

// BaselineExecutionTime is the geometric mean execution time of the runs
// whose directory marks them as part of the initial sweep.
func BaselineExecutionTime(p *problem.Problem) (float64, error) {
	var times []float64
	for i, dir := range p.ExecutionDirectories {
		if strings.Contains(dir, InitialRunMarker) {
			times = append(times, p.ExecutionTimes[i])
		}
	}
	if len(times) == 0 {
		return 0, fmt.Errorf("no %s runs to take a baseline from", InitialRunMarker)
	}
	for _, t := range times {
		if t <= 0 {
			return 0, fmt.Errorf("initial run with non-positive execution time %v", t)
		}
	}
	baseline := stat.GeometricMean(times, nil)
	logrus.Infof("Geometric  mean initial time = %f", baseline)
	logrus.Infof("Arithmetic mean initial time = %f", stat.Mean(times, nil))
	logrus.Infof("Arithmetic mean time over everything = %f", stat.Mean(p.ExecutionTimes, nil))
	return baseline, nil
}
