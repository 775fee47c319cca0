package problem

import (
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// Summary aggregates statistics of a Problem.
type Summary struct {
	NumRuns           int
	NumNodes          int
	Depth             int
	NumEdges          int
	EdgesByKind       map[inlining.Kind]int
	InitialRuns       int // runs whose directory belongs to the initial sweep
	MeanExecutionTime float64
	MinExecutionTime  float64
	MaxExecutionTime  float64
}

// Summarize computes aggregate statistics of a Problem.
// Safe for nil or empty problems (returns zero-value fields).
func Summarize(p *Problem) *Summary {
	summary := &Summary{
		EdgesByKind: make(map[inlining.Kind]int),
	}
	if p == nil || p.Registry == nil {
		return summary
	}

	summary.NumRuns = p.NumRuns()
	summary.NumNodes = p.NumNodes()
	summary.Depth = p.Depth
	for _, edges := range p.EdgeLists {
		summary.NumEdges += len(edges)
		for _, e := range edges {
			summary.EdgesByKind[e.Kind]++
		}
	}
	for _, dir := range p.ExecutionDirectories {
		if strings.Contains(dir, "initial") {
			summary.InitialRuns++
		}
	}

	if len(p.ExecutionTimes) > 0 {
		summary.MeanExecutionTime = stat.Mean(p.ExecutionTimes, nil)
		summary.MinExecutionTime = floats.Min(p.ExecutionTimes)
		summary.MaxExecutionTime = floats.Max(p.ExecutionTimes)
	}

	return summary
}
