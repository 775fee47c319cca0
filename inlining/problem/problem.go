// Package problem holds the Problem aggregate: one batch of runs of the same
// program, their trees flattened into edge lists over a shared id registry,
// together with each run's measured execution time.
package problem

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// Run is one measured execution of the program under a particular set of
// inlining decisions.
type Run struct {
	ExecutionDirectory string
	ExecutionTime      float64
	Tree               *inlining.Node
}

// Problem is the batch-level aggregate handed to the learning stage. All
// per-run slices are indexed by run.
type Problem struct {
	Registry             *inlining.Registry
	Depth                int
	ExecutionTimes       []float64
	ExecutionDirectories []string
	EdgeLists            [][]inlining.Edge
}

// ErrNoRuns is returned when a batch has nothing to formulate.
var ErrNoRuns = errors.New("no runs to formulate")

// Formulate folds a batch of runs into a Problem. Trees are validated and
// measured concurrently, registered sequentially in run order so ids are
// reproducible, then flattened concurrently against the shared registry.
// The root is always id 0.
func Formulate(ctx context.Context, runs []Run) (*Problem, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	depths := make([]int, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := run.Tree.Validate(); err != nil {
				return fmt.Errorf("run %d (%s): %w", i, run.ExecutionDirectory, err)
			}
			if nodes, paths := inlining.CountNodes(run.Tree), len(inlining.CollectUniquePaths(run.Tree)); paths != nodes {
				return fmt.Errorf("run %d (%s): %d nodes share %d paths: %w", i, run.ExecutionDirectory, nodes, paths, inlining.ErrSchema)
			}
			depths[i] = inlining.Depth(run.Tree)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := inlining.NewRegistry()
	reg.Register(inlining.RootPath())
	p := &Problem{
		Registry:             reg,
		ExecutionTimes:       make([]float64, len(runs)),
		ExecutionDirectories: make([]string, len(runs)),
		EdgeLists:            make([][]inlining.Edge, len(runs)),
	}
	for i, run := range runs {
		reg.RegisterTree(run.Tree)
		p.Depth = max(p.Depth, depths[i])
		p.ExecutionTimes[i] = run.ExecutionTime
		p.ExecutionDirectories[i] = run.ExecutionDirectory
	}
	logrus.Debugf("registered %d unique paths over %d runs", reg.Len(), len(runs))

	g, gctx = errgroup.WithContext(ctx)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			edges, err := inlining.FlattenEdges(run.Tree, reg)
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", i, run.ExecutionDirectory, err)
			}
			p.EdgeLists[i] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// NumRuns is the number of runs in the batch.
func (p *Problem) NumRuns() int { return len(p.ExecutionTimes) }

// NumNodes is the size of the shared id space.
func (p *Problem) NumNodes() int { return p.Registry.Len() }

// RootID returns the id of the top-level node.
func (p *Problem) RootID() int {
	id, _ := p.Registry.RootID()
	return id
}

// Adjacency returns the union adjacency list of every run's edges.
func (p *Problem) Adjacency() ([][]int, error) {
	return inlining.AdjacencyFromEdgeLists(p.NumNodes(), p.EdgeLists...)
}

// RunAdjacency returns the adjacency list of one run's own tree.
func (p *Problem) RunAdjacency(run int) ([][]int, error) {
	if run < 0 || run >= p.NumRuns() {
		return nil, fmt.Errorf("run %d out of range [0, %d)", run, p.NumRuns())
	}
	return inlining.AdjacencyFromEdgeLists(p.NumNodes(), p.EdgeLists[run])
}

// Describe labels an id with its path, for log output.
func (p *Problem) Describe(id int) string {
	path, ok := p.Registry.Path(id)
	if !ok {
		return "?"
	}
	return path.String()
}

// Validate checks that the aggregate is internally consistent: per-run
// slices agree in length, the root is registered, and every edge refers to
// a registered id.
func (p *Problem) Validate() error {
	if p.Registry == nil {
		return errors.New("problem has no registry")
	}
	n := p.NumRuns()
	if len(p.ExecutionDirectories) != n || len(p.EdgeLists) != n {
		return fmt.Errorf("per-run data disagree: %d times, %d directories, %d edge lists",
			n, len(p.ExecutionDirectories), len(p.EdgeLists))
	}
	if _, ok := p.Registry.RootID(); !ok {
		return errors.New("registry has no root path")
	}
	for run, edges := range p.EdgeLists {
		for _, e := range edges {
			if e.Src < 0 || e.Src >= p.NumNodes() || e.Dst < 0 || e.Dst >= p.NumNodes() {
				return fmt.Errorf("run %d: edge %d->%d outside [0, %d): %w",
					run, e.Src, e.Dst, p.NumNodes(), inlining.ErrIntegrity)
			}
		}
	}
	return nil
}
