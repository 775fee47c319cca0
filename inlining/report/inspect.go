package report

import (
	"fmt"
	"io"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// RunInspection compares, for one run, the projected benefit computed by
// matrix multiplication with the one re-derived by masked DFS.
type RunInspection struct {
	Run                int
	ExecutionDirectory string
	ExecutionTime      float64
	TargetBenefit      float64
	ProjectedMatmul    float64
	ProjectedDFS       *float64
	VisitedCount       int
	NumNodes           int
	// Unvisited are participating nodes the DFS did not reach; Orphans are
	// participating nodes beneath a non-participating one.
	Unvisited []int
	Orphans   []int
	// Nodes lists the run's own tree in pre-order.
	Nodes []RunNode
}

// RunNode is one node of an inspected run.
type RunNode struct {
	ID    int
	Depth int
	Path  inlining.PathKey
}

// InspectRun projects the contributions through one run's participation
// mask both ways and lists the run's own tree.
func (m *Model) InspectRun(run int) (*RunInspection, error) {
	p := m.Problem
	if run < 0 || run >= p.NumRuns() {
		return nil, fmt.Errorf("run %d out of range [0, %d)", run, p.NumRuns())
	}

	projector := m.Matrices.Projector(run, m.Contributions, m.HyperParameters.PropagationConfig())
	projector.Describe = p.Describe
	proj, err := projector.Project(m.Matrices.RootID)
	if err != nil {
		return nil, err
	}

	mask := m.Matrices.ParticipationMasks[run]
	ri := &RunInspection{
		Run:                run,
		ExecutionDirectory: p.ExecutionDirectories[run],
		ExecutionTime:      p.ExecutionTimes[run],
		TargetBenefit:      m.Targets[run],
		ProjectedMatmul:    m.Projected()[run],
		ProjectedDFS:       proj.Value,
		NumNodes:           p.NumNodes(),
		Unvisited:          proj.Unvisited,
		Orphans:            proj.Orphans,
	}
	for id := 0; id < mask.NumNodes(); id++ {
		if mask.Participates(id) {
			ri.VisitedCount++
		}
	}

	own, err := p.RunAdjacency(run)
	if err != nil {
		return nil, err
	}
	tree, err := inlining.BuildTree(p.RootID(), own, func(id int) inlining.PathKey {
		path, _ := p.Registry.Path(id)
		return path
	})
	if err != nil {
		return nil, err
	}
	type frame struct {
		t     *inlining.Tree[inlining.PathKey]
		depth int
	}
	stack := []frame{{tree, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ri.Nodes = append(ri.Nodes, RunNode{ID: f.t.ID, Depth: f.depth, Path: f.t.Value})
		for i := len(f.t.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.t.Children[i], f.depth + 1})
		}
	}
	return ri, nil
}

// Write prints the inspection in the order of the report.
func (ri *RunInspection) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	for _, id := range ri.Unvisited {
		ew.printf("DID NOT VISIT %d\n", id)
	}
	ew.printf("--- Information on run %d ---\n", ri.Run)
	ew.printf("Execution directory = %s\n", ri.ExecutionDirectory)
	ew.printf("Target benefit = %g\n", ri.TargetBenefit)
	ew.printf("Execution time = %g\n", ri.ExecutionTime)
	ew.printf("Projected benefit (with matmul) = %g\n", ri.ProjectedMatmul)
	if ri.ProjectedDFS != nil {
		ew.printf("Projected benefit (with DFS) = %g\n", *ri.ProjectedDFS)
	} else {
		ew.printf("Projected benefit (with DFS) = None\n")
	}
	ew.printf("Number of visited nodes = %d\n", ri.VisitedCount)
	ew.printf("Number of nodes in problem = %d\n", ri.NumNodes)
	for _, n := range ri.Nodes {
		ew.printf("%d\t%*s%s\n", n.ID, 2*n.Depth, "", n.Path)
	}
	return ew.err
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
