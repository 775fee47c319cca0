package learn

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// ProblemMatrices is the linear form of a problem. Row r of
// BenefitRelations holds, for every node of run r, the weight with which the
// node's inline (column 2*id) or no-inline (column 2*id+1) contribution
// enters the run's benefit. ParticipationMasks[r] marks the same non-zero
// pattern, so projecting contributions through a run's mask by DFS gives
// the same value as the row-vector product.
type ProblemMatrices struct {
	BenefitRelations   *mat.Dense
	ParticipationMasks []inlining.Mask
	Adjacency          [][]int
	RootID             int
}

// NumNodes is the size of the id space the matrices are built over.
func (pm *ProblemMatrices) NumNodes() int { return len(pm.Adjacency) }

// ParticipationCount returns, per column, the number of runs that selected
// that slot.
func (pm *ProblemMatrices) ParticipationCount() []int {
	counts := make([]int, 2*pm.NumNodes())
	for _, m := range pm.ParticipationMasks {
		for i, on := range m {
			if on {
				counts[i]++
			}
		}
	}
	return counts
}

// Projector returns a masked projector for one run over the union tree.
func (pm *ProblemMatrices) Projector(run int, contributions []float64, cfg inlining.PropagationConfig) *inlining.Projector {
	return &inlining.Projector{
		Adjacency:     pm.Adjacency,
		Contributions: contributions,
		Mask:          pm.ParticipationMasks[run],
		Config:        cfg,
	}
}

// ConstructProblemMatrices derives the benefit relations of every run. Each
// run's own tree is walked from the root with coefficient 1; a child's
// coefficient is its parent's times the decay factor, divided by the
// parent's child count when normalising. Apply nodes fill their no-inline
// slot; every other node fills its inline slot.
func ConstructProblemMatrices(ctx context.Context, p *problem.Problem, hp HyperParameters) (*ProblemMatrices, error) {
	if p.NumRuns() == 0 || p.NumNodes() == 0 {
		return nil, fmt.Errorf("empty problem: %d runs over %d nodes", p.NumRuns(), p.NumNodes())
	}
	adjacency, err := p.Adjacency()
	if err != nil {
		return nil, err
	}

	n := p.NumNodes()
	pm := &ProblemMatrices{
		BenefitRelations:   mat.NewDense(p.NumRuns(), 2*n, nil),
		ParticipationMasks: make([]inlining.Mask, p.NumRuns()),
		Adjacency:          adjacency,
		RootID:             p.RootID(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for run, edges := range p.EdgeLists {
		run, edges := run, edges
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mask, err := runRelations(pm.BenefitRelations.RawRowView(run), n, pm.RootID, edges, hp)
			if err != nil {
				return fmt.Errorf("run %d (%s): %w", run, p.ExecutionDirectories[run], err)
			}
			pm.ParticipationMasks[run] = mask
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logrus.Debugf("constructed %dx%d benefit relations", p.NumRuns(), 2*n)
	return pm, nil
}

// runRelations fills one row of benefit relations from a run's edge list.
func runRelations(row []float64, numNodes, root int, edges []inlining.Edge, hp HyperParameters) (inlining.Mask, error) {
	const op = "benefit relations"
	children := make(map[int][]int, len(edges))
	kinds := map[int]inlining.Kind{root: inlining.KindTopLevel}
	for _, e := range edges {
		if e.Src < 0 || e.Src >= numNodes || e.Dst < 0 || e.Dst >= numNodes {
			return nil, &inlining.IntegrityError{Op: op, ID: e.Dst, Reason: fmt.Sprintf("edge %d->%d out of range", e.Src, e.Dst)}
		}
		if _, dup := kinds[e.Dst]; dup {
			return nil, &inlining.IntegrityError{Op: op, ID: e.Dst, Reason: "node has more than one parent"}
		}
		children[e.Src] = append(children[e.Src], e.Dst)
		kinds[e.Dst] = e.Kind
	}

	type frame struct {
		id   int
		coef float64
	}
	mask := inlining.NewMask(numNodes)
	stack := []frame{{root, 1}}
	visited := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		if kinds[f.id] == inlining.KindApply {
			if len(children[f.id]) > 0 {
				return nil, &inlining.IntegrityError{Op: op, ID: f.id, Reason: "apply node has children"}
			}
			row[2*f.id+1] += f.coef
			mask.SetNoInline(f.id)
			continue
		}
		row[2*f.id] += f.coef
		mask.SetInline(f.id)

		kids := children[f.id]
		childCoef := f.coef * hp.DecayFactor
		if hp.NormaliseWithNumChildren && len(kids) > 0 {
			childCoef /= float64(len(kids))
		}
		for _, c := range kids {
			stack = append(stack, frame{c, childCoef})
		}
	}
	if visited != len(edges)+1 {
		return nil, &inlining.IntegrityError{Op: op, ID: root,
			Reason: fmt.Sprintf("%d of %d edges unreachable from the root", len(edges)+1-visited, len(edges))}
	}
	return mask, nil
}
