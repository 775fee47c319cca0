// Package report inspects a trained model: the learned reward of every
// node, the optimal decision tree those rewards imply, fit statistics, and
// the per-run consistency between matrix and DFS projections.
package report

import (
	"context"
	"fmt"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/learn"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

// Model is a problem together with the contributions learned for it.
type Model struct {
	Problem         *problem.Problem
	HyperParameters learn.HyperParameters
	Matrices        *learn.ProblemMatrices
	Targets         []float64
	Contributions   []float64
}

// NewModel rebuilds the matrices and targets w was trained on.
func NewModel(ctx context.Context, p *problem.Problem, hp learn.HyperParameters, w []float64) (*Model, error) {
	pm, err := learn.ConstructProblemMatrices(ctx, p, hp)
	if err != nil {
		return nil, fmt.Errorf("constructing problem matrices: %w", err)
	}
	targets, err := learn.TargetBenefit(hp.BenefitFunction, p)
	if err != nil {
		return nil, fmt.Errorf("computing target benefit: %w", err)
	}
	if _, cols := pm.BenefitRelations.Dims(); len(w) != cols {
		return nil, fmt.Errorf("%d contributions for %d features", len(w), cols)
	}
	return &Model{Problem: p, HyperParameters: hp, Matrices: pm, Targets: targets, Contributions: w}, nil
}

// NodeReward is the learned reward of one node. A branch no run ever took
// has no reward.
type NodeReward struct {
	Inline   *float64
	NoInline *float64
}

// NodeRewards returns every node's learned rewards, indexed by id.
func (m *Model) NodeRewards() []NodeReward {
	counts := m.Matrices.ParticipationCount()
	out := make([]NodeReward, m.Matrices.NumNodes())
	for id := range out {
		if counts[2*id] > 0 {
			v := m.Contributions[2*id]
			out[id].Inline = &v
		}
		if counts[2*id+1] > 0 {
			v := m.Contributions[2*id+1]
			out[id].NoInline = &v
		}
	}
	return out
}

// RewardTree rebuilds the union tree of the batch with each node's path and
// learned rewards.
func (m *Model) RewardTree() (*inlining.Tree[inlining.Reward], error) {
	rewards := m.NodeRewards()
	return inlining.BuildTree(m.Matrices.RootID, m.Matrices.Adjacency, func(id int) inlining.Reward {
		path, _ := m.Problem.Registry.Path(id)
		return inlining.Reward{Path: path, Inline: rewards[id].Inline, NoInline: rewards[id].NoInline}
	})
}

// OptimalDecision propagates the learned rewards through the union tree and
// returns the optimal decision tree with its value.
func (m *Model) OptimalDecision() (*inlining.Propagation, error) {
	tree, err := m.RewardTree()
	if err != nil {
		return nil, fmt.Errorf("building reward tree: %w", err)
	}
	return inlining.Propagate(tree, m.HyperParameters.PropagationConfig())
}
