package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inlining-analysis/inlining-analysis/inlining"
	"github.com/inlining-analysis/inlining-analysis/inlining/internal/testutil"
	"github.com/inlining-analysis/inlining-analysis/inlining/learn"
	"github.com/inlining-analysis/inlining-analysis/inlining/problem"
)

var sampleHyperParameters = learn.HyperParameters{
	DecayFactor:     0.5,
	RidgeFactor:     1e-8,
	BenefitFunction: learn.LinearSpeedupOverMean,
}

// sampleProblem registers ids in pre-order of the first run:
// 0 root, 1 main, 2 f at [1], 3 g at [1 0], 4 h at [2].
func sampleProblem(t *testing.T) *problem.Problem {
	t.Helper()
	runs := []problem.Run{
		{ExecutionDirectory: "exp/opt_data/initial/0", ExecutionTime: 1.0, Tree: testutil.MustRelabel(t, testutil.InlinedRawTree())},
		{ExecutionDirectory: "exp/opt_data/0/current", ExecutionTime: 2.0, Tree: testutil.MustRelabel(t, testutil.NotInlinedRawTree())},
		{ExecutionDirectory: "exp/opt_data/0/0", ExecutionTime: 1.5, Tree: testutil.MustRelabel(t, testutil.BothInlinedRawTree())},
	}
	p, err := problem.Formulate(context.Background(), runs)
	require.NoError(t, err)
	return p
}

// sampleModel uses hand-picked contributions. Slots no run selects
// (root and main no-inline, g inline) are zero.
func sampleModel(t *testing.T) *Model {
	t.Helper()
	w := []float64{
		0, 0, // root
		0, 0, // main
		1, 0, // f
		0, 2, // g
		3, 1, // h
	}
	m, err := NewModel(context.Background(), sampleProblem(t), sampleHyperParameters, w)
	require.NoError(t, err)
	return m
}

func TestNewModel_WrongContributionCount_ReturnsError(t *testing.T) {
	_, err := NewModel(context.Background(), sampleProblem(t), sampleHyperParameters, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestNodeRewards_OnlyObservedSlots(t *testing.T) {
	// GIVEN a model
	m := sampleModel(t)

	// WHEN rewards are read back
	got := m.NodeRewards()

	// THEN slots no run selected have no reward
	require.Len(t, got, 5)
	assert.Nil(t, got[0].NoInline)
	assert.Nil(t, got[1].NoInline)
	assert.Nil(t, got[3].Inline)
	require.NotNil(t, got[3].NoInline)
	assert.Equal(t, 2.0, *got[3].NoInline)
	require.NotNil(t, got[4].Inline)
	assert.Equal(t, 3.0, *got[4].Inline)
}

func TestOptimalDecision_PropagatesLearnedRewards(t *testing.T) {
	// GIVEN a model
	m := sampleModel(t)

	// WHEN the optimal decision is derived
	prop, err := m.OptimalDecision()
	require.NoError(t, err)

	// THEN g, whose inline branch was never observed, stays a call,
	// and the root value is 0.5 * (0.5 * ((1 + 0.5*2) + 3))
	assert.NoError(t, prop.Tree.Validate())
	testutil.AssertFloat64Equal(t, "root value", 1.25, prop.RootValue(), 1e-12)
	path, _ := m.Problem.Registry.Path(3)
	assert.Equal(t, inlining.KindApply, prop.Outcomes[path].Decision)
	path, _ = m.Problem.Registry.Path(4)
	assert.Equal(t, inlining.KindInlined, prop.Outcomes[path].Decision)
}

func TestRewardReport(t *testing.T) {
	// GIVEN a model
	m := sampleModel(t)

	// WHEN the reward report is built
	entries, err := m.RewardReport()
	require.NoError(t, err)

	// THEN every id has an entry carrying its long-term inline value
	require.Len(t, entries, 5)
	assert.True(t, entries[0].Path.IsRoot())
	require.NotNil(t, entries[0].InlineReward)
	require.NotNil(t, entries[0].InlineReward.LongTerm)
	testutil.AssertFloat64Equal(t, "root long term", 1.25, *entries[0].InlineReward.LongTerm, 1e-12)
	require.NotNil(t, entries[2].InlineReward)
	testutil.AssertFloat64Equal(t, "f long term", 2, *entries[2].InlineReward.LongTerm, 1e-12)
	assert.Nil(t, entries[3].InlineReward)
	assert.Equal(t, 2.0, *entries[3].NoInlineReward)

	var buf bytes.Buffer
	require.NoError(t, WriteRewardReport(&buf, entries))
	assert.Contains(t, buf.String(), "inline_reward:")
	assert.Contains(t, buf.String(), "no_inline_reward:")
}

func TestWriteOptimalTree_IsReadableAsRawTree(t *testing.T) {
	// GIVEN the optimal decision tree
	m := sampleModel(t)
	prop, err := m.OptimalDecision()
	require.NoError(t, err)

	// WHEN written and read back
	var buf bytes.Buffer
	require.NoError(t, WriteOptimalTree(&buf, prop.Tree))
	raw, err := inlining.ParseRawTree(buf.Bytes())
	require.NoError(t, err)
	got, err := inlining.Relabel(raw)
	require.NoError(t, err)

	// THEN it names the same nodes
	assert.Equal(t, inlining.CollectUniquePaths(prop.Tree), inlining.CollectUniquePaths(got))
}

func TestOptInfo_InterpolatingFit(t *testing.T) {
	// GIVEN contributions trained with almost no regularisation
	p := sampleProblem(t)
	sol, err := learn.Train(context.Background(), p, sampleHyperParameters, learn.Ridge{Alpha: sampleHyperParameters.RidgeFactor})
	require.NoError(t, err)
	m, err := NewModel(context.Background(), p, sampleHyperParameters, sol.Contributions)
	require.NoError(t, err)

	// WHEN fit statistics are computed
	info := m.OptInfo()

	// THEN the projection reproduces the targets
	assert.InDelta(t, 0, info.MeanSquaredError, 1e-9)
	assert.InDelta(t, 0, info.MaxSquaredError, 1e-9)
	assert.LessOrEqual(t, info.MinProjected, info.MaxProjected)

	var buf bytes.Buffer
	require.NoError(t, info.Write(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Mean squared error: "))
}

func TestInspectRun(t *testing.T) {
	// GIVEN a model
	m := sampleModel(t)

	// WHEN the run with nothing inlined is inspected
	got, err := m.InspectRun(1)
	require.NoError(t, err)

	// THEN both projections agree and the run's own tree is listed
	require.NotNil(t, got.ProjectedDFS)
	testutil.AssertFloat64Equal(t, "projection", got.ProjectedMatmul, *got.ProjectedDFS, 1e-12)
	assert.Equal(t, 4, got.VisitedCount)
	assert.Equal(t, 5, got.NumNodes)
	assert.Empty(t, got.Unvisited)
	ids := make([]int, len(got.Nodes))
	for i, n := range got.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []int{0, 1, 2, 4}, ids)

	var buf bytes.Buffer
	require.NoError(t, got.Write(&buf))
	assert.Contains(t, buf.String(), "--- Information on run 1 ---")
	assert.Contains(t, buf.String(), "Execution directory = exp/opt_data/0/current")
}

func TestInspectRun_OutOfRange_ReturnsError(t *testing.T) {
	m := sampleModel(t)
	_, err := m.InspectRun(3)
	assert.Error(t, err)
	_, err = m.InspectRun(-1)
	assert.Error(t, err)
}

func TestPrintTree(t *testing.T) {
	// GIVEN the reward tree of a model
	m := sampleModel(t)
	tree, err := m.RewardTree()
	require.NoError(t, err)

	// WHEN printed
	var buf bytes.Buffer
	require.NoError(t, PrintTree(&buf, tree))

	// THEN each node is one line in pre-order
	want := "" +
		"(0.000 |   -INF)\t<ROOT>\n" +
		"(0.000 |   -INF)\t-- {main}\n" +
		"( 1.000 | 0.000)\t---- <1:f>\n" +
		"(  -INF |  2.000)\t------ <1.0:g>\n" +
		"( 3.000 |  1.000)\t---- <2:h>\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettify(t *testing.T) {
	assert.Equal(t, " 1.500", prettify(1.5))
	assert.Equal(t, "-1.500", prettify(-1.5))
	assert.Equal(t, "0.000", prettify(0))
}
