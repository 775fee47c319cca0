package inlining

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectionFixture is the tree
//
//	0 -> 1 -> {2 -> 4, 3}
//
// with inline contributions 1..5 on even slots, 4 as node 3's no-inline
// contribution, and 100 on every slot no mask below selects.
func projectionFixture() ([][]int, []float64) {
	adjacency := [][]int{{1}, {2, 3}, {4}, nil, nil}
	contributions := []float64{
		1, 100,
		2, 100,
		3, 100,
		100, 4,
		5, 100,
	}
	return adjacency, contributions
}

func maskOf(numNodes int, inline []int, noInline []int) Mask {
	m := NewMask(numNodes)
	for _, id := range inline {
		m.SetInline(id)
	}
	for _, id := range noInline {
		m.SetNoInline(id)
	}
	return m
}

func TestProject_FullParticipationNoDecay_EqualsMaskedDotProduct(t *testing.T) {
	// GIVEN every node participating and decay 1 without normalisation
	adjacency, w := projectionFixture()
	mask := maskOf(5, []int{0, 1, 2, 4}, []int{3})
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: mask, Config: PropagationConfig{DecayFactor: 1}}

	// WHEN projected
	got, err := p.Project(0)
	require.NoError(t, err)

	// THEN the value is the dot product of mask and contributions
	dot := 0.0
	for i, on := range mask {
		if on {
			dot += w[i]
		}
	}
	require.NotNil(t, got.Value)
	assert.InDelta(t, dot, *got.Value, 1e-12)
	assert.InDelta(t, 15.0, *got.Value, 1e-12)
	assert.Len(t, got.Visited, 5)
	assert.Empty(t, got.Orphans)
	assert.Empty(t, got.Unvisited)
}

func TestProject_NormalisesOverReturningChildren(t *testing.T) {
	// GIVEN node 3 does not participate and decay 0.5 with normalisation
	adjacency, w := projectionFixture()
	mask := maskOf(5, []int{0, 1, 2, 4}, nil)
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: mask,
		Config: PropagationConfig{DecayFactor: 0.5, NormaliseWithNumChildren: true}}

	got, err := p.Project(0)
	require.NoError(t, err)

	// THEN node 1 averages over one child only:
	// node2 = 3 + 0.5*5 = 5.5, node1 = 2 + 0.5*5.5 = 4.75, root = 1 + 0.5*4.75
	assert.InDelta(t, 3.375, *got.Value, 1e-12)
	assert.False(t, got.Visited[3])
	assert.Empty(t, got.Orphans)
}

func TestProject_BothBitsSet_IsIntegrityError(t *testing.T) {
	adjacency, w := projectionFixture()
	mask := maskOf(5, []int{0, 1, 2}, []int{2})
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: mask, Config: PropagationConfig{DecayFactor: 1}}

	_, err := p.Project(0)
	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 2, ie.ID)
}

func TestProject_ParticipantBelowSilentNode_IsOrphan(t *testing.T) {
	// GIVEN node 2 silent but its child 4 participating
	adjacency, w := projectionFixture()
	mask := maskOf(5, []int{0, 1, 4}, []int{3})
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: mask, Config: PropagationConfig{DecayFactor: 1}}

	got, err := p.Project(0)
	require.NoError(t, err)

	// THEN 4 is reported rather than silently dropped
	assert.Equal(t, []int{4}, got.Orphans)
	assert.Equal(t, []int{4}, got.Unvisited)
	assert.InDelta(t, 1+2+4, *got.Value, 1e-12)
}

func TestProject_UnreachableParticipant_IsUnvisited(t *testing.T) {
	adjacency, w := projectionFixture()
	adjacency = append(adjacency, nil)
	w = append(w, 7, 0)
	mask := maskOf(6, []int{0, 1, 2, 4, 5}, []int{3})
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: mask, Config: PropagationConfig{DecayFactor: 1}}

	got, err := p.Project(0)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, got.Unvisited)
	assert.Empty(t, got.Orphans)
}

func TestProject_SilentRoot_HasNoValue(t *testing.T) {
	adjacency, w := projectionFixture()
	p := &Projector{Adjacency: adjacency, Contributions: w, Mask: NewMask(5), Config: PropagationConfig{DecayFactor: 1}}

	got, err := p.Project(0)
	require.NoError(t, err)
	assert.Nil(t, got.Value)
	assert.Empty(t, got.Visited)
}

func TestProject_MalformedInput_IsIntegrityError(t *testing.T) {
	adjacency, w := projectionFixture()
	tests := []struct {
		name string
		p    *Projector
		root int
	}{
		{"short mask", &Projector{Adjacency: adjacency, Contributions: w, Mask: NewMask(4)}, 0},
		{"short contributions", &Projector{Adjacency: adjacency, Contributions: w[:8], Mask: NewMask(5)}, 0},
		{"root out of range", &Projector{Adjacency: adjacency, Contributions: w, Mask: NewMask(5)}, 9},
		{"cycle", &Projector{Adjacency: [][]int{{1}, {0}}, Contributions: make([]float64, 4), Mask: maskOf(2, []int{0, 1}, nil)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Project(tt.root)
			assert.ErrorIs(t, err, ErrIntegrity)
		})
	}
}

func TestMask_Accessors(t *testing.T) {
	m := NewMask(3)
	m.SetInline(0)
	m.SetNoInline(2)

	assert.Equal(t, 3, m.NumNodes())
	assert.True(t, m.Inline(0))
	assert.False(t, m.NoInline(0))
	assert.True(t, m.NoInline(2))
	assert.True(t, m.Participates(2))
	assert.False(t, m.Participates(1))
}
