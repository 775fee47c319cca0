package inlining

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Mask is a participation mask over n nodes: bit 2*id says the node
// contributed its inline value to a training example, bit 2*id+1 says it
// contributed its no-inline value. The two bits are mutually exclusive.
type Mask []bool

// NewMask returns an empty mask over numNodes nodes.
func NewMask(numNodes int) Mask { return make(Mask, 2*numNodes) }

// NumNodes is the number of nodes the mask covers.
func (m Mask) NumNodes() int { return len(m) / 2 }

// Inline reports whether id contributed its inline value.
func (m Mask) Inline(id int) bool { return m[2*id] }

// NoInline reports whether id contributed its no-inline value.
func (m Mask) NoInline(id int) bool { return m[2*id+1] }

// SetInline marks id as contributing its inline value.
func (m Mask) SetInline(id int) { m[2*id] = true }

// SetNoInline marks id as contributing its no-inline value.
func (m Mask) SetNoInline(id int) { m[2*id+1] = true }

// Participates reports whether id contributed either value.
func (m Mask) Participates(id int) bool { return m[2*id] || m[2*id+1] }

// Projector re-derives one training example's projected benefit by DFS over
// the node tree, using only the contributions the example's mask selects.
// Contributions is laid out like the mask (2*id inline, 2*id+1 no-inline).
type Projector struct {
	Adjacency     [][]int
	Contributions []float64
	Mask          Mask
	Config        PropagationConfig
	// Describe labels node ids in log output. Optional.
	Describe func(id int) string
}

// Projection is the outcome of a masked DFS projection.
type Projection struct {
	// Value is nil when the root did not participate.
	Value *float64
	// Visited holds every participating node the DFS reached.
	Visited map[int]bool
	// Orphans are participating nodes found beneath a non-participating
	// node. Well-formed masks never produce any.
	Orphans []int
	// Unvisited are participating nodes the DFS never reached.
	Unvisited []int
}

func (p *Projector) describe(id int) string {
	if p.Describe == nil {
		return ""
	}
	return p.Describe(id)
}

// Project computes the projected benefit rooted at root.
//
// A node with its inline bit set returns its inline contribution plus the
// decayed sum of its children's projections; children that return nothing
// are dropped and, when normalising, excluded from the child count. A node
// with its no-inline bit set returns its no-inline contribution without
// descending. A node with neither bit returns nothing; its subtree is still
// scanned and any participating descendant is reported as an orphan.
func (p *Projector) Project(root int) (*Projection, error) {
	const op = "project"
	n := len(p.Adjacency)
	if len(p.Mask) != 2*n {
		return nil, integrityErrorf(op, root, "mask covers %d nodes, adjacency has %d", p.Mask.NumNodes(), n)
	}
	if len(p.Contributions) != 2*n {
		return nil, integrityErrorf(op, root, "contributions cover %d slots, want %d", len(p.Contributions), 2*n)
	}
	if root < 0 || root >= n {
		return nil, integrityErrorf(op, root, "root id out of range [0, %d)", n)
	}

	type frame struct {
		id    int
		next  int
		acc   float64
		count int
	}
	proj := &Projection{Visited: make(map[int]bool)}
	onPath := make(map[int]bool)

	// enter classifies id. It returns (value, true) for a leaf result and
	// pushes a frame for inline nodes.
	var stack []*frame
	enter := func(id, depth int) (*float64, bool, error) {
		if id < 0 || id >= n {
			return nil, false, integrityErrorf(op, id, "id out of range [0, %d)", n)
		}
		if p.Mask.Inline(id) && p.Mask.NoInline(id) {
			return nil, false, integrityErrorf(op, id, "mask claims both inline and no-inline participation")
		}
		if onPath[id] {
			return nil, false, integrityErrorf(op, id, "cycle detected")
		}
		switch {
		case p.Mask.Inline(id):
			logrus.Debugf("%*sLooking into %d(%s)", depth, "", id, p.describe(id))
			proj.Visited[id] = true
			onPath[id] = true
			stack = append(stack, &frame{id: id})
			return nil, false, nil
		case p.Mask.NoInline(id):
			logrus.Debugf("%*sTerminating at %d(%s)", depth, "", id, p.describe(id))
			proj.Visited[id] = true
			v := p.Contributions[2*id+1]
			return &v, true, nil
		}
		logrus.Debugf("%*sFailed to project benefit at %d(%s)", depth, "", id, p.describe(id))
		if err := p.checkSilentSubtree(id, proj); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	var rootValue *float64
	v, leaf, err := enter(root, 0)
	if err != nil {
		return nil, err
	}
	if leaf {
		rootValue = v
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		children := p.Adjacency[top.id]
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			v, leaf, err := enter(child, len(stack))
			if err != nil {
				return nil, err
			}
			if leaf && v != nil {
				top.acc += *v
				top.count++
			}
			continue
		}

		stack = stack[:len(stack)-1]
		delete(onPath, top.id)
		value := p.Contributions[2*top.id]
		if top.count > 0 {
			norm := 1.0
			if p.Config.NormaliseWithNumChildren {
				norm = float64(top.count)
			}
			value += p.Config.DecayFactor * top.acc / norm
		}
		if len(stack) == 0 {
			rootValue = &value
			break
		}
		parent := stack[len(stack)-1]
		parent.acc += value
		parent.count++
	}
	proj.Value = rootValue

	for id := 0; id < n; id++ {
		if p.Mask.Participates(id) && !proj.Visited[id] {
			proj.Unvisited = append(proj.Unvisited, id)
		}
	}
	sort.Ints(proj.Orphans)
	return proj, nil
}

// checkSilentSubtree scans below a non-participating node. A participating
// descendant means the mask is inconsistent with the tree; it is logged and
// recorded rather than silently ignored.
func (p *Projector) checkSilentSubtree(id int, proj *Projection) error {
	seen := map[int]bool{id: true}
	stack := append([]int(nil), p.Adjacency[id]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur < 0 || cur >= len(p.Adjacency) {
			return integrityErrorf("project", cur, "id out of range [0, %d)", len(p.Adjacency))
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if p.Mask.Participates(cur) {
			logrus.Warnf("node %d(%s) participates beneath non-participating node %d(%s)",
				cur, p.describe(cur), id, p.describe(id))
			proj.Orphans = append(proj.Orphans, cur)
		}
		stack = append(stack, p.Adjacency[cur]...)
	}
	return nil
}
