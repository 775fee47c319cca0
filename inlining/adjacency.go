package inlining

// Tree is a navigable tree of arbitrary per-node values, rebuilt from a flat
// (root id, adjacency list) representation.
type Tree[V any] struct {
	ID       int
	Value    V
	Children []*Tree[V]
}

// AdjacencyFromEdgeLists unions the parent->child relations of many edge
// lists into one adjacency list over numNodes ids. Duplicate edges are kept
// once, in first-seen order.
func AdjacencyFromEdgeLists(numNodes int, edgeLists ...[]Edge) ([][]int, error) {
	const op = "adjacency"
	adjacency := make([][]int, numNodes)
	seen := make(map[[2]int]struct{})
	for _, edges := range edgeLists {
		for _, e := range edges {
			if e.Src < 0 || e.Src >= numNodes {
				return nil, integrityErrorf(op, e.Src, "source id out of range [0, %d)", numNodes)
			}
			if e.Dst < 0 || e.Dst >= numNodes {
				return nil, integrityErrorf(op, e.Dst, "destination id out of range [0, %d)", numNodes)
			}
			key := [2]int{e.Src, e.Dst}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			adjacency[e.Src] = append(adjacency[e.Src], e.Dst)
		}
	}
	return adjacency, nil
}

// BuildTree rebuilds a tree from a root id and an adjacency list, labeling
// each node with nodeData(id). Ids unreachable from root are omitted.
//
// Well-formed input is acyclic and every id has at most one parent. A node
// re-entered while still on the DFS path is reported as a cycle; a node
// reached a second time through another parent is reported as shared. Both
// are IntegrityErrors.
func BuildTree[V any](root int, adjacency [][]int, nodeData func(id int) V) (*Tree[V], error) {
	const op = "build tree"
	const (
		unseen = iota
		onPath
		done
	)
	if root < 0 || root >= len(adjacency) {
		return nil, integrityErrorf(op, root, "root id out of range [0, %d)", len(adjacency))
	}
	type frame struct {
		t    *Tree[V]
		next int
	}
	state := make([]uint8, len(adjacency))
	out := &Tree[V]{ID: root, Value: nodeData(root)}
	state[root] = onPath
	stack := []frame{{t: out}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := adjacency[top.t.ID]
		if top.next == len(children) {
			state[top.t.ID] = done
			stack = stack[:len(stack)-1]
			continue
		}
		id := children[top.next]
		top.next++
		if id < 0 || id >= len(adjacency) {
			return nil, integrityErrorf(op, id, "child of %d out of range [0, %d)", top.t.ID, len(adjacency))
		}
		switch state[id] {
		case onPath:
			return nil, integrityErrorf(op, id, "cycle detected (re-entered from %d)", top.t.ID)
		case done:
			return nil, integrityErrorf(op, id, "node reachable from more than one parent (again from %d)", top.t.ID)
		}
		child := &Tree[V]{ID: id, Value: nodeData(id)}
		top.t.Children = append(top.t.Children, child)
		state[id] = onPath
		stack = append(stack, frame{t: child})
	}
	return out, nil
}

// MapTree returns a tree of the same shape whose values are f applied to
// each node of t.
func MapTree[V, W any](t *Tree[V], f func(*Tree[V]) W) *Tree[W] {
	type frame struct {
		src *Tree[V]
		dst *Tree[W]
	}
	if t == nil {
		return nil
	}
	out := &Tree[W]{ID: t.ID, Value: f(t)}
	stack := []frame{{t, out}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range fr.src.Children {
			dc := &Tree[W]{ID: c.ID, Value: f(c)}
			fr.dst.Children = append(fr.dst.Children, dc)
			stack = append(stack, frame{c, dc})
		}
	}
	return out
}

// Size returns the number of nodes in t.
func (t *Tree[V]) Size() int {
	if t == nil {
		return 0
	}
	n := 0
	stack := []*Tree[V]{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, cur.Children...)
	}
	return n
}
