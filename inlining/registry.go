package inlining

// PathSet is a set of structural node identities.
type PathSet map[PathKey]struct{}

// CollectUniquePaths returns the PathKey of every node in the tree, the
// root's empty key included.
func CollectUniquePaths(root *Node) PathSet {
	acc := make(PathSet)
	Walk(root, func(n *Node, _ int) bool {
		acc[n.Path] = struct{}{}
		return true
	})
	return acc
}

// Registry is the bijection between PathKeys and dense ids 0..n-1 for one
// batch. It owns the id space: trees, edge lists, masks and weight vectors
// refer to nodes only by id. Ids are assigned in registration order and are
// meaningful only within the registry that issued them.
type Registry struct {
	ids   map[PathKey]int
	paths []PathKey
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[PathKey]int)}
}

// Register returns p's id, assigning the next free id if p is new.
func (r *Registry) Register(p PathKey) int {
	if id, ok := r.ids[p]; ok {
		return id
	}
	id := len(r.paths)
	r.ids[p] = id
	r.paths = append(r.paths, p)
	return id
}

// RegisterTree registers every node of the tree in pre-order. Folding every
// run of a batch through it assigns ids in insertion order over the union of
// their paths.
func (r *Registry) RegisterTree(root *Node) {
	Walk(root, func(n *Node, _ int) bool {
		r.Register(n.Path)
		return true
	})
}

// ID looks up the id of p.
func (r *Registry) ID(p PathKey) (int, bool) {
	id, ok := r.ids[p]
	return id, ok
}

// Path returns the PathKey assigned to id.
func (r *Registry) Path(id int) (PathKey, bool) {
	if id < 0 || id >= len(r.paths) {
		return PathKey{}, false
	}
	return r.paths[id], true
}

// Len is the number of registered nodes.
func (r *Registry) Len() int { return len(r.paths) }

// RootID returns the id of the empty path.
func (r *Registry) RootID() (int, bool) { return r.ID(RootPath()) }

// Paths returns the registered keys indexed by id.
func (r *Registry) Paths() []PathKey {
	out := make([]PathKey, len(r.paths))
	copy(out, r.paths)
	return out
}

// Edge is one parent->child relation of a flattened tree. Kind is the child's
// kind and is used only for labeling, never for aggregation.
type Edge struct {
	Src  int
	Dst  int
	Kind Kind
}

// FlattenEdges emits one edge per parent->child relation in DFS order, using
// ids from the shared registry. Every node must already be registered; a
// miss is a SchemaError.
func FlattenEdges(root *Node, reg *Registry) ([]Edge, error) {
	const op = "flatten edges"
	type frame struct {
		n   *Node
		src int
	}
	if root == nil {
		return nil, nil
	}
	rootID, ok := reg.ID(root.Path)
	if !ok {
		return nil, schemaErrorf(op, root.Path, "path not registered")
	}
	var edges []Edge
	stack := make([]frame, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Children[i], rootID})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dst, ok := reg.ID(f.n.Path)
		if !ok {
			return nil, schemaErrorf(op, f.n.Path, "path not registered")
		}
		edges = append(edges, Edge{Src: f.src, Dst: dst, Kind: f.n.Kind})
		for i := len(f.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.n.Children[i], dst})
		}
	}
	return edges, nil
}
