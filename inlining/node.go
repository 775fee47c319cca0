package inlining

import "fmt"

// Kind is the closed set of decision-tree node variants.
type Kind int

const (
	KindTopLevel Kind = iota
	KindDeclaration
	KindInlined
	KindApply
)

// Tags used by the compiler's tree serialization.
const (
	TagTopLevel    = "Top_level"
	TagDeclaration = "Decl"
	TagInlined     = "Inlined"
	TagApply       = "Apply"
)

var kindTags = map[Kind]string{
	KindTopLevel:    TagTopLevel,
	KindDeclaration: TagDeclaration,
	KindInlined:     TagInlined,
	KindApply:       TagApply,
}

// ParseKind maps a serialized tag to its Kind. Unknown tags are schema
// violations: they indicate a parser/version mismatch.
func ParseKind(tag string) (Kind, error) {
	for k, t := range kindTags {
		if t == tag {
			return k, nil
		}
	}
	return 0, schemaErrorf("parse kind", RootPath(), "unrecognized node tag %q", tag)
}

func (k Kind) String() string {
	if t, ok := kindTags[k]; ok {
		return t
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is a canonical decision-tree node. Its identity is Path; the variant
// payload (declaration id, call site, callee) is the last segment of Path.
// Only TopLevel, Declaration and Inlined nodes have children.
type Node struct {
	Kind     Kind
	Path     PathKey
	Children []*Node
}

// ClosureOrigin returns the declaration id of a Declaration node.
func (n *Node) ClosureOrigin() string {
	s, _ := n.Path.Last()
	return s.ClosureOrigin
}

// CallSite returns the local call-site path of an Inlined or Apply node.
func (n *Node) CallSite() LocalPath {
	s, _ := n.Path.Last()
	return s.CallSite
}

// Function returns the callee identity of an Inlined or Apply node.
func (n *Node) Function() string {
	s, _ := n.Path.Last()
	return s.Function
}

// segmentKindFor returns the segment kind a node of kind k must end its path with.
func segmentKindFor(k Kind) (SegmentKind, bool) {
	switch k {
	case KindDeclaration:
		return DeclarationSegment, true
	case KindInlined, KindApply:
		return CallSegment, true
	}
	return 0, false
}

// Validate checks the structural invariants of a canonical tree: a TopLevel
// root with the empty path, TopLevel nowhere else, leaf-only Apply nodes, and
// every child path equal to its parent's path plus one segment of the
// matching kind.
func (n *Node) Validate() error {
	const op = "validate"
	if n == nil {
		return schemaErrorf(op, RootPath(), "nil tree")
	}
	if n.Kind != KindTopLevel || !n.Path.IsRoot() {
		return schemaErrorf(op, n.Path, "root must be %s with the empty path, got %s", TagTopLevel, n.Kind)
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Kind == KindApply && len(cur.Children) > 0 {
			return schemaErrorf(op, cur.Path, "%s node has %d children", TagApply, len(cur.Children))
		}
		for _, child := range cur.Children {
			want, ok := segmentKindFor(child.Kind)
			if !ok {
				return schemaErrorf(op, child.Path, "%s node below the root", child.Kind)
			}
			if !cur.Path.IsParentOf(child.Path) || child.Path.last != want {
				return schemaErrorf(op, child.Path, "path is not a one-segment extension of %s", cur.Path)
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// Walk visits every node in pre-order. Returning false from visit skips the
// node's subtree.
func Walk(root *Node, visit func(n *Node, depth int) bool) {
	type frame struct {
		n     *Node
		depth int
	}
	if root == nil {
		return
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(f.n, f.depth) {
			continue
		}
		for i := len(f.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.n.Children[i], f.depth + 1})
		}
	}
}

// CountNodes returns the number of nodes in the tree, root included.
func CountNodes(root *Node) int {
	count := 0
	Walk(root, func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of edges on the longest root-to-leaf path.
func Depth(root *Node) int {
	d := 0
	Walk(root, func(_ *Node, depth int) bool {
		d = max(d, depth)
		return true
	})
	return d
}
