package inlining

// Relabel converts a raw parsed tree into a canonical tree whose node
// identity is its PathKey. Each child's path is its parent's path plus one
// segment derived from the child's own payload.
//
// Any tag outside the four recognized kinds aborts with a SchemaError, as do
// a non-Top_level root, a nested Top_level, a call node without a function,
// and an Apply node with children.
func Relabel(raw *RawNode) (*Node, error) {
	const op = "relabel"
	if raw == nil {
		return nil, schemaErrorf(op, RootPath(), "nil tree")
	}
	kind, err := ParseKind(raw.Tag)
	if err != nil {
		return nil, err
	}
	if kind != KindTopLevel {
		return nil, schemaErrorf(op, RootPath(), "root must be %s, got %s", TagTopLevel, raw.Tag)
	}

	type frame struct {
		raw  *RawNode
		node *Node
	}
	root := &Node{Kind: KindTopLevel, Path: RootPath()}
	stack := []frame{{raw, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(f.raw.Children) > 0 {
			f.node.Children = make([]*Node, 0, len(f.raw.Children))
		}
		for _, rc := range f.raw.Children {
			child, err := relabelOne(f.node.Path, rc)
			if err != nil {
				return nil, err
			}
			f.node.Children = append(f.node.Children, child)
			stack = append(stack, frame{rc, child})
		}
	}
	return root, nil
}

func relabelOne(parent PathKey, raw *RawNode) (*Node, error) {
	const op = "relabel"
	if raw == nil {
		return nil, schemaErrorf(op, parent, "nil child")
	}
	kind, err := ParseKind(raw.Tag)
	if err != nil {
		return nil, schemaErrorf(op, parent, "unrecognized node tag %q", raw.Tag)
	}
	switch kind {
	case KindDeclaration:
		return &Node{Kind: kind, Path: parent.Append(Declaration(raw.ClosureOrigin))}, nil
	case KindInlined, KindApply:
		if raw.Function == nil {
			return nil, schemaErrorf(op, parent, "%s node without a function", raw.Tag)
		}
		if kind == KindApply && len(raw.Children) > 0 {
			return nil, schemaErrorf(op, parent, "%s node has %d children", TagApply, len(raw.Children))
		}
		return &Node{Kind: kind, Path: parent.Append(Call(raw.Path, raw.Function.ClosureOrigin))}, nil
	case KindTopLevel:
		return nil, schemaErrorf(op, parent, "%s node below the root", TagTopLevel)
	}
	return nil, schemaErrorf(op, parent, "unhandled kind %s", kind)
}
