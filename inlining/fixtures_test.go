package inlining

func f64(v float64) *float64 { return &v }

func fn(origin string) *Function { return &Function{ClosureOrigin: origin} }

// sampleRawTree is a nine-node tree of depth four:
//
//	Top_level
//	  Decl main
//	    Inlined [1] f
//	      Apply [1 0] g
//	      Inlined [1 1] h
//	        Apply [1 1 0] g
//	    Apply [2] f
//	  Decl helper
//	    Apply [0] g
func sampleRawTree() *RawNode {
	return &RawNode{Tag: TagTopLevel, Children: []*RawNode{
		{Tag: TagDeclaration, ClosureOrigin: "main", Children: []*RawNode{
			{Tag: TagInlined, Path: LocalPath{"1"}, Function: fn("f"), Children: []*RawNode{
				{Tag: TagApply, Path: LocalPath{"1", "0"}, Function: fn("g")},
				{Tag: TagInlined, Path: LocalPath{"1", "1"}, Function: fn("h"), Children: []*RawNode{
					{Tag: TagApply, Path: LocalPath{"1", "1", "0"}, Function: fn("g")},
				}},
			}},
			{Tag: TagApply, Path: LocalPath{"2"}, Function: fn("f")},
		}},
		{Tag: TagDeclaration, ClosureOrigin: "helper", Children: []*RawNode{
			{Tag: TagApply, Path: LocalPath{"0"}, Function: fn("g")},
		}},
	}}
}

// alternateRawTree is the same program with different decisions: f at [1]
// is not inlined and helper's call is inlined.
func alternateRawTree() *RawNode {
	return &RawNode{Tag: TagTopLevel, Children: []*RawNode{
		{Tag: TagDeclaration, ClosureOrigin: "main", Children: []*RawNode{
			{Tag: TagApply, Path: LocalPath{"1"}, Function: fn("f")},
			{Tag: TagApply, Path: LocalPath{"2"}, Function: fn("f")},
		}},
		{Tag: TagDeclaration, ClosureOrigin: "helper", Children: []*RawNode{
			{Tag: TagInlined, Path: LocalPath{"0"}, Function: fn("g"), Children: []*RawNode{
				{Tag: TagApply, Path: LocalPath{"0", "3"}, Function: fn("k")},
			}},
		}},
	}}
}

func mustRelabel(raw *RawNode) *Node {
	n, err := Relabel(raw)
	if err != nil {
		panic(err)
	}
	return n
}

type pathKind struct {
	Path string
	Kind Kind
}

func preorder(root *Node) []pathKind {
	var out []pathKind
	Walk(root, func(n *Node, _ int) bool {
		out = append(out, pathKind{n.Path.String(), n.Kind})
		return true
	})
	return out
}
