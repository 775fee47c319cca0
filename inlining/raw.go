package inlining

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Function is the compiler's identity for a function. Only ClosureOrigin
// takes part in path identity; the rest is carried for reporting.
type Function struct {
	ClosureOrigin string `yaml:"closure_origin"`
	Closure       string `yaml:"closure,omitempty"`
	Specialised   bool   `yaml:"specialised,omitempty"`
}

// RawNode is the generic labeled tree handed over by the external parser of
// the compiler's decision serialization. Its payload depends on Tag:
//   - Top_level: none
//   - Decl: ClosureOrigin
//   - Inlined, Apply: Path (the call site's local path) and Function
type RawNode struct {
	Tag           string     `yaml:"tag"`
	ClosureOrigin string     `yaml:"closure_origin,omitempty"`
	Path          LocalPath  `yaml:"path,omitempty,flow"`
	Function      *Function  `yaml:"function,omitempty"`
	Children      []*RawNode `yaml:"children,omitempty"`
}

// LoadRawTree reads a raw tree from a YAML (or JSON) file. Unknown keys are
// rejected.
func LoadRawTree(path string) (*RawNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading decision tree: %w", err)
	}
	return ParseRawTree(data)
}

// ParseRawTree decodes a raw tree from YAML (or JSON) bytes.
func ParseRawTree(data []byte) (*RawNode, error) {
	var root RawNode
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing decision tree: %w", err)
	}
	return &root, nil
}

// Raw converts a canonical tree back to the raw labeled shape, carrying only
// the identifying payload recoverable from each node's path.
func (n *Node) Raw() *RawNode {
	type frame struct {
		src *Node
		dst *RawNode
	}
	out := rawOf(n)
	stack := []frame{{n, out}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range f.src.Children {
			rc := rawOf(child)
			f.dst.Children = append(f.dst.Children, rc)
			stack = append(stack, frame{child, rc})
		}
	}
	return out
}

func rawOf(n *Node) *RawNode {
	r := &RawNode{Tag: n.Kind.String()}
	switch n.Kind {
	case KindDeclaration:
		r.ClosureOrigin = n.ClosureOrigin()
	case KindInlined, KindApply:
		r.Path = n.CallSite()
		r.Function = &Function{ClosureOrigin: n.Function()}
	}
	return r
}
