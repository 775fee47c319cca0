package inlining

import "math"

// Reward is the per-node input of reward propagation. Nil means the value
// was never observed; it is distinct from zero, which is a real reward.
// NoInline is meaningful only for call sites.
type Reward struct {
	Path     PathKey
	Inline   *float64
	NoInline *float64
}

// PropagationConfig controls how children's values aggregate into a parent.
type PropagationConfig struct {
	DecayFactor              float64
	NormaliseWithNumChildren bool
}

// Outcome records what propagation decided at one node.
type Outcome struct {
	// InlineValue is the node's inline-branch value: its own inline reward
	// plus the decayed children value. -Inf when only the children are
	// observed, nil when nothing in the subtree is.
	InlineValue *float64
	// Value is the realized value of the chosen branch, nil when unobserved.
	Value *float64
	// Decision is the node's kind in the optimal tree.
	Decision Kind
}

// Propagation is the result of reconstructing the optimal decision tree.
type Propagation struct {
	Tree     *Node
	Value    *float64
	Outcomes map[PathKey]Outcome
}

// RootValue returns the root's value, or -Inf if nothing was observed.
func (p *Propagation) RootValue() float64 { return negInfIfNil(p.Value) }

func negInfIfNil(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

// chooseInline reports whether the inline branch wins. Unobserved values
// compare as -Inf and ties go to inlining.
func chooseInline(inline, noInline *float64) bool {
	return negInfIfNil(inline) >= negInfIfNil(noInline)
}

// Propagate computes, bottom-up, each node's decay-weighted long-term value
// and reconstructs the globally optimal inline/no-inline decision tree.
//
// For a node with inline reward b and observed child values v_1..v_k the
// inline-branch value is b + decay*sum(v_i), divided by k when normalising.
// Unobserved children contribute nothing and are not counted in k. An
// unobserved b makes the branch -Inf when some child is observed, and leaves
// it unobserved (nil) only when the whole subtree is. A call
// site keeps its children as Inlined when the inline branch is at least its
// no-inline reward, and becomes a childless Apply otherwise. Declarations and
// the top level have no alternative. A no-inline reward on a node that is not
// a call site is a SchemaError.
func Propagate(root *Tree[Reward], cfg PropagationConfig) (*Propagation, error) {
	const op = "propagate"
	type result struct {
		node  *Node
		value *float64
	}
	type frame struct {
		t       *Tree[Reward]
		next    int
		results []result
	}
	if root == nil {
		return nil, schemaErrorf(op, RootPath(), "nil tree")
	}
	if !root.Value.Path.IsRoot() {
		return nil, schemaErrorf(op, root.Value.Path, "propagation must start at the top level")
	}

	out := &Propagation{Outcomes: make(map[PathKey]Outcome)}
	stack := []*frame{{t: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.t.Children) {
			child := top.t.Children[top.next]
			top.next++
			if !top.t.Value.Path.IsParentOf(child.Value.Path) {
				return nil, schemaErrorf(op, child.Value.Path, "not a child of %s", top.t.Value.Path)
			}
			stack = append(stack, &frame{t: child})
			continue
		}
		stack = stack[:len(stack)-1]

		r := top.t.Value
		callSite := r.Path.IsCallSite()
		if !callSite && r.NoInline != nil {
			return nil, schemaErrorf(op, r.Path, "no-inline reward on a node that is not a call site")
		}

		sum, observed := 0.0, 0
		children := make([]*Node, 0, len(top.results))
		for _, cr := range top.results {
			children = append(children, cr.node)
			if cr.value != nil {
				sum += *cr.value
				observed++
			}
		}
		// A zero decay ignores children outright, rejected (-Inf) ones included.
		childrenValue := 0.0
		if cfg.DecayFactor != 0 {
			childrenValue = cfg.DecayFactor * sum
		}
		if cfg.NormaliseWithNumChildren && observed > 0 {
			childrenValue /= float64(observed)
		}

		var inlineValue *float64
		switch {
		case r.Inline != nil:
			v := *r.Inline + childrenValue
			inlineValue = &v
		case observed > 0:
			// Observed rewards below an unobserved one reject the branch.
			v := math.Inf(-1)
			inlineValue = &v
		}

		res := result{value: inlineValue}
		decision := kindOfPath(r.Path)
		switch {
		case !callSite:
			res.node = &Node{Kind: decision, Path: r.Path, Children: children}
		case chooseInline(inlineValue, r.NoInline):
			decision = KindInlined
			res.node = &Node{Kind: KindInlined, Path: r.Path, Children: children}
		default:
			decision = KindApply
			res.node = &Node{Kind: KindApply, Path: r.Path}
			res.value = r.NoInline
		}
		out.Outcomes[r.Path] = Outcome{InlineValue: inlineValue, Value: res.value, Decision: decision}

		if len(stack) == 0 {
			out.Tree = res.node
			out.Value = res.value
			break
		}
		parent := stack[len(stack)-1]
		parent.results = append(parent.results, res)
	}
	return out, nil
}

// kindOfPath is the kind a node takes when it has no decision to make.
func kindOfPath(p PathKey) Kind {
	switch {
	case p.IsRoot():
		return KindTopLevel
	case p.IsDeclaration():
		return KindDeclaration
	}
	return KindInlined
}
