package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

// prettify renders a reward in a fixed-width column.
func prettify(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "   INF"
	case math.IsInf(v, -1):
		return "  -INF"
	case v > 0:
		return fmt.Sprintf(" %.3f", v)
	}
	return fmt.Sprintf("%.3f", v)
}

func negInfIfNil(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}

// PrintTree renders a reward tree one node per line as
// "(inline | no_inline)" followed by the node's last path segment,
// indented by depth. Unobserved rewards print as -INF.
func PrintTree(w io.Writer, root *inlining.Tree[inlining.Reward]) error {
	type frame struct {
		t     *inlining.Tree[inlining.Reward]
		depth int
	}
	if root == nil {
		return nil
	}
	ew := &errWriter{w: w}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r := f.t.Value
		name := "<ROOT>"
		if last, ok := r.Path.Last(); ok {
			name = " " + last.String()
		}
		ew.printf("(%s | %s)\t%s%s\n",
			prettify(negInfIfNil(r.Inline)), prettify(negInfIfNil(r.NoInline)),
			strings.Repeat("--", f.depth), name)
		for i := len(f.t.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.t.Children[i], f.depth + 1})
		}
	}
	return ew.err
}
