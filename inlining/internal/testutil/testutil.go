// Package testutil provides shared test infrastructure for the inlining
// sub-packages: small decision trees of one program under different
// decisions, run-directory writers and float assertions.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/inlining-analysis/inlining-analysis/inlining"
)

func fn(origin string) *inlining.Function { return &inlining.Function{ClosureOrigin: origin} }

// F64 returns a pointer to v.
func F64(v float64) *float64 { return &v }

// InlinedRawTree is the program below with f at main's [1] inlined:
//
//	Top_level
//	  Decl main
//	    Inlined [1] f
//	      Apply [1 0] g
//	    Apply [2] h
func InlinedRawTree() *inlining.RawNode {
	return &inlining.RawNode{Tag: inlining.TagTopLevel, Children: []*inlining.RawNode{
		{Tag: inlining.TagDeclaration, ClosureOrigin: "main", Children: []*inlining.RawNode{
			{Tag: inlining.TagInlined, Path: inlining.LocalPath{"1"}, Function: fn("f"), Children: []*inlining.RawNode{
				{Tag: inlining.TagApply, Path: inlining.LocalPath{"1", "0"}, Function: fn("g")},
			}},
			{Tag: inlining.TagApply, Path: inlining.LocalPath{"2"}, Function: fn("h")},
		}},
	}}
}

// NotInlinedRawTree is the same program with nothing inlined.
func NotInlinedRawTree() *inlining.RawNode {
	return &inlining.RawNode{Tag: inlining.TagTopLevel, Children: []*inlining.RawNode{
		{Tag: inlining.TagDeclaration, ClosureOrigin: "main", Children: []*inlining.RawNode{
			{Tag: inlining.TagApply, Path: inlining.LocalPath{"1"}, Function: fn("f")},
			{Tag: inlining.TagApply, Path: inlining.LocalPath{"2"}, Function: fn("h")},
		}},
	}}
}

// BothInlinedRawTree inlines both of main's calls.
func BothInlinedRawTree() *inlining.RawNode {
	return &inlining.RawNode{Tag: inlining.TagTopLevel, Children: []*inlining.RawNode{
		{Tag: inlining.TagDeclaration, ClosureOrigin: "main", Children: []*inlining.RawNode{
			{Tag: inlining.TagInlined, Path: inlining.LocalPath{"1"}, Function: fn("f"), Children: []*inlining.RawNode{
				{Tag: inlining.TagApply, Path: inlining.LocalPath{"1", "0"}, Function: fn("g")},
			}},
			{Tag: inlining.TagInlined, Path: inlining.LocalPath{"2"}, Function: fn("h")},
		}},
	}}
}

// MustRelabel relabels raw or fails the test.
func MustRelabel(t testing.TB, raw *inlining.RawNode) *inlining.Node {
	t.Helper()
	n, err := inlining.Relabel(raw)
	if err != nil {
		t.Fatalf("relabel: %v", err)
	}
	return n
}

// WriteSubstep writes one measured substep directory: decisions.yaml holding
// raw and execution_stats.yaml holding the execution time.
func WriteSubstep(t testing.TB, dir string, raw *inlining.RawNode, executionTime float64) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	decisions, err := yaml.Marshal(raw)
	if err != nil {
		t.Fatalf("marshaling decisions: %v", err)
	}
	stats, err := yaml.Marshal(map[string]float64{"execution_time": executionTime})
	if err != nil {
		t.Fatalf("marshaling stats: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "decisions.yaml"), decisions, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "execution_stats.yaml"), stats, 0644); err != nil {
		t.Fatal(err)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t testing.TB, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFloat64SliceEqual compares two slices element-wise with AssertFloat64Equal.
func AssertFloat64SliceEqual(t testing.TB, name string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: got %d values, want %d", name, len(got), len(want))
	}
	for i := range want {
		AssertFloat64Equal(t, name, want[i], got[i], relTol)
	}
}
