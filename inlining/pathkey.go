package inlining

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// SegmentKind distinguishes the two kinds of trace segment.
type SegmentKind uint8

const (
	// DeclarationSegment enters a function declaration scope.
	DeclarationSegment SegmentKind = 'd'
	// CallSegment enters a call site (inlined or not).
	CallSegment SegmentKind = 'c'
)

// LocalPath identifies a call site within its enclosing function.
type LocalPath []string

func (lp LocalPath) String() string { return strings.Join(lp, ".") }

// Segment is one step of a root-to-node trace.
type Segment struct {
	Kind SegmentKind
	// ClosureOrigin is the declaration id; set only for DeclarationSegment.
	ClosureOrigin string
	// CallSite and Function are set only for CallSegment. Function is the
	// callee's closure origin.
	CallSite LocalPath
	Function string
}

// Declaration returns a declaration segment.
func Declaration(closureOrigin string) Segment {
	return Segment{Kind: DeclarationSegment, ClosureOrigin: closureOrigin}
}

// Call returns a call-site segment. The call site path is copied.
func Call(site LocalPath, function string) Segment {
	return Segment{Kind: CallSegment, CallSite: append(LocalPath(nil), site...), Function: function}
}

func (s Segment) String() string {
	switch s.Kind {
	case DeclarationSegment:
		return "{" + s.ClosureOrigin + "}"
	case CallSegment:
		return "<" + s.CallSite.String() + ":" + s.Function + ">"
	}
	return "?"
}

// PathKey is the structural identity of a tree node: the ordered sequence of
// segments from the root to the node. It is an immutable value type; two keys
// are == iff their segment sequences are equal element-wise, so PathKey can
// be used directly as a map key. The zero value is the root ("top level").
//
// Segments are stored in a canonical, length-prefixed byte encoding. The
// encoding is injective and prefix-free per segment, so equality of the
// encoding is exactly equality of the segment sequence.
type PathKey struct {
	enc  string
	n    int
	last SegmentKind
}

// RootPath returns the empty path of the synthetic top-level node.
func RootPath() PathKey { return PathKey{} }

// NewPathKey builds a key from a segment sequence.
func NewPathKey(segments ...Segment) PathKey {
	p := RootPath()
	for _, s := range segments {
		p = p.Append(s)
	}
	return p
}

// Append returns a new key with one more segment. The receiver is unchanged.
func (p PathKey) Append(s Segment) PathKey {
	buf := make([]byte, 0, len(p.enc)+16)
	buf = append(buf, p.enc...)
	buf = appendSegment(buf, s)
	return PathKey{enc: string(buf), n: p.n + 1, last: s.Kind}
}

// Len is the number of segments.
func (p PathKey) Len() int { return p.n }

// IsRoot reports whether p is the empty path.
func (p PathKey) IsRoot() bool { return p.n == 0 }

// IsCallSite reports whether the last segment is a call segment. Only call
// sites carry both an inline and a no-inline reward slot.
func (p PathKey) IsCallSite() bool { return p.last == CallSegment }

// IsDeclaration reports whether the last segment is a declaration segment.
func (p PathKey) IsDeclaration() bool { return p.last == DeclarationSegment }

// IsParentOf reports whether c is p with exactly one segment appended.
func (p PathKey) IsParentOf(c PathKey) bool {
	return c.n == p.n+1 && strings.HasPrefix(c.enc, p.enc)
}

// Segments decodes the segment sequence.
func (p PathKey) Segments() []Segment {
	segs := make([]Segment, 0, p.n)
	rest := p.enc
	for len(rest) > 0 {
		var s Segment
		s, rest = decodeSegment(rest)
		segs = append(segs, s)
	}
	return segs
}

// Last returns the final segment; ok is false for the root.
func (p PathKey) Last() (Segment, bool) {
	if p.n == 0 {
		return Segment{}, false
	}
	segs := p.Segments()
	return segs[len(segs)-1], true
}

func (p PathKey) String() string {
	if p.n == 0 {
		return "<ROOT>"
	}
	var b strings.Builder
	for _, s := range p.Segments() {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendSegment(buf []byte, s Segment) []byte {
	switch s.Kind {
	case DeclarationSegment:
		buf = append(buf, byte(DeclarationSegment))
		return appendString(buf, s.ClosureOrigin)
	case CallSegment:
		buf = append(buf, byte(CallSegment))
		buf = binary.AppendUvarint(buf, uint64(len(s.CallSite)))
		for _, item := range s.CallSite {
			buf = appendString(buf, item)
		}
		return appendString(buf, s.Function)
	}
	panic(fmt.Sprintf("inlining: unknown segment kind %q", s.Kind))
}

func readUvarint(enc string) (uint64, string) {
	// At most binary.MaxVarintLen64 bytes are examined.
	limit := min(len(enc), binary.MaxVarintLen64)
	v, n := binary.Uvarint([]byte(enc[:limit]))
	if n <= 0 {
		panic("inlining: corrupt path key")
	}
	return v, enc[n:]
}

func readString(enc string) (string, string) {
	l, rest := readUvarint(enc)
	return rest[:l], rest[l:]
}

func decodeSegment(enc string) (Segment, string) {
	kind := SegmentKind(enc[0])
	rest := enc[1:]
	switch kind {
	case DeclarationSegment:
		var origin string
		origin, rest = readString(rest)
		return Segment{Kind: kind, ClosureOrigin: origin}, rest
	case CallSegment:
		var count uint64
		count, rest = readUvarint(rest)
		var site LocalPath
		if count > 0 {
			site = make(LocalPath, count)
		}
		for i := range site {
			site[i], rest = readString(rest)
		}
		var fn string
		fn, rest = readString(rest)
		return Segment{Kind: kind, CallSite: site, Function: fn}, rest
	}
	panic("inlining: corrupt path key")
}
