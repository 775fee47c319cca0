package inlining

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every SchemaError wraps ErrSchema and every
// IntegrityError wraps ErrIntegrity.
var (
	ErrSchema    = errors.New("schema violation")
	ErrIntegrity = errors.New("structural integrity violation")
)

// SchemaError reports data that does not fit the decision-tree schema: an
// unknown node tag, a no-inline reward on a node that is not a call site, or
// a path missing from the registry. These are pipeline bugs; callers abort
// the batch (or exclude the offending run) rather than recover.
type SchemaError struct {
	Op     string
	Path   PathKey
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path.IsRoot() {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Op, e.Reason, e.Path)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// IntegrityError reports malformed structure: cycles or shared nodes in an
// adjacency list, ids out of range, or a participation mask claiming both
// branches of one node.
type IntegrityError struct {
	Op     string
	ID     int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: node %d: %s", e.Op, e.ID, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

func schemaErrorf(op string, path PathKey, format string, args ...any) error {
	return &SchemaError{Op: op, Path: path, Reason: fmt.Sprintf(format, args...)}
}

func integrityErrorf(op string, id int, format string, args ...any) error {
	return &IntegrityError{Op: op, ID: id, Reason: fmt.Sprintf(format, args...)}
}
