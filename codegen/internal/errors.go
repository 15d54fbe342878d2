package codegen

import (
	"fmt"
	"strings"
)

// MalformedDocumentError reports input that cannot be mapped onto the
// supported schema shape. Path is a slash separated location inside the
// document, when one is known.
type MalformedDocumentError struct {
	Path string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed document: %v", e.Err)
	}
	return fmt.Sprintf("malformed document at %s: %v", e.Path, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func malformed(path string, format string, args ...any) error {
	return &MalformedDocumentError{Path: path, Err: fmt.Errorf(format, args...)}
}

// DanglingReferenceError reports a $ref whose target is not a component schema.
type DanglingReferenceError struct {
	From   string
	Target string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("schema %q references %q, which is not defined in components/schemas", e.From, e.Target)
}

// UnsatisfiedDependencyError reports a generated schema that references a
// schema the filter excluded or did not select.
type UnsatisfiedDependencyError struct {
	From    string
	Missing string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("schema %q depends on %q, which is not selected for generation", e.From, e.Missing)
}

// CyclicDependencyError reports a reference cycle among generated schemas.
// Cycle lists the schemas in traversal order, starting at the first schema
// of the cycle in declaration order.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "cyclic dependency between schemas"
	}
	path := make([]string, 0, len(e.Cycle)+1)
	path = append(path, e.Cycle...)
	path = append(path, e.Cycle[0])
	return fmt.Sprintf("cyclic dependency between schemas: %s", strings.Join(path, " -> "))
}

// UnknownTypeError reports a (type, format) pair with no mapping for the
// selected target.
type UnknownTypeError struct {
	Schema string
	Kind   string
	Format string
}

func (e *UnknownTypeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("schema %q: no type mapping for %q", e.Schema, e.Kind)
	}
	return fmt.Sprintf("schema %q: no type mapping for %q with format %q", e.Schema, e.Kind, e.Format)
}

// InvalidFilterFieldError reports a field selector that cannot apply to the
// named schema.
type InvalidFilterFieldError struct {
	Schema string
	Field  string
}

func (e *InvalidFilterFieldError) Error() string {
	return fmt.Sprintf("filter selects field %q of schema %q, which is not an object", e.Field, e.Schema)
}

// NameConflictError reports two schemas that map onto the same identifier in
// the generated code.
type NameConflictError struct {
	Identifier string
	Schemas    []string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("schemas %s all map to identifier %q", strings.Join(quoteAll(e.Schemas), ", "), e.Identifier)
}

// UnknownDecorationError reports a decoration the selected target cannot apply.
// Kind is "struct" or "enum".
type UnknownDecorationError struct {
	Target     string
	Kind       string
	Decoration string
}

func (e *UnknownDecorationError) Error() string {
	return fmt.Sprintf("target %q does not support %s decoration %q", e.Target, e.Kind, e.Decoration)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
