// Package codegen provides the public API for slimtypes, a generator of
// minimal type declarations from the component schemas of an OpenAPI
// document.
//
// This package re-exports the core types and functions from the internal
// implementation, providing a stable public interface for external consumers.
package codegen

import (
	"context"

	impl "github.com/oapi-codegen/slimtypes/codegen/internal"
)

// Configuration is the top-level configuration for type generation.
type Configuration = impl.Configuration

// Document is a parsed input document together with its schema graph.
type Document = impl.Document

// DocumentOptions controls overlay and validation pre-processing.
type DocumentOptions = impl.DocumentOptions

// FilterSpec selects which schemas and fields are generated.
type FilterSpec = impl.FilterSpec

// FieldSelector selects all fields of a schema or a named subset.
type FieldSelector = impl.FieldSelector

// TypeMapping allows customizing OpenAPI type/format to target type mappings.
type TypeMapping = impl.TypeMapping

// FormatMapping maps the formats of one OpenAPI type.
type FormatMapping = impl.FormatMapping

// SimpleTypeSpec is a target type with an optional import path.
type SimpleTypeSpec = impl.SimpleTypeSpec

// StructTagsConfig configures how struct tags are generated for fields.
type StructTagsConfig = impl.StructTagsConfig

// StructTagTemplate is one named struct tag template.
type StructTagTemplate = impl.StructTagTemplate

// Error kinds, matched with errors.As.
type (
	MalformedDocumentError     = impl.MalformedDocumentError
	DanglingReferenceError     = impl.DanglingReferenceError
	UnsatisfiedDependencyError = impl.UnsatisfiedDependencyError
	CyclicDependencyError      = impl.CyclicDependencyError
	UnknownTypeError           = impl.UnknownTypeError
	InvalidFilterFieldError    = impl.InvalidFilterFieldError
	NameConflictError          = impl.NameConflictError
	UnknownDecorationError     = impl.UnknownDecorationError
)

// Supported targets.
const (
	TargetGo   = impl.TargetGo
	TargetRust = impl.TargetRust
)

// AllFields selects every field of a schema.
func AllFields() FieldSelector {
	return impl.AllFields()
}

// SelectFields selects the named fields of a schema.
func SelectFields(names ...string) FieldSelector {
	return impl.SelectFields(names...)
}

// LoadDocument parses a JSON or YAML document.
func LoadDocument(ctx context.Context, data []byte, opts DocumentOptions) (*Document, error) {
	return impl.LoadDocument(ctx, data, opts)
}

// LoadDocumentFile reads and parses the document at path.
func LoadDocumentFile(ctx context.Context, path string, opts DocumentOptions) (*Document, error) {
	return impl.LoadDocumentFile(ctx, path, opts)
}

// ParseFilter parses a JSON or YAML filter document.
func ParseFilter(data []byte) (*FilterSpec, error) {
	return impl.ParseFilter(data)
}

// LoadFilterFile reads and parses the filter document at path.
func LoadFilterFile(path string) (*FilterSpec, error) {
	return impl.LoadFilterFile(path)
}

// Generate produces source code for the schemas of doc selected by filter.
// A nil filter generates every schema.
func Generate(doc *Document, filter *FilterSpec, cfg Configuration) (string, error) {
	return impl.Generate(doc, filter, cfg)
}

// WriteTypes generates code and atomically writes it to dest. dest is left
// untouched when generation fails.
func WriteTypes(doc *Document, filter *FilterSpec, dest string, cfg Configuration) error {
	return impl.WriteTypes(doc, filter, dest, cfg)
}
