package codegen

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FieldSelector picks the fields of an object schema: either all of them
// ("*" in the filter document) or a specific list.
type FieldSelector struct {
	all    bool
	fields []string
}

// AllFields selects every field.
func AllFields() FieldSelector {
	return FieldSelector{all: true}
}

// SelectFields selects the named fields.
func SelectFields(names ...string) FieldSelector {
	return FieldSelector{fields: append([]string(nil), names...)}
}

// All reports whether the selector selects every field.
func (s FieldSelector) All() bool { return s.all }

// Fields returns the explicitly named fields.
func (s FieldSelector) Fields() []string { return s.fields }

// Has reports whether the selector names field.
func (s FieldSelector) Has(field string) bool {
	if s.all {
		return true
	}
	for _, f := range s.fields {
		if f == field {
			return true
		}
	}
	return false
}

func (s *FieldSelector) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value != "*" {
			return fmt.Errorf("line %d: expected \"*\" or a list of field names, got %q", n.Line, n.Value)
		}
		*s = AllFields()
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return err
		}
		*s = SelectFields(names...)
		return nil
	default:
		return fmt.Errorf("line %d: expected \"*\" or a list of field names", n.Line)
	}
}

// FilterSpec is the caller supplied include/exclude specification.
type FilterSpec struct {
	Include                 map[string]FieldSelector `yaml:"include,omitempty"`
	Exclude                 map[string]FieldSelector `yaml:"exclude,omitempty"`
	AutoIncludeDependencies bool                     `yaml:"auto_include_dependencies,omitempty"`
	// StructDecorations and EnumDecorations are applied verbatim to every
	// record and enumeration. Nil selects the target's baseline set.
	StructDecorations []string `yaml:"struct_derives,omitempty"`
	EnumDecorations   []string `yaml:"enum_derives,omitempty"`
}

var filterKeys = map[string]bool{
	"include":                   true,
	"exclude":                   true,
	"auto_include_dependencies": true,
	"struct_derives":            true,
	"enum_derives":              true,
}

// ParseFilter parses a JSON or YAML filter document. An empty document is
// the empty filter, which generates everything.
func ParseFilter(data []byte) (*FilterSpec, error) {
	node, err := decodeNode(data)
	if err != nil {
		return nil, &MalformedDocumentError{Path: "filter", Err: err}
	}
	root := documentRoot(node)
	if root == nil {
		return &FilterSpec{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformed("filter", "expected a mapping, got %s", kindName(root))
	}
	for _, key := range mappingKeys(root) {
		if !filterKeys[key] {
			return nil, malformed("filter", "unknown key %q", key)
		}
	}

	var spec FilterSpec
	if err := root.Decode(&spec); err != nil {
		return nil, &MalformedDocumentError{Path: "filter", Err: err}
	}
	return &spec, nil
}

// LoadFilterFile reads and parses the filter document at path.
func LoadFilterFile(path string) (*FilterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter %s: %w", path, err)
	}
	spec, err := ParseFilter(data)
	if err != nil {
		return nil, fmt.Errorf("loading filter %s: %w", path, err)
	}
	return spec, nil
}

// DecisionKind is the filter's verdict on a single schema.
type DecisionKind int

const (
	// DecisionUnspecified means the filter says nothing about the schema.
	// Only the dependency resolver decides what happens to it.
	DecisionUnspecified DecisionKind = iota
	DecisionGenerate
	DecisionSkip
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionGenerate:
		return "generate"
	case DecisionSkip:
		return "skip"
	default:
		return "unspecified"
	}
}

// Decision is the result of classifying one schema. Fields holds the
// retained object fields in document order and is nil for non-objects.
type Decision struct {
	Kind   DecisionKind
	Fields []string
}

// Filter evaluates a FilterSpec against a schema graph.
type Filter struct {
	spec  *FilterSpec
	graph *Graph
}

// NewFilter checks spec against g and returns a filter for it. Field lists
// that name a non-object schema are rejected; entries for unknown schemas
// and names listed in both include and exclude are logged and resolved
// (include wins).
func NewFilter(spec *FilterSpec, g *Graph, log *zap.Logger) (*Filter, error) {
	if spec == nil {
		spec = &FilterSpec{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	for _, section := range []struct {
		name    string
		entries map[string]FieldSelector
	}{
		{"include", spec.Include},
		{"exclude", spec.Exclude},
	} {
		for _, name := range sortedKeys(section.entries) {
			sel := section.entries[name]
			s, ok := g.Resolve(name)
			if !ok {
				log.Warn("filter entry names an unknown schema",
					zap.String("section", section.name), zap.String("schema", name))
				continue
			}
			if s.Kind != KindObject && !sel.All() && len(sel.Fields()) > 0 {
				return nil, &InvalidFilterFieldError{Schema: name, Field: sel.Fields()[0]}
			}
		}
	}
	for _, name := range sortedKeys(spec.Include) {
		if _, ok := spec.Exclude[name]; ok {
			log.Warn("schema is both included and excluded, include takes precedence", zap.String("schema", name))
		}
	}

	return &Filter{spec: spec, graph: g}, nil
}

// Spec returns the filter specification.
func (f *Filter) Spec() *FilterSpec { return f.spec }

// Classify decides whether a schema is generated, skipped, or left to the
// dependency resolver.
func (f *Filter) Classify(name string) Decision {
	s, ok := f.graph.Resolve(name)
	if !ok {
		return Decision{Kind: DecisionUnspecified}
	}

	if len(f.spec.Include) > 0 {
		if sel, ok := f.spec.Include[name]; ok {
			return Decision{Kind: DecisionGenerate, Fields: retain(s, sel.Has)}
		}
		if sel, ok := f.spec.Exclude[name]; ok && sel.All() {
			return Decision{Kind: DecisionSkip}
		}
		return Decision{Kind: DecisionUnspecified}
	}

	if sel, ok := f.spec.Exclude[name]; ok {
		if sel.All() {
			return Decision{Kind: DecisionSkip}
		}
		return Decision{Kind: DecisionGenerate, Fields: retain(s, func(field string) bool { return !sel.Has(field) })}
	}

	return Decision{Kind: DecisionGenerate, Fields: retain(s, keepAll)}
}

// Promote returns the decision for a schema pulled in as a dependency: all
// fields, minus any field-level exclusions.
func (f *Filter) Promote(name string) Decision {
	s, ok := f.graph.Resolve(name)
	if !ok {
		return Decision{Kind: DecisionUnspecified}
	}
	if sel, ok := f.spec.Exclude[name]; ok && !sel.All() {
		return Decision{Kind: DecisionGenerate, Fields: retain(s, func(field string) bool { return !sel.Has(field) })}
	}
	return Decision{Kind: DecisionGenerate, Fields: retain(s, keepAll)}
}

func keepAll(string) bool { return true }

// retain returns the fields of s accepted by keep, in document order.
func retain(s *Schema, keep func(string) bool) []string {
	if s.Kind != KindObject {
		return nil
	}
	fields := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if keep(f.Name) {
			fields = append(fields, f.Name)
		}
	}
	return fields
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
