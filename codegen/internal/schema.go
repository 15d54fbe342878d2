package codegen

import "fmt"

// SchemaKind tags the shape of a Schema.
type SchemaKind int

const (
	KindPrimitive SchemaKind = iota
	KindObject
	KindArray
	KindEnum
	KindReference
)

func (k SchemaKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("SchemaKind(%d)", int(k))
	}
}

// Primitive type names as they appear in the document. TypeObject is a
// free-form object (no properties) and TypeAny a schema with no type at all.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeAny     = "any"
)

// Schema is one node of the schema graph. Which fields are meaningful
// depends on Kind:
//
//	KindPrimitive  Type, Format
//	KindObject     Fields
//	KindArray      Items
//	KindEnum       Type (base type), Values
//	KindReference  Target
//
// A Schema is never mutated after the graph is built.
type Schema struct {
	Kind        SchemaKind
	Type        string
	Format      string
	Fields      []Field
	Items       *Schema
	Values      []string
	Target      string
	Nullable    bool
	Description string
}

// Field is a single object property. Fields keep document order.
type Field struct {
	Name     string
	Schema   *Schema
	Required bool
}

// FieldNames returns the property names of an object schema in document order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a property by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// references appends every schema name s points at. For objects only the
// fields listed in retained are considered.
func (s *Schema) references(retained []string, out []string) []string {
	switch s.Kind {
	case KindReference:
		return append(out, s.Target)
	case KindArray:
		return s.Items.references(nil, out)
	case KindObject:
		for _, name := range retained {
			if f, ok := s.Field(name); ok {
				out = f.Schema.references(nil, out)
			}
		}
	}
	return out
}

// Graph indexes the named component schemas of a document. Lookups are by
// name; references are never expanded structurally.
type Graph struct {
	schemas map[string]*Schema
	order   []string
	index   map[string]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		schemas: make(map[string]*Schema),
		index:   make(map[string]int),
	}
}

// Add registers a named schema. Declaration order is the order of Add calls.
func (g *Graph) Add(name string, s *Schema) error {
	if _, exists := g.schemas[name]; exists {
		return malformed("components/schemas/"+name, "schema %q declared more than once", name)
	}
	g.schemas[name] = s
	g.index[name] = len(g.order)
	g.order = append(g.order, name)
	return nil
}

// Resolve returns the schema declared under name.
func (g *Graph) Resolve(name string) (*Schema, bool) {
	s, ok := g.schemas[name]
	return s, ok
}

// Names returns all schema names in declaration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Index returns the declaration index of name, or -1.
func (g *Graph) Index(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	return -1
}

// Len returns the number of schemas in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}
