package codegen

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const componentSchemaPrefix = "#/components/schemas/"

// BuildGraph reads components/schemas from a parsed document. A document
// without components yields an empty graph.
func BuildGraph(doc *yaml.Node) (*Graph, error) {
	root := documentRoot(doc)
	if root == nil {
		return nil, malformed("", "document is empty")
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformed("", "document root must be a mapping, got %s", kindName(root))
	}

	g := NewGraph()
	components := mappingValue(root, "components")
	if components == nil {
		return g, nil
	}
	if components.Kind != yaml.MappingNode {
		return nil, malformed("components", "expected a mapping, got %s", kindName(components))
	}
	schemas := mappingValue(components, "schemas")
	if schemas == nil || isNull(schemas) {
		return g, nil
	}
	if schemas.Kind != yaml.MappingNode {
		return nil, malformed("components/schemas", "expected a mapping, got %s", kindName(schemas))
	}

	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		s, err := parseSchema(schemas.Content[i+1], "components/schemas/"+name, true)
		if err != nil {
			return nil, err
		}
		if err := g.Add(name, s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// parseSchema maps one schema object onto a Schema node. Named (top-level)
// schemas may be objects and enums; field and item positions may not
// declare inline objects.
func parseSchema(n *yaml.Node, path string, named bool) (*Schema, error) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, malformed(path, "schema must be a mapping")
	}

	s := &Schema{}
	if d := mappingValue(n, "description"); d != nil {
		s.Description = d.Value
	}
	if nv := mappingValue(n, "nullable"); nv != nil {
		b, err := strconv.ParseBool(nv.Value)
		if err != nil {
			return nil, malformed(path+"/nullable", "expected a boolean, got %q", nv.Value)
		}
		s.Nullable = b
	}

	if ref := mappingValue(n, "$ref"); ref != nil {
		target, err := refTarget(ref.Value, path)
		if err != nil {
			return nil, err
		}
		s.Kind = KindReference
		s.Target = target
		return s, nil
	}

	for _, key := range []string{"oneOf", "anyOf"} {
		if mappingValue(n, key) != nil {
			return nil, malformed(path, "%s is not supported", key)
		}
	}

	if allOf := mappingValue(n, "allOf"); allOf != nil {
		if allOf.Kind != yaml.SequenceNode || len(allOf.Content) != 1 {
			return nil, malformed(path+"/allOf", "only a single-element allOf is supported")
		}
		inner, err := parseSchema(allOf.Content[0], path+"/allOf/0", named)
		if err != nil {
			return nil, err
		}
		merged := *inner
		merged.Nullable = merged.Nullable || s.Nullable
		if merged.Description == "" {
			merged.Description = s.Description
		}
		return &merged, nil
	}

	typ, nullable, err := schemaType(mappingValue(n, "type"), path)
	if err != nil {
		return nil, err
	}
	s.Nullable = s.Nullable || nullable
	if f := mappingValue(n, "format"); f != nil {
		s.Format = f.Value
	}

	props := mappingValue(n, "properties")
	items := mappingValue(n, "items")

	switch {
	case mappingValue(n, "enum") != nil:
		return parseEnum(s, mappingValue(n, "enum"), typ, path, named)

	case (props != nil && len(props.Content) > 0) || (typ == TypeObject && props != nil):
		if props.Kind != yaml.MappingNode {
			return nil, malformed(path+"/properties", "expected a mapping, got %s", kindName(props))
		}
		if len(props.Content) == 0 {
			s.Kind = KindPrimitive
			s.Type = TypeObject
			return s, nil
		}
		if !named {
			return nil, malformed(path, "nested inline objects are not supported, use $ref instead")
		}
		required, err := requiredSet(mappingValue(n, "required"), path)
		if err != nil {
			return nil, err
		}
		s.Kind = KindObject
		for i := 0; i+1 < len(props.Content); i += 2 {
			name := props.Content[i].Value
			fs, err := parseSchema(props.Content[i+1], path+"/properties/"+name, false)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, Field{Name: name, Schema: fs, Required: required[name]})
		}
		return s, nil

	case typ == TypeObject:
		s.Kind = KindPrimitive
		s.Type = TypeObject
		return s, nil

	case items != nil || typ == "array":
		if items == nil {
			return nil, malformed(path, "array schema without items")
		}
		is, err := parseSchema(items, path+"/items", false)
		if err != nil {
			return nil, err
		}
		s.Kind = KindArray
		s.Items = is
		return s, nil

	case typ == "":
		s.Kind = KindPrimitive
		s.Type = TypeAny
		return s, nil

	case typ == TypeString, typ == TypeInteger, typ == TypeNumber, typ == TypeBoolean:
		s.Kind = KindPrimitive
		s.Type = typ
		return s, nil

	default:
		return nil, &UnknownTypeError{Schema: path, Kind: typ, Format: s.Format}
	}
}

func parseEnum(s *Schema, values *yaml.Node, typ, path string, named bool) (*Schema, error) {
	if values.Kind != yaml.SequenceNode {
		return nil, malformed(path+"/enum", "expected a sequence, got %s", kindName(values))
	}
	if typ == "" {
		typ = TypeString
	}
	if !named {
		// Inline enums carry no name to emit, so the field keeps the base type.
		s.Kind = KindPrimitive
		s.Type = typ
		return s, nil
	}
	if typ != TypeString {
		return nil, &UnknownTypeError{Schema: path, Kind: typ, Format: "enum"}
	}
	s.Kind = KindEnum
	s.Type = typ
	seen := make(map[string]bool, len(values.Content))
	for _, v := range values.Content {
		v = deref(v)
		if isNull(v) {
			s.Nullable = true
			continue
		}
		if v.Kind != yaml.ScalarNode {
			return nil, malformed(path+"/enum", "enum values must be scalars")
		}
		if seen[v.Value] {
			continue
		}
		seen[v.Value] = true
		s.Values = append(s.Values, v.Value)
	}
	return s, nil
}

// schemaType reads "type", accepting the 3.1 list form where "null" marks
// the schema nullable.
func schemaType(n *yaml.Node, path string) (string, bool, error) {
	if n == nil {
		return "", false, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, false, nil
	case yaml.SequenceNode:
		var typ string
		var nullable bool
		for _, t := range n.Content {
			if t.Value == "null" {
				nullable = true
				continue
			}
			if typ != "" {
				return "", false, malformed(path+"/type", "multiple types are not supported")
			}
			typ = t.Value
		}
		return typ, nullable, nil
	default:
		return "", false, malformed(path+"/type", "expected a string or a list, got %s", kindName(n))
	}
}

func requiredSet(n *yaml.Node, path string) (map[string]bool, error) {
	set := make(map[string]bool)
	if n == nil {
		return set, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(path+"/required", "expected a sequence, got %s", kindName(n))
	}
	for _, v := range n.Content {
		set[v.Value] = true
	}
	return set, nil
}

// refTarget extracts the schema name from a components/schemas JSON pointer.
func refTarget(ref, path string) (string, error) {
	if !strings.HasPrefix(ref, componentSchemaPrefix) {
		return "", malformed(path, "unsupported $ref %q, only %s<Name> is allowed", ref, componentSchemaPrefix)
	}
	name := strings.TrimPrefix(ref, componentSchemaPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", malformed(path, "unsupported $ref %q", ref)
	}
	name = strings.ReplaceAll(name, "~1", "/")
	name = strings.ReplaceAll(name, "~0", "~")
	return name, nil
}
