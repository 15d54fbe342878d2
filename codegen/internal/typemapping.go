package codegen

import (
	"fmt"
	"go/token"

	"golang.org/x/mod/module"
)

// SimpleTypeSpec is the target type for one (type, format) pair. Import is
// the package the type lives in, if any, and Alias the name it is imported
// under when Type does not use the package's own name (Go target only).
type SimpleTypeSpec struct {
	Type   string `yaml:"type"`
	Import string `yaml:"import,omitempty"`
	Alias  string `yaml:"alias,omitempty"`
}

// FormatMapping maps the formats of one OpenAPI type. Default is used when
// the schema has no format; a format missing from Formats has no mapping.
type FormatMapping struct {
	Default SimpleTypeSpec            `yaml:"default,omitempty"`
	Formats map[string]SimpleTypeSpec `yaml:"formats,omitempty"`
}

// TypeMapping maps primitive schemas onto target types. Object is used for
// free-form objects and Any for schemas without a type.
type TypeMapping struct {
	Integer FormatMapping `yaml:"integer,omitempty"`
	Number  FormatMapping `yaml:"number,omitempty"`
	Boolean FormatMapping `yaml:"boolean,omitempty"`
	String  FormatMapping `yaml:"string,omitempty"`
	Object  FormatMapping `yaml:"object,omitempty"`
	Any     FormatMapping `yaml:"any,omitempty"`
}

// DefaultGoTypeMapping returns the baseline Go mapping.
func DefaultGoTypeMapping() TypeMapping {
	return TypeMapping{
		Integer: FormatMapping{
			Default: SimpleTypeSpec{Type: "int"},
			Formats: map[string]SimpleTypeSpec{
				"int8":   {Type: "int8"},
				"int16":  {Type: "int16"},
				"int32":  {Type: "int32"},
				"int64":  {Type: "int64"},
				"uint8":  {Type: "uint8"},
				"uint16": {Type: "uint16"},
				"uint32": {Type: "uint32"},
				"uint64": {Type: "uint64"},
			},
		},
		Number: FormatMapping{
			Default: SimpleTypeSpec{Type: "float64"},
			Formats: map[string]SimpleTypeSpec{
				"float":  {Type: "float32"},
				"double": {Type: "float64"},
			},
		},
		Boolean: FormatMapping{Default: SimpleTypeSpec{Type: "bool"}},
		String: FormatMapping{
			Default: SimpleTypeSpec{Type: "string"},
			Formats: withStringFormats(map[string]SimpleTypeSpec{
				"date-time": {Type: "time.Time", Import: "time"},
				"byte":      {Type: "[]byte"},
			}, SimpleTypeSpec{Type: "string"}),
		},
		Object: FormatMapping{Default: SimpleTypeSpec{Type: "map[string]any"}},
		Any:    FormatMapping{Default: SimpleTypeSpec{Type: "any"}},
	}
}

// DefaultRustTypeMapping returns the baseline Rust mapping.
func DefaultRustTypeMapping() TypeMapping {
	return TypeMapping{
		Integer: FormatMapping{
			Default: SimpleTypeSpec{Type: "i32"},
			Formats: map[string]SimpleTypeSpec{
				"int8":   {Type: "i8"},
				"int16":  {Type: "i16"},
				"int32":  {Type: "i32"},
				"int64":  {Type: "i64"},
				"uint8":  {Type: "u8"},
				"uint16": {Type: "u16"},
				"uint32": {Type: "u32"},
				"uint64": {Type: "u64"},
			},
		},
		Number: FormatMapping{
			Default: SimpleTypeSpec{Type: "f64"},
			Formats: map[string]SimpleTypeSpec{
				"float":  {Type: "f32"},
				"double": {Type: "f64"},
			},
		},
		Boolean: FormatMapping{Default: SimpleTypeSpec{Type: "bool"}},
		String: FormatMapping{
			Default: SimpleTypeSpec{Type: "String"},
			Formats: withStringFormats(map[string]SimpleTypeSpec{
				"date":      {Type: "time::Date"},
				"date-time": {Type: "time::OffsetDateTime"},
			}, SimpleTypeSpec{Type: "String"}),
		},
		Object: FormatMapping{Default: SimpleTypeSpec{Type: "serde_json::Map<String, serde_json::Value>"}},
		Any:    FormatMapping{Default: SimpleTypeSpec{Type: "serde_json::Value"}},
	}
}

// plainStringFormats are string formats carried as the plain string type.
var plainStringFormats = []string{
	"binary", "byte", "date", "date-time", "duration", "email", "hostname",
	"idn-email", "idn-hostname", "ipv4", "ipv6", "iri", "iri-reference",
	"json-pointer", "password", "regex", "time", "uri", "uri-reference",
	"uri-template", "uuid",
}

func withStringFormats(overrides map[string]SimpleTypeSpec, plain SimpleTypeSpec) map[string]SimpleTypeSpec {
	out := make(map[string]SimpleTypeSpec, len(plainStringFormats))
	for _, f := range plainStringFormats {
		out[f] = plain
	}
	for f, spec := range overrides {
		out[f] = spec
	}
	return out
}

func (tm *TypeMapping) forType(typ string) *FormatMapping {
	switch typ {
	case TypeInteger:
		return &tm.Integer
	case TypeNumber:
		return &tm.Number
	case TypeBoolean:
		return &tm.Boolean
	case TypeString:
		return &tm.String
	case TypeObject:
		return &tm.Object
	case TypeAny:
		return &tm.Any
	default:
		return nil
	}
}

// Lookup returns the target type for (typ, format).
func (tm TypeMapping) Lookup(typ, format string) (SimpleTypeSpec, bool) {
	fm := tm.forType(typ)
	if fm == nil {
		return SimpleTypeSpec{}, false
	}
	if format == "" {
		return fm.Default, fm.Default.Type != ""
	}
	spec, ok := fm.Formats[format]
	return spec, ok && spec.Type != ""
}

// Merge lays other on top of tm. A non-empty default replaces the baseline
// default; formats are merged one by one.
func (tm TypeMapping) Merge(other TypeMapping) TypeMapping {
	result := tm
	for _, typ := range []string{TypeInteger, TypeNumber, TypeBoolean, TypeString, TypeObject, TypeAny} {
		dst, src := result.forType(typ), other.forType(typ)
		if src.Default.Type != "" {
			dst.Default = src.Default
		}
		if len(src.Formats) == 0 {
			continue
		}
		merged := make(map[string]SimpleTypeSpec, len(dst.Formats)+len(src.Formats))
		for f, spec := range dst.Formats {
			merged[f] = spec
		}
		for f, spec := range src.Formats {
			merged[f] = spec
		}
		dst.Formats = merged
	}
	return result
}

// ValidateImports checks that every import path in the mapping is a valid
// Go import path and is always imported under the same name.
func (tm TypeMapping) ValidateImports() error {
	aliases := make(map[string]string)
	for _, typ := range []string{TypeInteger, TypeNumber, TypeBoolean, TypeString, TypeObject, TypeAny} {
		fm := tm.forType(typ)
		specs := []SimpleTypeSpec{fm.Default}
		for _, f := range sortedKeys(fm.Formats) {
			specs = append(specs, fm.Formats[f])
		}
		for _, spec := range specs {
			if spec.Import == "" {
				if spec.Alias != "" {
					return fmt.Errorf("type mapping for %s: alias %q without import", typ, spec.Alias)
				}
				continue
			}
			if err := module.CheckImportPath(spec.Import); err != nil {
				return fmt.Errorf("type mapping for %s: %w", typ, err)
			}
			if spec.Alias != "" && (!token.IsIdentifier(spec.Alias) || spec.Alias == "_") {
				return fmt.Errorf("type mapping for %s: invalid import alias %q", typ, spec.Alias)
			}
			if prev, ok := aliases[spec.Import]; ok && prev != spec.Alias {
				return fmt.Errorf("type mapping for %s: %q imported as both %q and %q", typ, spec.Import, prev, spec.Alias)
			}
			aliases[spec.Import] = spec.Alias
		}
	}
	return nil
}
