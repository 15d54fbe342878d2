package codegen

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const rustIndent = "    "

var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true,
	"mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true,
}

// rustDerivePath matches a derive macro path such as Debug or serde::Serialize.
var rustDerivePath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)

type rustEmitter struct {
	types TypeMapping
}

func (e *rustEmitter) Emit(u *Unit) (string, error) {
	names, err := assignNames(u.Graph, u.Order, rustTypeName)
	if err != nil {
		return "", err
	}
	for _, d := range u.StructDecorations {
		if !rustDerivePath.MatchString(d) {
			return "", &UnknownDecorationError{Target: TargetRust, Kind: "struct", Decoration: d}
		}
	}
	for _, d := range u.EnumDecorations {
		if !rustDerivePath.MatchString(d) {
			return "", &UnknownDecorationError{Target: TargetRust, Kind: "enum", Decoration: d}
		}
	}

	ctx := NewCodegenContext()
	ctx.AddUse("serde::Deserialize")

	var body strings.Builder
	for _, name := range u.Order {
		s, _ := u.Graph.Resolve(name)
		var code string
		switch s.Kind {
		case KindObject:
			code, err = e.emitStruct(u, names, name, s)
		case KindEnum:
			code = e.emitEnum(u, names[name], name, s)
		default:
			code, err = e.emitAlias(names, name, s)
		}
		if err != nil {
			return "", err
		}
		body.WriteString(code)
		body.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("//! # OpenAPI types\n")
	b.WriteString("//! Generated by slimtypes. Manual changes to this file are\n")
	b.WriteString("//! overwritten the next time it is generated.\n\n")
	for _, use := range ctx.Uses() {
		fmt.Fprintf(&b, "use %s;\n", use)
	}
	b.WriteString("\n")
	b.WriteString(body.String())
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func (e *rustEmitter) emitStruct(u *Unit, names map[string]string, name string, s *Schema) (string, error) {
	retained := u.Resolution.Fields(name)
	idents := make([]string, len(retained))
	for i, f := range retained {
		idents[i] = rustFieldName(f)
	}
	idents = uniqueNames(idents)

	var b strings.Builder
	writeRustDoc(&b, "", s.Description, name)
	writeDerive(&b, u.StructDecorations)
	fmt.Fprintf(&b, "pub struct %s {\n", names[name])
	for i, fieldName := range retained {
		f, _ := s.Field(fieldName)
		typ, err := e.typeExpr(name, f.Schema, names)
		if err != nil {
			return "", err
		}
		if !f.Required || isNullable(u.Graph, f.Schema) {
			typ = "Option<" + typ + ">"
		}
		if f.Schema.Description != "" {
			writeRustDoc(&b, rustIndent, f.Schema.Description, "")
		}
		if idents[i] != fieldName {
			fmt.Fprintf(&b, "%s#[serde(rename = %s)]\n", rustIndent, rustQuote(fieldName))
		}
		fmt.Fprintf(&b, "%spub %s: %s,\n", rustIndent, idents[i], typ)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (e *rustEmitter) emitEnum(u *Unit, typeName, name string, s *Schema) string {
	variants := make([]string, len(s.Values))
	for i, v := range s.Values {
		variants[i] = rustVariantName(v)
	}
	variants = uniqueNames(variants)

	var b strings.Builder
	writeRustDoc(&b, "", s.Description, name)
	writeDerive(&b, u.EnumDecorations)
	fmt.Fprintf(&b, "pub enum %s {\n", typeName)
	for i, v := range s.Values {
		if variants[i] != v {
			fmt.Fprintf(&b, "%s#[serde(rename = %s)]\n", rustIndent, rustQuote(v))
		}
		fmt.Fprintf(&b, "%s%s,\n", rustIndent, variants[i])
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "impl std::fmt::Display for %s {\n", typeName)
	fmt.Fprintf(&b, "%sfn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {\n", rustIndent)
	fmt.Fprintf(&b, "%smatch self {\n", strings.Repeat(rustIndent, 2))
	for i, v := range s.Values {
		fmt.Fprintf(&b, "%s%s::%s => f.write_str(%s),\n", strings.Repeat(rustIndent, 3), typeName, variants[i], rustQuote(v))
	}
	fmt.Fprintf(&b, "%s}\n", strings.Repeat(rustIndent, 2))
	fmt.Fprintf(&b, "%s}\n", rustIndent)
	b.WriteString("}\n")
	return b.String()
}

func (e *rustEmitter) emitAlias(names map[string]string, name string, s *Schema) (string, error) {
	typ, err := e.typeExpr(name, s, names)
	if err != nil {
		return "", err
	}
	if s.Nullable {
		typ = "Option<" + typ + ">"
	}
	var b strings.Builder
	writeRustDoc(&b, "", s.Description, name)
	fmt.Fprintf(&b, "pub type %s = %s;\n", names[name], typ)
	return b.String(), nil
}

func (e *rustEmitter) typeExpr(owner string, s *Schema, names map[string]string) (string, error) {
	switch s.Kind {
	case KindReference:
		return names[s.Target], nil
	case KindArray:
		item, err := e.typeExpr(owner, s.Items, names)
		if err != nil {
			return "", err
		}
		return "Vec<" + item + ">", nil
	case KindPrimitive, KindEnum:
		spec, ok := e.types.Lookup(s.Type, s.Format)
		if !ok {
			return "", &UnknownTypeError{Schema: owner, Kind: s.Type, Format: s.Format}
		}
		return spec.Type, nil
	default:
		return "", malformed("components/schemas/"+owner, "nested inline objects are not supported, use $ref instead")
	}
}

func writeDerive(b *strings.Builder, derives []string) {
	if len(derives) == 0 {
		return
	}
	fmt.Fprintf(b, "#[derive(%s)]\n", strings.Join(derives, ", "))
}

// writeRustDoc writes description as a /// block, or fallback when the
// description is empty.
func writeRustDoc(b *strings.Builder, indent, description, fallback string) {
	text := strings.TrimSpace(description)
	if text == "" {
		text = fallback
	}
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			b.WriteString(indent + "///\n")
			continue
		}
		b.WriteString(indent + "/// " + line + "\n")
	}
}

func rustTypeName(name string) string {
	id := pascalName(name)
	if id == "" {
		return "Schema"
	}
	if unicode.IsDigit([]rune(id)[0]) {
		return "N" + id
	}
	if id == "Self" {
		return "Self_"
	}
	return id
}

func rustFieldName(name string) string {
	id := snakeName(name)
	if id == "" {
		return "field"
	}
	if unicode.IsDigit([]rune(id)[0]) {
		id = "n_" + id
	}
	if rustKeywords[id] {
		return id + "_"
	}
	return id
}

func rustVariantName(value string) string {
	id := pascalName(value)
	if id == "" {
		return "Empty"
	}
	if unicode.IsDigit([]rune(id)[0]) {
		return "V" + id
	}
	if id == "Self" {
		return "Self_"
	}
	return id
}

// rustQuote renders s as a Rust string literal.
func rustQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
