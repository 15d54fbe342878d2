package codegen

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var goEnumMethods = map[string]bool{
	"Valid":         true,
	"String":        true,
	"MarshalText":   true,
	"UnmarshalText": true,
}

type goEmitter struct {
	pkg   string
	types TypeMapping
	tags  StructTagsConfig
}

func (e *goEmitter) Emit(u *Unit) (string, error) {
	names, err := assignNames(u.Graph, u.Order, goTypeName)
	if err != nil {
		return "", err
	}
	consts := make(map[string][]string)
	for _, name := range u.Order {
		if s, _ := u.Graph.Resolve(name); s.Kind == KindEnum {
			consts[name] = goEnumConsts(names[name], s.Values)
		}
	}
	if err := checkGoIdentifiers(u.Graph, names, consts); err != nil {
		return "", err
	}
	for _, d := range u.EnumDecorations {
		if !goEnumMethods[d] {
			return "", &UnknownDecorationError{Target: TargetGo, Kind: "enum", Decoration: d}
		}
	}
	tagCfg, err := e.tags.ForDecorations(u.StructDecorations)
	if err != nil {
		return "", err
	}
	tagGen, err := NewStructTagGenerator(tagCfg)
	if err != nil {
		return "", err
	}

	ctx := NewCodegenContext()
	out := NewOutput(e.pkg)
	for _, name := range u.Order {
		s, _ := u.Graph.Resolve(name)
		var code string
		switch s.Kind {
		case KindObject:
			code, err = e.emitStruct(ctx, u, names, tagGen, name, s)
		case KindEnum:
			code, err = e.emitEnum(ctx, u, names[name], consts[name], s)
		default:
			code, err = e.emitAlias(ctx, u, names, name, s)
		}
		if err != nil {
			return "", err
		}
		out.AddType(code)
	}
	out.AddImports(ctx.Imports())
	return out.Format()
}

func (e *goEmitter) emitStruct(ctx *CodegenContext, u *Unit, names map[string]string, tagGen *StructTagGenerator, name string, s *Schema) (string, error) {
	typeName := names[name]
	retained := u.Resolution.Fields(name)

	idents := make([]string, len(retained))
	for i, f := range retained {
		idents[i] = goFieldName(f)
	}
	idents = uniqueNames(idents)

	var b strings.Builder
	writeGoDoc(&b, "", s.Description, typeName+" defines model for "+name+".")
	fmt.Fprintf(&b, "type %s struct {\n", typeName)
	for i, fieldName := range retained {
		f, _ := s.Field(fieldName)
		typ, err := e.typeExpr(ctx, name, f.Schema, names)
		if err != nil {
			return "", err
		}
		optional := !f.Required
		if (optional || isNullable(u.Graph, f.Schema)) && !e.nilable(u.Graph, f.Schema, typ) {
			typ = "*" + typ
		}
		tags, err := tagGen.GenerateTags(StructTagInfo{FieldName: fieldName, IsOptional: optional})
		if err != nil {
			return "", err
		}

		if f.Schema.Description != "" {
			writeGoDoc(&b, "\t", f.Schema.Description, "")
		}
		fmt.Fprintf(&b, "\t%s %s", idents[i], typ)
		if tags != "" {
			b.WriteString(" " + tags)
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (e *goEmitter) emitEnum(ctx *CodegenContext, u *Unit, typeName string, consts []string, s *Schema) (string, error) {
	base, ok := e.types.Lookup(s.Type, "")
	if !ok {
		return "", &UnknownTypeError{Schema: typeName, Kind: s.Type, Format: "enum"}
	}
	addTypeImport(ctx, base)

	var b strings.Builder
	writeGoDoc(&b, "", s.Description, typeName+" defines model for "+typeName+".")
	fmt.Fprintf(&b, "type %s %s\n", typeName, base.Type)

	if len(s.Values) > 0 {
		fmt.Fprintf(&b, "\n// Defines values for %s.\nconst (\n", typeName)
		for i, v := range s.Values {
			fmt.Fprintf(&b, "\t%s %s = %q\n", consts[i], typeName, v)
		}
		b.WriteString(")\n")
	}

	caseList := strings.Join(consts, ", ")
	for _, d := range u.EnumDecorations {
		b.WriteString("\n")
		switch d {
		case "Valid":
			fmt.Fprintf(&b, "// Valid reports whether v is one of the defined values of %s.\n", typeName)
			fmt.Fprintf(&b, "func (v %s) Valid() bool {\n", typeName)
			if len(consts) == 0 {
				b.WriteString("\treturn false\n}\n")
				continue
			}
			fmt.Fprintf(&b, "\tswitch v {\n\tcase %s:\n\t\treturn true\n\tdefault:\n\t\treturn false\n\t}\n}\n", caseList)
		case "String":
			fmt.Fprintf(&b, "func (v %s) String() string {\n\treturn string(v)\n}\n", typeName)
		case "MarshalText":
			fmt.Fprintf(&b, "func (v %s) MarshalText() ([]byte, error) {\n\treturn []byte(v), nil\n}\n", typeName)
		case "UnmarshalText":
			ctx.AddImport("fmt")
			fmt.Fprintf(&b, "func (v *%s) UnmarshalText(data []byte) error {\n", typeName)
			if len(consts) > 0 {
				fmt.Fprintf(&b, "\tswitch s := %s(data); s {\n\tcase %s:\n\t\t*v = s\n\t\treturn nil\n\t}\n", typeName, caseList)
			}
			fmt.Fprintf(&b, "\treturn fmt.Errorf(\"invalid %s value %%q\", data)\n}\n", typeName)
		}
	}
	return b.String(), nil
}

// goEnumConsts names the constants of an enum, one per value.
func goEnumConsts(typeName string, values []string) []string {
	consts := make([]string, len(values))
	for i, v := range values {
		suffix := goName(v)
		if suffix == "" {
			suffix = "Empty"
		}
		consts[i] = typeName + suffix
	}
	return uniqueNames(consts)
}

// checkGoIdentifiers reports package-level identifiers declared more than
// once: a type name or an enum constant of one schema that equals one of
// another schema.
func checkGoIdentifiers(g *Graph, names map[string]string, consts map[string][]string) error {
	owners := make(map[string][]string)
	var ids []string
	declare := func(id, schema string) {
		if _, ok := owners[id]; !ok {
			ids = append(ids, id)
		}
		owners[id] = append(owners[id], schema)
	}
	for _, name := range g.Names() {
		if id, ok := names[name]; ok {
			declare(id, name)
		}
	}
	for _, name := range g.Names() {
		for _, c := range consts[name] {
			declare(c, name)
		}
	}

	var errs []error
	for _, id := range ids {
		if len(owners[id]) > 1 {
			errs = append(errs, &NameConflictError{Identifier: id, Schemas: owners[id]})
		}
	}
	return errors.Join(errs...)
}

func (e *goEmitter) emitAlias(ctx *CodegenContext, u *Unit, names map[string]string, name string, s *Schema) (string, error) {
	typ, err := e.typeExpr(ctx, name, s, names)
	if err != nil {
		return "", err
	}
	if s.Nullable && !e.nilable(u.Graph, s, typ) {
		typ = "*" + typ
	}

	var b strings.Builder
	writeGoDoc(&b, "", s.Description, names[name]+" defines model for "+name+".")
	fmt.Fprintf(&b, "type %s = %s\n", names[name], typ)
	return b.String(), nil
}

// typeExpr renders the Go type of a field, item or alias position.
func (e *goEmitter) typeExpr(ctx *CodegenContext, owner string, s *Schema, names map[string]string) (string, error) {
	switch s.Kind {
	case KindReference:
		return names[s.Target], nil
	case KindArray:
		item, err := e.typeExpr(ctx, owner, s.Items, names)
		if err != nil {
			return "", err
		}
		return "[]" + item, nil
	case KindPrimitive, KindEnum:
		spec, ok := e.types.Lookup(s.Type, s.Format)
		if !ok {
			return "", &UnknownTypeError{Schema: owner, Kind: s.Type, Format: s.Format}
		}
		addTypeImport(ctx, spec)
		return spec.Type, nil
	default:
		return "", malformed("components/schemas/"+owner, "nested inline objects are not supported, use $ref instead")
	}
}

func addTypeImport(ctx *CodegenContext, spec SimpleTypeSpec) {
	if spec.Alias != "" {
		ctx.AddImportAlias(spec.Import, spec.Alias)
		return
	}
	ctx.AddImport(spec.Import)
}

// nilable reports whether the Go type of s already admits nil, looking
// through references to aliases.
func (e *goEmitter) nilable(g *Graph, s *Schema, typ string) bool {
	if goHasNilZero(typ) {
		return true
	}
	for s.Kind == KindReference {
		t, ok := g.Resolve(s.Target)
		if !ok || t.Kind == KindObject || t.Kind == KindEnum {
			return false
		}
		if t.Nullable {
			return true
		}
		s = t
	}
	switch s.Kind {
	case KindArray:
		return true
	case KindPrimitive:
		spec, ok := e.types.Lookup(s.Type, s.Format)
		return ok && goHasNilZero(spec.Type)
	default:
		return false
	}
}

// goHasNilZero reports whether typ already has nil as its zero value.
func goHasNilZero(typ string) bool {
	return strings.HasPrefix(typ, "[]") ||
		strings.HasPrefix(typ, "map[") ||
		strings.HasPrefix(typ, "*") ||
		typ == "any" || typ == "interface{}"
}

func goFieldName(name string) string {
	id := goName(name)
	if id == "" {
		return "Field"
	}
	if unicode.IsDigit([]rune(id)[0]) {
		return "N" + id
	}
	return id
}

// writeGoDoc writes description as a comment block, or fallback when the
// description is empty.
func writeGoDoc(b *strings.Builder, indent, description, fallback string) {
	text := strings.TrimSpace(description)
	if text == "" {
		text = fallback
	}
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			b.WriteString(indent + "//\n")
			continue
		}
		b.WriteString(indent + "// " + line + "\n")
	}
}
