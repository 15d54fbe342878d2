package codegen

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/imports"
)

const generatedHeader = "// Code generated by slimtypes. DO NOT EDIT."

// Output assembles one generated Go file.
type Output struct {
	pkg     string
	imports map[string]string
	types   []string
}

// NewOutput creates an output for package pkg.
func NewOutput(pkg string) *Output {
	return &Output{
		pkg:     pkg,
		imports: make(map[string]string),
	}
}

// AddType appends a declaration block.
func (o *Output) AddType(code string) {
	if code = strings.TrimSpace(code); code != "" {
		o.types = append(o.types, code)
	}
}

// AddImport adds one import, optionally aliased.
func (o *Output) AddImport(path, alias string) {
	if path != "" {
		o.imports[path] = alias
	}
}

// AddImports adds imports from a map[path]alias.
func (o *Output) AddImports(imports map[string]string) {
	for path, alias := range imports {
		o.AddImport(path, alias)
	}
}

// Format renders the file and runs it through goimports in format-only
// mode, so imports are grouped and sorted but never added or removed.
func (o *Output) Format() (string, error) {
	var b strings.Builder
	b.WriteString(generatedHeader)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package %s\n", o.pkg)

	if len(o.imports) > 0 {
		paths := make([]string, 0, len(o.imports))
		for p := range o.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		b.WriteString("\nimport (\n")
		for _, p := range paths {
			if alias := o.imports[p]; alias != "" {
				fmt.Fprintf(&b, "\t%s %q\n", alias, p)
			} else {
				fmt.Fprintf(&b, "\t%q\n", p)
			}
		}
		b.WriteString(")\n")
	}

	for _, t := range o.types {
		b.WriteString("\n")
		b.WriteString(t)
		b.WriteString("\n")
	}

	formatted, err := imports.Process("", []byte(b.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return "", fmt.Errorf("formatting generated code: %w", err)
	}
	return string(formatted), nil
}
