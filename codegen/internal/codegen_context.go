package codegen

import "sort"

// CodegenContext tracks what the generated file needs beyond its type
// declarations. Emitters register imports (Go) or use declarations (Rust)
// at any depth; the output assembly queries it afterwards to emit exactly
// what was requested.
type CodegenContext struct {
	imports map[string]string // path -> alias
	uses    map[string]bool
}

// NewCodegenContext creates a new CodegenContext.
func NewCodegenContext() *CodegenContext {
	return &CodegenContext{
		imports: make(map[string]string),
		uses:    make(map[string]bool),
	}
}

// --- Import registration ---

// AddImport records an import path needed by the generated code.
func (c *CodegenContext) AddImport(path string) {
	if path != "" {
		if _, ok := c.imports[path]; !ok {
			c.imports[path] = ""
		}
	}
}

// AddImportAlias records an import path with an alias.
func (c *CodegenContext) AddImportAlias(path, alias string) {
	if path != "" {
		c.imports[path] = alias
	}
}

// AddUse records a Rust use declaration, e.g. "serde::Deserialize".
func (c *CodegenContext) AddUse(path string) {
	if path != "" {
		c.uses[path] = true
	}
}

// --- Query methods ---

// Imports returns the collected imports as a map[path]alias.
func (c *CodegenContext) Imports() map[string]string {
	return c.imports
}

// Uses returns the sorted list of use declarations.
func (c *CodegenContext) Uses() []string {
	result := make([]string, 0, len(c.uses))
	for path := range c.uses {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}
