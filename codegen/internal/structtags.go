package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// StructTagInfo contains the data available to struct tag templates.
type StructTagInfo struct {
	// FieldName is the property name from the document
	FieldName string
	// IsOptional is true if the property is not required
	IsOptional bool
}

// StructTagTemplate defines a single struct tag with a name and template.
type StructTagTemplate struct {
	// Name is the tag name (e.g., "json", "yaml", "form")
	Name string `yaml:"name"`
	// Template is a Go text/template that produces the tag value.
	// Available fields: .FieldName, .IsOptional
	// Example: `{{ .FieldName }}{{if .IsOptional}},omitempty{{end}}`
	Template string `yaml:"template"`
}

// StructTagsConfig configures struct tag generation. Which tags are emitted
// is decided by the struct decorations of the filter; this only supplies
// templates for tags that need something other than the default.
type StructTagsConfig struct {
	Tags []StructTagTemplate `yaml:"tags,omitempty"`
}

// DefaultTagTemplate renders the property name, with omitempty for optional
// properties.
const DefaultTagTemplate = `{{ .FieldName }}{{if .IsOptional}},omitempty{{end}}`

// ForDecorations returns the tag templates for the given decoration list in
// decoration order. Decorations without a configured template use
// DefaultTagTemplate.
func (c StructTagsConfig) ForDecorations(decorations []string) (StructTagsConfig, error) {
	byName := make(map[string]StructTagTemplate, len(c.Tags))
	for _, t := range c.Tags {
		byName[t.Name] = t
	}

	result := StructTagsConfig{Tags: make([]StructTagTemplate, 0, len(decorations))}
	for _, d := range decorations {
		if !validTagName(d) {
			return StructTagsConfig{}, &UnknownDecorationError{Target: TargetGo, Kind: "struct", Decoration: d}
		}
		t, ok := byName[d]
		if !ok {
			t = StructTagTemplate{Name: d, Template: DefaultTagTemplate}
		}
		result.Tags = append(result.Tags, t)
	}
	return result, nil
}

// validTagName follows the reflect.StructTag key convention: non-empty, no
// control characters, spaces, quotes or colons.
func validTagName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r == ':' || r == '"' || r == '`' || r == 0x7f {
			return false
		}
	}
	return true
}

// StructTagGenerator generates struct tags from templates.
type StructTagGenerator struct {
	templates []*tagTemplate
}

type tagTemplate struct {
	name string
	tmpl *template.Template
}

// NewStructTagGenerator creates a generator from the configuration.
func NewStructTagGenerator(config StructTagsConfig) (*StructTagGenerator, error) {
	g := &StructTagGenerator{
		templates: make([]*tagTemplate, 0, len(config.Tags)),
	}

	for _, tag := range config.Tags {
		tmpl, err := template.New(tag.Name).Option("missingkey=error").Parse(tag.Template)
		if err != nil {
			return nil, fmt.Errorf("parsing %q struct tag template: %w", tag.Name, err)
		}
		g.templates = append(g.templates, &tagTemplate{
			name: tag.Name,
			tmpl: tmpl,
		})
	}

	return g, nil
}

// GenerateTags generates the complete struct tag string for a field.
// Returns a string like `json:"name,omitempty" yaml:"name,omitempty"`, or
// "" when no tag renders a value.
func (g *StructTagGenerator) GenerateTags(info StructTagInfo) (string, error) {
	if len(g.templates) == 0 {
		return "", nil
	}

	var tags []string
	for _, t := range g.templates {
		var buf bytes.Buffer
		if err := t.tmpl.Execute(&buf, info); err != nil {
			return "", fmt.Errorf("rendering %q struct tag for %q: %w", t.name, info.FieldName, err)
		}
		if value := buf.String(); value != "" {
			tags = append(tags, t.name+":"+strconv.Quote(value))
		}
	}

	if len(tags) == 0 {
		return "", nil
	}

	tag := strings.Join(tags, " ")
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag), nil
	}
	return "`" + tag + "`", nil
}
