package codegen

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Supported emission targets.
const (
	TargetGo   = "go"
	TargetRust = "rust"
)

// Emitter renders an ordered generate-set as source code for one target.
type Emitter interface {
	Emit(u *Unit) (string, error)
}

// Unit is everything an emitter needs: the graph, the resolved generate-set
// with its retained fields, the emission order and the decoration lists.
type Unit struct {
	Graph             *Graph
	Resolution        *Resolution
	Order             []string
	StructDecorations []string
	EnumDecorations   []string
}

// Configuration is the top-level configuration for type generation.
type Configuration struct {
	// PackageName is the Go package of the generated file.
	PackageName string `yaml:"package"`
	// Target selects the output language, "go" (default) or "rust".
	Target string `yaml:"target,omitempty"`
	// StructTags supplies templates for struct tag decorations (Go only).
	StructTags StructTagsConfig `yaml:"struct-tags,omitempty"`
	// TypeMapping is laid over the target's default mapping.
	TypeMapping TypeMapping `yaml:"type-mapping,omitempty"`
	// Logger receives debug and warning output. Nil discards it.
	Logger *zap.Logger `yaml:"-"`
}

// WithDefaults returns a copy of c with defaults filled in.
func (c Configuration) WithDefaults() Configuration {
	if c.Target == "" {
		c.Target = TargetGo
	}
	if c.PackageName == "" && c.Target == TargetGo {
		c.PackageName = "types"
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

var packageNameRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks the configuration after defaults are applied.
func (c Configuration) Validate() error {
	switch c.Target {
	case TargetGo:
		if !packageNameRE.MatchString(c.PackageName) {
			return fmt.Errorf("invalid package name %q", c.PackageName)
		}
	case TargetRust:
	default:
		return fmt.Errorf("unknown target %q, expected %q or %q", c.Target, TargetGo, TargetRust)
	}
	if err := c.TypeMapping.ValidateImports(); err != nil {
		return err
	}
	return nil
}

// defaultDecorations returns the baseline struct and enum decorations of
// target.
func defaultDecorations(target string) (structs, enums []string) {
	if target == TargetRust {
		return []string{"Debug", "Clone", "Deserialize"},
			[]string{"Debug", "Clone", "Copy", "PartialEq", "Eq", "PartialOrd", "Ord", "Deserialize"}
	}
	return []string{"json"}, []string{"Valid"}
}

// NewEmitter creates the emitter for cfg.Target. cfg must have defaults
// applied.
func NewEmitter(cfg Configuration) (Emitter, error) {
	switch cfg.Target {
	case TargetGo:
		types := DefaultGoTypeMapping().Merge(cfg.TypeMapping)
		if err := types.ValidateImports(); err != nil {
			return nil, err
		}
		return &goEmitter{
			pkg:   cfg.PackageName,
			types: types,
			tags:  cfg.StructTags,
		}, nil
	case TargetRust:
		return &rustEmitter{
			types: DefaultRustTypeMapping().Merge(cfg.TypeMapping),
		}, nil
	default:
		return nil, fmt.Errorf("unknown target %q", cfg.Target)
	}
}

// Generate runs the whole pipeline over doc and returns the generated
// source. Nothing is produced unless every stage succeeds.
func Generate(doc *Document, spec *FilterSpec, cfg Configuration) (string, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	if spec == nil {
		spec = &FilterSpec{}
	}

	f, err := NewFilter(spec, doc.Graph, cfg.Logger)
	if err != nil {
		return "", err
	}
	r, err := ResolveDependencies(doc.Graph, f, cfg.Logger)
	if err != nil {
		return "", err
	}
	order, err := OrderSchemas(doc.Graph, r)
	if err != nil {
		return "", err
	}

	emitter, err := NewEmitter(cfg)
	if err != nil {
		return "", err
	}

	structs, enums := defaultDecorations(cfg.Target)
	if spec.StructDecorations != nil {
		structs = spec.StructDecorations
	}
	if spec.EnumDecorations != nil {
		enums = spec.EnumDecorations
	}

	cfg.Logger.Debug("emitting types",
		zap.String("target", cfg.Target),
		zap.Int("schemas", len(order)),
		zap.Int("skipped", doc.Graph.Len()-len(order)))

	return emitter.Emit(&Unit{
		Graph:             doc.Graph,
		Resolution:        r,
		Order:             order,
		StructDecorations: structs,
		EnumDecorations:   enums,
	})
}

// WriteTypes generates code for doc and writes it to dest. The file is
// replaced atomically and left untouched on any error.
func WriteTypes(doc *Document, spec *FilterSpec, dest string, cfg Configuration) error {
	return writeTypes(afero.NewOsFs(), doc, spec, dest, cfg)
}

func writeTypes(fs afero.Fs, doc *Document, spec *FilterSpec, dest string, cfg Configuration) error {
	code, err := Generate(doc, spec, cfg)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(fs, dest, []byte(code)); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to dest and renames
// it into place.
func writeFileAtomic(fs afero.Fs, dest string, data []byte) (err error) {
	dir := filepath.Dir(dest)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = fs.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp.Name(), dest)
}

// assignNames maps every schema in order to an identifier and reports
// schemas that collide.
func assignNames(g *Graph, order []string, ident func(string) string) (map[string]string, error) {
	names := make(map[string]string, len(order))
	owners := make(map[string][]string, len(order))
	for _, name := range g.Names() {
		if !contains(order, name) {
			continue
		}
		id := ident(name)
		names[name] = id
		owners[id] = append(owners[id], name)
	}

	var errs []error
	seen := make(map[string]bool)
	for _, name := range g.Names() {
		id, ok := names[name]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if len(owners[id]) > 1 {
			errs = append(errs, &NameConflictError{Identifier: id, Schemas: owners[id]})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return names, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// isNullable reports whether a field position may hold null. A reference
// inherits the nullability of a struct or enum target; alias targets carry
// it in their own declaration.
func isNullable(g *Graph, s *Schema) bool {
	if s.Nullable {
		return true
	}
	if s.Kind == KindReference {
		if t, ok := g.Resolve(s.Target); ok && (t.Kind == KindObject || t.Kind == KindEnum) {
			return t.Nullable
		}
	}
	return false
}
