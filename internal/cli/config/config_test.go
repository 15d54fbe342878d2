package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `input: api.yaml
filter: filter.yaml
output: types.gen.go
document:
  overlay: overlay.yaml
  validate: true
generate:
  package: models
  target: go
  struct-tags:
    tags:
      - name: yaml
        template: "{{ .FieldName }}"
  type-mapping:
    string:
      formats:
        uuid:
          type: uuid.UUID
          import: github.com/google/uuid
`

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("input", "", "")
	fs.String("filter", "", "")
	fs.String("output", "", "")
	fs.String("package", "", "")
	fs.String("target", "go", "")
	fs.String("overlay", "", "")
	fs.Bool("overlay-strict", false, "")
	fs.Bool("validate", false, "")
	fs.Bool("verbose", false, "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slimtypes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, configYAML), testFlags())
	require.NoError(t, err)

	assert.Equal(t, "api.yaml", cfg.Input)
	assert.Equal(t, "filter.yaml", cfg.Filter)
	assert.Equal(t, "types.gen.go", cfg.Output)
	assert.Equal(t, "overlay.yaml", cfg.Document.OverlayPath)
	assert.True(t, cfg.Document.Validate)
	assert.False(t, cfg.Document.OverlayStrict)
	assert.Equal(t, "models", cfg.Generate.PackageName)
	assert.Equal(t, "go", cfg.Generate.Target)
	require.Len(t, cfg.Generate.StructTags.Tags, 1)
	assert.Equal(t, "yaml", cfg.Generate.StructTags.Tags[0].Name)
	assert.Equal(t, "uuid.UUID", cfg.Generate.TypeMapping.String.Formats["uuid"].Type)
	assert.Equal(t, "github.com/google/uuid", cfg.Generate.TypeMapping.String.Formats["uuid"].Import)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, configYAML)

	t.Setenv("SLIMTYPES_GENERATE_PACKAGE", "fromenv")
	t.Setenv("SLIMTYPES_DOCUMENT_OVERLAY_STRICT", "true")
	flags := testFlags()
	require.NoError(t, flags.Set("target", "rust"))
	require.NoError(t, flags.Set("output", "types.rs"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "rust", cfg.Generate.Target, "flag beats file")
	assert.Equal(t, "types.rs", cfg.Output, "flag beats file")
	assert.Equal(t, "fromenv", cfg.Generate.PackageName, "env beats file")
	assert.True(t, cfg.Document.OverlayStrict, "env beats flag default")
	assert.Equal(t, "api.yaml", cfg.Input)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := testFlags()
	require.NoError(t, flags.Set("input", "api.json"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "api.json", cfg.Input)
	assert.Equal(t, "go", cfg.Generate.Target)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), testFlags())
	assert.Error(t, err, "explicit config file must exist")

	_, err = Load(writeConfig(t, "filter: f.yaml\n"), testFlags())
	assert.ErrorContains(t, err, "no input document")

	_, err = Load(writeConfig(t, "input: a.yaml\ngenerate:\n  target: cobol\n"), testFlags())
	assert.ErrorContains(t, err, "unknown target")
}
