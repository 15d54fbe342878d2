package codegen

import (
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusSpec = `components:
  schemas:
    Status:
      type: string
      enum:
        - available
        - sold
    Pet:
      type: object
      description: |-
        A pet in the store.
        Pets are sold one at a time.
      required:
        - id
        - status
      properties:
        id:
          type: string
          format: uuid
        status:
          $ref: '#/components/schemas/Status'
        born:
          type: string
          format: date-time
        labels:
          type: array
          items:
            type: string
        attributes:
          type: object
        extra:
          description: Anything else.
        nickname:
          type: [string, "null"]
`

// squash collapses the alignment padding gofmt adds, so assertions do not
// depend on column widths.
func squash(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func assertContainsCode(t *testing.T, code, want string) {
	t.Helper()
	assert.Contains(t, squash(code), squash(want))
}

// typeCheckGo parses and type-checks generated code against the standard
// library sources.
func typeCheckGo(t *testing.T, code string) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "types.gen.go", code, parser.ParseComments)
	require.NoError(t, err)

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check("example.com/generated", fset, []*ast.File{file}, nil)
	require.NoError(t, err, code)
}

func generateGo(t *testing.T, spec string, filter *FilterSpec, cfg Configuration) string {
	t.Helper()
	code, err := Generate(loadSpec(t, spec), filter, cfg)
	require.NoError(t, err)
	return code
}

func TestGenerateGoPetstore(t *testing.T) {
	code := generateGo(t, petstoreSpec, nil, Configuration{PackageName: "petstore"})

	want := "// Code generated by slimtypes. DO NOT EDIT.\n" +
		"\n" +
		"package petstore\n" +
		"\n" +
		"// Pet defines model for Pet.\n" +
		"type Pet struct {\n" +
		"\tID   int64   `json:\"id\"`\n" +
		"\tName string  `json:\"name\"`\n" +
		"\tTag  *string `json:\"tag,omitempty\"`\n" +
		"}\n" +
		"\n" +
		"// Error defines model for Error.\n" +
		"type Error struct {\n" +
		"\tCode    int32  `json:\"code\"`\n" +
		"\tMessage string `json:\"message\"`\n" +
		"}\n" +
		"\n" +
		"// Pets defines model for Pets.\n" +
		"type Pets = []Pet\n"
	assert.Equal(t, want, code)
}

func TestGenerateGoIsIdempotent(t *testing.T) {
	doc := loadSpec(t, statusSpec)
	first, err := Generate(doc, nil, Configuration{})
	require.NoError(t, err)
	second, err := Generate(doc, nil, Configuration{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateGoEnumAndFields(t *testing.T) {
	code := generateGo(t, statusSpec, nil, Configuration{})

	assertContainsCode(t, code, "package types\n")
	assertContainsCode(t, code, "import (\n\t\"time\"\n)")
	assertContainsCode(t, code, "// Status defines model for Status.\ntype Status string\n")
	assertContainsCode(t, code, "// Defines values for Status.\nconst (\n"+
		"\tStatusAvailable Status = \"available\"\n"+
		"\tStatusSold      Status = \"sold\"\n"+
		")")
	assertContainsCode(t, code, "func (v Status) Valid() bool {\n"+
		"\tswitch v {\n"+
		"\tcase StatusAvailable, StatusSold:\n"+
		"\t\treturn true\n"+
		"\tdefault:\n"+
		"\t\treturn false\n"+
		"\t}\n"+
		"}")
	assert.NotContains(t, code, "UnmarshalText")

	assertContainsCode(t, code, "// A pet in the store.\n// Pets are sold one at a time.\ntype Pet struct {")
	assertContainsCode(t, code, "\tID string `json:\"id\"`")
	assertContainsCode(t, code, "\tStatus Status `json:\"status\"`")
	assertContainsCode(t, code, "\tBorn *time.Time `json:\"born,omitempty\"`")
	assertContainsCode(t, code, "\tLabels []string `json:\"labels,omitempty\"`")
	assertContainsCode(t, code, "\tAttributes map[string]any `json:\"attributes,omitempty\"`")
	assertContainsCode(t, code, "\t// Anything else.\n\tExtra any `json:\"extra,omitempty\"`")
	assertContainsCode(t, code, "\tNickname *string `json:\"nickname,omitempty\"`")

	assert.Less(t, strings.Index(code, "type Status string"), strings.Index(code, "type Pet struct"))
}

func TestGenerateGoPreservesFieldOrder(t *testing.T) {
	const spec = `components:
  schemas:
    Record:
      type: object
      properties:
        zulu:
          type: string
        alpha:
          type: string
        mike:
          type: string
`
	code := generateGo(t, spec, nil, Configuration{})
	z := strings.Index(code, "Zulu ")
	a := strings.Index(code, "Alpha ")
	m := strings.Index(code, "Mike ")
	require.True(t, z > 0 && a > 0 && m > 0, code)
	assert.Less(t, z, a)
	assert.Less(t, a, m)
}

func TestGenerateGoEnumDecorations(t *testing.T) {
	code := generateGo(t, statusSpec, &FilterSpec{
		EnumDecorations: []string{"String", "MarshalText", "UnmarshalText"},
	}, Configuration{})

	assertContainsCode(t, code, "\"fmt\"")
	assertContainsCode(t, code, "func (v Status) String() string {\n\treturn string(v)\n}")
	assertContainsCode(t, code, "func (v Status) MarshalText() ([]byte, error) {\n\treturn []byte(v), nil\n}")
	assertContainsCode(t, code, "func (v *Status) UnmarshalText(data []byte) error {")
	assertContainsCode(t, code, "return fmt.Errorf(\"invalid Status value %q\", data)")
	assert.NotContains(t, code, "Valid()")
}

func TestGenerateGoUnknownEnumDecoration(t *testing.T) {
	_, err := Generate(loadSpec(t, statusSpec), &FilterSpec{
		EnumDecorations: []string{"Valid", "Debug"},
	}, Configuration{})

	var decoration *UnknownDecorationError
	require.True(t, errors.As(err, &decoration))
	assert.Equal(t, TargetGo, decoration.Target)
	assert.Equal(t, "enum", decoration.Kind)
	assert.Equal(t, "Debug", decoration.Decoration)
}

func TestGenerateGoStructTags(t *testing.T) {
	code := generateGo(t, petstoreSpec, &FilterSpec{
		StructDecorations: []string{"json", "yaml"},
	}, Configuration{
		StructTags: StructTagsConfig{Tags: []StructTagTemplate{
			{Name: "yaml", Template: "{{ .FieldName }}"},
		}},
	})
	assertContainsCode(t, code, "`json:\"tag,omitempty\" yaml:\"tag\"`")

	code = generateGo(t, petstoreSpec, &FilterSpec{StructDecorations: []string{}}, Configuration{})
	assert.NotContains(t, code, "`")
	assertContainsCode(t, code, "Tag *string\n")

	_, err := Generate(loadSpec(t, petstoreSpec), &FilterSpec{
		StructDecorations: []string{"bad:tag"},
	}, Configuration{})
	var decoration *UnknownDecorationError
	require.True(t, errors.As(err, &decoration))
	assert.Equal(t, "struct", decoration.Kind)

	_, err = Generate(loadSpec(t, petstoreSpec), nil, Configuration{
		StructTags: StructTagsConfig{Tags: []StructTagTemplate{
			{Name: "json", Template: "{{ .FieldName"},
		}},
	})
	assert.Error(t, err)
}

func TestGenerateGoTypeMappingOverride(t *testing.T) {
	code := generateGo(t, statusSpec, nil, Configuration{
		TypeMapping: TypeMapping{
			String: FormatMapping{Formats: map[string]SimpleTypeSpec{
				"uuid": {Type: "uuid.UUID", Import: "github.com/google/uuid"},
			}},
		},
	})
	assertContainsCode(t, code, "\"github.com/google/uuid\"")
	assertContainsCode(t, code, "\tID uuid.UUID `json:\"id\"`")
	assertContainsCode(t, code, "\tBorn *time.Time")
}

func TestGenerateGoTypeMappingImportAlias(t *testing.T) {
	code := generateGo(t, statusSpec, nil, Configuration{
		TypeMapping: TypeMapping{
			String: FormatMapping{Formats: map[string]SimpleTypeSpec{
				"uuid": {Type: "gouuid.UUID", Import: "github.com/google/uuid", Alias: "gouuid"},
			}},
		},
	})
	assertContainsCode(t, code, "gouuid \"github.com/google/uuid\"")
	assertContainsCode(t, code, "\tID gouuid.UUID `json:\"id\"`")

	_, err := Generate(loadSpec(t, statusSpec), nil, Configuration{
		TypeMapping: TypeMapping{
			String: FormatMapping{Formats: map[string]SimpleTypeSpec{
				"date":      {Type: "time.Time", Import: "time"},
				"date-time": {Type: "stdtime.Time", Import: "time", Alias: "stdtime"},
			}},
		},
	})
	assert.ErrorContains(t, err, "imported as both")

	_, err = Generate(loadSpec(t, statusSpec), nil, Configuration{
		TypeMapping: TypeMapping{
			String: FormatMapping{Formats: map[string]SimpleTypeSpec{
				"uuid": {Type: "x.UUID", Import: "github.com/google/uuid", Alias: "not-an-ident"},
			}},
		},
	})
	assert.ErrorContains(t, err, "invalid import alias")
}

func TestGenerateGoUnknownFormat(t *testing.T) {
	const spec = `components:
  schemas:
    Price:
      type: object
      properties:
        amount:
          type: number
          format: money
`
	_, err := Generate(loadSpec(t, spec), nil, Configuration{})

	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Price", unknown.Schema)
	assert.Equal(t, TypeNumber, unknown.Kind)
	assert.Equal(t, "money", unknown.Format)
}

func TestGenerateGoNameConflict(t *testing.T) {
	const spec = `components:
  schemas:
    pet_status:
      type: string
    PetStatus:
      type: integer
`
	_, err := Generate(loadSpec(t, spec), nil, Configuration{})

	var conflict *NameConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "PetStatus", conflict.Identifier)
	assert.Equal(t, []string{"pet_status", "PetStatus"}, conflict.Schemas)
}

func TestGenerateGoAliases(t *testing.T) {
	const spec = `components:
  schemas:
    Name:
      type: string
      nullable: true
    Alias:
      $ref: '#/components/schemas/Name'
    Names:
      type: array
      items:
        $ref: '#/components/schemas/Name'
    Anything: {}
    Person:
      type: object
      properties:
        name:
          $ref: '#/components/schemas/Name'
        aliases:
          $ref: '#/components/schemas/Names'
        extra:
          $ref: '#/components/schemas/Anything'
`
	code := generateGo(t, spec, nil, Configuration{})
	assertContainsCode(t, code, "type Name = *string\n")
	assertContainsCode(t, code, "type Alias = Name\n")
	assertContainsCode(t, code, "type Names = []Name\n")
	assertContainsCode(t, code, "type Anything = any\n")
	assertContainsCode(t, code, "Name Name `json:\"name,omitempty\"`")
	assertContainsCode(t, code, "Aliases Names `json:\"aliases,omitempty\"`")
	assertContainsCode(t, code, "Extra Anything `json:\"extra,omitempty\"`")
}

func TestGenerateGoEnumValueNames(t *testing.T) {
	const spec = `components:
  schemas:
    Mode:
      type: string
      enum: ["", "read-only", "read_only", "2fa"]
`
	code := generateGo(t, spec, nil, Configuration{})
	assertContainsCode(t, code, "ModeEmpty")
	assertContainsCode(t, code, "ModeReadOnly Mode = \"read-only\"")
	assertContainsCode(t, code, "ModeReadOnly2 Mode = \"read_only\"")
}

func TestGenerateGoOutputTypeChecks(t *testing.T) {
	tests := []struct {
		name   string
		spec   string
		filter *FilterSpec
	}{
		{name: "petstore", spec: petstoreSpec},
		{name: "status", spec: statusSpec, filter: &FilterSpec{
			EnumDecorations: []string{"Valid", "String", "MarshalText", "UnmarshalText"},
		}},
		{name: "nested", spec: nestedSpec, filter: &FilterSpec{
			StructDecorations: []string{"json", "yaml"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typeCheckGo(t, generateGo(t, tt.spec, tt.filter, Configuration{}))
		})
	}
}

func TestGenerateGoEnumConstantConflict(t *testing.T) {
	const spec = `components:
  schemas:
    Color:
      type: string
      enum: [red, blue]
    ColorRed:
      type: object
      properties:
        shade:
          type: string
`
	_, err := Generate(loadSpec(t, spec), nil, Configuration{})

	var conflict *NameConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "ColorRed", conflict.Identifier)
	assert.ElementsMatch(t, []string{"Color", "ColorRed"}, conflict.Schemas)
}

func TestGenerateGoQuotesStructTags(t *testing.T) {
	const spec = `components:
  schemas:
    Odd:
      type: object
      required: ['we"ird']
      properties:
        'we"ird':
          type: string
        'back` + "`" + `tick':
          type: string
`
	code := generateGo(t, spec, nil, Configuration{})
	typeCheckGo(t, code)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "types.gen.go", code, 0)
	require.NoError(t, err)

	tags := map[string]string{}
	ast.Inspect(file, func(n ast.Node) bool {
		if f, ok := n.(*ast.Field); ok && f.Tag != nil && len(f.Names) == 1 {
			raw, err := strconv.Unquote(f.Tag.Value)
			require.NoError(t, err)
			tags[f.Names[0].Name] = reflect.StructTag(raw).Get("json")
		}
		return true
	})
	assert.Equal(t, map[string]string{
		"WeIrd":    `we"ird`,
		"BackTick": "back`tick,omitempty",
	}, tags)
}
