package codegen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const nestedSpec = `components:
  schemas:
    Big:
      type: object
      properties:
        mediums:
          type: array
          items:
            $ref: '#/components/schemas/Medium'
    Medium:
      type: object
      properties:
        smalls:
          type: array
          items:
            $ref: '#/components/schemas/Small'
    Small:
      type: object
      properties:
        someNumber:
          type: number
        someString:
          type: string
        someBool:
          type: boolean
`

func resolve(t *testing.T, g *Graph, spec *FilterSpec) (*Resolution, error) {
	t.Helper()
	f, err := NewFilter(spec, g, nil)
	require.NoError(t, err)
	return ResolveDependencies(g, f, nil)
}

func TestResolveDefaultMode(t *testing.T) {
	g := loadSpec(t, petstoreSpec).Graph
	r, err := resolve(t, g, &FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet", "Pets", "Error"}, r.Generated())
	assert.Equal(t, []string{"id", "name", "tag"}, r.Fields("Pet"))
}

func TestResolveStrictIncludeMissingDependency(t *testing.T) {
	g := loadSpec(t, petstoreSpec).Graph
	_, err := resolve(t, g, &FilterSpec{
		Include: map[string]FieldSelector{"Pets": AllFields()},
	})

	var unsatisfied *UnsatisfiedDependencyError
	require.True(t, errors.As(err, &unsatisfied))
	assert.Equal(t, "Pets", unsatisfied.From)
	assert.Equal(t, "Pet", unsatisfied.Missing)
}

func TestResolveAutoInclude(t *testing.T) {
	g := loadSpec(t, petstoreSpec).Graph
	core, logs := observer.New(zapcore.DebugLevel)

	f, err := NewFilter(&FilterSpec{
		Include:                 map[string]FieldSelector{"Pets": AllFields()},
		AutoIncludeDependencies: true,
	}, g, nil)
	require.NoError(t, err)
	r, err := ResolveDependencies(g, f, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, []string{"Pet", "Pets"}, r.Generated())
	assert.Equal(t, StateGenerate, r.State("Pet"))
	assert.Equal(t, StateUnspecified, r.State("Error"))
	assert.Equal(t, []string{"id", "name", "tag"}, r.Fields("Pet"))
	assert.Equal(t, 1, logs.FilterMessage("auto-included dependency").Len())
}

func TestResolveExcludedDependencyIsNeverPromoted(t *testing.T) {
	g := loadSpec(t, petstoreSpec).Graph
	_, err := resolve(t, g, &FilterSpec{
		Include:                 map[string]FieldSelector{"Pets": AllFields()},
		Exclude:                 map[string]FieldSelector{"Pet": AllFields()},
		AutoIncludeDependencies: true,
	})

	var unsatisfied *UnsatisfiedDependencyError
	require.True(t, errors.As(err, &unsatisfied))
	assert.Equal(t, "Pet", unsatisfied.Missing)

	_, err = resolve(t, g, &FilterSpec{
		Exclude: map[string]FieldSelector{"Pet": AllFields()},
	})
	require.True(t, errors.As(err, &unsatisfied))
	assert.Equal(t, "Pets", unsatisfied.From)
}

func TestResolveFieldRestrictedExclude(t *testing.T) {
	const spec = `components:
  schemas:
    Owner:
      type: object
      properties:
        name:
          type: string
    Pet:
      type: object
      properties:
        id:
          type: integer
        owner:
          $ref: '#/components/schemas/Owner'
`
	g := loadSpec(t, spec).Graph

	r, err := resolve(t, g, &FilterSpec{
		Include: map[string]FieldSelector{"Pet": AllFields()},
		Exclude: map[string]FieldSelector{"Pet": SelectFields("owner")},
	})
	require.Error(t, err, "include wins, so owner stays and Owner is missing")
	assert.Nil(t, r)

	r, err = resolve(t, g, &FilterSpec{
		Exclude: map[string]FieldSelector{"Pet": SelectFields("owner"), "Owner": AllFields()},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet"}, r.Generated())
	assert.Equal(t, []string{"id"}, r.Fields("Pet"))
}

func TestResolveAutoIncludeNested(t *testing.T) {
	g := loadSpec(t, nestedSpec).Graph

	r, err := resolve(t, g, &FilterSpec{
		Include: map[string]FieldSelector{
			"Big":   AllFields(),
			"Small": SelectFields("someString"),
		},
		AutoIncludeDependencies: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Big", "Medium", "Small"}, r.Generated())
	assert.Equal(t, []string{"mediums"}, r.Fields("Big"))
	assert.Equal(t, []string{"smalls"}, r.Fields("Medium"))
	assert.Equal(t, []string{"someString"}, r.Fields("Small"))
}

func TestResolveWithoutAutoIncludeReportsOnlyMissing(t *testing.T) {
	g := loadSpec(t, nestedSpec).Graph

	_, err := resolve(t, g, &FilterSpec{
		Include: map[string]FieldSelector{
			"Big":   AllFields(),
			"Small": SelectFields("someString"),
		},
	})
	var unsatisfied *UnsatisfiedDependencyError
	require.True(t, errors.As(err, &unsatisfied))
	assert.Equal(t, "Big", unsatisfied.From)
	assert.Equal(t, "Medium", unsatisfied.Missing)
}

func TestResolveDanglingReference(t *testing.T) {
	const spec = `components:
  schemas:
    Pet:
      type: object
      properties:
        owner:
          $ref: '#/components/schemas/Owner'
        toys:
          type: array
          items:
            $ref: '#/components/schemas/Toy'
`
	g := loadSpec(t, spec).Graph

	_, err := resolve(t, g, &FilterSpec{})
	require.Error(t, err)

	var dangling *DanglingReferenceError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, "Pet", dangling.From)
	assert.Contains(t, err.Error(), `"Owner"`)
	assert.Contains(t, err.Error(), `"Toy"`)
}

func TestResolveIgnoresDroppedFieldReferences(t *testing.T) {
	const spec = `components:
  schemas:
    Pet:
      type: object
      properties:
        name:
          type: string
        error:
          $ref: '#/components/schemas/Error'
    Error:
      type: object
      properties:
        message:
          type: string
`
	g := loadSpec(t, spec).Graph
	r, err := resolve(t, g, &FilterSpec{
		Include: map[string]FieldSelector{"Pet": SelectFields("name")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pet"}, r.Generated())
}
