package merger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schematools/modelgen/internal/severity"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/mgerrors"
	"github.com/schematools/modelgen/resolver"
)

// harness loads a single JSON document and returns a merger plus a node
// lookup helper.
func harness(t *testing.T, docJSON string) (*Merger, func(pointer string) *loader.SchemaNode) {
	t.Helper()
	doc, err := loader.LoadBytes("schema.json", []byte(docJSON))
	require.NoError(t, err)

	docs := loader.NewDocumentSet()
	docs.Add(doc)
	res := resolver.New(docs, nil)
	m := New(res, DefaultConfig())

	return m, func(pointer string) *loader.SchemaNode {
		node, err := doc.NodeAt(pointer)
		require.NoError(t, err)
		return node
	}
}

func TestMergeAllOfInheritance(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Base":  {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]},
			"Named": {"type": "object", "properties": {"name": {"type": "string"}}},
			"Combined": {"allOf": [
				{"$ref": "#/$defs/Base"},
				{"$ref": "#/$defs/Named"}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Combined"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Bases, 2)
	assert.Equal(t, "#/$defs/Base", merged.Bases[0].Ref.Pointer)
	assert.Equal(t, "#/$defs/Named", merged.Bases[1].Ref.Pointer)
	assert.Empty(t, merged.Properties, "bare-reference members must stay bases, not inline fields")
	assert.Empty(t, m.Issues())
}

func TestMergeAllOfInheritanceWithOwnFields(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Base": {"type": "object", "properties": {"id": {"type": "string"}}},
			"Combined": {
				"allOf": [{"$ref": "#/$defs/Base"}],
				"properties": {"extra": {"type": "integer"}},
				"required": ["extra"]
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Combined"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Bases, 1)
	require.Len(t, merged.Properties, 1)
	assert.Equal(t, "extra", merged.Properties[0].Name)
	assert.True(t, merged.Properties[0].Required)
}

func TestMergeAllOfFlattensOnFieldOverride(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Base": {
				"type": "object",
				"properties": {"id": {"type": "integer"}, "name": {"type": "string"}},
				"required": ["id"]
			},
			"Combined": {"allOf": [
				{"$ref": "#/$defs/Base"},
				{"type": "object", "properties": {"id": {"type": "string"}}}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Combined"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	assert.Empty(t, merged.Bases, "an override forces flattening, no base list")
	require.Len(t, merged.Properties, 2)

	byName := make(map[string]Property)
	for _, p := range merged.Properties {
		byName[p.Name] = p
	}
	// The later member wins at the field level, completely replacing the
	// earlier definition.
	assert.Equal(t, "string", byName["id"].Node.Schema.TypeString())
	assert.Equal(t, "#/$defs/Combined/allOf/1", byName["id"].Source)
	assert.True(t, byName["id"].Required, "required union survives the override")
	assert.Equal(t, "string", byName["name"].Node.Schema.TypeString())

	require.Len(t, merged.Provenance, 2)
	assert.Equal(t, "#/$defs/Base", merged.Provenance[0].Pointer)
}

func TestMergeAllOfScalarConstraintIntersection(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Name": {"allOf": [
				{"type": "string", "minLength": 1, "maxLength": 10},
				{"minLength": 3, "maxLength": 8, "pattern": "^[a-z]+$"}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Name"))
	require.NoError(t, err)

	assert.Equal(t, MergedScalar, merged.Kind)
	require.NotNil(t, merged.Schema.MinLength)
	assert.Equal(t, 3, *merged.Schema.MinLength, "tightest lower bound wins")
	require.NotNil(t, merged.Schema.MaxLength)
	assert.Equal(t, 8, *merged.Schema.MaxLength, "tightest upper bound wins")
	assert.Equal(t, "^[a-z]+$", merged.Schema.Pattern)
	assert.Equal(t, "string", merged.Schema.TypeString())
	assert.Empty(t, m.Issues())
}

func TestMergeAllOfNumericBounds(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Port": {"allOf": [
				{"type": "integer", "minimum": 0, "maximum": 65535},
				{"minimum": 1024, "maximum": 49151}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Port"))
	require.NoError(t, err)

	assert.Equal(t, float64(1024), *merged.Schema.Minimum)
	assert.Equal(t, float64(49151), *merged.Schema.Maximum)
}

func TestMergeAllOfEnumIntersection(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Color": {"allOf": [
				{"enum": ["red", "green", "blue"]},
				{"enum": ["green", "blue", "yellow"]}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Color"))
	require.NoError(t, err)

	assert.Equal(t, MergedScalar, merged.Kind)
	assert.Equal(t, []any{"green", "blue"}, merged.Schema.Enum)
}

func TestMergeAllOfEnumIntersectionIsTyped(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Mixed": {"allOf": [
				{"enum": ["1", 1, 2]},
				{"enum": [1, "2"]}
			]}
		}
	}`)

	// Literals intersect by JSON value, so the string "1" and the number 1
	// never collapse into each other.
	merged, err := m.Merge(nodeAt("#/$defs/Mixed"))
	require.NoError(t, err)

	assert.Equal(t, MergedScalar, merged.Kind)
	assert.Equal(t, []any{float64(1)}, merged.Schema.Enum)
}

func TestMergeConflictLastWins(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Code": {"allOf": [
				{"type": "string", "pattern": "^A"},
				{"pattern": "^B"}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Code"))
	require.NoError(t, err)

	assert.Equal(t, "^B", merged.Schema.Pattern, "later member wins under the default policy")
	require.Len(t, m.Issues(), 1)
	issue := m.Issues()[0]
	assert.Equal(t, severity.SeverityWarning, issue.Severity)
	assert.Equal(t, "pattern", issue.Keyword)
}

func TestMergeConflictStrict(t *testing.T) {
	doc, err := loader.LoadBytes("schema.json", []byte(`{
		"$defs": {
			"Code": {"allOf": [
				{"type": "string", "pattern": "^A"},
				{"pattern": "^B"}
			]}
		}
	}`))
	require.NoError(t, err)
	docs := loader.NewDocumentSet()
	docs.Add(doc)

	m := New(resolver.New(docs, nil), Config{ConflictPolicy: ConflictStrict})
	node, err := doc.NodeAt("#/$defs/Code")
	require.NoError(t, err)

	_, err = m.Merge(node)
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrConstraintConflict)

	var conflictErr *mgerrors.ConstraintConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, "pattern", conflictErr.Keyword)
}

func TestMergeBooleanSchemas(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"anything": true,
			"nothing": false
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/anything"))
	require.NoError(t, err)
	assert.Equal(t, MergedUnknown, merged.Kind)

	merged, err = m.Merge(nodeAt("#/$defs/nothing"))
	require.NoError(t, err)
	assert.Equal(t, MergedNever, merged.Kind)
}

func TestMergeOneOfDerivedDiscriminator(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Cat": {
				"title": "Cat",
				"type": "object",
				"properties": {"kind": {"const": "cat"}, "lives": {"type": "integer"}}
			},
			"Dog": {
				"type": "object",
				"properties": {"kind": {"const": "dog"}, "breed": {"type": "string"}}
			},
			"Pet": {"oneOf": [
				{"$ref": "#/$defs/Cat"},
				{"$ref": "#/$defs/Dog"}
			]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Pet"))
	require.NoError(t, err)

	assert.Equal(t, MergedUnion, merged.Kind)
	require.NotNil(t, merged.Union)
	assert.True(t, merged.Union.Exclusive)
	require.Len(t, merged.Union.Branches, 2)

	d := merged.Union.Discriminator
	require.NotNil(t, d)
	assert.False(t, d.Explicit)
	assert.Equal(t, "kind", d.PropertyName)
	assert.Equal(t, map[string]int{"cat": 0, "dog": 1}, d.Mapping)

	// Member names come from the branch title when present, else the
	// literal discriminant value.
	assert.Equal(t, "Cat", merged.Union.Branches[0].Name)
	assert.Equal(t, "dog", merged.Union.Branches[1].Name)
	assert.Equal(t, "cat", merged.Union.Branches[0].DiscriminantValue)
}

func TestMergeOneOfExplicitDiscriminator(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Card": {"type": "object", "properties": {"method": {"const": "card"}}},
			"Wire": {"type": "object", "properties": {"method": {"const": "wire"}}},
			"Payment": {
				"oneOf": [
					{"$ref": "#/$defs/Card"},
					{"$ref": "#/$defs/Wire"}
				],
				"discriminator": {
					"propertyName": "method",
					"mapping": {"card": "#/$defs/Card", "wire": "Wire"}
				}
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Payment"))
	require.NoError(t, err)

	d := merged.Union.Discriminator
	require.NotNil(t, d)
	assert.True(t, d.Explicit)
	assert.Equal(t, "method", d.PropertyName)
	assert.Equal(t, map[string]int{"card": 0, "wire": 1}, d.Mapping)
}

func TestMergeAnyOfWithoutDiscriminator(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Value": {
				"title": "Value",
				"anyOf": [
					{"type": "string"},
					{"type": "integer"}
				]
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Value"))
	require.NoError(t, err)

	assert.Equal(t, MergedUnion, merged.Kind)
	assert.False(t, merged.Union.Exclusive)
	assert.Nil(t, merged.Union.Discriminator)
	// Parent combinator metadata must not bleed into the branches.
	assert.Empty(t, merged.Union.Branches[0].Name)
	assert.Empty(t, merged.Union.Branches[1].Name)
}

func TestMergeReferenceAlias(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Status": {"type": "string", "enum": ["on", "off"]},
			"DefaultStatus": {
				"$ref": "#/$defs/Status",
				"const": "on",
				"description": "alias with a whitelisted extra"
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/DefaultStatus"))
	require.NoError(t, err)

	assert.Equal(t, MergedAlias, merged.Kind)
	require.NotNil(t, merged.Target)
	assert.Equal(t, "#/$defs/Status", merged.Target.Pointer)
}

func TestMergeReferenceWrapper(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Name": {"type": "string", "maxLength": 100},
			"ShortName": {
				"$ref": "#/$defs/Name",
				"maxLength": 10
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/ShortName"))
	require.NoError(t, err)

	// A non-whitelisted sibling forces a synthesized wrapper merge.
	assert.Equal(t, MergedScalar, merged.Kind)
	require.NotNil(t, merged.Schema.MaxLength)
	assert.Equal(t, 10, *merged.Schema.MaxLength)
	assert.Equal(t, "string", merged.Schema.TypeString())
}

func TestMergeReferenceCyclePassThrough(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Loop": {"$ref": "#/$defs/Loop"}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Loop"))
	require.NoError(t, err)

	assert.Equal(t, MergedCycle, merged.Kind)
	require.NotNil(t, merged.Target)
	assert.True(t, merged.Target.IsCycle)
}

func TestMergeAllOfCycleBecomesBase(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"A": {"$ref": "#/$defs/A"},
			"B": {"allOf": [
				{"$ref": "#/$defs/A"},
				{"type": "object", "properties": {"x": {"type": "string"}}}
			]}
		}
	}`)

	// The first member's chain loops; the resolver cuts it and the marker
	// survives merging as a base instead of being inlined.
	merged, err := m.Merge(nodeAt("#/$defs/B"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Bases, 1)
	require.NotNil(t, merged.Bases[0].Ref)
	assert.True(t, merged.Bases[0].Ref.IsCycle)
	require.Len(t, merged.Properties, 1)
	assert.Equal(t, "x", merged.Properties[0].Name)
}

func TestMergeAllOfChainedInheritance(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Entity": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]},
			"Named": {
				"allOf": [{"$ref": "#/$defs/Entity"}],
				"properties": {"name": {"type": "string"}}
			},
			"Person": {"allOf": [{"$ref": "#/$defs/Named"}]}
		}
	}`)

	// The single member resolves to another allOf combinator; its merged
	// view (base Entity plus field name) decides the policy, so Person
	// still becomes an heir of Named rather than an empty object.
	merged, err := m.Merge(nodeAt("#/$defs/Person"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Bases, 1)
	assert.Equal(t, "#/$defs/Named", merged.Bases[0].Ref.Pointer)
	assert.Empty(t, merged.Properties)
	assert.Empty(t, m.Issues())
}

func TestMergeAllOfChainedFlattenKeepsAncestors(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Entity": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]},
			"Named": {
				"allOf": [{"$ref": "#/$defs/Entity"}],
				"properties": {"name": {"type": "string"}}
			},
			"Person": {
				"allOf": [{"$ref": "#/$defs/Named"}],
				"properties": {"name": {"type": "string", "minLength": 1}}
			}
		}
	}`)

	// The name override forces a flatten; the middle combinator's own field
	// and its base both fold into the result instead of being dropped.
	merged, err := m.Merge(nodeAt("#/$defs/Person"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Bases, 1)
	assert.Equal(t, "#/$defs/Entity", merged.Bases[0].Ref.Pointer)
	require.Len(t, merged.Properties, 1)
	assert.Equal(t, "name", merged.Properties[0].Name)
	assert.Equal(t, "#/$defs/Person", merged.Properties[0].Source)
}

func TestMergeAllOfMemberRefWithSiblings(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Base": {
				"type": "object",
				"properties": {"id": {"type": "string"}},
				"required": ["id"]
			},
			"Extended": {"allOf": [{
				"$ref": "#/$defs/Base",
				"properties": {
					"id":    {"type": "integer"},
					"extra": {"type": "boolean"}
				}
			}]}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Extended"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	assert.Empty(t, merged.Bases, "a member with structural siblings cannot stay a base")
	require.Len(t, merged.Properties, 2)

	byName := make(map[string]Property)
	for _, p := range merged.Properties {
		byName[p.Name] = p
	}
	require.Contains(t, byName, "extra", "sibling-only fields must survive the merge")
	assert.Equal(t, "integer", byName["id"].Node.Schema.TypeString(),
		"sibling keywords override the reference target field-by-field")
	assert.True(t, byName["id"].Required)
}

func TestMergeAllOfMutualCombinatorRecursion(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"A": {"allOf": [{"$ref": "#/$defs/B"}], "properties": {"a": {"type": "string"}}},
			"B": {"allOf": [{"$ref": "#/$defs/A"}], "properties": {"b": {"type": "string"}}}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/A"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.NotEmpty(t, m.Issues())
	assert.Contains(t, m.Issues()[0].Message, "circular combinator composition")
}

func TestMergeDanglingReferenceFails(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Broken": {"$ref": "#/$defs/Missing"}
		}
	}`)

	_, err := m.Merge(nodeAt("#/$defs/Broken"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrDanglingReference)
}

func TestMergeUnsupportedDialectDegrades(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"Remote": {"$ref": "https://example.com/schema.json#/$defs/X"}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/Remote"))
	require.NoError(t, err)

	assert.Equal(t, MergedUnknown, merged.Kind)
	require.Len(t, m.Issues(), 1)
	assert.Equal(t, severity.SeverityWarning, m.Issues()[0].Severity)
}

func TestMergePlainObject(t *testing.T) {
	m, nodeAt := harness(t, `{
		"$defs": {
			"User": {
				"type": "object",
				"properties": {"id": {"type": "string"}, "age": {"type": "integer"}},
				"required": ["id"]
			}
		}
	}`)

	merged, err := m.Merge(nodeAt("#/$defs/User"))
	require.NoError(t, err)

	assert.Equal(t, MergedObject, merged.Kind)
	require.Len(t, merged.Properties, 2)
	assert.Equal(t, []string{"age", "id"}, merged.PropertyNames())
	for _, p := range merged.Properties {
		assert.Equal(t, p.Name == "id", p.Required)
	}
}

func TestMergedKindString(t *testing.T) {
	assert.Equal(t, "object", MergedObject.String())
	assert.Equal(t, "union", MergedUnion.String())
	assert.Equal(t, "alias", MergedAlias.String())
	assert.Equal(t, "cycle", MergedCycle.String())
	assert.Equal(t, "never", MergedNever.String())
	assert.Equal(t, "invalid", MergedKind(99).String())
}
