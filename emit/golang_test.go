package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/synthesis"
)

func emitModels(t *testing.T, docJSON string) string {
	t.Helper()
	doc, err := loader.LoadBytes("schema.json", []byte(docJSON))
	require.NoError(t, err)
	docs := loader.NewDocumentSet()
	docs.Add(doc)

	pass, err := synthesis.New()
	require.NoError(t, err)
	result, err := pass.Run(docs)
	require.NoError(t, err)

	files, err := NewGoEmitter("models").Emit(result)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "models.go", files[0].Name)
	return string(files[0].Content)
}

func TestEmitRecursiveStruct(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Node": {
				"title": "Node",
				"type": "object",
				"properties": {
					"value": {"type": "string", "description": "payload carried by this node"},
					"next":  {"$ref": "#/$defs/Node"}
				},
				"required": ["value"]
			}
		}
	}`)

	assert.Contains(t, src, "package models")
	assert.Contains(t, src, "type Node struct {")
	assert.Regexp(t, "Value\\s+string\\s+`json:\"value\"`", src)
	assert.Regexp(t, "Next\\s+\\*Node\\s+`json:\"next,omitempty\"`", src,
		"self references need pointer indirection")
	assert.Contains(t, src, "// payload carried by this node")
}

func TestEmitEnum(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Status": {"title": "Status", "type": "string", "enum": ["on", "off"]}
		}
	}`)

	assert.Contains(t, src, "type Status string")
	assert.Regexp(t, `StatusOn\s+Status = "on"`, src)
	assert.Regexp(t, `StatusOff\s+Status = "off"`, src)
}

func TestEmitEnumCaseCollision(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Flag": {"title": "Flag", "type": "string", "enum": ["a", "A", "b"]}
		}
	}`)

	// Values that title-case to the same identifier stay distinct constants.
	assert.Regexp(t, `FlagA\s+Flag = "a"`, src)
	assert.Regexp(t, `FlagA2\s+Flag = "A"`, src)
	assert.Regexp(t, `FlagB\s+Flag = "b"`, src)
}

func TestEmitDiscriminatedUnion(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Cat": {"title": "Cat", "type": "object", "properties": {"kind": {"const": "cat"}}},
			"Dog": {"title": "Dog", "type": "object", "properties": {"kind": {"const": "dog"}}},
			"Pet": {"oneOf": [{"$ref": "#/$defs/Cat"}, {"$ref": "#/$defs/Dog"}]}
		}
	}`)

	assert.Contains(t, src, "type Pet struct {")
	assert.Regexp(t, "Cat\\s+\\*Cat\\s+`json:\"-\"`", src)
	assert.Regexp(t, "Dog\\s+\\*Dog\\s+`json:\"-\"`", src)
	assert.Contains(t, src, `The "kind" field`)
}

func TestEmitInheritanceEmbedsBases(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Base":  {"title": "Base", "type": "object", "properties": {"id": {"type": "string"}}},
			"Named": {"title": "Named", "type": "object", "properties": {"name": {"type": "string"}}},
			"Combined": {
				"title": "Combined",
				"allOf": [{"$ref": "#/$defs/Base"}, {"$ref": "#/$defs/Named"}]
			}
		}
	}`)

	assert.Contains(t, src, "type Combined struct {\n\tBase\n\tNamed\n}")
}

func TestEmitScalarMappings(t *testing.T) {
	src := emitModels(t, `{
		"$defs": {
			"Event": {
				"title": "Event",
				"type": "object",
				"properties": {
					"at":     {"type": "string", "format": "date-time"},
					"count":  {"type": "integer", "format": "int32"},
					"ratio":  {"type": "number"},
					"labels": {"type": "object", "additionalProperties": {"type": "string"}},
					"tags":   {"type": "array", "items": {"type": "string"}}
				},
				"required": ["at", "count", "ratio", "labels", "tags"]
			}
		}
	}`)

	assert.Contains(t, src, `"time"`, "date-time fields import time")
	assert.Regexp(t, `At\s+time\.Time`, src)
	assert.Regexp(t, `Count\s+int32`, src)
	assert.Regexp(t, `Ratio\s+float64`, src)
	assert.Regexp(t, `Labels\s+map\[string\]string`, src)
	assert.Regexp(t, `Tags\s+\[\]string`, src)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	files := []File{{Name: "models.go", Content: []byte("package models\n")}}
	require.NoError(t, WriteFiles(files, dir))

	err := WriteFiles([]File{{Name: "../escape.go", Content: nil}}, dir)
	require.Error(t, err)
}
