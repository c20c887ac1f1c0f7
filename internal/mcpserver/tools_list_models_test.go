package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petSchema = `{
	"$defs": {
		"Cat": {"title": "Cat", "type": "object", "properties": {"kind": {"const": "cat"}, "lives": {"type": "integer"}}},
		"Dog": {"title": "Dog", "type": "object", "properties": {"kind": {"const": "dog"}}},
		"Pet": {"oneOf": [{"$ref": "#/$defs/Cat"}, {"$ref": "#/$defs/Dog"}]},
		"Status": {"title": "Status", "type": "string", "enum": ["stray", "adopted"]}
	}
}`

func TestListModelsTool(t *testing.T) {
	input := listModelsInput{
		Schemas: []documentInput{{Content: petSchema}},
	}
	result, output, err := handleListModels(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)

	assert.Equal(t, 4, output.Total)
	assert.Equal(t, 4, output.Returned)

	byName := make(map[string]modelSummary)
	for _, m := range output.Models {
		byName[m.Name] = m
	}
	assert.Equal(t, "struct", byName["Cat"].Kind)
	assert.Equal(t, 2, byName["Cat"].Fields)
	assert.Equal(t, "union", byName["Pet"].Kind)
	assert.Equal(t, 2, byName["Pet"].Members)
	assert.Equal(t, "enum", byName["Status"].Kind)
	assert.Equal(t, 2, byName["Status"].EnumValues)
	assert.Equal(t, "inline-1.json#/$defs/Cat", byName["Cat"].Source)

	// Emission order: union members come before the union itself.
	positions := make(map[string]int)
	for i, m := range output.Models {
		positions[m.Name] = i
	}
	assert.Less(t, positions["Cat"], positions["Pet"])
	assert.Less(t, positions["Dog"], positions["Pet"])
}

func TestListModelsTool_KindFilter(t *testing.T) {
	input := listModelsInput{
		Schemas: []documentInput{{Content: petSchema}},
		Kind:    "union",
	}
	_, output, err := handleListModels(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)

	require.Equal(t, 1, output.Total)
	assert.Equal(t, "Pet", output.Models[0].Name)
}

func TestListModelsTool_InvalidKind(t *testing.T) {
	input := listModelsInput{
		Schemas: []documentInput{{Content: petSchema}},
		Kind:    "class",
	}
	result, _, err := handleListModels(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestListModelsTool_Pagination(t *testing.T) {
	input := listModelsInput{
		Schemas: []documentInput{{Content: petSchema}},
		Offset:  1,
		Limit:   2,
	}
	_, output, err := handleListModels(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)

	assert.Equal(t, 4, output.Total)
	assert.Equal(t, 2, output.Returned)
	assert.Len(t, output.Models, 2)
}

func TestListModelsTool_DanglingReference(t *testing.T) {
	input := listModelsInput{
		Schemas: []documentInput{{Content: `{"$defs": {"Broken": {"$ref": "#/$defs/Missing"}}}`}},
	}
	result, output, err := handleListModels(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)

	assert.Zero(t, output.Total)
	assert.GreaterOrEqual(t, output.ErrorCount, 1)
}
