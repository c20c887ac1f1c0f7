package mcpserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentInput_ExactlyOneSource(t *testing.T) {
	_, err := documentInput{}.load(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of file, url, or content")

	_, err = documentInput{File: "a.json", Content: "{}"}.load(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2")
}

func TestDocumentInput_InlineContent(t *testing.T) {
	doc, err := documentInput{Content: `{"type": "string"}`}.load(2)
	require.NoError(t, err)
	assert.Equal(t, "inline-3.json", doc.ID)
}

func TestDocumentInput_InlineSizeLimit(t *testing.T) {
	old := cfg.MaxInlineSize
	cfg.MaxInlineSize = 16
	defer func() { cfg.MaxInlineSize = old }()

	_, err := documentInput{Content: strings.Repeat("a", 32)}.load(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestDocumentInput_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "person.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "object"}`), 0o600))

	doc, err := documentInput{File: path}.load(0)
	require.NoError(t, err)
	assert.Equal(t, "person.json", doc.ID, "file inputs default to the base name")

	doc, err = documentInput{File: path, ID: "schemas/person.json"}.load(0)
	require.NoError(t, err)
	assert.Equal(t, "schemas/person.json", doc.ID)

	_, err = documentInput{File: filepath.Join(dir, "missing.json")}.load(0)
	require.Error(t, err)
}

func TestBuildDocumentSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"$defs": {"A": {"type": "string"}}}`), 0o600))

	docs, fetcher, err := buildDocumentSet([]documentInput{
		{File: path},
		{Content: `{"type": "object"}`},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, docs.Len())
	assert.NotNil(t, fetcher, "file inputs enable a sibling fetcher")

	docs, fetcher, err = buildDocumentSet([]documentInput{{Content: `{}`}})
	require.NoError(t, err)
	assert.Equal(t, 1, docs.Len())
	assert.Nil(t, fetcher, "inline-only inputs have no base directory")

	_, _, err = buildDocumentSet(nil)
	require.Error(t, err)
}

func TestBuildDocumentSet_TooManyDocuments(t *testing.T) {
	old := cfg.MaxDocuments
	cfg.MaxDocuments = 2
	defer func() { cfg.MaxDocuments = old }()

	inputs := []documentInput{
		{Content: `{}`}, {Content: `{}`}, {Content: `{}`},
	}
	_, _, err := buildDocumentSet(inputs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many schema documents")
}
