package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schematools/modelgen/loader"
)

// documentInput represents the three ways a schema document can be provided
// to a tool. Exactly one of File, URL, or Content must be set.
type documentInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a schema file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a schema document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline schema content (JSON or YAML)"`
	ID      string `json:"id,omitempty"      jsonschema:"Document identifier used in cross-document references; defaults to the file base name, the URL, or inline-<n>"`
}

// load parses one document. index numbers the input within the request and
// is only used to synthesize identifiers for inline content.
func (d documentInput) load(index int) (*loader.Document, error) {
	count := 0
	if d.File != "" {
		count++
	}
	if d.URL != "" {
		count++
	}
	if d.Content != "" {
		count++
	}
	if count != 1 {
		return nil, fmt.Errorf("schemas[%d]: exactly one of file, url, or content must be provided (got %d)", index, count)
	}

	switch {
	case d.File != "":
		info, err := os.Stat(d.File)
		if err != nil {
			return nil, fmt.Errorf("schemas[%d]: %w", index, err)
		}
		if info.Size() > cfg.MaxInlineSize {
			return nil, fmt.Errorf("schemas[%d]: file %s exceeds maximum size %d bytes", index, d.File, cfg.MaxInlineSize)
		}
		data, err := os.ReadFile(d.File)
		if err != nil {
			return nil, fmt.Errorf("schemas[%d]: %w", index, err)
		}
		return loader.LoadBytes(d.id(index), data)

	case d.URL != "":
		data, err := fetchURL(d.URL)
		if err != nil {
			return nil, fmt.Errorf("schemas[%d]: %w", index, err)
		}
		return loader.LoadBytes(d.id(index), data)

	default:
		if int64(len(d.Content)) > cfg.MaxInlineSize {
			return nil, fmt.Errorf("schemas[%d]: inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set MODELGEN_MAX_INLINE_SIZE to increase",
				index, len(d.Content), cfg.MaxInlineSize)
		}
		return loader.LoadBytes(d.id(index), []byte(d.Content))
	}
}

// id picks the document identifier: explicit ID first, then the file base
// name or URL, then a synthetic inline name.
func (d documentInput) id(index int) string {
	switch {
	case d.ID != "":
		return d.ID
	case d.File != "":
		return filepath.Base(d.File)
	case d.URL != "":
		return d.URL
	default:
		return fmt.Sprintf("inline-%d.json", index+1)
	}
}

// buildDocumentSet loads every input into a document set, in request order.
// When any input came from a file, a file fetcher rooted at the first file's
// directory is returned so references can cross into sibling documents that
// were not listed explicitly.
func buildDocumentSet(inputs []documentInput) (*loader.DocumentSet, loader.Fetcher, error) {
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("at least one schema document is required")
	}
	if len(inputs) > cfg.MaxDocuments {
		return nil, nil, fmt.Errorf("too many schema documents: %d exceeds maximum %d; set MODELGEN_MAX_DOCUMENTS to increase", len(inputs), cfg.MaxDocuments)
	}

	docs := loader.NewDocumentSet()
	var fetcher loader.Fetcher
	for i, in := range inputs {
		doc, err := in.load(i)
		if err != nil {
			return nil, nil, err
		}
		docs.Add(doc)

		if in.File != "" && fetcher == nil {
			f := loader.NewFileFetcher(filepath.Dir(in.File))
			f.SetLimits(cfg.MaxInlineSize, cfg.MaxDocuments)
			fetcher = f
		}
	}
	return docs, fetcher, nil
}
