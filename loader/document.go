package loader

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"

	"github.com/schematools/modelgen/mgerrors"
)

// Document is one loaded schema document: an identity plus the raw parsed
// tree and the anchor indexes built at load time.
type Document struct {
	// ID is the document identity (path or URL) used in pointers and
	// diagnostics.
	ID string
	// Raw is the parsed document tree: nested map[string]any / []any /
	// scalars, or a bare bool for boolean-schema documents.
	Raw any

	// anchors maps $anchor names to fragment pointers.
	anchors map[string]string
	// dynamicAnchors maps $dynamicAnchor names to fragment pointers.
	dynamicAnchors map[string]string
}

// LoadBytes parses a document from data. JSON input is detected by content
// (leading '{', '[', or a JSON literal) and decoded with the fast JSON path;
// everything else goes through the YAML parser, which accepts JSON as well.
func LoadBytes(id string, data []byte) (*Document, error) {
	var raw any
	trimmed := strings.TrimSpace(string(data))
	if looksLikeJSON(trimmed) {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, &mgerrors.MalformedNodeError{
				DocumentID: id,
				Path:       "#",
				Message:    "invalid JSON document",
				Cause:      err,
			}
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &mgerrors.MalformedNodeError{
				DocumentID: id,
				Path:       "#",
				Message:    "invalid YAML document",
				Cause:      err,
			}
		}
	}

	switch raw.(type) {
	case map[string]any, bool:
	default:
		return nil, &mgerrors.MalformedNodeError{
			DocumentID: id,
			Path:       "#",
			Message:    fmt.Sprintf("document root must be an object or boolean, got %T", raw),
		}
	}

	doc := &Document{
		ID:             id,
		Raw:            raw,
		anchors:        make(map[string]string),
		dynamicAnchors: make(map[string]string),
	}
	doc.indexAnchors(raw, "#")
	return doc, nil
}

// looksLikeJSON reports whether trimmed content starts like a JSON value.
func looksLikeJSON(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '{', '[', '"':
		return true
	}
	return trimmed == "true" || trimmed == "false" || trimmed == "null"
}

// Root returns the document root as a SchemaNode.
func (d *Document) Root() (*SchemaNode, error) {
	return NewSchemaNode(d.ID, "#", d.Raw)
}

// AnchorPointer returns the fragment pointer declared by `$anchor: name`,
// or "" when the document declares no such anchor.
func (d *Document) AnchorPointer(name string) string {
	return d.anchors[name]
}

// DynamicAnchorPointer returns the fragment pointer declared by
// `$dynamicAnchor: name`, or "" when the document declares no such anchor.
func (d *Document) DynamicAnchorPointer(name string) string {
	return d.dynamicAnchors[name]
}

// Fragment walks a JSON-pointer-style fragment ("#/a/b/0") and returns the
// raw value at that location. Pointer tokens are unescaped per RFC 6901.
func (d *Document) Fragment(pointer string) (any, error) {
	ref := strings.TrimPrefix(pointer, "#")
	if ref == "" || ref == "/" {
		return d.Raw, nil
	}

	parts := strings.Split(strings.TrimPrefix(ref, "/"), "/")
	current := d.Raw
	for i, part := range parts {
		part = unescapeJSONPointer(part)

		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("fragment not found: #/%s (missing key: %s)", strings.Join(parts[:i+1], "/"), part)
			}
			current = next

		case []any:
			// Array indexing per RFC 6901 (JSON Pointer)
			index, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid array index '%s' in fragment: #/%s (must be a non-negative integer)", part, strings.Join(parts[:i+1], "/"))
			}
			if index < 0 || index >= len(v) {
				return nil, fmt.Errorf("array index %d out of bounds (length %d) in fragment: #/%s", index, len(v), strings.Join(parts[:i+1], "/"))
			}
			current = v[index]

		default:
			return nil, fmt.Errorf("cannot traverse into type %T at #/%s", v, strings.Join(parts[:i], "/"))
		}
	}

	return current, nil
}

// NodeAt decodes the fragment at pointer into a SchemaNode.
func (d *Document) NodeAt(pointer string) (*SchemaNode, error) {
	raw, err := d.Fragment(pointer)
	if err != nil {
		return nil, err
	}
	return NewSchemaNode(d.ID, pointer, raw)
}

// indexAnchors walks the raw tree and records $anchor and $dynamicAnchor
// declarations with their fragment pointers. First declaration wins on
// duplicate names.
func (d *Document) indexAnchors(raw any, pointer string) {
	switch v := raw.(type) {
	case map[string]any:
		if name, ok := v["$anchor"].(string); ok && name != "" {
			if _, exists := d.anchors[name]; !exists {
				d.anchors[name] = pointer
			}
		}
		if name, ok := v["$dynamicAnchor"].(string); ok && name != "" {
			if _, exists := d.dynamicAnchors[name]; !exists {
				d.dynamicAnchors[name] = pointer
			}
		}
		for k, val := range v {
			d.indexAnchors(val, pointer+"/"+escapeJSONPointer(k))
		}
	case []any:
		for i, item := range v {
			d.indexAnchors(item, pointer+"/"+strconv.Itoa(i))
		}
	}
}

// unescapeJSONPointer unescapes JSON Pointer tokens.
// Per RFC 6901, ~1 represents / and ~0 represents ~
func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}

// escapeJSONPointer escapes JSON Pointer tokens per RFC 6901.
func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// DocumentSet is an ordered collection of loaded documents. Order is
// significant: model naming and deduplication depend on first-seen order.
type DocumentSet struct {
	docs  map[string]*Document
	order []string
}

// NewDocumentSet creates an empty DocumentSet.
func NewDocumentSet() *DocumentSet {
	return &DocumentSet{docs: make(map[string]*Document)}
}

// Add inserts a document. Adding the same ID twice replaces the document
// without changing its position.
func (s *DocumentSet) Add(doc *Document) {
	if _, exists := s.docs[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
}

// Get returns the document with the given ID, or nil.
func (s *DocumentSet) Get(id string) *Document {
	return s.docs[id]
}

// Order returns document IDs in insertion order.
func (s *DocumentSet) Order() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of documents.
func (s *DocumentSet) Len() int {
	return len(s.docs)
}
