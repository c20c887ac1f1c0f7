package loader

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/schematools/modelgen/mgerrors"
)

// NodeKind classifies a schema fragment. The set is closed: every consumer
// switches exhaustively over it, so adding a kind is a compile-time-visible
// change.
type NodeKind int

const (
	// KindUnknown is a fragment with no recognizable structural keywords.
	KindUnknown NodeKind = iota
	// KindScalar is a fragment declaring a scalar type (string, number,
	// integer, boolean, null) or an enum/const without object/array shape.
	KindScalar
	// KindObject is a fragment declaring an object shape.
	KindObject
	// KindArray is a fragment declaring an array shape.
	KindArray
	// KindBoolean is a boolean schema form: `true` (accept anything) or
	// `false` (accept nothing).
	KindBoolean
	// KindReference is a fragment whose meaning is a $ref or $dynamicRef.
	KindReference
	// KindCombinator is a fragment composed of allOf/anyOf/oneOf members.
	KindCombinator
)

// String returns the kind name for diagnostics.
func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindBoolean:
		return "boolean"
	case KindReference:
		return "reference"
	case KindCombinator:
		return "combinator"
	case KindUnknown:
		return "unknown"
	}
	return "invalid"
}

// SchemaNode is a raw, document-scoped view of one schema fragment.
// Nodes are immutable once created; the resolver and merger hold references
// but never mutate them.
type SchemaNode struct {
	// DocumentID identifies the document this fragment belongs to.
	DocumentID string
	// Pointer is the JSON-pointer-style path of the fragment within its
	// document, in fragment form (e.g. "#/$defs/Node").
	Pointer string
	// Kind classifies the fragment.
	Kind NodeKind
	// Schema is the decoded keyword bag. Nil when Kind is KindBoolean.
	Schema *Schema
	// BoolValue holds the boolean schema value when Kind is KindBoolean.
	BoolValue bool
}

// NewSchemaNode decodes a raw fragment (the value produced by document
// loading: nested map[string]any / []any / scalars / bool) into a typed
// SchemaNode. A bare bool becomes a boolean schema node; anything that is
// not a mapping or bool is a malformed fragment.
func NewSchemaNode(docID, pointer string, raw any) (*SchemaNode, error) {
	if b, ok := raw.(bool); ok {
		return &SchemaNode{
			DocumentID: docID,
			Pointer:    pointer,
			Kind:       KindBoolean,
			BoolValue:  b,
		}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &mgerrors.MalformedNodeError{
			DocumentID: docID,
			Path:       pointer,
			Message:    "schema fragment must be an object or boolean",
		}
	}

	schema, err := decodeSchema(m)
	if err != nil {
		return nil, &mgerrors.MalformedNodeError{
			DocumentID: docID,
			Path:       pointer,
			Message:    "cannot decode schema keywords",
			Cause:      err,
		}
	}

	return &SchemaNode{
		DocumentID: docID,
		Pointer:    pointer,
		Kind:       classify(schema),
		Schema:     schema,
	}, nil
}

// NodeFromSchema wraps an already-decoded keyword bag as a SchemaNode.
// Used for sub-schemas (properties, items, combinator members) that were
// decoded as part of an enclosing fragment.
func NodeFromSchema(docID, pointer string, schema *Schema) *SchemaNode {
	return &SchemaNode{
		DocumentID: docID,
		Pointer:    pointer,
		Kind:       classify(schema),
		Schema:     schema,
	}
}

// SubschemaNode converts a schema-or-bool keyword value into a SchemaNode.
// Keywords like items and additionalProperties decode as *Schema,
// map[string]any, or bool depending on how the enclosing fragment was
// produced; this normalizes all three.
func SubschemaNode(docID, pointer string, v any) (*SchemaNode, error) {
	switch s := v.(type) {
	case *Schema:
		return NodeFromSchema(docID, pointer, s), nil
	case bool, map[string]any:
		return NewSchemaNode(docID, pointer, s)
	default:
		return nil, &mgerrors.MalformedNodeError{
			DocumentID: docID,
			Path:       pointer,
			Message:    fmt.Sprintf("subschema must be an object or boolean, got %T", v),
		}
	}
}

// decodeSchema converts a raw mapping into a typed Schema by round-tripping
// through JSON. Extension keywords ("x-*") are carried over separately since
// they are not part of the typed keyword set.
func decodeSchema(m map[string]any) (*Schema, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	for k, v := range m {
		if strings.HasPrefix(k, "x-") {
			if schema.Extra == nil {
				schema.Extra = make(map[string]any)
			}
			schema.Extra[k] = v
		}
	}
	return &schema, nil
}

// classify derives the NodeKind from the decoded keyword bag.
// Reference wins over everything: a $ref with siblings is still a reference
// node, and the merger decides whether the siblings force a wrapper.
func classify(s *Schema) NodeKind {
	switch {
	case s.Ref != "" || s.DynamicRef != "":
		return KindReference
	case len(s.AllOf) > 0 || len(s.AnyOf) > 0 || len(s.OneOf) > 0:
		return KindCombinator
	}

	switch s.TypeString() {
	case "object":
		return KindObject
	case "array":
		return KindArray
	case "string", "number", "integer", "boolean", "null":
		return KindScalar
	}

	// Union type lists like ["string","null"] are scalar-ish; multi-type
	// lists are handled downstream as unions but classify as scalar here
	// only when every member is a scalar type.
	if types := s.TypeList(); len(types) > 0 {
		allScalar := true
		for _, t := range types {
			switch t {
			case "string", "number", "integer", "boolean", "null":
			default:
				allScalar = false
			}
		}
		if allScalar {
			return KindScalar
		}
	}

	// No explicit type: infer from shape keywords.
	switch {
	case len(s.Properties) > 0 || len(s.PatternProperties) > 0 || s.AdditionalProperties != nil || len(s.Required) > 0:
		return KindObject
	case s.Items != nil || len(s.PrefixItems) > 0 || s.Contains != nil:
		return KindArray
	case len(s.Enum) > 0 || s.Const != nil:
		return KindScalar
	}

	return KindUnknown
}
