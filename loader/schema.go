package loader

// Schema is the raw keyword bag of one schema fragment.
// Supports JSON Schema Draft 2020-12 plus the OpenAPI discriminator keyword.
type Schema struct {
	// JSON Schema Core
	Ref    string `json:"$ref,omitempty"`
	Schema string `json:"$schema,omitempty"` // JSON Schema Draft version

	// Metadata
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Examples    []any  `json:"examples,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// Type validation
	Type  any   `json:"type,omitempty"` // string or []string
	Enum  []any `json:"enum,omitempty"`
	Const any   `json:"const,omitempty"`

	// Numeric validation
	MultipleOf       *float64 `json:"multipleOf,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`

	// String validation
	MaxLength *int   `json:"maxLength,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"` // e.g., "date-time", "email", "uri"

	// Array validation
	Items       any       `json:"items,omitempty"` // *Schema or bool
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	MinItems    *int      `json:"minItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`
	Contains    *Schema   `json:"contains,omitempty"`

	// Object validation
	Properties           map[string]*Schema `json:"properties,omitempty"`
	PatternProperties    map[string]*Schema `json:"patternProperties,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"` // *Schema or bool
	Required             []string           `json:"required,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`
	MaxProperties        *int               `json:"maxProperties,omitempty"`
	MinProperties        *int               `json:"minProperties,omitempty"`

	// Schema composition
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	// Polymorphism (OpenAPI 3.0+)
	Discriminator *Discriminator `json:"discriminator,omitempty"`

	// JSON Schema Draft 2020-12 identifiers and anchors
	ID            string             `json:"$id,omitempty"`
	Anchor        string             `json:"$anchor,omitempty"`
	DynamicRef    string             `json:"$dynamicRef,omitempty"`
	DynamicAnchor string             `json:"$dynamicAnchor,omitempty"`
	Comment       string             `json:"$comment,omitempty"`
	Defs          map[string]*Schema `json:"$defs,omitempty"`

	// Definitions is the Draft-07 spelling of $defs.
	Definitions map[string]*Schema `json:"definitions,omitempty"`

	// Extra captures specification extensions (fields starting with "x-").
	// Populated from the raw document after decoding; never serialized.
	Extra map[string]any `json:"-"`
}

// Discriminator designates a field whose literal value selects which union
// branch applies (OpenAPI 3.0+).
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// TypeString returns the declared type when it is a single string,
// and "" otherwise.
func (s *Schema) TypeString() string {
	if s == nil {
		return ""
	}
	if t, ok := s.Type.(string); ok {
		return t
	}
	return ""
}

// TypeList returns the declared types as a list. A single string type is
// returned as a one-element list. Non-string entries are skipped.
func (s *Schema) TypeList() []string {
	if s == nil {
		return nil
	}
	switch v := s.Type.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if t, ok := item.(string); ok {
				out = append(out, t)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

// IsRequired reports whether the named property is in the required list.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// HasStructuralKeywords reports whether the schema carries any keyword that
// affects its shape beyond a bare $ref. Metadata keywords (title, description,
// $comment, examples, deprecated) do not count.
func (s *Schema) HasStructuralKeywords() bool {
	if s == nil {
		return false
	}
	return s.Type != nil ||
		len(s.Enum) > 0 ||
		s.Const != nil ||
		len(s.Properties) > 0 ||
		len(s.PatternProperties) > 0 ||
		s.AdditionalProperties != nil ||
		len(s.Required) > 0 ||
		s.Items != nil ||
		len(s.PrefixItems) > 0 ||
		len(s.AllOf) > 0 ||
		len(s.AnyOf) > 0 ||
		len(s.OneOf) > 0 ||
		s.Not != nil ||
		s.Minimum != nil || s.Maximum != nil ||
		s.ExclusiveMinimum != nil || s.ExclusiveMaximum != nil ||
		s.MultipleOf != nil ||
		s.MinLength != nil || s.MaxLength != nil ||
		s.Pattern != "" ||
		s.MinItems != nil || s.MaxItems != nil ||
		s.Contains != nil ||
		s.MinProperties != nil || s.MaxProperties != nil
}
