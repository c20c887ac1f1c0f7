package synth

// CandidateKind classifies a registered model shape.
type CandidateKind int

const (
	// CandidateStruct is an object shape with named fields and optional bases.
	CandidateStruct CandidateKind = iota
	// CandidateEnum is a typed enum with more than one value.
	CandidateEnum
	// CandidateUnion is a named union shape.
	CandidateUnion
)

// String returns the kind name for diagnostics.
func (k CandidateKind) String() string {
	switch k {
	case CandidateStruct:
		return "struct"
	case CandidateEnum:
		return "enum"
	case CandidateUnion:
		return "union"
	}
	return "invalid"
}

// Field is one model field in declaration order.
type Field struct {
	// Name is the wire name of the field.
	Name string
	// Type is the synthesized field type.
	Type CanonicalType
	// Required reports membership in the merged required set.
	Required bool
	// Default is the declared default value, nil when absent.
	Default any
	// Description is the field's own description.
	Description string
	// Constraints are field-level constraints not absorbed into Type.
	Constraints Constraints
}

// Candidate is a model shape handed to the registry. The registry owns
// naming and deduplication; the synthesizer only describes structure.
type Candidate struct {
	// Kind selects which payload applies.
	Kind CandidateKind
	// Title is the schema's own title, used as the preferred name.
	Title string
	// Description is the schema's description.
	Description string
	// SourceDoc and SourcePath locate the originating fragment.
	SourceDoc  string
	SourcePath string

	// Fields are the struct fields in stable order (structs only).
	Fields []Field
	// Bases are inherited base models (structs only).
	Bases []ModelID

	// EnumBase and EnumValues describe a typed enum (enums only).
	EnumBase   ScalarKind
	EnumValues []any

	// Union is the named union payload (unions only).
	Union *Union
}

// Registrar is the registry surface the synthesizer needs. Reserve allocates
// a provisional id for a source location before its shape is known, which is
// what makes recursive shapes expressible; Populate fills it in.
type Registrar interface {
	// Reserve allocates (or returns the existing) model id for a source key.
	Reserve(sourceKey, title string) ModelID
	// Populate attaches the shape to a reserved id.
	Populate(id ModelID, candidate *Candidate) error
	// Lookup returns the id previously reserved for a source key.
	Lookup(sourceKey string) (ModelID, bool)
}
