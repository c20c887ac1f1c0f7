package merger

import (
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/resolver"
)

// MergedKind classifies the effective shape of a merged schema.
type MergedKind int

const (
	// MergedUnknown accepts anything (no recognizable structure, or boolean
	// schema `true`).
	MergedUnknown MergedKind = iota
	// MergedNever accepts nothing (boolean schema `false`).
	MergedNever
	// MergedScalar is a scalar with merged constraints.
	MergedScalar
	// MergedObject is an object shape with a merged property set and an
	// optional base list.
	MergedObject
	// MergedArray is an array shape.
	MergedArray
	// MergedUnion is a oneOf/anyOf union.
	MergedUnion
	// MergedAlias is a pure alias to a referenced schema.
	MergedAlias
	// MergedCycle is a pass-through cycle marker from the resolver.
	MergedCycle
)

// String returns the kind name for diagnostics.
func (k MergedKind) String() string {
	switch k {
	case MergedNever:
		return "never"
	case MergedScalar:
		return "scalar"
	case MergedObject:
		return "object"
	case MergedArray:
		return "array"
	case MergedUnion:
		return "union"
	case MergedAlias:
		return "alias"
	case MergedCycle:
		return "cycle"
	case MergedUnknown:
		return "unknown"
	}
	return "invalid"
}

// Property is one merged object property.
type Property struct {
	// Name is the property name as it appears in the schema.
	Name string
	// Node is the property's (un-merged) subschema; the synthesizer merges
	// it recursively.
	Node *loader.SchemaNode
	// Required reports whether the property is in the merged required set.
	Required bool
	// Source is the fragment pointer of the combinator member that
	// contributed (or last overrode) this property.
	Source string
}

// Base is one inherited base reference produced by the inheritance policy.
type Base struct {
	// Ref is the resolved base target. Ref.IsCycle is set when the base
	// chain cycled through the resolver.
	Ref *resolver.ResolvedRef
	// Expression is the original reference expression.
	Expression string
}

// Branch is one member of a merged union.
type Branch struct {
	// Node is the branch schema. For reference branches this is the
	// resolved target; Ref is also set in that case.
	Node *loader.SchemaNode
	// Ref is the resolved reference for reference branches, nil for inline
	// branches. Ref.IsCycle marks a lazy self-referential branch.
	Ref *resolver.ResolvedRef
	// Name is the derived member name: the branch's own title when present,
	// else the literal discriminant value. Never inherited from the parent
	// combinator.
	Name string
	// DiscriminantValue is the branch's literal-constant discriminant value,
	// when one exists.
	DiscriminantValue any
}

// DiscriminatorInfo is propagated union metadata.
type DiscriminatorInfo struct {
	// PropertyName is the discriminant field name.
	PropertyName string
	// Mapping maps literal discriminant values to branch indexes.
	Mapping map[string]int
	// Explicit is true when the mapping came from a discriminator keyword
	// rather than being derived from branch constants.
	Explicit bool
}

// Union is the merged view of a oneOf/anyOf combinator.
type Union struct {
	// Branches in declaration order.
	Branches []Branch
	// Discriminator metadata, nil when none applies.
	Discriminator *DiscriminatorInfo
	// Exclusive is true for oneOf, false for anyOf.
	Exclusive bool
}

// Contribution records which source fragment contributed which fields,
// for diagnostics.
type Contribution struct {
	// Pointer is the contributing fragment's pointer.
	Pointer string
	// Fields lists the property names the fragment contributed.
	Fields []string
}

// MergedSchema is the output of combinator merging: a single logical schema
// consumed immediately by the type synthesizer.
type MergedSchema struct {
	// Source is the node the merge started from.
	Source *loader.SchemaNode
	// Kind is the effective shape after merging.
	Kind MergedKind

	// Schema is the effective keyword bag: for scalars and arrays it carries
	// the merged constraints; for objects it carries everything except the
	// property set, which lives in Properties.
	Schema *loader.Schema

	// Properties is the merged, ordered property set (objects only).
	Properties []Property
	// Bases is the inherited base list (objects under the inheritance
	// policy only).
	Bases []Base

	// Union is set when Kind is MergedUnion.
	Union *Union

	// Target is set when Kind is MergedAlias or MergedCycle.
	Target *resolver.ResolvedRef

	// Provenance records which fragments contributed which fields.
	Provenance []Contribution
}

// PropertyNames returns the merged property names in order.
func (m *MergedSchema) PropertyNames() []string {
	names := make([]string, len(m.Properties))
	for i, p := range m.Properties {
		names[i] = p.Name
	}
	return names
}
