// Package synth converts merged schemas into canonical types.
//
// CanonicalType is a closed tagged union: Scalar, Container, Union, ModelRef,
// Unknown, and Never. Every consumer switches exhaustively over it, so adding
// a variant is a compile-time-visible change. Object and named-enum shapes
// never appear inline; they are registered and referenced through ModelRef.
package synth

import (
	"fmt"
	"strings"
)

// ModelID identifies a registered model. Zero is never a valid id.
type ModelID int

// IsValid reports whether the id refers to a registered model.
func (id ModelID) IsValid() bool { return id > 0 }

// CanonicalType is the closed union of synthesized types. Implementations
// are value types with structural equality.
type CanonicalType interface {
	// Equal reports structural equality with another canonical type.
	Equal(other CanonicalType) bool
	// String returns a diagnostic rendering of the type.
	String() string

	canonicalType()
}

// ScalarKind enumerates the scalar base kinds.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarInteger
	ScalarNumber
	ScalarBool
	ScalarNull
)

// String returns the kind name for diagnostics.
func (k ScalarKind) String() string {
	switch k {
	case ScalarString:
		return "string"
	case ScalarInteger:
		return "integer"
	case ScalarNumber:
		return "number"
	case ScalarBool:
		return "bool"
	case ScalarNull:
		return "null"
	}
	return "invalid"
}

// Constraints carries the validation constraints that survive synthesis.
// The zero value means unconstrained.
type Constraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
	MinLength        *int
	MaxLength        *int
	Pattern          string
	MinItems         *int
	MaxItems         *int
	UniqueItems      bool
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.Minimum == nil && c.Maximum == nil &&
		c.ExclusiveMinimum == nil && c.ExclusiveMaximum == nil &&
		c.MultipleOf == nil &&
		c.MinLength == nil && c.MaxLength == nil &&
		c.Pattern == "" &&
		c.MinItems == nil && c.MaxItems == nil &&
		!c.UniqueItems
}

// Equal reports structural equality.
func (c Constraints) Equal(o Constraints) bool {
	return eqFloat(c.Minimum, o.Minimum) &&
		eqFloat(c.Maximum, o.Maximum) &&
		eqFloat(c.ExclusiveMinimum, o.ExclusiveMinimum) &&
		eqFloat(c.ExclusiveMaximum, o.ExclusiveMaximum) &&
		eqFloat(c.MultipleOf, o.MultipleOf) &&
		eqInt(c.MinLength, o.MinLength) &&
		eqInt(c.MaxLength, o.MaxLength) &&
		c.Pattern == o.Pattern &&
		eqInt(c.MinItems, o.MinItems) &&
		eqInt(c.MaxItems, o.MaxItems) &&
		c.UniqueItems == o.UniqueItems
}

// Scalar is a scalar type with optional format, literal set, and constraints.
// A non-empty Literals set restricts the scalar to those values (from an
// untyped or single-value enum). Nullable records a type list that included
// "null".
type Scalar struct {
	Kind        ScalarKind
	Format      string
	Nullable    bool
	Literals    []any
	Constraints Constraints
}

func (Scalar) canonicalType() {}

// Equal reports structural equality.
func (s Scalar) Equal(other CanonicalType) bool {
	o, ok := other.(Scalar)
	if !ok {
		return false
	}
	if s.Kind != o.Kind || s.Format != o.Format || s.Nullable != o.Nullable {
		return false
	}
	if len(s.Literals) != len(o.Literals) {
		return false
	}
	for i := range s.Literals {
		if fmt.Sprintf("%v", s.Literals[i]) != fmt.Sprintf("%v", o.Literals[i]) {
			return false
		}
	}
	return s.Constraints.Equal(o.Constraints)
}

func (s Scalar) String() string {
	out := s.Kind.String()
	if s.Format != "" {
		out += "<" + s.Format + ">"
	}
	if s.Nullable {
		out += "?"
	}
	if len(s.Literals) > 0 {
		out += fmt.Sprintf("%v", s.Literals)
	}
	return out
}

// ContainerKind enumerates container shapes.
type ContainerKind int

const (
	// ContainerList is a homogeneous list with one element type.
	ContainerList ContainerKind = iota
	// ContainerTuple is a fixed positional list; one element type per slot.
	ContainerTuple
	// ContainerMap is a string-keyed map with one value type.
	ContainerMap
)

// String returns the kind name for diagnostics.
func (k ContainerKind) String() string {
	switch k {
	case ContainerList:
		return "list"
	case ContainerTuple:
		return "tuple"
	case ContainerMap:
		return "map"
	}
	return "invalid"
}

// Container is a list, tuple, or map. List and map carry exactly one element
// type; tuple carries one per slot.
type Container struct {
	Kind  ContainerKind
	Elems []CanonicalType
}

func (Container) canonicalType() {}

// Equal reports structural equality.
func (c Container) Equal(other CanonicalType) bool {
	o, ok := other.(Container)
	if !ok || c.Kind != o.Kind || len(c.Elems) != len(o.Elems) {
		return false
	}
	for i := range c.Elems {
		if !c.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

func (c Container) String() string {
	elems := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		elems[i] = e.String()
	}
	return c.Kind.String() + "[" + strings.Join(elems, ", ") + "]"
}

// Discriminator selects a union member by a literal field value.
type Discriminator struct {
	// Field is the discriminant property name.
	Field string
	// Mapping maps literal values to member indexes.
	Mapping map[string]int
}

// Equal reports structural equality.
func (d *Discriminator) Equal(o *Discriminator) bool {
	if (d == nil) != (o == nil) {
		return false
	}
	if d == nil {
		return true
	}
	if d.Field != o.Field || len(d.Mapping) != len(o.Mapping) {
		return false
	}
	for k, v := range d.Mapping {
		if ov, ok := o.Mapping[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Union is a sum of member types, optionally discriminated. Exclusive is
// true when exactly one member may match.
type Union struct {
	Members       []CanonicalType
	Discriminator *Discriminator
	Exclusive     bool
}

func (Union) canonicalType() {}

// Equal reports structural equality. Member order is significant.
func (u Union) Equal(other CanonicalType) bool {
	o, ok := other.(Union)
	if !ok || u.Exclusive != o.Exclusive || len(u.Members) != len(o.Members) {
		return false
	}
	for i := range u.Members {
		if !u.Members[i].Equal(o.Members[i]) {
			return false
		}
	}
	return u.Discriminator.Equal(o.Discriminator)
}

func (u Union) String() string {
	members := make([]string, len(u.Members))
	for i, m := range u.Members {
		members[i] = m.String()
	}
	sep := " | "
	if !u.Exclusive {
		sep = " / "
	}
	return "(" + strings.Join(members, sep) + ")"
}

// ModelRef refers to a registered model by id. The target must exist in the
// registry by finalization; referring to a not-yet-populated model is how
// recursive shapes are expressed.
type ModelRef struct {
	ID ModelID
}

func (ModelRef) canonicalType() {}

// Equal reports structural equality.
func (r ModelRef) Equal(other CanonicalType) bool {
	o, ok := other.(ModelRef)
	return ok && r.ID == o.ID
}

func (r ModelRef) String() string {
	return fmt.Sprintf("model(%d)", r.ID)
}

// Unknown accepts anything: boolean schema `true` or an unrecognizable
// fragment.
type Unknown struct{}

func (Unknown) canonicalType() {}

// Equal reports structural equality. Unknown never equals Never.
func (Unknown) Equal(other CanonicalType) bool {
	_, ok := other.(Unknown)
	return ok
}

func (Unknown) String() string { return "unknown" }

// Never accepts nothing: boolean schema `false`. Distinct from Unknown.
type Never struct{}

func (Never) canonicalType() {}

// Equal reports structural equality.
func (Never) Equal(other CanonicalType) bool {
	_, ok := other.(Never)
	return ok
}

func (Never) String() string { return "never" }

func eqFloat(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func eqInt(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
