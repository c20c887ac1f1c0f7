// Package registry owns model identity: registration, structural
// deduplication, name assignment, and emission ordering.
//
// The registry is the only component that mutates model definitions. The
// synthesizer hands it anonymous shapes; names are assigned exactly once
// after registration completes, and the registry is frozen afterwards.
package registry

import (
	"github.com/schematools/modelgen/synth"
)

// ModelDefinition is one registered model. Definitions are mutable only
// through the registry and freeze at finalization.
type ModelDefinition struct {
	// ID is the stable model id.
	ID synth.ModelID
	// Name is the assigned emission name. Empty until AssignNames runs.
	Name string
	// Title is the schema's own title, preferred for naming.
	Title string
	// Description is the schema description, carried for emission.
	Description string
	// SourceDoc and SourcePath locate the originating fragment.
	SourceDoc  string
	SourcePath string

	// Kind selects which payload applies.
	Kind synth.CandidateKind
	// Fields are the struct fields in stable order.
	Fields []synth.Field
	// Bases are inherited base model ids.
	Bases []synth.ModelID
	// EnumBase and EnumValues describe a typed enum.
	EnumBase   synth.ScalarKind
	EnumValues []any
	// Union is the named union payload.
	Union *synth.Union

	// Fingerprint is the structural hash, computed at finalization.
	// Names and descriptions do not contribute.
	Fingerprint uint64

	populated bool
	dropped   bool
}

// DependencyGraph holds model-to-model edges, derived for emission ordering.
// Base edges are strong: a cycle through them is fatal. Field edges are
// weak: cycles are legal and broken at emission time.
type DependencyGraph struct {
	// BaseEdges maps a model to the bases it inherits from.
	BaseEdges map[synth.ModelID][]synth.ModelID
	// FieldEdges maps a model to the models its fields (and union members)
	// reference. Self references are omitted.
	FieldEdges map[synth.ModelID][]synth.ModelID
}
