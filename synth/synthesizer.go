package synth

import (
	"errors"
	"fmt"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/internal/issues"
	"github.com/schematools/modelgen/internal/severity"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/merger"
	"github.com/schematools/modelgen/mgerrors"
	"github.com/schematools/modelgen/resolver"
)

// knownFormats lists the formats each scalar kind understands. Anything else
// degrades to the bare kind.
var knownFormats = map[ScalarKind]map[string]bool{
	ScalarString: {
		"date-time": true, "date": true, "time": true, "duration": true,
		"email": true, "hostname": true, "ipv4": true, "ipv6": true,
		"uri": true, "uri-reference": true, "uuid": true,
		"byte": true, "binary": true, "password": true,
	},
	ScalarInteger: {"int32": true, "int64": true},
	ScalarNumber:  {"float": true, "double": true},
}

// Synthesizer converts schema nodes into canonical types, registering object
// and named-enum shapes with the registry as it goes.
//
// The synthesizer is single-threaded. Recursion over object graphs is made
// safe by an explicit in-progress set: re-entering a shape that is still
// being built yields a ModelRef to its reserved id instead of recursing.
type Synthesizer struct {
	merger *merger.Merger
	reg    Registrar
	logger modelgen.Logger
	issues []issues.Issue

	// active maps source keys of shapes currently being built to their
	// reserved ids.
	active map[string]ModelID
}

// NewSynthesizer creates a Synthesizer over a merger and a registry.
func NewSynthesizer(m *merger.Merger, reg Registrar) *Synthesizer {
	return &Synthesizer{
		merger: m,
		reg:    reg,
		logger: modelgen.NopLogger{},
		active: make(map[string]ModelID),
	}
}

// SetLogger replaces the synthesizer's logger. Nil restores the no-op logger.
func (s *Synthesizer) SetLogger(logger modelgen.Logger) {
	if logger == nil {
		logger = modelgen.NopLogger{}
	}
	s.logger = logger
}

// Issues returns the diagnostics accumulated so far.
func (s *Synthesizer) Issues() []issues.Issue {
	return s.issues
}

// Synthesize converts one schema node into a canonical type.
//
// Malformed fragments are fatal for their own subtree only: the subtree
// becomes Unknown, an error diagnostic is recorded, and siblings continue.
// Dangling references and strict-mode constraint conflicts propagate as
// errors.
func (s *Synthesizer) Synthesize(node *loader.SchemaNode) (CanonicalType, error) {
	merged, err := s.merger.Merge(node)
	if err != nil {
		if errors.Is(err, mgerrors.ErrMalformedNode) {
			s.issues = append(s.issues, issues.Issue{
				DocumentID: node.DocumentID,
				Path:       node.Pointer,
				Severity:   severity.SeverityError,
				Message:    "malformed schema fragment, treating subtree as unknown",
				Err:        err,
			})
			return Unknown{}, nil
		}
		return nil, err
	}

	switch merged.Kind {
	case merger.MergedNever:
		return Never{}, nil
	case merger.MergedUnknown:
		return Unknown{}, nil
	case merger.MergedScalar:
		return s.synthesizeScalar(merged)
	case merger.MergedArray:
		return s.synthesizeArray(merged)
	case merger.MergedObject:
		return s.synthesizeObject(merged)
	case merger.MergedUnion:
		return s.synthesizeUnion(merged)
	case merger.MergedAlias:
		return s.synthesizeAlias(merged)
	case merger.MergedCycle:
		return s.refFor(merged.Target), nil
	}

	return nil, &mgerrors.MalformedNodeError{
		DocumentID: node.DocumentID,
		Path:       node.Pointer,
		Message:    fmt.Sprintf("unhandled merged kind %s", merged.Kind),
	}
}

// synthesizeScalar maps a merged scalar to a Scalar, a scalar union, or a
// named enum model. The mapping is pure in kind, format, and constraints.
func (s *Synthesizer) synthesizeScalar(merged *merger.MergedSchema) (CanonicalType, error) {
	sc := merged.Schema
	types, nullable := splitNull(sc.TypeList())

	literals := sc.Enum
	if sc.Const != nil {
		literals = []any{sc.Const}
	}

	// Multiple non-null types: a typed enum across them degrades to a
	// literal-set scalar, otherwise the type list becomes a scalar union.
	if len(types) > 1 {
		if len(literals) > 0 {
			return s.literalScalar(merged, literals, nullable), nil
		}
		members := make([]CanonicalType, 0, len(types))
		for _, t := range types {
			members = append(members, Scalar{Kind: scalarKindOf(t), Nullable: nullable})
		}
		return Union{Members: members, Exclusive: true}, nil
	}

	if len(types) == 0 {
		// Untyped: an enum restricts to its literal set, otherwise the kind
		// is inferred from which constraints are present.
		if len(literals) > 0 {
			return s.literalScalar(merged, literals, nullable), nil
		}
		return Scalar{
			Kind:        inferScalarKind(sc),
			Nullable:    nullable,
			Constraints: constraintsOf(sc),
		}, nil
	}

	kind := scalarKindOf(types[0])

	// A typed enum with more than one value becomes a named enum model; a
	// single value stays a literal-restricted scalar.
	if len(literals) > 1 {
		return s.registerEnum(merged, kind, literals)
	}

	return Scalar{
		Kind:        kind,
		Format:      s.checkFormat(merged, kind, sc.Format),
		Nullable:    nullable,
		Literals:    literals,
		Constraints: constraintsOf(sc),
	}, nil
}

// literalScalar builds a literal-set scalar from an untyped or mixed enum.
// The kind is inferred from the literals; a heterogeneous set degrades to
// string.
func (s *Synthesizer) literalScalar(merged *merger.MergedSchema, literals []any, nullable bool) Scalar {
	kind, homogeneous := literalKind(literals)
	if !homogeneous {
		s.logger.Debug("mixed-kind literal set degraded to string",
			"pointer", merged.Source.Pointer)
	}
	return Scalar{
		Kind:        kind,
		Nullable:    nullable,
		Literals:    literals,
		Constraints: constraintsOf(merged.Schema),
	}
}

// registerEnum registers a typed multi-value enum as a named model.
func (s *Synthesizer) registerEnum(merged *merger.MergedSchema, kind ScalarKind, values []any) (CanonicalType, error) {
	key := sourceKey(merged.Source.DocumentID, merged.Source.Pointer)
	if id, ok := s.reg.Lookup(key); ok {
		return ModelRef{ID: id}, nil
	}
	id := s.reg.Reserve(key, merged.Schema.Title)
	err := s.reg.Populate(id, &Candidate{
		Kind:        CandidateEnum,
		Title:       merged.Schema.Title,
		Description: merged.Schema.Description,
		SourceDoc:   merged.Source.DocumentID,
		SourcePath:  merged.Source.Pointer,
		EnumBase:    kind,
		EnumValues:  values,
	})
	if err != nil {
		return nil, err
	}
	return ModelRef{ID: id}, nil
}

// synthesizeArray maps a merged array to a container: fixed positional items
// whose bounds pin the length become a tuple, a single item schema becomes a
// homogeneous list.
func (s *Synthesizer) synthesizeArray(merged *merger.MergedSchema) (CanonicalType, error) {
	sc := merged.Schema
	node := merged.Source

	if n := len(sc.PrefixItems); n > 0 {
		slots := make([]CanonicalType, 0, n)
		for i, slot := range sc.PrefixItems {
			ptr := fmt.Sprintf("%s/prefixItems/%d", node.Pointer, i)
			t, err := s.Synthesize(loader.NodeFromSchema(node.DocumentID, ptr, slot))
			if err != nil {
				return nil, err
			}
			slots = append(slots, t)
		}
		if sc.MinItems != nil && sc.MaxItems != nil && *sc.MinItems == n && *sc.MaxItems == n {
			return Container{Kind: ContainerTuple, Elems: slots}, nil
		}
		// Unpinned bounds: fall back to a homogeneous list over the slot
		// types, as a union when they differ.
		s.logger.Debug("positional items without pinned bounds, degrading to list",
			"pointer", node.Pointer)
		return Container{Kind: ContainerList, Elems: []CanonicalType{collapse(slots)}}, nil
	}

	elem := CanonicalType(Unknown{})
	if sc.Items != nil {
		itemNode, err := loader.SubschemaNode(node.DocumentID, node.Pointer+"/items", sc.Items)
		if err != nil {
			s.issues = append(s.issues, issues.Issue{
				DocumentID: node.DocumentID,
				Path:       node.Pointer + "/items",
				Severity:   severity.SeverityError,
				Message:    "malformed items schema, element type unknown",
				Err:        err,
			})
		} else if elem, err = s.Synthesize(itemNode); err != nil {
			return nil, err
		}
	}
	return Container{Kind: ContainerList, Elems: []CanonicalType{elem}}, nil
}

// synthesizeObject registers an object shape and returns a reference to it.
// Anonymous shapes with no declared fields become open maps instead.
func (s *Synthesizer) synthesizeObject(merged *merger.MergedSchema) (CanonicalType, error) {
	node := merged.Source
	key := sourceKey(node.DocumentID, node.Pointer)

	if id, ok := s.active[key]; ok {
		return ModelRef{ID: id}, nil
	}
	if id, ok := s.reg.Lookup(key); ok {
		return ModelRef{ID: id}, nil
	}

	if len(merged.Properties) == 0 && len(merged.Bases) == 0 && merged.Schema.Title == "" {
		return s.synthesizeMap(merged)
	}

	id := s.reg.Reserve(key, merged.Schema.Title)
	s.active[key] = id
	defer delete(s.active, key)

	candidate := &Candidate{
		Kind:        CandidateStruct,
		Title:       merged.Schema.Title,
		Description: merged.Schema.Description,
		SourceDoc:   node.DocumentID,
		SourcePath:  node.Pointer,
	}

	for _, base := range merged.Bases {
		baseID, err := s.baseModel(node, base)
		if err != nil {
			return nil, err
		}
		if baseID.IsValid() {
			candidate.Bases = append(candidate.Bases, baseID)
		}
	}

	for _, prop := range merged.Properties {
		ft, err := s.Synthesize(prop.Node)
		if err != nil {
			return nil, err
		}
		field := Field{
			Name:     prop.Name,
			Type:     ft,
			Required: prop.Required,
		}
		if ps := prop.Node.Schema; ps != nil {
			field.Default = ps.Default
			field.Description = ps.Description
			if _, isContainer := ft.(Container); isContainer {
				field.Constraints = constraintsOf(ps)
			}
		}
		candidate.Fields = append(candidate.Fields, field)
	}

	if err := s.reg.Populate(id, candidate); err != nil {
		return nil, err
	}
	s.logger.Debug("registered model shape",
		"pointer", node.Pointer, "fields", len(candidate.Fields), "bases", len(candidate.Bases))
	return ModelRef{ID: id}, nil
}

// synthesizeMap renders a shapeless object as an open map over its
// additionalProperties schema.
func (s *Synthesizer) synthesizeMap(merged *merger.MergedSchema) (CanonicalType, error) {
	node := merged.Source
	elem := CanonicalType(Unknown{})
	if ap := merged.Schema.AdditionalProperties; ap != nil {
		apNode, err := loader.SubschemaNode(node.DocumentID, node.Pointer+"/additionalProperties", ap)
		if err == nil {
			if elem, err = s.Synthesize(apNode); err != nil {
				return nil, err
			}
		}
	}
	return Container{Kind: ContainerMap, Elems: []CanonicalType{elem}}, nil
}

// baseModel resolves one inheritance base to a model id. Cycle markers
// reserve the target's id; anything that is not an object model is dropped
// with a diagnostic.
func (s *Synthesizer) baseModel(node *loader.SchemaNode, base merger.Base) (ModelID, error) {
	if base.Ref != nil && base.Ref.IsCycle {
		return s.refFor(base.Ref).ID, nil
	}
	if base.Ref == nil || base.Ref.Node == nil {
		return 0, nil
	}
	t, err := s.Synthesize(base.Ref.Node)
	if err != nil {
		return 0, err
	}
	ref, ok := t.(ModelRef)
	if !ok {
		s.issues = append(s.issues, issues.Issue{
			DocumentID: node.DocumentID,
			Path:       node.Pointer,
			Severity:   severity.SeverityWarning,
			Message:    fmt.Sprintf("inheritance base %s is not an object model, dropped", base.Expression),
		})
		return 0, nil
	}
	return ref.ID, nil
}

// synthesizeUnion maps a merged union, carrying discriminator metadata over.
func (s *Synthesizer) synthesizeUnion(merged *merger.MergedSchema) (CanonicalType, error) {
	mu := merged.Union
	union := Union{Exclusive: mu.Exclusive}

	for _, branch := range mu.Branches {
		switch {
		case branch.Ref != nil && branch.Ref.IsCycle:
			union.Members = append(union.Members, s.refFor(branch.Ref))
		case branch.Node == nil:
			union.Members = append(union.Members, Unknown{})
		default:
			t, err := s.Synthesize(branch.Node)
			if err != nil {
				return nil, err
			}
			union.Members = append(union.Members, t)
		}
	}

	if d := mu.Discriminator; d != nil {
		union.Discriminator = &Discriminator{
			Field:   d.PropertyName,
			Mapping: make(map[string]int, len(d.Mapping)),
		}
		for value, idx := range d.Mapping {
			union.Discriminator.Mapping[value] = idx
		}
	}
	return union, nil
}

// synthesizeAlias resolves a pure alias to its target's type. A whitelisted
// const extra narrows a scalar target to that literal.
func (s *Synthesizer) synthesizeAlias(merged *merger.MergedSchema) (CanonicalType, error) {
	t, err := s.Synthesize(merged.Target.Node)
	if err != nil {
		return nil, err
	}
	if merged.Schema != nil && merged.Schema.Const != nil {
		if sc, ok := t.(Scalar); ok {
			sc.Literals = []any{merged.Schema.Const}
			return sc, nil
		}
	}
	return t, nil
}

// refFor returns a ModelRef for a resolved target, reserving a provisional
// id when the target has not been seen yet. This is how lazy and
// self-referential shapes break recursion.
func (s *Synthesizer) refFor(target *resolver.ResolvedRef) ModelRef {
	doc, ptr := target.Key()
	key := sourceKey(doc, ptr)
	if id, ok := s.active[key]; ok {
		return ModelRef{ID: id}
	}
	if id, ok := s.reg.Lookup(key); ok {
		return ModelRef{ID: id}
	}
	return ModelRef{ID: s.reg.Reserve(key, "")}
}

func sourceKey(docID, pointer string) string {
	return docID + pointer
}

// splitNull strips "null" from a type list, reporting whether it was present.
func splitNull(types []string) ([]string, bool) {
	out := types[:0:0]
	nullable := false
	for _, t := range types {
		if t == "null" {
			nullable = true
			continue
		}
		out = append(out, t)
	}
	return out, nullable
}

func scalarKindOf(typ string) ScalarKind {
	switch typ {
	case "integer":
		return ScalarInteger
	case "number":
		return ScalarNumber
	case "boolean":
		return ScalarBool
	case "null":
		return ScalarNull
	default:
		return ScalarString
	}
}

// inferScalarKind guesses the kind of an untyped scalar from which
// constraint families are present.
func inferScalarKind(sc *loader.Schema) ScalarKind {
	switch {
	case sc.Pattern != "" || sc.MinLength != nil || sc.MaxLength != nil || sc.Format != "":
		return ScalarString
	case sc.Minimum != nil || sc.Maximum != nil ||
		sc.ExclusiveMinimum != nil || sc.ExclusiveMaximum != nil ||
		sc.MultipleOf != nil:
		return ScalarNumber
	default:
		return ScalarString
	}
}

// literalKind infers a scalar kind from a literal set. The second return is
// false when the set mixes kinds, in which case string is the safe fallback.
func literalKind(literals []any) (ScalarKind, bool) {
	kind := ScalarString
	for i, v := range literals {
		var k ScalarKind
		switch v.(type) {
		case string:
			k = ScalarString
		case bool:
			k = ScalarBool
		case float64, int, int64, uint64:
			k = ScalarNumber
		case nil:
			k = ScalarNull
		default:
			return ScalarString, false
		}
		if i == 0 {
			kind = k
		} else if k != kind {
			return ScalarString, false
		}
	}
	return kind, true
}

// checkFormat validates a format against the kind's known set, degrading
// unknown formats to the bare kind.
func (s *Synthesizer) checkFormat(merged *merger.MergedSchema, kind ScalarKind, format string) string {
	if format == "" || knownFormats[kind][format] {
		return format
	}
	s.logger.Debug("unknown format degraded",
		"pointer", merged.Source.Pointer, "kind", kind.String(), "format", format)
	return ""
}

// collapse reduces slot types to one element type: the common type when all
// slots agree, a union otherwise.
func collapse(slots []CanonicalType) CanonicalType {
	if len(slots) == 0 {
		return Unknown{}
	}
	first := slots[0]
	same := true
	for _, t := range slots[1:] {
		if !t.Equal(first) {
			same = false
			break
		}
	}
	if same {
		return first
	}
	return Union{Members: slots}
}

// constraintsOf extracts the constraints that survive synthesis.
func constraintsOf(sc *loader.Schema) Constraints {
	return Constraints{
		Minimum:          sc.Minimum,
		Maximum:          sc.Maximum,
		ExclusiveMinimum: sc.ExclusiveMinimum,
		ExclusiveMaximum: sc.ExclusiveMaximum,
		MultipleOf:       sc.MultipleOf,
		MinLength:        sc.MinLength,
		MaxLength:        sc.MaxLength,
		Pattern:          sc.Pattern,
		MinItems:         sc.MinItems,
		MaxItems:         sc.MaxItems,
		UniqueItems:      sc.UniqueItems,
	}
}
