// Package merger flattens combinator schemas into single logical views.
//
// allOf members merge left-to-right: scalar constraints combine via
// intersection (tightest wins), object property sets union with field-level
// last-write-wins. When every allOf member is a bare reference to an object
// schema and no member redefines another member's field, the merge policy is
// inheritance: each reference becomes a base instead of an inlined field
// union. oneOf/anyOf become unions with propagated discriminator metadata.
//
// Type compatibility between overriding fields is deliberately not checked;
// the merger resolves shape, not validity.
package merger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/internal/issues"
	"github.com/schematools/modelgen/internal/severity"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/mgerrors"
	"github.com/schematools/modelgen/resolver"
)

// ConflictPolicy controls how genuinely incompatible constraints (e.g. two
// different pattern strings) are handled.
type ConflictPolicy int

const (
	// ConflictLastWins keeps the later member's value and records a warning
	// diagnostic. This is the default.
	ConflictLastWins ConflictPolicy = iota
	// ConflictStrict aborts the subtree with a ConstraintConflictError.
	ConflictStrict
)

// Config holds merge policy configuration.
type Config struct {
	// AliasExtras is the whitelist of non-structural sibling keywords that
	// keep a reference node a pure alias. Default: const.
	AliasExtras []string
	// ConflictPolicy controls incompatible-constraint handling.
	ConflictPolicy ConflictPolicy
}

// DefaultConfig returns the default merge configuration.
func DefaultConfig() Config {
	return Config{
		AliasExtras:    []string{"const"},
		ConflictPolicy: ConflictLastWins,
	}
}

// Merger flattens combinator schemas. One merger serves one synthesis pass;
// diagnostics accumulate on it.
type Merger struct {
	res    *resolver.Resolver
	cfg    Config
	logger modelgen.Logger
	issues []issues.Issue

	// merging tracks combinator nodes currently being merged, so mutually
	// recursive combinator chains terminate instead of recursing forever.
	merging map[string]bool
}

// New creates a Merger over the given resolver.
func New(res *resolver.Resolver, cfg Config) *Merger {
	if len(cfg.AliasExtras) == 0 {
		cfg.AliasExtras = []string{"const"}
	}
	return &Merger{
		res:     res,
		cfg:     cfg,
		logger:  modelgen.NopLogger{},
		merging: make(map[string]bool),
	}
}

// SetLogger replaces the merger's logger. Nil restores the no-op logger.
func (m *Merger) SetLogger(logger modelgen.Logger) {
	if logger == nil {
		logger = modelgen.NopLogger{}
	}
	m.logger = logger
}

// Issues returns the diagnostics accumulated so far.
func (m *Merger) Issues() []issues.Issue {
	return m.issues
}

// Merge converts a schema node into a single logical schema.
func (m *Merger) Merge(node *loader.SchemaNode) (*MergedSchema, error) {
	switch node.Kind {
	case loader.KindBoolean:
		kind := MergedUnknown
		if !node.BoolValue {
			kind = MergedNever
		}
		return &MergedSchema{Source: node, Kind: kind}, nil

	case loader.KindReference:
		return m.mergeReference(node)

	case loader.KindCombinator:
		key := node.DocumentID + node.Pointer
		if m.merging[key] {
			m.issues = append(m.issues, issues.Issue{
				DocumentID: node.DocumentID,
				Path:       node.Pointer,
				Severity:   severity.SeverityWarning,
				Message:    "circular combinator composition; treating as unknown type",
			})
			return &MergedSchema{Source: node, Kind: MergedUnknown, Schema: node.Schema}, nil
		}
		m.merging[key] = true
		defer delete(m.merging, key)

		s := node.Schema
		switch {
		case len(s.AllOf) > 0:
			return m.mergeAllOf(node)
		case len(s.OneOf) > 0:
			return m.mergeUnion(node, s.OneOf, "oneOf", true)
		default:
			return m.mergeUnion(node, s.AnyOf, "anyOf", false)
		}

	case loader.KindObject:
		return m.mergeObject(node)

	case loader.KindArray:
		return &MergedSchema{Source: node, Kind: MergedArray, Schema: node.Schema}, nil

	case loader.KindScalar:
		return &MergedSchema{Source: node, Kind: MergedScalar, Schema: node.Schema}, nil

	case loader.KindUnknown:
		return &MergedSchema{Source: node, Kind: MergedUnknown, Schema: node.Schema}, nil
	}

	return nil, &mgerrors.MalformedNodeError{
		DocumentID: node.DocumentID,
		Path:       node.Pointer,
		Message:    fmt.Sprintf("unhandled node kind %s", node.Kind),
	}
}

// mergeObject produces the merged view of a plain object schema.
func (m *Merger) mergeObject(node *loader.SchemaNode) (*MergedSchema, error) {
	s := node.Schema
	merged := &MergedSchema{
		Source: node,
		Kind:   MergedObject,
		Schema: s,
	}
	merged.Properties = propertiesOf(node, s, nil)
	if len(merged.Properties) > 0 {
		merged.Provenance = []Contribution{{
			Pointer: node.Pointer,
			Fields:  names(merged.Properties),
		}}
	}
	return merged, nil
}

// mergeReference merges a reference node: a pure alias when its siblings are
// all whitelisted non-structural extras, a wrapper merge otherwise, and a
// cycle pass-through when resolution hit the resolution stack.
func (m *Merger) mergeReference(node *loader.SchemaNode) (*MergedSchema, error) {
	ref, degraded, err := m.resolveNode(node)
	if err != nil {
		return nil, err
	}
	if degraded {
		return &MergedSchema{Source: node, Kind: MergedUnknown, Schema: node.Schema}, nil
	}
	if ref.IsCycle {
		return &MergedSchema{Source: node, Kind: MergedCycle, Target: ref}, nil
	}

	if m.isPureAlias(node.Schema) {
		return &MergedSchema{Source: node, Kind: MergedAlias, Target: ref, Schema: node.Schema}, nil
	}

	// Sibling keywords outside the whitelist force a synthesized wrapper:
	// merge the target with the overriding siblings, target first.
	m.logger.Debug("reference with structural siblings, synthesizing wrapper",
		"pointer", node.Pointer)
	siblings := *node.Schema
	siblings.Ref = ""
	siblings.DynamicRef = ""
	target, err := m.memberFor(ref.Node, ref, "")
	if err != nil {
		return nil, err
	}
	sibling, err := m.memberFor(loader.NodeFromSchema(node.DocumentID, node.Pointer, &siblings), nil, "")
	if err != nil {
		return nil, err
	}
	return m.flatten(node, []memberView{target, sibling})
}

// memberView pairs an allOf member with its resolution, when the member was
// a reference, and with its own merged view, when the member was itself a
// combinator.
type memberView struct {
	node   *loader.SchemaNode    // effective schema (resolved target for refs)
	ref    *resolver.ResolvedRef // nil for inline members
	expr   string                // original reference expression, refs only
	merged *MergedSchema         // non-nil for combinator members
}

// memberFor builds the view of one member. Members that are themselves
// combinators are merged recursively so their flattened properties, bases,
// and constraints participate in the enclosing merge instead of being lost.
func (m *Merger) memberFor(node *loader.SchemaNode, ref *resolver.ResolvedRef, expr string) (memberView, error) {
	mv := memberView{node: node, ref: ref, expr: expr}
	if node != nil && node.Kind == loader.KindCombinator {
		sub, err := m.Merge(node)
		if err != nil {
			return mv, err
		}
		mv.merged = sub
	}
	return mv, nil
}

// mergeAllOf merges an allOf combinator.
func (m *Merger) mergeAllOf(node *loader.SchemaNode) (*MergedSchema, error) {
	s := node.Schema
	members := make([]memberView, 0, len(s.AllOf))
	allBareRefs := true

	for i, member := range s.AllOf {
		ptr := fmt.Sprintf("%s/allOf/%d", node.Pointer, i)
		memberNode := loader.NodeFromSchema(node.DocumentID, ptr, member)

		if memberNode.Kind != loader.KindReference {
			allBareRefs = false
			mv, err := m.memberFor(memberNode, nil, "")
			if err != nil {
				return nil, err
			}
			members = append(members, mv)
			continue
		}

		ref, degraded, err := m.resolveNode(memberNode)
		if err != nil {
			return nil, err
		}
		if degraded {
			allBareRefs = false
			members = append(members, memberView{node: nil})
			continue
		}
		expr := member.Ref
		if expr == "" {
			expr = member.DynamicRef
		}
		mv, err := m.memberFor(ref.Node, ref, expr)
		if err != nil {
			return nil, err
		}
		members = append(members, mv)

		// Structural sibling keywords on the reference member override the
		// target, so they join the merge as their own member.
		if !m.isPureAlias(member) {
			allBareRefs = false
			siblings := *member
			siblings.Ref = ""
			siblings.DynamicRef = ""
			sib, err := m.memberFor(loader.NodeFromSchema(node.DocumentID, ptr, &siblings), nil, "")
			if err != nil {
				return nil, err
			}
			members = append(members, sib)
		}
	}

	if allBareRefs && m.inheritanceApplies(s, members) {
		return m.mergeAsInheritance(node, members)
	}
	return m.flattenWithOwn(node, members)
}

// inheritanceApplies reports whether the inheritance policy can be used:
// every member resolved to an object schema (or a cycle marker) and no
// field name is defined by more than one contributor, including the
// combinator node's own sibling properties.
func (m *Merger) inheritanceApplies(own *loader.Schema, members []memberView) bool {
	seen := make(map[string]bool)
	claim := func(fields map[string]*loader.Schema) bool {
		for name := range fields {
			if seen[name] {
				return false
			}
			seen[name] = true
		}
		return true
	}

	for _, mv := range members {
		if mv.ref != nil && mv.ref.IsCycle {
			continue
		}
		if mv.merged != nil {
			if mv.merged.Kind != MergedObject {
				return false
			}
			for _, p := range mv.merged.Properties {
				if seen[p.Name] {
					return false
				}
				seen[p.Name] = true
			}
			continue
		}
		if mv.node == nil || mv.node.Kind != loader.KindObject || mv.node.Schema == nil {
			return false
		}
		if !claim(mv.node.Schema.Properties) {
			return false
		}
	}
	return claim(own.Properties)
}

// mergeAsInheritance produces an object whose members become bases.
func (m *Merger) mergeAsInheritance(node *loader.SchemaNode, members []memberView) (*MergedSchema, error) {
	merged := &MergedSchema{
		Source: node,
		Kind:   MergedObject,
		Schema: node.Schema,
	}
	for _, mv := range members {
		merged.Bases = append(merged.Bases, Base{Ref: mv.ref, Expression: mv.expr})
	}
	merged.Properties = propertiesOf(node, node.Schema, nil)
	if len(merged.Properties) > 0 {
		merged.Provenance = append(merged.Provenance, Contribution{
			Pointer: node.Pointer,
			Fields:  names(merged.Properties),
		})
	}
	m.logger.Debug("allOf merged as inheritance",
		"pointer", node.Pointer, "bases", len(merged.Bases))
	return merged, nil
}

// flattenWithOwn appends the combinator node's own sibling keywords as the
// final (highest-precedence) member, then flattens.
func (m *Merger) flattenWithOwn(node *loader.SchemaNode, members []memberView) (*MergedSchema, error) {
	own := *node.Schema
	own.AllOf = nil
	if own.HasStructuralKeywords() {
		members = append(members, memberView{
			node: loader.NodeFromSchema(node.DocumentID, node.Pointer, &own),
		})
	}
	return m.flatten(node, members)
}

// flatten merges members left-to-right into a single schema: property sets
// union with last-write-wins at the field level, scalar constraints
// intersect with tightest-wins. Cycle-marker members cannot be inlined and
// are kept as bases.
func (m *Merger) flatten(node *loader.SchemaNode, members []memberView) (*MergedSchema, error) {
	merged := &MergedSchema{Source: node, Kind: MergedObject}

	eff := &loader.Schema{
		Title:       node.Schema.Title,
		Description: node.Schema.Description,
		Default:     node.Schema.Default,
	}
	var props []Property
	index := make(map[string]int)
	required := make(map[string]bool)
	sawObject := false

	for _, mv := range members {
		if mv.ref != nil && mv.ref.IsCycle {
			// A circular allOf chain is cut here: the marker passes through
			// as a base for the synthesizer to turn into a model reference.
			merged.Bases = append(merged.Bases, Base{Ref: mv.ref, Expression: mv.expr})
			continue
		}
		if mv.merged != nil {
			sub := mv.merged
			if sub.Kind == MergedNever {
				return &MergedSchema{Source: node, Kind: MergedNever}, nil
			}
			if sub.Kind == MergedObject {
				sawObject = true
			}
			merged.Bases = append(merged.Bases, sub.Bases...)
			var contributed []string
			for _, p := range sub.Properties {
				if at, ok := index[p.Name]; ok {
					props[at] = p
				} else {
					index[p.Name] = len(props)
					props = append(props, p)
				}
				if p.Required {
					required[p.Name] = true
				}
				contributed = append(contributed, p.Name)
			}
			if len(contributed) > 0 {
				merged.Provenance = append(merged.Provenance, Contribution{
					Pointer: mv.node.Pointer,
					Fields:  contributed,
				})
			}
			if sub.Schema != nil {
				if err := m.intersectConstraints(eff, sub.Schema, mv.node.Pointer); err != nil {
					return nil, err
				}
			}
			continue
		}
		if mv.node == nil {
			continue
		}
		if mv.node.Kind == loader.KindBoolean {
			if !mv.node.BoolValue {
				return &MergedSchema{Source: node, Kind: MergedNever}, nil
			}
			continue
		}
		ms := mv.node.Schema
		if ms == nil {
			continue
		}
		if mv.node.Kind == loader.KindObject {
			sawObject = true
		}

		var contributed []string
		for _, name := range sortedPropNames(ms.Properties) {
			prop := Property{
				Name:   name,
				Node:   loader.NodeFromSchema(mv.node.DocumentID, mv.node.Pointer+"/properties/"+name, ms.Properties[name]),
				Source: mv.node.Pointer,
			}
			if at, ok := index[name]; ok {
				// Later member completely overrides the earlier property.
				props[at] = prop
			} else {
				index[name] = len(props)
				props = append(props, prop)
			}
			contributed = append(contributed, name)
		}
		for _, r := range ms.Required {
			required[r] = true
		}
		if len(contributed) > 0 {
			merged.Provenance = append(merged.Provenance, Contribution{
				Pointer: mv.node.Pointer,
				Fields:  contributed,
			})
		}

		if err := m.intersectConstraints(eff, ms, mv.node.Pointer); err != nil {
			return nil, err
		}
	}

	for i := range props {
		props[i].Required = required[props[i].Name]
	}
	merged.Properties = props
	merged.Schema = eff

	switch {
	case sawObject || len(props) > 0 || len(merged.Bases) > 0:
		merged.Kind = MergedObject
	case typeListHas(eff, "array") || eff.Items != nil || len(eff.PrefixItems) > 0:
		merged.Kind = MergedArray
	case eff.Type != nil || len(eff.Enum) > 0 || eff.Const != nil ||
		eff.Pattern != "" || eff.Minimum != nil || eff.Maximum != nil ||
		eff.MinLength != nil || eff.MaxLength != nil:
		merged.Kind = MergedScalar
	default:
		merged.Kind = MergedUnknown
	}
	return merged, nil
}

// intersectConstraints folds src's constraints into dst: lower bounds take
// the maximum, upper bounds take the minimum, and set-valued keywords
// intersect. Incompatible values follow the conflict policy.
func (m *Merger) intersectConstraints(dst, src *loader.Schema, srcPtr string) error {
	// Type lists intersect; a disjoint intersection is a conflict.
	if src.Type != nil {
		if dst.Type == nil {
			dst.Type = src.Type
		} else {
			inter := intersectStrings(dst.TypeList(), src.TypeList())
			if len(inter) == 0 {
				if err := m.conflict("type", srcPtr, dst.Type, src.Type); err != nil {
					return err
				}
				dst.Type = src.Type
			} else if len(inter) == 1 {
				dst.Type = inter[0]
			} else {
				dst.Type = toAnySlice(inter)
			}
		}
	}

	dst.Minimum = maxFloat(dst.Minimum, src.Minimum)
	dst.ExclusiveMinimum = maxFloat(dst.ExclusiveMinimum, src.ExclusiveMinimum)
	dst.Maximum = minFloat(dst.Maximum, src.Maximum)
	dst.ExclusiveMaximum = minFloat(dst.ExclusiveMaximum, src.ExclusiveMaximum)
	dst.MinLength = maxInt(dst.MinLength, src.MinLength)
	dst.MaxLength = minInt(dst.MaxLength, src.MaxLength)
	dst.MinItems = maxInt(dst.MinItems, src.MinItems)
	dst.MaxItems = minInt(dst.MaxItems, src.MaxItems)
	dst.MinProperties = maxInt(dst.MinProperties, src.MinProperties)
	dst.MaxProperties = minInt(dst.MaxProperties, src.MaxProperties)
	dst.UniqueItems = dst.UniqueItems || src.UniqueItems

	if src.Pattern != "" {
		if dst.Pattern != "" && dst.Pattern != src.Pattern {
			if err := m.conflict("pattern", srcPtr, dst.Pattern, src.Pattern); err != nil {
				return err
			}
		}
		dst.Pattern = src.Pattern
	}
	if src.Format != "" {
		if dst.Format != "" && dst.Format != src.Format {
			if err := m.conflict("format", srcPtr, dst.Format, src.Format); err != nil {
				return err
			}
		}
		dst.Format = src.Format
	}
	if src.MultipleOf != nil {
		if dst.MultipleOf != nil && *dst.MultipleOf != *src.MultipleOf {
			if err := m.conflict("multipleOf", srcPtr, *dst.MultipleOf, *src.MultipleOf); err != nil {
				return err
			}
		}
		dst.MultipleOf = src.MultipleOf
	}
	if src.Const != nil {
		if dst.Const != nil && canonicalValue(dst.Const) != canonicalValue(src.Const) {
			if err := m.conflict("const", srcPtr, dst.Const, src.Const); err != nil {
				return err
			}
		}
		dst.Const = src.Const
	}
	if len(src.Enum) > 0 {
		if len(dst.Enum) == 0 {
			dst.Enum = src.Enum
		} else {
			inter := intersectAny(dst.Enum, src.Enum)
			if len(inter) == 0 {
				if err := m.conflict("enum", srcPtr, dst.Enum, src.Enum); err != nil {
					return err
				}
				dst.Enum = src.Enum
			} else {
				dst.Enum = inter
			}
		}
	}

	if src.Items != nil {
		dst.Items = src.Items
	}
	if len(src.PrefixItems) > 0 {
		dst.PrefixItems = src.PrefixItems
	}
	if src.AdditionalProperties != nil {
		dst.AdditionalProperties = src.AdditionalProperties
	}
	return nil
}

// conflict applies the conflict policy: last-write-wins records a warning,
// strict aborts the subtree.
func (m *Merger) conflict(keyword, path string, kept, incoming any) error {
	if m.cfg.ConflictPolicy == ConflictStrict {
		return &mgerrors.ConstraintConflictError{
			Keyword:   keyword,
			Path:      path,
			Kept:      kept,
			Discarded: incoming,
		}
	}
	m.issues = append(m.issues, issues.Issue{
		Path:     path,
		Keyword:  keyword,
		Severity: severity.SeverityWarning,
		Message:  fmt.Sprintf("conflicting %s values; keeping later value %v over %v", keyword, incoming, kept),
	})
	m.logger.Warn("constraint conflict", "keyword", keyword, "path", path)
	return nil
}

// mergeUnion merges a oneOf/anyOf combinator into a union view.
func (m *Merger) mergeUnion(node *loader.SchemaNode, branches []*loader.Schema, keyword string, exclusive bool) (*MergedSchema, error) {
	union := &Union{Exclusive: exclusive}

	for i, branchSchema := range branches {
		ptr := fmt.Sprintf("%s/%s/%d", node.Pointer, keyword, i)
		branchNode := loader.NodeFromSchema(node.DocumentID, ptr, branchSchema)
		branch := Branch{Node: branchNode}

		if branchNode.Kind == loader.KindReference {
			ref, degraded, err := m.resolveNode(branchNode)
			if err != nil {
				return nil, err
			}
			if degraded {
				branch.Node = nil
			} else {
				branch.Ref = ref
				branch.Node = ref.Node // nil when ref.IsCycle
			}
		}

		// Member names come from the branch itself, never from the parent
		// combinator: metadata does not bleed through.
		if branch.Node != nil && branch.Node.Schema != nil {
			branch.Name = branch.Node.Schema.Title
		}
		union.Branches = append(union.Branches, branch)
	}

	m.propagateDiscriminator(node, union)
	return &MergedSchema{Source: node, Kind: MergedUnion, Schema: node.Schema, Union: union}, nil
}

// propagateDiscriminator attaches discriminator metadata to the union:
// an explicit discriminator keyword when present, else a default derived
// from each branch's literal-constant discriminant field.
func (m *Merger) propagateDiscriminator(node *loader.SchemaNode, union *Union) {
	if d := node.Schema.Discriminator; d != nil && d.PropertyName != "" {
		info := &DiscriminatorInfo{
			PropertyName: d.PropertyName,
			Mapping:      make(map[string]int),
			Explicit:     true,
		}
		for value, target := range d.Mapping {
			if idx, ok := branchIndexForTarget(union.Branches, target); ok {
				info.Mapping[value] = idx
			}
		}
		// Branches absent from the explicit mapping map by their own
		// discriminant constant.
		m.fillDiscriminants(union, info)
		union.Discriminator = info
		return
	}

	field, ok := commonDiscriminantField(union.Branches)
	if !ok {
		return
	}
	info := &DiscriminatorInfo{
		PropertyName: field,
		Mapping:      make(map[string]int),
	}
	m.fillDiscriminants(union, info)
	if len(info.Mapping) == len(union.Branches) {
		union.Discriminator = info
	}
}

// fillDiscriminants records each branch's literal discriminant value for the
// chosen field and derives member names where still unset.
func (m *Merger) fillDiscriminants(union *Union, info *DiscriminatorInfo) {
	for i := range union.Branches {
		b := &union.Branches[i]
		value, ok := discriminantConst(b.Node, info.PropertyName)
		if !ok {
			continue
		}
		b.DiscriminantValue = value
		literal := fmt.Sprintf("%v", value)
		if _, mapped := findMapping(info.Mapping, i); !mapped {
			info.Mapping[literal] = i
		}
		if b.Name == "" {
			b.Name = literal
		}
	}
}

// resolveNode resolves a reference node, degrading unsupported pointer
// dialects to a warning. The degraded return is true when the caller should
// treat the node as an unknown type.
func (m *Merger) resolveNode(node *loader.SchemaNode) (*resolver.ResolvedRef, bool, error) {
	ref, err := m.res.ResolveNode(node)
	if err == nil {
		return ref, false, nil
	}
	var refErr *mgerrors.ReferenceError
	if errors.As(err, &refErr) && refErr.IsUnsupportedDialect {
		m.issues = append(m.issues, issues.Issue{
			DocumentID: node.DocumentID,
			Path:       node.Pointer,
			Severity:   severity.SeverityWarning,
			Message:    "unsupported pointer dialect; treating as unknown type",
			Err:        err,
		})
		m.logger.Warn("unsupported pointer dialect",
			"pointer", node.Pointer, "document", node.DocumentID)
		return nil, true, nil
	}
	return nil, false, err
}

// isPureAlias reports whether a reference node's siblings are all
// whitelisted non-structural extras. Metadata keywords (title, description,
// comments, examples) never break alias status.
func (m *Merger) isPureAlias(s *loader.Schema) bool {
	for _, keyword := range structuralSiblings(s) {
		if !contains(m.cfg.AliasExtras, keyword) {
			return false
		}
	}
	return true
}

// structuralSiblings lists the structural keywords present on a reference
// schema, excluding the reference itself.
func structuralSiblings(s *loader.Schema) []string {
	var out []string
	add := func(cond bool, kw string) {
		if cond {
			out = append(out, kw)
		}
	}
	add(s.Type != nil, "type")
	add(len(s.Enum) > 0, "enum")
	add(s.Const != nil, "const")
	add(len(s.Properties) > 0, "properties")
	add(len(s.PatternProperties) > 0, "patternProperties")
	add(s.AdditionalProperties != nil, "additionalProperties")
	add(len(s.Required) > 0, "required")
	add(s.Items != nil, "items")
	add(len(s.PrefixItems) > 0, "prefixItems")
	add(len(s.AllOf) > 0, "allOf")
	add(len(s.AnyOf) > 0, "anyOf")
	add(len(s.OneOf) > 0, "oneOf")
	add(s.Not != nil, "not")
	add(s.Minimum != nil, "minimum")
	add(s.Maximum != nil, "maximum")
	add(s.ExclusiveMinimum != nil, "exclusiveMinimum")
	add(s.ExclusiveMaximum != nil, "exclusiveMaximum")
	add(s.MultipleOf != nil, "multipleOf")
	add(s.MinLength != nil, "minLength")
	add(s.MaxLength != nil, "maxLength")
	add(s.Pattern != "", "pattern")
	add(s.MinItems != nil, "minItems")
	add(s.MaxItems != nil, "maxItems")
	add(s.Contains != nil, "contains")
	add(s.MinProperties != nil, "minProperties")
	add(s.MaxProperties != nil, "maxProperties")
	return out
}

// propertiesOf builds the ordered property list of a plain object schema.
func propertiesOf(node *loader.SchemaNode, s *loader.Schema, required map[string]bool) []Property {
	if len(s.Properties) == 0 {
		return nil
	}
	props := make([]Property, 0, len(s.Properties))
	for _, name := range sortedPropNames(s.Properties) {
		isReq := s.IsRequired(name)
		if required != nil {
			isReq = required[name]
		}
		props = append(props, Property{
			Name:     name,
			Node:     loader.NodeFromSchema(node.DocumentID, node.Pointer+"/properties/"+name, s.Properties[name]),
			Required: isReq,
			Source:   node.Pointer,
		})
	}
	return props
}

// commonDiscriminantField finds a property name that every branch constrains
// to a literal constant. When several qualify, the alphabetically first is
// chosen for determinism.
func commonDiscriminantField(branches []Branch) (string, bool) {
	var common map[string]bool
	for _, b := range branches {
		if b.Node == nil || b.Node.Schema == nil {
			return "", false
		}
		fields := make(map[string]bool)
		for name, prop := range b.Node.Schema.Properties {
			if _, ok := literalConst(prop); ok {
				fields[name] = true
			}
		}
		if common == nil {
			common = fields
		} else {
			for name := range common {
				if !fields[name] {
					delete(common, name)
				}
			}
		}
		if len(common) == 0 {
			return "", false
		}
	}
	names := make([]string, 0, len(common))
	for name := range common {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], true
}

// discriminantConst returns the literal constant the branch declares for the
// named property.
func discriminantConst(node *loader.SchemaNode, field string) (any, bool) {
	if node == nil || node.Schema == nil {
		return nil, false
	}
	prop, ok := node.Schema.Properties[field]
	if !ok {
		return nil, false
	}
	return literalConst(prop)
}

// literalConst extracts a literal constant from a schema: a const keyword or
// a single-value enum.
func literalConst(s *loader.Schema) (any, bool) {
	if s == nil {
		return nil, false
	}
	if s.Const != nil {
		return s.Const, true
	}
	if len(s.Enum) == 1 {
		return s.Enum[0], true
	}
	return nil, false
}

// branchIndexForTarget matches an explicit discriminator mapping target
// (a reference expression or bare name) against the union branches.
func branchIndexForTarget(branches []Branch, target string) (int, bool) {
	for i, b := range branches {
		if b.Ref == nil {
			continue
		}
		if target == b.Ref.Pointer || strings.HasSuffix(b.Ref.Pointer, "/"+target) {
			return i, true
		}
	}
	return 0, false
}

// findMapping reports whether the branch index already appears in a mapping.
func findMapping(mapping map[string]int, idx int) (string, bool) {
	for value, i := range mapping {
		if i == idx {
			return value, true
		}
	}
	return "", false
}

func names(props []Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func sortedPropNames(props map[string]*loader.Schema) []string {
	out := make([]string, 0, len(props))
	for name := range props {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersectStrings(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	var out []string
	for _, s := range a {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func intersectAny(a, b []any) []any {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[canonicalValue(v)] = true
	}
	var out []any
	for _, v := range a {
		if set[canonicalValue(v)] {
			out = append(out, v)
		}
	}
	return out
}

// canonicalValue renders a literal as canonical JSON, so values compare by
// structure: the string "1" and the number 1 differ, 1 and 1.0 agree.
func canonicalValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func toAnySlice(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

func maxFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func minFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	default:
		return a
	}
}

func maxInt(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func minInt(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	default:
		return a
	}
}

func typeListHas(s *loader.Schema, t string) bool {
	for _, v := range s.TypeList() {
		if v == t {
			return true
		}
	}
	return false
}
