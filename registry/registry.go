package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/internal/naming"
	"github.com/schematools/modelgen/mgerrors"
	"github.com/schematools/modelgen/synth"
)

// structural path tokens that never become names.
var nonNameTokens = map[string]bool{
	"properties": true, "items": true, "additionalProperties": true,
	"prefixItems": true, "allOf": true, "anyOf": true, "oneOf": true,
	"$defs": true, "definitions": true, "schemas": true, "components": true,
}

// Registry assigns identity to model shapes. One registry serves one
// synthesis pass.
type Registry struct {
	logger modelgen.Logger
	dedup  bool

	models []*ModelDefinition // index id-1
	byKey  map[string]synth.ModelID
	remap  map[synth.ModelID]synth.ModelID
	frozen bool
}

// New creates an empty registry with deduplication enabled.
func New() *Registry {
	return &Registry{
		logger: modelgen.NopLogger{},
		dedup:  true,
		byKey:  make(map[string]synth.ModelID),
		remap:  make(map[synth.ModelID]synth.ModelID),
	}
}

// SetLogger replaces the registry's logger. Nil restores the no-op logger.
func (r *Registry) SetLogger(logger modelgen.Logger) {
	if logger == nil {
		logger = modelgen.NopLogger{}
	}
	r.logger = logger
}

// SetDeduplication toggles structural deduplication at finalization.
func (r *Registry) SetDeduplication(enabled bool) {
	r.dedup = enabled
}

// Reserve allocates a provisional model id for a source key, or returns the
// id already reserved for it. Reserving before populating is what lets
// recursive shapes refer to themselves.
func (r *Registry) Reserve(sourceKey, title string) synth.ModelID {
	if sourceKey != "" {
		if id, ok := r.byKey[sourceKey]; ok {
			return id
		}
	}
	def := &ModelDefinition{
		ID:    synth.ModelID(len(r.models) + 1),
		Title: title,
	}
	r.models = append(r.models, def)
	if sourceKey == "" {
		sourceKey = fmt.Sprintf("~anon/%d", def.ID)
	}
	r.byKey[sourceKey] = def.ID
	return def.ID
}

// Populate attaches a shape to a reserved id.
func (r *Registry) Populate(id synth.ModelID, c *synth.Candidate) error {
	if r.frozen {
		return &mgerrors.ConfigError{
			Option:  "registry",
			Message: "cannot populate a frozen registry",
		}
	}
	def := r.at(id)
	if def == nil {
		return &mgerrors.ConfigError{
			Option:  "registry",
			Value:   int(id),
			Message: "populate of unreserved model id",
		}
	}
	if def.populated {
		return &mgerrors.ConfigError{
			Option:  "registry",
			Value:   int(id),
			Message: "model populated twice",
		}
	}

	def.populated = true
	def.Kind = c.Kind
	if c.Title != "" {
		def.Title = c.Title
	}
	def.Description = c.Description
	def.SourceDoc = c.SourceDoc
	def.SourcePath = c.SourcePath
	def.Fields = c.Fields
	def.Bases = c.Bases
	def.EnumBase = c.EnumBase
	def.EnumValues = c.EnumValues
	def.Union = c.Union
	return nil
}

// Lookup returns the id reserved for a source key.
func (r *Registry) Lookup(sourceKey string) (synth.ModelID, bool) {
	id, ok := r.byKey[sourceKey]
	if ok {
		id = r.canonical(id)
	}
	return id, ok
}

// RegisterCandidate reserves and populates in one step, keyed by the
// candidate's source location.
func (r *Registry) RegisterCandidate(c *synth.Candidate) (synth.ModelID, error) {
	key := c.SourceDoc + c.SourcePath
	if id, ok := r.byKey[key]; ok && r.at(id).populated {
		return r.canonical(id), nil
	}
	id := r.Reserve(key, c.Title)
	if err := r.Populate(id, c); err != nil {
		return 0, err
	}
	return id, nil
}

// Len returns the number of live models.
func (r *Registry) Len() int {
	n := 0
	for _, def := range r.models {
		if !def.dropped {
			n++
		}
	}
	return n
}

// Model returns the definition for an id, following dedup remapping.
func (r *Registry) Model(id synth.ModelID) *ModelDefinition {
	return r.at(r.canonical(id))
}

// Models returns the live definitions in id order.
func (r *Registry) Models() []*ModelDefinition {
	out := make([]*ModelDefinition, 0, len(r.models))
	for _, def := range r.models {
		if !def.dropped {
			out = append(out, def)
		}
	}
	return out
}

// Finalize checks whole-run invariants, deduplicates, assigns names, and
// freezes the registry. It must run exactly once, after all registration.
func (r *Registry) Finalize() error {
	if r.frozen {
		return &mgerrors.ConfigError{Option: "registry", Message: "finalized twice"}
	}

	for _, def := range r.models {
		if !def.populated {
			return &mgerrors.ReferenceError{
				DocumentID: def.SourceDoc,
				Pointer:    def.SourcePath,
				IsDangling: true,
				Message:    fmt.Sprintf("model %d referenced but never defined", def.ID),
			}
		}
	}

	if r.dedup {
		r.deduplicate()
	}
	r.assignNames()
	r.frozen = true
	return nil
}

// deduplicate collapses structurally identical models: group by fingerprint,
// verify byte equality of the canonical serialization, keep the first-seen
// model of each group, and rewrite references. Runs to fixpoint so chains of
// identical wrappers collapse too.
func (r *Registry) deduplicate() {
	for {
		for _, def := range r.models {
			if !def.dropped {
				def.Fingerprint = fingerprint(def)
			}
		}

		groups := make(map[uint64][]*ModelDefinition)
		for _, def := range r.models {
			if !def.dropped {
				groups[def.Fingerprint] = append(groups[def.Fingerprint], def)
			}
		}

		changed := false
		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
			canonical := group[0]
			for _, dup := range group[1:] {
				if !sameShape(canonical, dup) {
					continue // hash collision, keep both
				}
				dup.dropped = true
				r.remap[dup.ID] = canonical.ID
				changed = true
				r.logger.Debug("deduplicated model",
					"kept", int(canonical.ID), "dropped", int(dup.ID))
			}
		}
		if !changed {
			return
		}
		r.rewriteRefs()
	}
}

// sameShape verifies that two models with equal fingerprints really are
// structurally identical.
func sameShape(a, b *ModelDefinition) bool {
	av := fmt.Sprintf("%v", shapeView(a))
	bv := fmt.Sprintf("%v", shapeView(b))
	return av == bv
}

// rewriteRefs rewrites all model references through the remap table.
func (r *Registry) rewriteRefs() {
	for _, def := range r.models {
		if def.dropped {
			continue
		}
		for i := range def.Fields {
			def.Fields[i].Type = r.rewriteType(def.Fields[i].Type)
		}
		for i := range def.Bases {
			def.Bases[i] = r.canonical(def.Bases[i])
		}
		if def.Union != nil {
			u := r.rewriteType(*def.Union).(synth.Union)
			def.Union = &u
		}
	}
}

func (r *Registry) rewriteType(t synth.CanonicalType) synth.CanonicalType {
	switch v := t.(type) {
	case synth.ModelRef:
		return synth.ModelRef{ID: r.canonical(v.ID)}
	case synth.Container:
		elems := make([]synth.CanonicalType, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = r.rewriteType(e)
		}
		return synth.Container{Kind: v.Kind, Elems: elems}
	case synth.Union:
		members := make([]synth.CanonicalType, len(v.Members))
		for i, m := range v.Members {
			members[i] = r.rewriteType(m)
		}
		return synth.Union{Members: members, Discriminator: v.Discriminator, Exclusive: v.Exclusive}
	default:
		return t
	}
}

// Rewrite maps every model reference inside a type to its surviving id.
// Useful for types captured before deduplication ran.
func (r *Registry) Rewrite(t synth.CanonicalType) synth.CanonicalType {
	return r.rewriteType(t)
}

// canonical follows the remap table to the surviving id.
func (r *Registry) canonical(id synth.ModelID) synth.ModelID {
	for {
		next, ok := r.remap[id]
		if !ok {
			return id
		}
		id = next
	}
}

// assignNames names every live model exactly once: title first, then a name
// inferred from the source path, then Model_<n>. Collisions get numeric
// suffixes in first-seen order, so identical inputs always name identically.
func (r *Registry) assignNames() {
	seen := make(map[string]int)
	for _, def := range r.models {
		if def.dropped {
			continue
		}
		base := naming.ToPascalCase(naming.SanitizeIdentifier(def.Title))
		if base == "" {
			base = inferName(def.SourcePath)
		}
		if base == "" {
			base = "Model_" + strconv.Itoa(int(def.ID))
		}

		seen[base]++
		if n := seen[base]; n > 1 {
			def.Name = base + strconv.Itoa(n)
		} else {
			def.Name = base
		}
		r.logger.Debug("assigned model name", "id", int(def.ID), "name", def.Name)
	}
}

// inferName derives a name from the last meaningful path segment:
// structural keywords and array indexes are skipped, and a property segment
// is prefixed with its owner for context.
func inferName(sourcePath string) string {
	segments := strings.Split(strings.TrimPrefix(sourcePath, "#/"), "/")
	var picked []string
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || nonNameTokens[seg] {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			continue
		}
		picked = append([]string{seg}, picked...)
		// One owning segment is enough context for a property name.
		if len(picked) == 2 {
			break
		}
		// Keep looking only when the segment we took is a property name.
		if i == 0 || segments[i-1] != "properties" {
			break
		}
	}
	parts := make([]string, 0, len(picked))
	for _, p := range picked {
		parts = append(parts, naming.ToPascalCase(naming.SanitizeIdentifier(p)))
	}
	return strings.Join(parts, "")
}

// Graph derives the dependency graph of the live models.
func (r *Registry) Graph() *DependencyGraph {
	g := &DependencyGraph{
		BaseEdges:  make(map[synth.ModelID][]synth.ModelID),
		FieldEdges: make(map[synth.ModelID][]synth.ModelID),
	}
	for _, def := range r.models {
		if def.dropped {
			continue
		}
		for _, base := range def.Bases {
			g.BaseEdges[def.ID] = append(g.BaseEdges[def.ID], r.canonical(base))
		}
		seen := make(map[synth.ModelID]bool)
		addRefs := func(t synth.CanonicalType) {
			for _, ref := range collectRefs(t, nil) {
				ref = r.canonical(ref)
				if ref == def.ID || seen[ref] {
					continue // self references contribute no edge
				}
				seen[ref] = true
				g.FieldEdges[def.ID] = append(g.FieldEdges[def.ID], ref)
			}
		}
		for _, f := range def.Fields {
			addRefs(f.Type)
		}
		if def.Union != nil {
			addRefs(*def.Union)
		}
	}
	return g
}

// collectRefs gathers every ModelRef id inside a type.
func collectRefs(t synth.CanonicalType, acc []synth.ModelID) []synth.ModelID {
	switch v := t.(type) {
	case synth.ModelRef:
		acc = append(acc, v.ID)
	case synth.Container:
		for _, e := range v.Elems {
			acc = collectRefs(e, acc)
		}
	case synth.Union:
		for _, m := range v.Members {
			acc = collectRefs(m, acc)
		}
	}
	return acc
}

// OrderForEmission returns the live model ids in dependency order:
// dependencies before dependents. Field cycles are legal; the back edge is
// simply not followed. A cycle through base edges is fatal and reports the
// participating model names.
func (r *Registry) OrderForEmission() ([]synth.ModelID, error) {
	if !r.frozen {
		return nil, &mgerrors.ConfigError{
			Option:  "registry",
			Message: "emission order requested before finalization",
		}
	}
	g := r.Graph()

	if cycle := r.findBaseCycle(g); len(cycle) > 0 {
		return nil, &mgerrors.InheritanceCycleError{Models: cycle}
	}

	const (
		white = iota
		gray
		black
	)
	state := make(map[synth.ModelID]int)
	var order []synth.ModelID

	var visit func(id synth.ModelID)
	visit = func(id synth.ModelID) {
		state[id] = gray
		deps := append(append([]synth.ModelID{}, g.BaseEdges[id]...), g.FieldEdges[id]...)
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
		for _, dep := range deps {
			if state[dep] == white {
				visit(dep)
			}
			// Gray dependencies are field-cycle back edges; base cycles were
			// already ruled out above.
		}
		state[id] = black
		order = append(order, id)
	}

	for _, def := range r.models {
		if !def.dropped && state[def.ID] == white {
			visit(def.ID)
		}
	}
	return order, nil
}

// findBaseCycle looks for a cycle in the base edges and returns the
// participating model names in walk order, first model repeated at the end.
func (r *Registry) findBaseCycle(g *DependencyGraph) []string {
	const (
		white = iota
		gray
		black
	)
	state := make(map[synth.ModelID]int)
	var cycle []string

	var visit func(id synth.ModelID, path []synth.ModelID) bool
	visit = func(id synth.ModelID, path []synth.ModelID) bool {
		state[id] = gray
		path = append(path, id)
		for _, base := range g.BaseEdges[id] {
			switch state[base] {
			case gray:
				start := 0
				for i, p := range path {
					if p == base {
						start = i
						break
					}
				}
				for _, p := range path[start:] {
					cycle = append(cycle, r.displayName(p))
				}
				cycle = append(cycle, r.displayName(base))
				return true
			case white:
				if visit(base, path) {
					return true
				}
			}
		}
		state[id] = black
		return false
	}

	for _, def := range r.models {
		if !def.dropped && state[def.ID] == white {
			if visit(def.ID, nil) {
				return cycle
			}
		}
	}
	return nil
}

func (r *Registry) displayName(id synth.ModelID) string {
	def := r.at(id)
	if def == nil {
		return fmt.Sprintf("model %d", id)
	}
	if def.Name != "" {
		return def.Name
	}
	if def.Title != "" {
		return def.Title
	}
	return fmt.Sprintf("model %d", id)
}

func (r *Registry) at(id synth.ModelID) *ModelDefinition {
	if id < 1 || int(id) > len(r.models) {
		return nil
	}
	return r.models[id-1]
}
