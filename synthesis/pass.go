// Package synthesis wires the resolver, merger, synthesizer, and registry
// into a single pass over a document forest.
//
// A Pass is single-use: construct it with options, run it over a document
// set, and read the Result. All pass state (resolution cache, registry) is
// built per pass and discarded with it; two passes over the same input
// produce identical results.
package synthesis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/schematools/modelgen/internal/issues"
	"github.com/schematools/modelgen/internal/severity"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/merger"
	"github.com/schematools/modelgen/registry"
	"github.com/schematools/modelgen/resolver"
	"github.com/schematools/modelgen/synth"
)

// Diagnostic is one problem reported by a pass.
type Diagnostic struct {
	// DocumentID is the source document, when known.
	DocumentID string
	// Path is the fragment pointer of the problematic node.
	Path string
	// Severity is "error", "warning", "info", or "critical".
	Severity string
	// Message describes the problem.
	Message string
	// Err is the underlying error, when the diagnostic wraps one.
	Err error
}

// String renders the diagnostic for display.
func (d Diagnostic) String() string {
	location := d.Path
	if d.DocumentID != "" {
		location = d.DocumentID + " " + d.Path
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, location, d.Message)
}

// Result is the output of one pass.
type Result struct {
	// Registry holds the frozen model definitions.
	Registry *registry.Registry
	// Models are the live definitions in emission order: dependencies before
	// dependents.
	Models []*registry.ModelDefinition
	// Graph is the derived model dependency graph.
	Graph *registry.DependencyGraph
	// Roots maps each synthesized root fragment (docID + pointer) to its
	// canonical type. Definition roots that became models map to ModelRefs.
	Roots map[string]synth.CanonicalType
	// Diagnostics lists every problem found, fatal and recoverable.
	Diagnostics []Diagnostic
}

// ModelByName returns the model with the given assigned name, or nil.
func (r *Result) ModelByName(name string) *registry.ModelDefinition {
	for _, def := range r.Models {
		if def.Name == name {
			return def
		}
	}
	return nil
}

// Pass runs schema synthesis over a document forest. A Pass must not be
// reused across runs.
type Pass struct {
	cfg *passConfig
}

// New creates a Pass from functional options.
func New(opts ...Option) (*Pass, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("synthesis: invalid options: %w", err)
	}
	return &Pass{cfg: cfg}, nil
}

// Run processes every document in the set: each definition root and each
// structural document root is synthesized depth-first, in input order.
//
// The full forest is always processed; fatal problems (dangling references,
// inheritance cycles, strict-mode conflicts) are aggregated and returned
// joined, alongside a Result that carries the diagnostics. Result.Models is
// populated only when finalization and ordering succeed.
func (p *Pass) Run(docs *loader.DocumentSet) (*Result, error) {
	cfg := p.cfg

	res := resolver.New(docs, cfg.fetcher)
	res.SetLogger(cfg.logger)
	if cfg.maxRefDepth > 0 {
		res.SetMaxDepth(cfg.maxRefDepth)
	}

	mergeCfg := merger.DefaultConfig()
	if len(cfg.aliasExtras) > 0 {
		mergeCfg.AliasExtras = cfg.aliasExtras
	}
	mergeCfg.ConflictPolicy = cfg.conflictPolicy
	m := merger.New(res, mergeCfg)
	m.SetLogger(cfg.logger)

	reg := registry.New()
	reg.SetLogger(cfg.logger)
	reg.SetDeduplication(cfg.dedup)

	s := synth.NewSynthesizer(m, reg)
	s.SetLogger(cfg.logger)

	result := &Result{
		Registry: reg,
		Roots:    make(map[string]synth.CanonicalType),
	}
	var fatal []error

	for _, docID := range docs.Order() {
		doc := docs.Get(docID)
		res.EnterScope(docID)
		p.runDocument(doc, s, reg, result, &fatal)
		res.ExitScope()
	}

	result.Diagnostics = append(result.Diagnostics,
		convertIssues(m.Issues())...)
	result.Diagnostics = append(result.Diagnostics,
		convertIssues(s.Issues())...)

	if err := reg.Finalize(); err != nil {
		fatal = append(fatal, err)
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: severity.SeverityCritical.String(),
			Message:  "finalization failed",
			Err:      err,
		})
		return result, errors.Join(fatal...)
	}

	order, err := reg.OrderForEmission()
	if err != nil {
		fatal = append(fatal, err)
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: severity.SeverityCritical.String(),
			Message:  "emission ordering failed",
			Err:      err,
		})
		return result, errors.Join(fatal...)
	}
	for _, id := range order {
		result.Models = append(result.Models, reg.Model(id))
	}
	result.Graph = reg.Graph()
	for key, t := range result.Roots {
		result.Roots[key] = reg.Rewrite(t)
	}

	if len(fatal) > 0 {
		return result, errors.Join(fatal...)
	}
	return result, nil
}

// runDocument synthesizes one document: every named definition first, then
// the document root itself when it carries structure of its own.
func (p *Pass) runDocument(doc *loader.Document, s *synth.Synthesizer, reg *registry.Registry, result *Result, fatal *[]error) {
	root, err := doc.Root()
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: doc.ID,
			Path:       "#",
			Severity:   severity.SeverityError.String(),
			Message:    "document root is not a schema",
			Err:        err,
		})
		*fatal = append(*fatal, err)
		return
	}

	if root.Kind != loader.KindBoolean && root.Schema != nil {
		for _, name := range sortedKeys(root.Schema.Defs) {
			pointer := "#/$defs/" + name
			node := loader.NodeFromSchema(doc.ID, pointer, root.Schema.Defs[name])
			p.runRoot(doc.ID, pointer, node, s, reg, result, fatal)
		}
		// Draft-07 spells the definition container "definitions".
		for _, name := range sortedKeys(root.Schema.Definitions) {
			pointer := "#/definitions/" + name
			node := loader.NodeFromSchema(doc.ID, pointer, root.Schema.Definitions[name])
			p.runRoot(doc.ID, pointer, node, s, reg, result, fatal)
		}
	}
	p.runComponentSchemas(doc, s, reg, result, fatal)

	if root.Kind == loader.KindBoolean || root.Schema.HasStructuralKeywords() {
		p.runRoot(doc.ID, "#", root, s, reg, result, fatal)
	}
}

// runComponentSchemas synthesizes the reusable schemas of an OpenAPI
// document, kept under #/components/schemas.
func (p *Pass) runComponentSchemas(doc *loader.Document, s *synth.Synthesizer, reg *registry.Registry, result *Result, fatal *[]error) {
	raw, err := doc.Fragment("#/components/schemas")
	if err != nil {
		return
	}
	container, ok := raw.(map[string]any)
	if !ok {
		return
	}

	names := make([]string, 0, len(container))
	for name := range container {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pointer := "#/components/schemas/" + name
		node, err := loader.NewSchemaNode(doc.ID, pointer, container[name])
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				DocumentID: doc.ID,
				Path:       pointer,
				Severity:   severity.SeverityWarning.String(),
				Message:    "component schema is not a schema; skipping",
				Err:        err,
			})
			continue
		}
		p.runRoot(doc.ID, pointer, node, s, reg, result, fatal)
	}
}

// runRoot synthesizes one root fragment. Failures are recorded and the walk
// continues with the remaining roots.
func (p *Pass) runRoot(docID, pointer string, node *loader.SchemaNode, s *synth.Synthesizer, reg *registry.Registry, result *Result, fatal *[]error) {
	t, err := s.Synthesize(node)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			DocumentID: docID,
			Path:       pointer,
			Severity:   severity.SeverityError.String(),
			Message:    "synthesis failed",
			Err:        err,
		})
		*fatal = append(*fatal, err)
		return
	}

	// Named definition roots that synthesized to a union become named union
	// models, so they participate in naming and emission.
	if u, ok := t.(synth.Union); ok && pointer != "#" {
		t = p.registerUnion(docID, pointer, node, u, reg, result, fatal)
	}

	result.Roots[docID+pointer] = t
	p.cfg.logger.Debug("synthesized root", "document", docID, "pointer", pointer, "type", t.String())
}

func (p *Pass) registerUnion(docID, pointer string, node *loader.SchemaNode, u synth.Union, reg *registry.Registry, result *Result, fatal *[]error) synth.CanonicalType {
	key := docID + pointer
	if id, ok := reg.Lookup(key); ok {
		return synth.ModelRef{ID: id}
	}
	title := ""
	if node.Schema != nil {
		title = node.Schema.Title
	}
	id := reg.Reserve(key, title)
	err := reg.Populate(id, &synth.Candidate{
		Kind:       synth.CandidateUnion,
		Title:      title,
		SourceDoc:  docID,
		SourcePath: pointer,
		Union:      &u,
	})
	if err != nil {
		*fatal = append(*fatal, err)
		return u
	}
	return synth.ModelRef{ID: id}
}

func convertIssues(list []issues.Issue) []Diagnostic {
	out := make([]Diagnostic, 0, len(list))
	for _, issue := range list {
		out = append(out, Diagnostic{
			DocumentID: issue.DocumentID,
			Path:       issue.Path,
			Severity:   issue.Severity.String(),
			Message:    issue.Message,
			Err:        issue.Err,
		})
	}
	return out
}

func sortedKeys(m map[string]*loader.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
