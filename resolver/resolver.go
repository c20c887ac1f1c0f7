// Package resolver resolves pointer expressions against a document set.
//
// Three pointer dialects are supported:
//
//   - static local fragments: "#/$defs/Node", "#", "#anchorName"
//   - static cross-document pointers: "common.yaml#/$defs/Node"
//   - dynamic scope-relative anchors: "$dynamicRef: #node", resolved against
//     the nearest enclosing dynamic scope at the point of use
//
// Resolution follows reference chains to their final non-reference target.
// A pointer already on the current resolution stack resolves to a cycle
// marker instead of recursing; the type synthesizer represents such markers
// as references to not-yet-finalized models. Every successful resolution is
// cached by (document id, pointer) for the lifetime of the resolver.
package resolver

import (
	"path"
	"strings"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/mgerrors"
)

// MaxRefDepth is the default maximum depth for chained reference resolution.
// This prevents stack overflow from deeply nested (but non-circular) chains.
const MaxRefDepth = 100

// refKey identifies a resolution target.
type refKey struct {
	DocumentID string
	Pointer    string
}

// ScopeFrame is one entry of the dynamic scope stack. A frame is pushed when
// the walk enters a schema resource (document) and popped on exit; dynamic
// anchors resolve against the nearest enclosing frame that declares them.
type ScopeFrame struct {
	DocumentID string
}

// ResolvedRef is the result of dereferencing a pointer expression.
type ResolvedRef struct {
	// Node is the final, non-reference target fragment. Nil when IsCycle.
	Node *loader.SchemaNode
	// DocumentID and Pointer identify the final target location.
	DocumentID string
	Pointer    string
	// ResolutionPath records the (document, pointer) hops taken, outermost
	// first, for cycle diagnostics.
	ResolutionPath []string
	// CrossDocument is true when any hop crossed a document boundary.
	CrossDocument bool
	// IsCycle marks a lazy/self-referential resolution: the pointer was
	// already on the resolution stack. The caller must represent this as a
	// reference to a not-yet-finalized model rather than inlining.
	IsCycle bool
}

// Key returns the (document id, pointer) identity of the target.
func (r *ResolvedRef) Key() (string, string) {
	return r.DocumentID, r.Pointer
}

// Resolver resolves pointer expressions for one synthesis pass.
// It owns the resolution cache and the cycle-tracking and dynamic scope
// stacks; all state is discarded with the resolver at pass end.
type Resolver struct {
	docs    *loader.DocumentSet
	fetcher loader.Fetcher
	logger  modelgen.Logger

	// cache holds every resolved pointer; a second resolution of the same
	// (document, pointer) pair returns the cached value without re-walking.
	cache map[refKey]*ResolvedRef
	// stack tracks targets currently being resolved in the recursion stack.
	stack []refKey
	// scopes is the dynamic scope stack.
	scopes []ScopeFrame

	maxDepth int
}

// New creates a resolver over the given document set. The fetcher is
// consulted for cross-document pointers whose target is not yet loaded;
// it may be nil, in which case such pointers dangle.
func New(docs *loader.DocumentSet, fetcher loader.Fetcher) *Resolver {
	return &Resolver{
		docs:     docs,
		fetcher:  fetcher,
		logger:   modelgen.NopLogger{},
		cache:    make(map[refKey]*ResolvedRef),
		maxDepth: MaxRefDepth,
	}
}

// SetLogger replaces the resolver's logger. Nil restores the no-op logger.
func (r *Resolver) SetLogger(logger modelgen.Logger) {
	if logger == nil {
		logger = modelgen.NopLogger{}
	}
	r.logger = logger
}

// SetMaxDepth overrides the chained-resolution depth limit.
// Non-positive values keep the current limit.
func (r *Resolver) SetMaxDepth(depth int) {
	if depth > 0 {
		r.maxDepth = depth
	}
}

// EnterScope pushes a dynamic scope frame for the given document.
// Callers must pair every EnterScope with an ExitScope.
func (r *Resolver) EnterScope(docID string) {
	r.scopes = append(r.scopes, ScopeFrame{DocumentID: docID})
}

// ExitScope pops the innermost dynamic scope frame.
func (r *Resolver) ExitScope() {
	if len(r.scopes) > 0 {
		r.scopes = r.scopes[:len(r.scopes)-1]
	}
}

// Resolve resolves a reference expression relative to the originating
// document and follows reference chains to their final target.
//
// Failure modes: a dangling pointer returns a *mgerrors.ReferenceError with
// IsDangling set (fatal for the run); an unrecognized pointer grammar
// returns one with IsUnsupportedDialect set (recoverable, the caller
// degrades the node to an unknown type).
func (r *Resolver) Resolve(ref, fromDocID string) (*ResolvedRef, error) {
	return r.resolve(ref, fromDocID, 0, nil)
}

// ResolveNode resolves a reference-kind schema node, dispatching on whether
// it carries a static $ref or a dynamic $dynamicRef.
func (r *Resolver) ResolveNode(node *loader.SchemaNode) (*ResolvedRef, error) {
	if node.Schema == nil {
		return nil, &mgerrors.MalformedNodeError{
			DocumentID: node.DocumentID,
			Path:       node.Pointer,
			Message:    "reference node has no schema",
		}
	}
	if node.Schema.DynamicRef != "" {
		return r.ResolveDynamic(node.Schema.DynamicRef, node.DocumentID)
	}
	return r.Resolve(node.Schema.Ref, node.DocumentID)
}

// ResolveDynamic resolves a "$dynamicRef: #name" expression against the
// dynamic scope stack: the nearest enclosing scope that declares a matching
// $dynamicAnchor wins. When no scope declares the anchor, the expression
// falls back to the originating document's own anchors, matching the
// behaves-like-$ref fallback of the 2020-12 dialect.
func (r *Resolver) ResolveDynamic(ref, fromDocID string) (*ResolvedRef, error) {
	name, ok := anchorName(ref)
	if !ok {
		return nil, &mgerrors.ReferenceError{
			Pointer:              ref,
			DocumentID:           fromDocID,
			Dialect:              "dynamic",
			IsUnsupportedDialect: true,
			Message:              "dynamic references must use the #name form",
		}
	}

	// Nearest enclosing scope first.
	for i := len(r.scopes) - 1; i >= 0; i-- {
		doc := r.docs.Get(r.scopes[i].DocumentID)
		if doc == nil {
			continue
		}
		if ptr := doc.DynamicAnchorPointer(name); ptr != "" {
			r.logger.Debug("dynamic anchor resolved in scope",
				"anchor", name, "document", doc.ID, "pointer", ptr)
			return r.resolveAt(doc.ID, ptr, fromDocID, 0, nil)
		}
	}

	// Fallback: the originating document's own anchors.
	if doc := r.docs.Get(fromDocID); doc != nil {
		if ptr := doc.DynamicAnchorPointer(name); ptr != "" {
			return r.resolveAt(doc.ID, ptr, fromDocID, 0, nil)
		}
		if ptr := doc.AnchorPointer(name); ptr != "" {
			return r.resolveAt(doc.ID, ptr, fromDocID, 0, nil)
		}
	}

	return nil, &mgerrors.ReferenceError{
		Pointer:    ref,
		DocumentID: fromDocID,
		Dialect:    "dynamic",
		IsDangling: true,
		Message:    "no dynamic anchor in scope",
	}
}

// resolve parses the reference expression and resolves the target.
func (r *Resolver) resolve(ref, fromDocID string, depth int, trail []string) (*ResolvedRef, error) {
	if ref == "" {
		return nil, &mgerrors.ReferenceError{
			Pointer:    ref,
			DocumentID: fromDocID,
			IsDangling: true,
			Message:    "empty reference",
		}
	}

	// URI schemes (http, urn, ...) are not a supported transport here.
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "urn:") {
		return nil, &mgerrors.ReferenceError{
			Pointer:              ref,
			DocumentID:           fromDocID,
			Dialect:              "document",
			IsUnsupportedDialect: true,
			Message:              "URI-scheme references are not supported",
		}
	}

	docID := fromDocID
	fragment := "#"

	if idx := strings.Index(ref, "#"); idx >= 0 {
		if idx > 0 {
			docID = resolveDocID(ref[:idx], fromDocID)
		}
		fragment = "#" + ref[idx+1:]
	} else {
		docID = resolveDocID(ref, fromDocID)
	}

	// Plain-name fragments address anchors, not pointer paths.
	if name, ok := anchorName(fragment); ok {
		doc, err := r.document(docID, ref, fromDocID)
		if err != nil {
			return nil, err
		}
		ptr := doc.AnchorPointer(name)
		if ptr == "" {
			ptr = doc.DynamicAnchorPointer(name)
		}
		if ptr == "" {
			return nil, &mgerrors.ReferenceError{
				Pointer:    ref,
				DocumentID: fromDocID,
				Dialect:    "local",
				IsDangling: true,
				Message:    "anchor not declared: " + name,
			}
		}
		fragment = ptr
	}

	return r.resolveAt(docID, fragment, fromDocID, depth, trail)
}

// resolveAt resolves the fragment pointer within the identified document,
// following reference chains and maintaining the cycle stack and cache.
func (r *Resolver) resolveAt(docID, pointer, fromDocID string, depth int, trail []string) (*ResolvedRef, error) {
	if depth > r.maxDepth {
		return nil, &mgerrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(r.maxDepth),
			Actual:       int64(depth),
			Message:      "reference chain too deep",
		}
	}

	key := refKey{DocumentID: docID, Pointer: pointer}

	// A target already on the stack is a cycle: succeed with a lazy marker
	// instead of recursing.
	for _, frame := range r.stack {
		if frame == key {
			r.logger.Debug("reference cycle detected",
				"document", docID, "pointer", pointer)
			return &ResolvedRef{
				DocumentID:     docID,
				Pointer:        pointer,
				ResolutionPath: appendTrail(trail, key),
				IsCycle:        true,
			}, nil
		}
	}

	if cached, ok := r.cache[key]; ok {
		return callerView(cached, docID != fromDocID), nil
	}

	doc, err := r.document(docID, pointer, fromDocID)
	if err != nil {
		return nil, err
	}

	raw, err := doc.Fragment(pointer)
	if err != nil {
		return nil, &mgerrors.ReferenceError{
			Pointer:    pointer,
			DocumentID: docID,
			Dialect:    dialectFor(docID, fromDocID),
			IsDangling: true,
			Cause:      err,
		}
	}

	node, err := loader.NewSchemaNode(docID, pointer, raw)
	if err != nil {
		return nil, err
	}

	trail = appendTrail(trail, key)

	// Follow reference chains to the final non-reference target, keeping
	// this target on the stack so self-referential chains short-circuit.
	if node.Kind == loader.KindReference {
		r.stack = append(r.stack, key)
		defer func() { r.stack = r.stack[:len(r.stack)-1] }()

		var inner *ResolvedRef
		if node.Schema.DynamicRef != "" {
			inner, err = r.ResolveDynamic(node.Schema.DynamicRef, docID)
		} else {
			inner, err = r.resolve(node.Schema.Ref, docID, depth+1, trail)
		}
		if err != nil {
			return nil, err
		}
		// The cached entry records only crossings within the chain starting
		// at this target; whether the caller itself crossed a boundary is
		// caller-specific and folded in per call by callerView.
		resolved := &ResolvedRef{
			Node:           inner.Node,
			DocumentID:     inner.DocumentID,
			Pointer:        inner.Pointer,
			ResolutionPath: inner.ResolutionPath,
			CrossDocument:  inner.CrossDocument,
			IsCycle:        inner.IsCycle,
		}
		// Cycle markers depend on the current stack; caching them would
		// leak a transient state into later resolutions.
		if !resolved.IsCycle {
			r.cache[key] = resolved
		}
		return callerView(resolved, docID != fromDocID), nil
	}

	resolved := &ResolvedRef{
		Node:           node,
		DocumentID:     docID,
		Pointer:        pointer,
		ResolutionPath: trail,
	}
	r.cache[key] = resolved
	return callerView(resolved, docID != fromDocID), nil
}

// callerView adjusts a resolution for its caller: CrossDocument depends on
// the originating document, so it is computed per call instead of being
// stored in the cache.
func callerView(resolved *ResolvedRef, crossed bool) *ResolvedRef {
	if !crossed || resolved.CrossDocument {
		return resolved
	}
	view := *resolved
	view.CrossDocument = true
	return &view
}

// document returns the identified document, fetching it on demand.
func (r *Resolver) document(docID, ref, fromDocID string) (*loader.Document, error) {
	if doc := r.docs.Get(docID); doc != nil {
		return doc, nil
	}
	if r.fetcher == nil {
		return nil, &mgerrors.ReferenceError{
			Pointer:    ref,
			DocumentID: fromDocID,
			Dialect:    "document",
			IsDangling: true,
			Message:    "document not loaded and no fetcher configured: " + docID,
		}
	}
	doc, err := r.fetcher.Fetch(docID)
	if err != nil {
		return nil, &mgerrors.ReferenceError{
			Pointer:    ref,
			DocumentID: fromDocID,
			Dialect:    "document",
			IsDangling: true,
			Cause:      err,
		}
	}
	r.docs.Add(doc)
	r.logger.Debug("fetched cross-document target", "document", docID)
	return doc, nil
}

// anchorName extracts the plain-name anchor from a fragment like "#node".
// Pointer-path fragments ("#/a/b") and the root fragment ("#") are not
// anchors.
func anchorName(fragment string) (string, bool) {
	if !strings.HasPrefix(fragment, "#") {
		return "", false
	}
	name := fragment[1:]
	if name == "" || strings.HasPrefix(name, "/") {
		return "", false
	}
	return name, true
}

// resolveDocID joins a relative document reference against the directory of
// the referring document. Absolute paths pass through unchanged.
func resolveDocID(ref, fromDocID string) string {
	if path.IsAbs(ref) {
		return ref
	}
	dir := path.Dir(fromDocID)
	if dir == "." || dir == "" {
		return ref
	}
	return path.Join(dir, ref)
}

// dialectFor names the pointer dialect for diagnostics.
func dialectFor(docID, fromDocID string) string {
	if docID != fromDocID {
		return "document"
	}
	return "local"
}

// appendTrail copies the trail with one more hop; copying keeps resolution
// paths stable when the caller retains the slice.
func appendTrail(trail []string, key refKey) []string {
	out := make([]string, len(trail), len(trail)+1)
	copy(out, trail)
	return append(out, key.DocumentID+key.Pointer)
}
