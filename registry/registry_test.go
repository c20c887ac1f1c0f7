package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schematools/modelgen/mgerrors"
	"github.com/schematools/modelgen/synth"
)

func structCandidate(title, path string, fields ...synth.Field) *synth.Candidate {
	return &synth.Candidate{
		Kind:       synth.CandidateStruct,
		Title:      title,
		SourceDoc:  "schema.json",
		SourcePath: path,
		Fields:     fields,
	}
}

func stringField(name string, required bool) synth.Field {
	return synth.Field{Name: name, Type: synth.Scalar{Kind: synth.ScalarString}, Required: required}
}

func TestReserveIsIdempotentPerKey(t *testing.T) {
	r := New()
	id1 := r.Reserve("schema.json#/$defs/Node", "Node")
	id2 := r.Reserve("schema.json#/$defs/Node", "Node")
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, r.Len())
}

func TestPopulateGuards(t *testing.T) {
	r := New()
	id := r.Reserve("schema.json#/$defs/A", "A")
	require.NoError(t, r.Populate(id, structCandidate("A", "#/$defs/A")))

	err := r.Populate(id, structCandidate("A", "#/$defs/A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrConfig)

	err = r.Populate(synth.ModelID(99), structCandidate("X", "#/$defs/X"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrConfig)
}

func TestFinalizeRejectsUnpopulatedModels(t *testing.T) {
	r := New()
	r.Reserve("schema.json#/$defs/Ghost", "")

	err := r.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrDanglingReference)
}

func TestDeduplicationCollapsesIdenticalShapes(t *testing.T) {
	r := New()
	id1, err := r.RegisterCandidate(structCandidate("Point", "#/$defs/Point",
		stringField("x", true), stringField("y", true)))
	require.NoError(t, err)
	id2, err := r.RegisterCandidate(structCandidate("Coordinate", "#/$defs/Coordinate",
		stringField("x", true), stringField("y", true)))
	require.NoError(t, err)
	id3, err := r.RegisterCandidate(structCandidate("Other", "#/$defs/Other",
		stringField("x", true), stringField("y", false)))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())

	assert.Equal(t, 2, r.Len(), "identical shapes collapse, different required sets do not")
	assert.Equal(t, r.Model(id1), r.Model(id2), "dropped id must remap to the canonical model")
	assert.NotEqual(t, r.Model(id1), r.Model(id3))
	// First-seen model is canonical, so the surviving name comes from it.
	assert.Equal(t, "Point", r.Model(id2).Name)
}

func TestDeduplicationDisabled(t *testing.T) {
	r := New()
	r.SetDeduplication(false)
	_, err := r.RegisterCandidate(structCandidate("A", "#/$defs/A", stringField("x", true)))
	require.NoError(t, err)
	_, err = r.RegisterCandidate(structCandidate("B", "#/$defs/B", stringField("x", true)))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())
	assert.Equal(t, 2, r.Len())
}

func TestDeduplicationOfSelfRecursiveTwins(t *testing.T) {
	r := New()
	idA := r.Reserve("schema.json#/$defs/NodeA", "")
	idB := r.Reserve("schema.json#/$defs/NodeB", "")

	require.NoError(t, r.Populate(idA, structCandidate("", "#/$defs/NodeA",
		stringField("value", true),
		synth.Field{Name: "next", Type: synth.ModelRef{ID: idA}})))
	require.NoError(t, r.Populate(idB, structCandidate("", "#/$defs/NodeB",
		stringField("value", true),
		synth.Field{Name: "next", Type: synth.ModelRef{ID: idB}})))

	require.NoError(t, r.Finalize())
	assert.Equal(t, 1, r.Len(), "self-recursive twins hash identically via the self marker")
}

func TestDeduplicationRunsToFixpoint(t *testing.T) {
	// Wrapper1 -> Inner1 and Wrapper2 -> Inner2, where the inners are twins.
	// Collapsing the inners makes the wrappers twins too.
	r := New()
	inner1, err := r.RegisterCandidate(structCandidate("", "#/$defs/Inner1", stringField("x", true)))
	require.NoError(t, err)
	inner2, err := r.RegisterCandidate(structCandidate("", "#/$defs/Inner2", stringField("x", true)))
	require.NoError(t, err)
	_, err = r.RegisterCandidate(structCandidate("", "#/$defs/Wrapper1",
		synth.Field{Name: "inner", Type: synth.ModelRef{ID: inner1}}))
	require.NoError(t, err)
	_, err = r.RegisterCandidate(structCandidate("", "#/$defs/Wrapper2",
		synth.Field{Name: "inner", Type: synth.ModelRef{ID: inner2}}))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())
	assert.Equal(t, 2, r.Len(), "one inner and one wrapper must survive")
}

func TestAssignNamesPrecedenceAndStability(t *testing.T) {
	r := New()
	r.SetDeduplication(false)

	withTitle, err := r.RegisterCandidate(structCandidate("Shopping Cart", "#/$defs/cart_v2", stringField("a", true)))
	require.NoError(t, err)
	fromPath, err := r.RegisterCandidate(structCandidate("", "#/$defs/line_item", stringField("b", true)))
	require.NoError(t, err)
	fromProperty, err := r.RegisterCandidate(structCandidate("", "#/$defs/Order/properties/shipping_address",
		stringField("c", true)))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())

	assert.Equal(t, "ShoppingCart", r.Model(withTitle).Name, "title wins over path")
	assert.Equal(t, "LineItem", r.Model(fromPath).Name)
	assert.Equal(t, "OrderShippingAddress", r.Model(fromProperty).Name,
		"property-derived names carry their owner for context")
}

func TestAssignNamesCollisionSuffixes(t *testing.T) {
	r := New()
	r.SetDeduplication(false)

	first, err := r.RegisterCandidate(structCandidate("User", "#/$defs/A", stringField("a", true)))
	require.NoError(t, err)
	second, err := r.RegisterCandidate(structCandidate("User", "#/$defs/B", stringField("b", true)))
	require.NoError(t, err)
	third, err := r.RegisterCandidate(structCandidate("User", "#/$defs/C", stringField("c", true)))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())

	assert.Equal(t, "User", r.Model(first).Name)
	assert.Equal(t, "User2", r.Model(second).Name)
	assert.Equal(t, "User3", r.Model(third).Name)
}

func TestOrderForEmissionDependenciesFirst(t *testing.T) {
	r := New()
	leaf, err := r.RegisterCandidate(structCandidate("Leaf", "#/$defs/Leaf", stringField("v", true)))
	require.NoError(t, err)
	mid, err := r.RegisterCandidate(structCandidate("Mid", "#/$defs/Mid",
		synth.Field{Name: "leaf", Type: synth.ModelRef{ID: leaf}}))
	require.NoError(t, err)
	root, err := r.RegisterCandidate(structCandidate("Root", "#/$defs/Root",
		synth.Field{Name: "mid", Type: synth.ModelRef{ID: mid}}))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())
	order, err := r.OrderForEmission()
	require.NoError(t, err)

	pos := make(map[synth.ModelID]int)
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos[leaf], pos[mid])
	assert.Less(t, pos[mid], pos[root])
}

func TestOrderForEmissionAllowsFieldCycles(t *testing.T) {
	r := New()
	idA := r.Reserve("schema.json#/$defs/A", "A")
	idB := r.Reserve("schema.json#/$defs/B", "B")
	require.NoError(t, r.Populate(idA, structCandidate("A", "#/$defs/A",
		synth.Field{Name: "b", Type: synth.ModelRef{ID: idB}})))
	require.NoError(t, r.Populate(idB, structCandidate("B", "#/$defs/B",
		synth.Field{Name: "a", Type: synth.ModelRef{ID: idA}})))

	require.NoError(t, r.Finalize())
	order, err := r.OrderForEmission()
	require.NoError(t, err)
	assert.Len(t, order, 2, "mutually recursive fields are legal")
}

func TestOrderForEmissionSelfReferenceNoEdge(t *testing.T) {
	r := New()
	id := r.Reserve("schema.json#/$defs/Node", "Node")
	require.NoError(t, r.Populate(id, structCandidate("Node", "#/$defs/Node",
		stringField("value", true),
		synth.Field{Name: "next", Type: synth.ModelRef{ID: id}})))

	require.NoError(t, r.Finalize())

	g := r.Graph()
	assert.Empty(t, g.FieldEdges[id], "self references contribute no edge")

	order, err := r.OrderForEmission()
	require.NoError(t, err)
	assert.Equal(t, []synth.ModelID{id}, order)
}

func TestOrderForEmissionInheritanceCycleFatal(t *testing.T) {
	r := New()
	r.SetDeduplication(false)
	idA := r.Reserve("schema.json#/$defs/A", "A")
	idB := r.Reserve("schema.json#/$defs/B", "B")

	candA := structCandidate("A", "#/$defs/A", stringField("a", true))
	candA.Bases = []synth.ModelID{idB}
	candB := structCandidate("B", "#/$defs/B", stringField("b", true))
	candB.Bases = []synth.ModelID{idA}
	require.NoError(t, r.Populate(idA, candA))
	require.NoError(t, r.Populate(idB, candB))

	require.NoError(t, r.Finalize())
	_, err := r.OrderForEmission()
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrInheritanceCycle)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestFrozenRegistryRejectsMutation(t *testing.T) {
	r := New()
	id, err := r.RegisterCandidate(structCandidate("A", "#/$defs/A", stringField("a", true)))
	require.NoError(t, err)
	_ = id
	require.NoError(t, r.Finalize())

	err = r.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrConfig)

	newID := r.Reserve("schema.json#/$defs/Late", "")
	err = r.Populate(newID, structCandidate("Late", "#/$defs/Late"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mgerrors.ErrConfig)
}

func TestEnumModelFingerprinting(t *testing.T) {
	r := New()
	enum := func(path string, values ...any) *synth.Candidate {
		return &synth.Candidate{
			Kind:       synth.CandidateEnum,
			SourceDoc:  "schema.json",
			SourcePath: path,
			EnumBase:   synth.ScalarString,
			EnumValues: values,
		}
	}
	_, err := r.RegisterCandidate(enum("#/$defs/Color1", "red", "green"))
	require.NoError(t, err)
	_, err = r.RegisterCandidate(enum("#/$defs/Color2", "red", "green"))
	require.NoError(t, err)
	_, err = r.RegisterCandidate(enum("#/$defs/Size", "s", "m", "l"))
	require.NoError(t, err)

	require.NoError(t, r.Finalize())
	assert.Equal(t, 2, r.Len())
}
