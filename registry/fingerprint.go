package registry

import (
	"fmt"
	"hash/fnv"

	json "github.com/goccy/go-json"

	"github.com/schematools/modelgen/synth"
)

// fingerprint computes the structural hash of a model: FNV-64a over a
// canonical JSON serialization of its shape. Names, titles, and descriptions
// do not contribute; references to the model itself serialize as a marker so
// self-recursive twins hash identically.
func fingerprint(def *ModelDefinition) uint64 {
	view := shapeView(def)
	data, err := json.Marshal(view)
	if err != nil {
		// Shape views are built from plain maps, slices, and scalars; a
		// marshal failure means a literal value is unserializable. Fall back
		// to its Go rendering.
		data = []byte(fmt.Sprintf("%v", view))
	}
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// shapeView builds the canonical serializable view of a model's structure.
// Map keys serialize sorted, so the view is deterministic.
func shapeView(def *ModelDefinition) map[string]any {
	view := map[string]any{
		"kind": int(def.Kind),
	}
	switch def.Kind {
	case synth.CandidateStruct:
		fields := make([]any, 0, len(def.Fields))
		for _, f := range def.Fields {
			fields = append(fields, map[string]any{
				"name":        f.Name,
				"type":        typeView(f.Type, def.ID),
				"required":    f.Required,
				"default":     fmt.Sprintf("%v", f.Default),
				"constraints": constraintsView(f.Constraints),
			})
		}
		view["fields"] = fields
		bases := make([]any, 0, len(def.Bases))
		for _, b := range def.Bases {
			bases = append(bases, refView(b, def.ID))
		}
		view["bases"] = bases

	case synth.CandidateEnum:
		values := make([]string, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			values = append(values, fmt.Sprintf("%v", v))
		}
		view["enumBase"] = int(def.EnumBase)
		view["enumValues"] = values

	case synth.CandidateUnion:
		if def.Union != nil {
			view["union"] = typeView(*def.Union, def.ID)
		}
	}
	return view
}

// typeView serializes a canonical type. selfID marks references back to the
// model being fingerprinted.
func typeView(t synth.CanonicalType, selfID synth.ModelID) any {
	switch v := t.(type) {
	case synth.Scalar:
		literals := make([]string, 0, len(v.Literals))
		for _, l := range v.Literals {
			literals = append(literals, fmt.Sprintf("%v", l))
		}
		return map[string]any{
			"scalar":      v.Kind.String(),
			"format":      v.Format,
			"nullable":    v.Nullable,
			"literals":    literals,
			"constraints": constraintsView(v.Constraints),
		}
	case synth.Container:
		elems := make([]any, 0, len(v.Elems))
		for _, e := range v.Elems {
			elems = append(elems, typeView(e, selfID))
		}
		return map[string]any{
			"container": v.Kind.String(),
			"elems":     elems,
		}
	case synth.Union:
		members := make([]any, 0, len(v.Members))
		for _, m := range v.Members {
			members = append(members, typeView(m, selfID))
		}
		view := map[string]any{
			"union":     members,
			"exclusive": v.Exclusive,
		}
		if v.Discriminator != nil {
			view["discriminator"] = map[string]any{
				"field":   v.Discriminator.Field,
				"mapping": v.Discriminator.Mapping,
			}
		}
		return view
	case synth.ModelRef:
		return map[string]any{"ref": refView(v.ID, selfID)}
	case synth.Unknown:
		return "unknown"
	case synth.Never:
		return "never"
	}
	return "invalid"
}

func refView(id, selfID synth.ModelID) any {
	if id == selfID {
		return "self"
	}
	return int(id)
}

func constraintsView(c synth.Constraints) map[string]any {
	view := make(map[string]any)
	putF := func(key string, v *float64) {
		if v != nil {
			view[key] = *v
		}
	}
	putI := func(key string, v *int) {
		if v != nil {
			view[key] = *v
		}
	}
	putF("min", c.Minimum)
	putF("max", c.Maximum)
	putF("exclMin", c.ExclusiveMinimum)
	putF("exclMax", c.ExclusiveMaximum)
	putF("multipleOf", c.MultipleOf)
	putI("minLen", c.MinLength)
	putI("maxLen", c.MaxLength)
	putI("minItems", c.MinItems)
	putI("maxItems", c.MaxItems)
	if c.Pattern != "" {
		view["pattern"] = c.Pattern
	}
	if c.UniqueItems {
		view["unique"] = true
	}
	return view
}
