// Package modelgen provides a schema resolution and model-synthesis engine.
//
// modelgen ingests structured schema documents (JSON Schema dialects and
// OpenAPI component schemas) and produces a canonical, deduplicated,
// cycle-safe graph of named model definitions ready for code emission.
//
// # Overview
//
// The library consists of five primary packages:
//
//   - loader: Load schema documents and expose them as typed schema nodes
//   - resolver: Resolve local, cross-document, and dynamic references
//   - merger: Flatten and merge combinator schemas (allOf/oneOf/anyOf)
//   - synth: Convert merged schemas into canonical type values
//   - registry: Own, deduplicate, name, and order model definitions
//
// The synthesis package ties these together into a single pass:
//
//	import "github.com/schematools/modelgen/synthesis"
//
//	pass, err := synthesis.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := pass.Run(docs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, m := range result.Models {
//		fmt.Println(m.Name)
//	}
//
// The emit package consumes the resulting model graph and renders Go source
// text; other dialects can be plugged in by implementing emit.Backend.
//
// # Version
//
// Use [Version] to retrieve the build version injected at release time.
package modelgen
