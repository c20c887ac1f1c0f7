// Package naming provides shared case conversion and identifier
// sanitization utilities for modelgen packages.
//
// This internal package contains common string transformation functions used
// by the registry and the Go emitter: ToPascalCase, ToCamelCase,
// ToSnakeCase, ToTitleCase, SanitizeIdentifier, and ExportedIdentifier.
//
// These functions are used for:
//   - Registry: assigning model names from schema titles and source paths
//   - Emitter: rendering field, enum, and union member identifiers
//
// As an internal package, these functions are not part of the public API
// and may change without notice.
package naming
