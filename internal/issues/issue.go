// Package issues provides a unified diagnostic type for problems found
// during resolution, merging, synthesis, and registration.
package issues

import (
	"fmt"

	"github.com/schematools/modelgen/internal/severity"
)

// Issue represents a single problem found while processing a schema forest.
type Issue struct {
	// DocumentID is the source document the issue belongs to.
	DocumentID string
	// Path is the fragment pointer of the problematic node (e.g. "#/$defs/Pet").
	Path string
	// Message is a human-readable description of the issue.
	Message string
	// Severity indicates the severity level of the issue.
	Severity severity.Severity
	// Keyword is the schema keyword involved, when applicable.
	Keyword string
	// Value is the problematic value (optional).
	Value any
	// Err is the underlying error, when the issue wraps one.
	Err error
}

// String returns a formatted string representation of the issue.
// Uses different symbols based on severity level:
// - "✗" for Error or Critical severity
// - "⚠" for Warning severity
// - "ℹ" for Info severity
func (i Issue) String() string {
	var symbol string
	switch i.Severity {
	case severity.SeverityError, severity.SeverityCritical:
		symbol = "✗"
	case severity.SeverityWarning:
		symbol = "⚠"
	case severity.SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}

	location := i.Path
	if i.DocumentID != "" {
		location = i.DocumentID + " " + i.Path
	}

	result := fmt.Sprintf("%s %s: %s", symbol, location, i.Message)
	if i.Keyword != "" {
		result += fmt.Sprintf(" (keyword: %s)", i.Keyword)
	}
	return result
}

// IsFatal reports whether the issue aborts the run.
func (i Issue) IsFatal() bool {
	return i.Severity == severity.SeverityError || i.Severity == severity.SeverityCritical
}
