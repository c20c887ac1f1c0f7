// Package severity provides severity level constants for diagnostics
// reported by the merger, synthesizer, and registry.
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error < Critical
package severity

// Severity indicates the severity level of a diagnostic raised during
// reference resolution, combinator merging, type synthesis, or registration.
type Severity int

const (
	// SeverityError indicates a schema problem that makes part of the input
	// unusable (e.g. a dangling reference).
	SeverityError Severity = iota

	// SeverityWarning indicates a recoverable degradation, such as an
	// unsupported pointer dialect treated as an unknown type or a
	// constraint conflict resolved by policy.
	SeverityWarning

	// SeverityInfo indicates informational messages about processing choices.
	// These are non-actionable notices that may be useful for debugging.
	SeverityInfo

	// SeverityCritical indicates problems that abort the whole run, such as
	// an inheritance cycle.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}
