// Package mgerrors provides structured error types for modelgen.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ReferenceError: pointer resolution failures, dangling targets, unsupported dialects
//   - InheritanceCycleError: unresolvable base-model cycles
//   - ConstraintConflictError: incompatible constraints merged from combinator members
//   - MalformedNodeError: structurally invalid schema fragments
//   - ResourceLimitError: resource exhaustion (depth, size, count limits)
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.Is
//
//	result, err := pass.Run(docs)
//	if err != nil {
//	    var refErr *mgerrors.ReferenceError
//	    if errors.As(err, &refErr) {
//	        if refErr.IsDangling {
//	            // Handle unresolved pointer specifically
//	        }
//	    }
//	}
package mgerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrDanglingReference indicates a pointer whose target does not exist.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrUnsupportedDialect indicates a pointer expression in a dialect the
	// resolver does not understand.
	ErrUnsupportedDialect = errors.New("unsupported pointer dialect")

	// ErrPathTraversal indicates a path traversal attempt was blocked.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrInheritanceCycle indicates a cycle through model base lists.
	ErrInheritanceCycle = errors.New("inheritance cycle")

	// ErrConstraintConflict indicates incompatible constraints on the same keyword.
	ErrConstraintConflict = errors.New("conflicting constraint")

	// ErrMalformedNode indicates a structurally invalid schema fragment.
	ErrMalformedNode = errors.New("malformed schema node")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ReferenceError represents a failure to resolve a pointer expression.
// This includes dangling targets, unsupported pointer dialects, and path
// traversal attempts on file-based documents.
type ReferenceError struct {
	// Pointer is the pointer expression that failed to resolve
	Pointer string
	// DocumentID identifies the document the resolution started from
	DocumentID string
	// Dialect indicates the pointer dialect: "local", "document", or "dynamic"
	Dialect string
	// IsDangling is true when the pointer target does not exist
	IsDangling bool
	// IsUnsupportedDialect is true when the pointer grammar is not recognized
	IsUnsupportedDialect bool
	// IsPathTraversal is true if this error is due to a path traversal attempt
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	switch {
	case e.IsDangling:
		msg = "dangling reference"
	case e.IsUnsupportedDialect:
		msg = "unsupported pointer dialect"
	case e.IsPathTraversal:
		msg = "path traversal detected"
	}
	if e.Pointer != "" {
		msg += ": " + e.Pointer
	}
	if e.DocumentID != "" {
		msg += " (in " + e.DocumentID + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrDanglingReference, ErrUnsupportedDialect,
// or ErrPathTraversal when the appropriate flags are set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	if target == ErrDanglingReference && e.IsDangling {
		return true
	}
	if target == ErrUnsupportedDialect && e.IsUnsupportedDialect {
		return true
	}
	if target == ErrPathTraversal && e.IsPathTraversal {
		return true
	}
	return false
}

// InheritanceCycleError represents a cycle through model base lists.
// Field-level reference cycles are legal and broken with forward references;
// a base-chain cycle cannot be emitted in any target dialect and is fatal.
type InheritanceCycleError struct {
	// Models lists the display names of the participating models in
	// first-seen order, with the first name repeated at the end.
	Models []string
}

// Error returns a human-readable error message.
func (e *InheritanceCycleError) Error() string {
	msg := "inheritance cycle"
	if len(e.Models) > 0 {
		msg += ": " + strings.Join(e.Models, " -> ")
	}
	return msg
}

// Unwrap returns nil as InheritanceCycleError has no underlying cause.
func (e *InheritanceCycleError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *InheritanceCycleError) Is(target error) bool {
	return target == ErrInheritanceCycle
}

// ConstraintConflictError represents incompatible constraints merged from
// combinator members. It is recoverable: the merger keeps the tightest value
// (last-write-wins on ties) and records the conflict as a diagnostic.
type ConstraintConflictError struct {
	// Keyword is the constraint keyword in conflict (e.g. "pattern", "minimum")
	Keyword string
	// Path is the pointer path of the combinator node
	Path string
	// Kept is the value retained after conflict resolution
	Kept any
	// Discarded is the value that lost the conflict
	Discarded any
}

// Error returns a human-readable error message.
func (e *ConstraintConflictError) Error() string {
	msg := "conflicting constraint"
	if e.Keyword != "" {
		msg += ": " + e.Keyword
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Kept != nil || e.Discarded != nil {
		msg += fmt.Sprintf(" (kept: %v, discarded: %v)", e.Kept, e.Discarded)
	}
	return msg
}

// Unwrap returns nil as ConstraintConflictError has no underlying cause.
func (e *ConstraintConflictError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ConstraintConflictError) Is(target error) bool {
	return target == ErrConstraintConflict
}

// MalformedNodeError represents a structurally invalid schema fragment.
// It is fatal for the subtree only: the synthesizer substitutes Unknown and
// continues processing siblings.
type MalformedNodeError struct {
	// DocumentID identifies the document containing the fragment
	DocumentID string
	// Path is the pointer path of the fragment
	Path string
	// Message describes what was malformed
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *MalformedNodeError) Error() string {
	msg := "malformed schema node"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.DocumentID != "" {
		msg += " (in " + e.DocumentID + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MalformedNodeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MalformedNodeError) Is(target error) bool {
	return target == ErrMalformedNode
}

// ResourceLimitError represents a resource exhaustion condition.
// This occurs when loading or resolution exceeds configured limits.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
