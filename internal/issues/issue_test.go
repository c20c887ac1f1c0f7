package issues

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schematools/modelgen/internal/severity"
)

func TestIssueString(t *testing.T) {
	tests := []struct {
		name        string
		issue       Issue
		contains    []string
		notContains []string
	}{
		{
			name: "error severity with basic fields",
			issue: Issue{
				Path:     "#/$defs/Pet",
				Message:  "dangling reference",
				Severity: severity.SeverityError,
			},
			contains:    []string{"✗", "#/$defs/Pet", "dangling reference"},
			notContains: []string{"keyword:"},
		},
		{
			name: "warning with document and keyword",
			issue: Issue{
				DocumentID: "schema.json",
				Path:       "#/$defs/Code",
				Message:    "conflicting constraint values, keeping the later one",
				Severity:   severity.SeverityWarning,
				Keyword:    "pattern",
			},
			contains: []string{"⚠", "schema.json #/$defs/Code", "(keyword: pattern)"},
		},
		{
			name: "info severity",
			issue: Issue{
				Path:     "#",
				Message:  "anonymous object treated as map",
				Severity: severity.SeverityInfo,
			},
			contains: []string{"ℹ", "anonymous object treated as map"},
		},
		{
			name: "critical severity",
			issue: Issue{
				Path:     "#/$defs/A",
				Message:  "inheritance cycle",
				Severity: severity.SeverityCritical,
			},
			contains: []string{"✗", "inheritance cycle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.issue.String()
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestIssueIsFatal(t *testing.T) {
	assert.True(t, Issue{Severity: severity.SeverityError}.IsFatal())
	assert.True(t, Issue{Severity: severity.SeverityCritical}.IsFatal())
	assert.False(t, Issue{Severity: severity.SeverityWarning}.IsFatal())
	assert.False(t, Issue{Severity: severity.SeverityInfo}.IsFatal())
}

func TestIssueCarriesUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	issue := Issue{
		Path:     "#/$defs/X",
		Message:  "synthesis failed",
		Severity: severity.SeverityError,
		Err:      cause,
	}
	assert.Equal(t, cause, issue.Err)
}
