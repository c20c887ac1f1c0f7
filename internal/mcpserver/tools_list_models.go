package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/schematools/modelgen/synth"
)

type listModelsInput struct {
	Schemas []documentInput `json:"schemas"          jsonschema:"Schema documents to synthesize, processed in order"`
	Kind    string          `json:"kind,omitempty"   jsonschema:"Filter by model kind: struct, enum, or union"`
	NoDedup bool            `json:"no_dedup,omitempty" jsonschema:"Keep structurally identical models as separate definitions"`
	Offset  int             `json:"offset,omitempty" jsonschema:"Number of models to skip for pagination"`
	Limit   int             `json:"limit,omitempty"  jsonschema:"Maximum number of models to return (default: MODELGEN_LIST_LIMIT)"`
}

type modelSummary struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Source     string `json:"source,omitempty"`
	Fields     int    `json:"fields,omitempty"`
	Bases      int    `json:"bases,omitempty"`
	EnumValues int    `json:"enum_values,omitempty"`
	Members    int    `json:"members,omitempty"`
}

type listModelsOutput struct {
	Total        int              `json:"total"`
	Returned     int              `json:"returned"`
	Models       []modelSummary   `json:"models,omitempty"`
	ErrorCount   int              `json:"error_count"`
	WarningCount int              `json:"warning_count"`
	Diagnostics  []diagnosticInfo `json:"diagnostics,omitempty"`
}

func handleListModels(_ context.Context, _ *mcp.CallToolRequest, input listModelsInput) (*mcp.CallToolResult, listModelsOutput, error) {
	if input.Kind != "" {
		switch strings.ToLower(input.Kind) {
		case "struct", "enum", "union":
		default:
			return errResult(fmt.Errorf("invalid kind value %q; valid values: struct, enum, union", input.Kind)), listModelsOutput{}, nil
		}
	}

	result, runErr := runSynthesis(input.Schemas, input.NoDedup, false, 0)
	if result == nil {
		return errResult(runErr), listModelsOutput{}, nil
	}

	output := listModelsOutput{
		Diagnostics: convertDiagnostics(result.Diagnostics),
	}
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case "error", "critical":
			output.ErrorCount++
		case "warning":
			output.WarningCount++
		}
	}
	if runErr != nil {
		return nil, output, nil
	}

	var matched []modelSummary
	for _, def := range result.Models {
		kind := kindString(def.Kind)
		if input.Kind != "" && !strings.EqualFold(input.Kind, kind) {
			continue
		}
		summary := modelSummary{
			Name:   def.Name,
			Kind:   kind,
			Source: def.SourceDoc + def.SourcePath,
			Fields: len(def.Fields),
			Bases:  len(def.Bases),
		}
		if def.Kind == synth.CandidateEnum {
			summary.EnumValues = len(def.EnumValues)
		}
		if def.Kind == synth.CandidateUnion && def.Union != nil {
			summary.Members = len(def.Union.Members)
		}
		matched = append(matched, summary)
	}

	output.Total = len(matched)
	output.Models = paginate(matched, input.Offset, input.Limit)
	output.Returned = len(output.Models)
	return nil, output, nil
}

func kindString(k synth.CandidateKind) string {
	switch k {
	case synth.CandidateEnum:
		return "enum"
	case synth.CandidateUnion:
		return "union"
	default:
		return "struct"
	}
}
