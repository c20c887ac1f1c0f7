package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/schematools/modelgen/emit"
	"github.com/schematools/modelgen/merger"
	"github.com/schematools/modelgen/synthesis"
)

type synthesizeInput struct {
	Schemas         []documentInput `json:"schemas"                    jsonschema:"Schema documents to synthesize, processed in order"`
	PackageName     string          `json:"package_name,omitempty"     jsonschema:"Go package name for generated code (default: models, configurable via MODELGEN_PACKAGE)"`
	OutputDir       string          `json:"output_dir,omitempty"       jsonschema:"Directory to write generated files to; omit to return the code inline"`
	NoDedup         bool            `json:"no_dedup,omitempty"         jsonschema:"Keep structurally identical models as separate definitions"`
	StrictConflicts bool            `json:"strict_conflicts,omitempty" jsonschema:"Treat unsatisfiable constraint conflicts as fatal errors instead of warnings"`
	MaxRefDepth     int             `json:"max_ref_depth,omitempty"    jsonschema:"Reference chain depth limit (0 uses the built-in default)"`
}

type diagnosticInfo struct {
	Document string `json:"document,omitempty"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type generatedFileInfo struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type synthesizeOutput struct {
	Success      bool                `json:"success"`
	PackageName  string              `json:"package_name"`
	ModelCount   int                 `json:"model_count"`
	Models       []string            `json:"models,omitempty"`
	Code         string              `json:"code,omitempty"`
	OutputDir    string              `json:"output_dir,omitempty"`
	Files        []generatedFileInfo `json:"files,omitempty"`
	ErrorCount   int                 `json:"error_count"`
	WarningCount int                 `json:"warning_count"`
	Diagnostics  []diagnosticInfo    `json:"diagnostics,omitempty"`
}

func handleSynthesize(_ context.Context, _ *mcp.CallToolRequest, input synthesizeInput) (*mcp.CallToolResult, synthesizeOutput, error) {
	result, runErr := runSynthesis(input.Schemas, input.NoDedup, input.StrictConflicts, input.MaxRefDepth)
	if result == nil {
		return errResult(runErr), synthesizeOutput{}, nil
	}

	output := synthesizeOutput{
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

	// Fatal synthesis problems are reported through the diagnostics rather
	// than as a protocol error, so the client sees locations and messages.
	if runErr != nil {
		return nil, output, nil
	}

	pkg := input.PackageName
	if pkg == "" {
		pkg = cfg.PackageName
	}
	emitter := emit.NewGoEmitter(pkg)
	files, err := emitter.Emit(result)
	if err != nil {
		return errResult(err), output, nil
	}

	output.Success = true
	output.PackageName = pkg
	output.ModelCount = len(result.Models)
	output.Models = makeSlice[string](len(result.Models))
	for _, def := range result.Models {
		output.Models = append(output.Models, def.Name)
	}

	if input.OutputDir != "" {
		if err := emit.WriteFiles(files, input.OutputDir); err != nil {
			return errResult(fmt.Errorf("failed to write generated files: %w", err)), synthesizeOutput{}, nil
		}
		output.OutputDir = input.OutputDir
		output.Files = makeSlice[generatedFileInfo](len(files))
		for _, f := range files {
			output.Files = append(output.Files, generatedFileInfo{Name: f.Name, Size: len(f.Content)})
		}
	} else {
		for _, f := range files {
			output.Code += string(f.Content)
		}
	}

	return nil, output, nil
}

// runSynthesis loads the documents and runs one synthesis pass over them.
// A nil result means the input or configuration was unusable; a non-nil
// result with an error carries fatal synthesis problems in its diagnostics.
func runSynthesis(inputs []documentInput, noDedup, strict bool, maxRefDepth int) (*synthesis.Result, error) {
	docs, fetcher, err := buildDocumentSet(inputs)
	if err != nil {
		return nil, err
	}

	opts := []synthesis.Option{
		synthesis.WithDeduplication(cfg.Deduplication && !noDedup),
	}
	if fetcher != nil {
		opts = append(opts, synthesis.WithFetcher(fetcher))
	}
	if strict || cfg.ConflictStrict {
		opts = append(opts, synthesis.WithConflictPolicy(merger.ConflictStrict))
	}
	if depth := firstPositive(maxRefDepth, cfg.MaxRefDepth); depth > 0 {
		opts = append(opts, synthesis.WithMaxRefDepth(depth))
	}

	pass, err := synthesis.New(opts...)
	if err != nil {
		return nil, err
	}
	return pass.Run(docs)
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func convertDiagnostics(list []synthesis.Diagnostic) []diagnosticInfo {
	out := makeSlice[diagnosticInfo](len(list))
	for _, d := range list {
		message := d.Message
		if d.Err != nil {
			message = fmt.Sprintf("%s: %s", d.Message, sanitizeError(d.Err))
		}
		out = append(out, diagnosticInfo{
			Document: d.DocumentID,
			Path:     d.Path,
			Severity: d.Severity,
			Message:  message,
		})
	}
	return out
}
