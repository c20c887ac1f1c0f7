// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes modelgen schema synthesis as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/schematools/modelgen"
)

const serverInstructions = `modelgen MCP server — resolves JSON Schema documents (references, combinators, cycles), synthesizes canonical model definitions, and generates Go types.

Configuration: All defaults are configurable via MODELGEN_* environment variables set in your MCP client config. The Go MCP SDK does not support initializationOptions; use env vars instead.

Key settings:
- MODELGEN_PACKAGE (default: models) — default package name for generated Go code
- MODELGEN_DEDUP (default: true) — collapse structurally identical models by default
- MODELGEN_CONFLICT_STRICT (default: false) — treat unsatisfiable constraint conflicts as errors by default
- MODELGEN_MAX_REF_DEPTH — reference chain depth limit (0 uses the built-in default)
- MODELGEN_MAX_INLINE_SIZE (default: 10MB) — size limit per schema document
- MODELGEN_MAX_DOCUMENTS (default: 20) — maximum documents per request
- MODELGEN_LIST_LIMIT (default: 100) — default result limit for list_models
- MODELGEN_FETCH_TIMEOUT (default: 30s) — timeout for URL-provided documents
- MODELGEN_ALLOW_PRIVATE_IPS (default: false) — allow fetching schema URLs that resolve to private addresses

Schema documents are provided per call as file paths, URLs, or inline content; multiple documents in one request form a forest whose cross-document references resolve against each other.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "modelgen", Version: modelgen.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "synthesize",
		Description: "Resolve one or more JSON Schema documents and generate Go model types. Resolves $ref/$dynamicRef chains, merges allOf/oneOf/anyOf, names and deduplicates the resulting models, and returns generated source. Use output_dir to write files to disk instead of returning the code inline. Diagnostics report dangling references, constraint conflicts, and degraded constructs with document and pointer locations. Defaults for package name, deduplication, and conflict handling come from MODELGEN_PACKAGE, MODELGEN_DEDUP, and MODELGEN_CONFLICT_STRICT env vars.",
	}, handleSynthesize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_models",
		Description: "Synthesize one or more JSON Schema documents and list the resulting model definitions without generating code. Returns name, kind (struct, enum, union), source location, and member counts for each model, in emission order (dependencies first). Filter by kind to narrow results; use offset/limit to paginate. Default limit is configurable via MODELGEN_LIST_LIMIT.",
	}, handleListModels)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
