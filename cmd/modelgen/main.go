package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/emit"
	"github.com/schematools/modelgen/internal/mcpserver"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/merger"
	"github.com/schematools/modelgen/synthesis"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("modelgen v%s\n", modelgen.Version())
	case "help", "-h", "--help":
		printUsage()
	case "synthesize":
		if err := handleSynthesize(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := mcpserver.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

// synthesizeFlags contains flags for the synthesize command
type synthesizeFlags struct {
	packageName string
	outputDir   string
	noDedup     bool
	strict      bool
	maxRefDepth int
	quiet       bool
}

func setupSynthesizeFlags() (*flag.FlagSet, *synthesizeFlags) {
	fs := flag.NewFlagSet("synthesize", flag.ContinueOnError)
	flags := &synthesizeFlags{}

	fs.StringVar(&flags.packageName, "package", "models", "package name for the generated code")
	fs.StringVar(&flags.outputDir, "o", "", "directory to write generated files to (default: stdout)")
	fs.BoolVar(&flags.noDedup, "no-dedup", false, "keep structurally identical models as separate definitions")
	fs.BoolVar(&flags.strict, "strict", false, "treat unsatisfiable constraint conflicts as errors")
	fs.IntVar(&flags.maxRefDepth, "max-ref-depth", 0, "reference chain depth limit (0 uses the built-in default)")
	fs.BoolVar(&flags.quiet, "q", false, "suppress diagnostics on stderr")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: modelgen synthesize [flags] <schema-file>...\n\n")
		_, _ = fmt.Fprintf(output, "Resolve JSON Schema documents and generate Go model types.\n\n")
		_, _ = fmt.Fprintf(output, "Multiple schema files form one forest; cross-document references\n")
		_, _ = fmt.Fprintf(output, "resolve against the listed files and their sibling files on disk.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  modelgen synthesize schema.json\n")
		_, _ = fmt.Fprintf(output, "  modelgen synthesize -package api -o ./gen schema.json common.json\n")
		_, _ = fmt.Fprintf(output, "  modelgen synthesize -strict -no-dedup schema.yaml\n")
	}

	return fs, flags
}

func handleSynthesize(args []string) error {
	fs, flags := setupSynthesizeFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("synthesize command requires at least one schema file")
	}

	docs := loader.NewDocumentSet()
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading schema: %w", err)
		}
		doc, err := loader.LoadBytes(filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("loading schema: %w", err)
		}
		docs.Add(doc)
	}

	opts := []synthesis.Option{
		synthesis.WithDeduplication(!flags.noDedup),
		synthesis.WithFetcher(loader.NewFileFetcher(filepath.Dir(fs.Arg(0)))),
	}
	if flags.strict {
		opts = append(opts, synthesis.WithConflictPolicy(merger.ConflictStrict))
	}
	if flags.maxRefDepth > 0 {
		opts = append(opts, synthesis.WithMaxRefDepth(flags.maxRefDepth))
	}

	pass, err := synthesis.New(opts...)
	if err != nil {
		return err
	}

	result, runErr := pass.Run(docs)
	if result != nil && !flags.quiet {
		for _, d := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
	if runErr != nil {
		return fmt.Errorf("synthesis failed: %w", runErr)
	}

	emitter := emit.NewGoEmitter(flags.packageName)
	files, err := emitter.Emit(result)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	if flags.outputDir != "" {
		if err := emit.WriteFiles(files, flags.outputDir); err != nil {
			return err
		}
		fmt.Printf("Generated %d model(s) into %s\n", len(result.Models), flags.outputDir)
		return nil
	}
	for _, f := range files {
		_, _ = os.Stdout.Write(f.Content)
	}
	return nil
}

var commandNames = []string{"synthesize", "mcp", "version", "help"}

// suggestCommand returns the closest known command within edit distance 2,
// or "" when nothing is close enough.
func suggestCommand(input string) string {
	best := ""
	bestDistance := 3
	for _, name := range commandNames {
		if d := editDistance(input, name); d < bestDistance {
			best = name
			bestDistance = d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`modelgen - JSON Schema model synthesis

Usage:
  modelgen <command> [options]

Commands:
  synthesize  Resolve schema documents and generate Go model types
  mcp         Run the MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  modelgen synthesize schema.json
  modelgen synthesize -package api -o ./gen schema.json common.json
  modelgen mcp

Run 'modelgen <command> --help' for more information on a command.`)
}
