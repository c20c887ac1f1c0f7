// Package emit renders frozen model definitions to source code.
//
// The Backend interface is the pluggable rendering contract; GoEmitter is
// the reference back end. Back ends consume a finished synthesis Result and
// never mutate the registry.
package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schematools/modelgen/synthesis"
)

// File is one rendered output file.
type File struct {
	// Name is the file name, without directories.
	Name string
	// Content is the rendered source.
	Content []byte
}

// Backend renders a synthesis result into files.
type Backend interface {
	// Emit renders every model in the result, in emission order.
	Emit(result *synthesis.Result) ([]File, error)
	// Language names the output language, for diagnostics.
	Language() string
}

// WriteFiles writes rendered files into a directory, creating it if needed.
func WriteFiles(files []File, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, file := range files {
		if filepath.Base(file.Name) != file.Name {
			return fmt.Errorf("invalid file name %q: must not contain path separators", file.Name)
		}
		path := filepath.Join(outputDir, file.Name)
		if err := os.WriteFile(path, file.Content, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", file.Name, err)
		}
	}
	return nil
}
