package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schematools/modelgen/mgerrors"
)

const (
	// MaxFetchedDocuments is the default maximum number of sibling documents
	// a fetcher will load. This prevents memory exhaustion from documents
	// with many cross-document references.
	MaxFetchedDocuments = 100

	// MaxFileSize is the default maximum size (in bytes) allowed for fetched
	// document files. Set to 10MB which should be sufficient for most schema
	// documents.
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// Fetcher supplies sibling/child documents by identifier. The resolver calls
// it when a pointer crosses a document boundary; fetching is synchronous and
// blocking from the core's point of view.
type Fetcher interface {
	// Fetch loads the document with the given identifier. The identifier is
	// interpreted relative to the fetcher's own base (directory or URL).
	Fetch(id string) (*Document, error)
}

// FileFetcher loads documents from the local file system, rooted at a base
// directory. Paths that escape the base directory are rejected.
type FileFetcher struct {
	baseDir string
	// maxFileSize limits the size of any single fetched file.
	maxFileSize int64
	// maxDocuments limits how many documents may be cached.
	maxDocuments int
	// cache holds fetched documents for the lifetime of the fetcher.
	cache map[string]*Document
}

// NewFileFetcher creates a FileFetcher rooted at baseDir with default limits.
func NewFileFetcher(baseDir string) *FileFetcher {
	return &FileFetcher{
		baseDir:      baseDir,
		maxFileSize:  MaxFileSize,
		maxDocuments: MaxFetchedDocuments,
		cache:        make(map[string]*Document),
	}
}

// SetLimits overrides the file size and document count limits.
// Zero values keep the current limit.
func (f *FileFetcher) SetLimits(maxFileSize int64, maxDocuments int) {
	if maxFileSize > 0 {
		f.maxFileSize = maxFileSize
	}
	if maxDocuments > 0 {
		f.maxDocuments = maxDocuments
	}
}

// Fetch implements Fetcher. Fetched documents are cached by identifier for
// the lifetime of the fetcher.
func (f *FileFetcher) Fetch(id string) (*Document, error) {
	if doc, ok := f.cache[id]; ok {
		return doc, nil
	}

	if len(f.cache) >= f.maxDocuments {
		return nil, &mgerrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(f.maxDocuments),
			Actual:       int64(len(f.cache)),
			Message:      "too many cross-document references",
		}
	}

	filePath := id
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Clean(filepath.Join(f.baseDir, filePath))
	}

	// Reject paths that escape the base directory. filepath.Rel handles all
	// cases including different volumes on Windows (it returns an error when
	// paths are on different drives).
	absBase, err := filepath.Abs(f.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path: %w", err)
	}
	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return nil, &mgerrors.ReferenceError{
			Pointer:         id,
			Dialect:         "document",
			IsPathTraversal: true,
		}
	}

	// Read then check size: combines stat + read into a single syscall.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", filePath, err)
	}
	if int64(len(data)) > f.maxFileSize {
		return nil, &mgerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        f.maxFileSize,
			Actual:       int64(len(data)),
			Message:      fmt.Sprintf("document %s too large", id),
		}
	}

	doc, err := LoadBytes(id, data)
	if err != nil {
		return nil, err
	}
	f.cache[id] = doc
	return doc, nil
}

// MemoryFetcher serves documents from an in-memory set. Useful for tests and
// for callers that load all documents upfront.
type MemoryFetcher struct {
	set *DocumentSet
}

// NewMemoryFetcher creates a MemoryFetcher over the given set.
func NewMemoryFetcher(set *DocumentSet) *MemoryFetcher {
	return &MemoryFetcher{set: set}
}

// Fetch implements Fetcher.
func (m *MemoryFetcher) Fetch(id string) (*Document, error) {
	if doc := m.set.Get(id); doc != nil {
		return doc, nil
	}
	return nil, fmt.Errorf("document not loaded: %s", id)
}
