package synthesis

import (
	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/loader"
	"github.com/schematools/modelgen/merger"
	"github.com/schematools/modelgen/mgerrors"
)

// Logger is the logging interface used throughout a pass. It is satisfied by
// modelgen.SlogAdapter and by modelgen.NopLogger.
type Logger = modelgen.Logger

// Option is a function that configures a synthesis pass.
type Option func(*passConfig) error

// passConfig holds configuration for one pass.
type passConfig struct {
	logger         Logger
	fetcher        loader.Fetcher
	dedup          bool
	aliasExtras    []string
	conflictPolicy merger.ConflictPolicy
	maxRefDepth    int
}

func defaultConfig() *passConfig {
	return &passConfig{
		logger: modelgen.NopLogger{},
		dedup:  true,
	}
}

func applyOptions(opts ...Option) (*passConfig, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithLogger sets the logger for the pass. Nil selects the no-op logger.
func WithLogger(logger Logger) Option {
	return func(cfg *passConfig) error {
		if logger == nil {
			logger = modelgen.NopLogger{}
		}
		cfg.logger = logger
		return nil
	}
}

// WithFetcher sets the document fetcher used to load cross-document
// reference targets on demand.
func WithFetcher(fetcher loader.Fetcher) Option {
	return func(cfg *passConfig) error {
		cfg.fetcher = fetcher
		return nil
	}
}

// WithDeduplication toggles structural model deduplication. Enabled by
// default.
func WithDeduplication(enabled bool) Option {
	return func(cfg *passConfig) error {
		cfg.dedup = enabled
		return nil
	}
}

// WithAliasWhitelist sets the sibling keywords a reference may carry while
// remaining a pure alias. The default whitelist is const only.
func WithAliasWhitelist(keywords ...string) Option {
	return func(cfg *passConfig) error {
		cfg.aliasExtras = keywords
		return nil
	}
}

// WithConflictPolicy sets how incompatible merged constraints are handled.
func WithConflictPolicy(policy merger.ConflictPolicy) Option {
	return func(cfg *passConfig) error {
		if policy != merger.ConflictLastWins && policy != merger.ConflictStrict {
			return &mgerrors.ConfigError{
				Option:  "WithConflictPolicy",
				Value:   int(policy),
				Message: "unknown conflict policy",
			}
		}
		cfg.conflictPolicy = policy
		return nil
	}
}

// WithMaxRefDepth caps reference chain length during resolution. Zero keeps
// the resolver default.
func WithMaxRefDepth(depth int) Option {
	return func(cfg *passConfig) error {
		if depth < 0 {
			return &mgerrors.ConfigError{
				Option:  "WithMaxRefDepth",
				Value:   depth,
				Message: "depth must not be negative",
			}
		}
		cfg.maxRefDepth = depth
		return nil
	}
}
