package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Synthesis defaults.
	Deduplication  bool
	ConflictStrict bool
	MaxRefDepth    int

	// Emission defaults.
	PackageName string

	// Input limits.
	MaxInlineSize int64
	MaxDocuments  int

	// list_models defaults.
	ListLimit int
	MaxLimit  int

	// URL fetching.
	FetchTimeout    time.Duration
	AllowPrivateIPs bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from MODELGEN_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		Deduplication:   envBool("MODELGEN_DEDUP", true),
		ConflictStrict:  envBool("MODELGEN_CONFLICT_STRICT", false),
		MaxRefDepth:     envInt("MODELGEN_MAX_REF_DEPTH", 0),
		PackageName:     envString("MODELGEN_PACKAGE", "models"),
		MaxInlineSize:   envInt64("MODELGEN_MAX_INLINE_SIZE", 10*1024*1024),
		MaxDocuments:    envInt("MODELGEN_MAX_DOCUMENTS", 20),
		ListLimit:       envInt("MODELGEN_LIST_LIMIT", 100),
		MaxLimit:        envInt("MODELGEN_MAX_LIMIT", 1000),
		FetchTimeout:    envDuration("MODELGEN_FETCH_TIMEOUT", 30*time.Second),
		AllowPrivateIPs: envBool("MODELGEN_ALLOW_PRIVATE_IPS", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
