package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearMODELGENEnv clears all MODELGEN_* env vars to isolate tests from the
// ambient environment.
func clearMODELGENEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MODELGEN_DEDUP", "MODELGEN_CONFLICT_STRICT",
		"MODELGEN_MAX_REF_DEPTH", "MODELGEN_PACKAGE",
		"MODELGEN_MAX_INLINE_SIZE", "MODELGEN_MAX_DOCUMENTS",
		"MODELGEN_LIST_LIMIT", "MODELGEN_MAX_LIMIT",
		"MODELGEN_FETCH_TIMEOUT", "MODELGEN_ALLOW_PRIVATE_IPS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearMODELGENEnv(t)

	c := loadConfig()

	assert.True(t, c.Deduplication)
	assert.False(t, c.ConflictStrict)
	assert.Equal(t, 0, c.MaxRefDepth)
	assert.Equal(t, "models", c.PackageName)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 20, c.MaxDocuments)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.Equal(t, 30*time.Second, c.FetchTimeout)
	assert.False(t, c.AllowPrivateIPs)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearMODELGENEnv(t)
	t.Setenv("MODELGEN_DEDUP", "false")
	t.Setenv("MODELGEN_CONFLICT_STRICT", "true")
	t.Setenv("MODELGEN_MAX_REF_DEPTH", "32")
	t.Setenv("MODELGEN_PACKAGE", "api")
	t.Setenv("MODELGEN_MAX_INLINE_SIZE", "5242880")
	t.Setenv("MODELGEN_MAX_DOCUMENTS", "50")
	t.Setenv("MODELGEN_LIST_LIMIT", "200")
	t.Setenv("MODELGEN_MAX_LIMIT", "500")
	t.Setenv("MODELGEN_FETCH_TIMEOUT", "10s")
	t.Setenv("MODELGEN_ALLOW_PRIVATE_IPS", "true")

	c := loadConfig()

	assert.False(t, c.Deduplication)
	assert.True(t, c.ConflictStrict)
	assert.Equal(t, 32, c.MaxRefDepth)
	assert.Equal(t, "api", c.PackageName)
	assert.Equal(t, int64(5242880), c.MaxInlineSize)
	assert.Equal(t, 50, c.MaxDocuments)
	assert.Equal(t, 200, c.ListLimit)
	assert.Equal(t, 500, c.MaxLimit)
	assert.Equal(t, 10*time.Second, c.FetchTimeout)
	assert.True(t, c.AllowPrivateIPs)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearMODELGENEnv(t)
	t.Setenv("MODELGEN_DEDUP", "maybe")
	t.Setenv("MODELGEN_MAX_DOCUMENTS", "banana")
	t.Setenv("MODELGEN_LIST_LIMIT", "-5")
	t.Setenv("MODELGEN_MAX_INLINE_SIZE", "abc")
	t.Setenv("MODELGEN_FETCH_TIMEOUT", "not-a-duration")

	c := loadConfig()

	assert.True(t, c.Deduplication)
	assert.Equal(t, 20, c.MaxDocuments)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 30*time.Second, c.FetchTimeout)
}

func TestLoadConfig_PartialOverrides(t *testing.T) {
	clearMODELGENEnv(t)
	// Only override some values; others stay at defaults.
	t.Setenv("MODELGEN_LIST_LIMIT", "42")
	t.Setenv("MODELGEN_PACKAGE", "types")

	c := loadConfig()

	assert.Equal(t, 42, c.ListLimit)
	assert.Equal(t, "types", c.PackageName)
	// Unchanged defaults:
	assert.True(t, c.Deduplication)
	assert.Equal(t, 1000, c.MaxLimit)
}
