package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

func openTestCache(t *testing.T) *GenerationCache {
	t.Helper()
	cache, err := OpenGenerationCache(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("claude", "claude-sonnet-4-20250514", "version: 2.1\n")
	assert.Contains(t, key, "gen:")

	// Every input component changes the key
	assert.NotEqual(t, key, CacheKey("gemini", "claude-sonnet-4-20250514", "version: 2.1\n"))
	assert.NotEqual(t, key, CacheKey("claude", "other-model", "version: 2.1\n"))
	assert.NotEqual(t, key, CacheKey("claude", "claude-sonnet-4-20250514", "version: 2\n"))

	// Same inputs, same key
	assert.Equal(t, key, CacheKey("claude", "claude-sonnet-4-20250514", "version: 2.1\n"))
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	cache := openTestCache(t)
	files := models.WorkflowFiles{
		"ci.yml":     "name: CI\non: push\n",
		"deploy.yml": "name: Deploy\n",
	}
	key := CacheKey("claude", "model", "config text")

	require.NoError(t, cache.Put(key, files))

	got, ok, err := cache.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, files, got)
}

func TestCache_MissReturnsNotOK(t *testing.T) {
	cache := openTestCache(t)

	files, ok, err := cache.Get(CacheKey("claude", "model", "never stored"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, files)
}
