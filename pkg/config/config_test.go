package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestNewDefaults verifies that a fresh Config passes validation.
func TestNewDefaults(t *testing.T) {
	cfg := New()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, cfg.Embedding.Dimension, cfg.Index.Dimension)
}

// TestLoad verifies loading a file applies values over defaults.
func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
embedding:
  model: mxbai-embed-large
  dimension: 1024
index:
  collection: docs_test
  dimension: 1024
ingest:
  chunk-size: 500
  chunk-overlap: 100
retrieval:
  top-k: 10
`)

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, "docs_test", cfg.Index.Collection)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 10, cfg.Retrieval.TopK)

	// Unset keys keep their defaults.
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Positive(t, cfg.Ingest.Workers)
}

// TestLoadInvalid verifies that validation rejects a bad file.
func TestLoadInvalid(t *testing.T) {
	path := writeConfigFile(t, `
ingest:
  chunk-size: 0
`)

	_, _, err := Load(path)
	assert.Error(t, err)
}

// TestLoadDimensionMismatch verifies the cross-section dimension check.
func TestLoadDimensionMismatch(t *testing.T) {
	path := writeConfigFile(t, `
embedding:
  dimension: 1024
index:
  dimension: 768
`)

	_, _, err := Load(path)
	assert.Error(t, err)
}

// TestLoadMissingFile verifies the error path for an absent file.
func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
