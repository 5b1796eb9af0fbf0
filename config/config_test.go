package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "codemem.db", cfg.DatabasePath)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 120, cfg.Orchestration.TimeoutSecs)
	assert.Equal(t, "strict", cfg.Orchestration.MergePolicy)
}

func TestLoad_FileOverridesWithDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codemem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_path: /var/lib/codemem/db
ai:
  embedding_host: http://embeddings:11434/v1
  embedding_dim: 768
search:
  top_k: 12
orchestration:
  merge_policy: best_effort
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/codemem/db", cfg.DatabasePath)
	assert.Equal(t, "http://embeddings:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, 768, cfg.AI.EmbeddingDim)
	assert.Equal(t, 12, cfg.Search.TopK)
	assert.Equal(t, "best_effort", cfg.Orchestration.MergePolicy)
	assert.Equal(t, 120, cfg.Orchestration.TimeoutSecs, "missing field gets its default")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := defaultConfig()
	want.AI.AgentModel = "qwen2.5:7b"
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
