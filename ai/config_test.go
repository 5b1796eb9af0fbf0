package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AgentHost)
		assert.Zero(t, cfg.EmbeddingDim)
	})

	t.Run("options applied", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://example.com"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithAgentModel("gpt-4o-mini"),
			WithEmbeddingDim(1536),
		)
		assert.Equal(t, "http://example.com", cfg.EmbeddingHost)
		assert.Equal(t, "http://example.com", cfg.AgentHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.AgentModel)
		assert.Equal(t, 1536, cfg.EmbeddingDim)
	})

	t.Run("separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed.local"),
			WithAgentHost("http://agent.local"),
		)
		assert.Equal(t, "http://embed.local", cfg.EmbeddingHost)
		assert.Equal(t, "http://agent.local", cfg.AgentHost)
	})
}

func TestConfigNormalize(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AgentHost)

	cfg = NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, NewConfig().Validate())
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := NewConfig()
		cfg.EmbeddingModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing hosts", func(t *testing.T) {
		cfg := NewConfig()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())

		cfg = NewConfig()
		cfg.AgentHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative dimension", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingDim(-1))
		assert.Error(t, cfg.Validate())
	})
}
