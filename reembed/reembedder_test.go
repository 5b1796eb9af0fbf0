package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemem/codemem/ai/mock"
	"github.com/codemem/codemem/core"
)

func TestNewReembedder_RequiresCollaborators(t *testing.T) {
	store := seedStore(t, 0, "p")

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewReembedder(store, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRun_UpdatesEveryVectorAndPreservesIDs(t *testing.T) {
	store := seedStore(t, 12, "p")
	ctx := context.Background()

	before := map[core.ID][]float32{}
	require.NoError(t, store.IterateSnippets(ctx, "", func(doc *core.SnippetDocument) error {
		before[doc.Id] = doc.Vector
		return nil
	}))
	require.Len(t, before, 12)

	// A "new model": same deterministic scheme with a different dimension,
	// so every produced vector differs from the stored one.
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector("v2:"+text, 384)
		}
		return out, nil
	}

	var progress bytes.Buffer
	config := DefaultConfig()
	config.BatchSize = 5
	config.ReportInterval = 5

	r, err := NewReembedder(store, embedder, config, &progress)
	require.NoError(t, err)
	require.NoError(t, r.Run(ctx))

	after := 0
	require.NoError(t, store.IterateSnippets(ctx, "", func(doc *core.SnippetDocument) error {
		after++
		old, ok := before[doc.Id]
		require.True(t, ok, "reembedding must not change document ids")
		assert.NotEqual(t, old, doc.Vector, "vector for %q must be recomputed", doc.Name)
		return nil
	}))
	assert.Equal(t, 12, after)

	assert.Contains(t, progress.String(), "Starting reembedding of 12 documents")
	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestRun_ProjectScope(t *testing.T) {
	store := seedStore(t, 4, "keep")

	repoDocs := 0
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	config := DefaultConfig()
	config.ProjectID = "other"

	r, err := NewReembedder(store, embedder, config, nil)
	require.NoError(t, err)
	require.NoError(t, r.Run(ctx))

	assert.Zero(t, embedder.CallCount(), "out-of-scope run must not embed anything")

	require.NoError(t, store.IterateSnippets(ctx, "keep", func(doc *core.SnippetDocument) error {
		repoDocs++
		return nil
	}))
	assert.Equal(t, 4, repoDocs)
}

func TestRun_EmptyStoreIsNoop(t *testing.T) {
	store := seedStore(t, 0, "p")

	var progress bytes.Buffer
	r, err := NewReembedder(store, mock.NewMockEmbedder(), nil, &progress)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, progress.String(), "No documents found")
}

func TestRun_EmbedderFailureAborts(t *testing.T) {
	store := seedStore(t, 3, "p")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}

	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond

	r, err := NewReembedder(store, embedder, config, nil)
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependency)
}
