package snippet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/ai/mock"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/storage"
	badgerstore "github.com/codemem/codemem/storage/badger"
)

func newTestRepository(t *testing.T, opts ...Option) (*Repository, storage.SnippetStore, *mock.MockEmbedder) {
	t.Helper()

	store, backend, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	embedder := mock.NewMockEmbedder()
	repo, err := NewRepository(store, embedder, opts...)
	require.NoError(t, err)
	return repo, store, embedder
}

func TestNewRepository_RequiresCollaborators(t *testing.T) {
	store, backend, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewRepository(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewRepository(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestUpsert_InsertsDocument(t *testing.T) {
	repo, store, _ := newTestRepository(t)
	ctx := context.Background()

	doc, err := repo.Upsert(ctx, UpsertInput{
		Name:        "binary-search",
		ProjectID:   "algo",
		Code:        "func bsearch(xs []int, x int) int { return 0 }",
		Language:    "Go",
		Description: "binary search over a sorted slice",
	})
	require.NoError(t, err)

	assert.Equal(t, core.IDFromContent(core.NaturalKey("algo", "binary-search")), doc.Id)
	assert.Equal(t, "go", doc.Language)
	assert.NotEmpty(t, doc.Vector)

	var sumSquares float64
	for _, v := range doc.Vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-4, "stored vector must be unit length")

	stored, err := store.GetSnippet(ctx, "algo", "binary-search")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, stored.Id)
	assert.Equal(t, doc.Vector, stored.Vector)
}

func TestUpsert_SameKeyReplacesAndKeepsID(t *testing.T) {
	repo, store, _ := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, UpsertInput{
		Name: "greet", ProjectID: "demo", Code: "print('hi')",
	})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, UpsertInput{
		Name: "greet", ProjectID: "demo", Code: "print('hello, world')",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.NotEqual(t, first.Vector, second.Vector, "changed code must be re-embedded")

	count, err := store.CountSnippets(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_IdenticalInputIsIdempotent(t *testing.T) {
	repo, store, _ := newTestRepository(t)
	ctx := context.Background()

	in := UpsertInput{Name: "idem", ProjectID: "demo", Code: "x = 1"}

	first, err := repo.Upsert(ctx, in)
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.Vector, second.Vector)

	count, err := store.CountSnippets(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_ValidationRejectsBeforeEmbedding(t *testing.T) {
	repo, _, embedder := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UpsertInput
		want error
	}{
		{"empty name", UpsertInput{ProjectID: "p", Code: "c"}, core.ErrEmptyName},
		{"empty project", UpsertInput{Name: "n", Code: "c"}, core.ErrEmptyProjectID},
		{"empty code", UpsertInput{Name: "n", ProjectID: "p"}, core.ErrEmptyCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Upsert(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.Equal(t, "validation", core.Kind(err))
		})
	}

	assert.Zero(t, embedder.CallCount(), "invalid input must not reach the embedder")
}

func TestUpsert_EmbedderFailureSurfacesAsDependencyError(t *testing.T) {
	repo, _, embedder := newTestRepository(t, WithRetryPolicy(2, time.Millisecond))
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.Upsert(context.Background(), UpsertInput{
		Name: "n", ProjectID: "p", Code: "c",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependency)
	assert.Equal(t, "dependency", core.Kind(err))
	assert.Contains(t, err.Error(), "embedder")
	assert.Equal(t, 2, embedder.CallCount(), "embedder calls must respect the retry cap")
}

func TestUpsert_EmbedderRecoversAfterTransientFailure(t *testing.T) {
	repo, _, embedder := newTestRepository(t, WithRetryPolicy(3, time.Millisecond))

	var calls int
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("temporary outage")
		}
		return mock.DeterministicVector(text, 384), nil
	}

	doc, err := repo.Upsert(context.Background(), UpsertInput{
		Name: "n", ProjectID: "p", Code: "c",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Vector)
	assert.Equal(t, 3, calls)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	repo, _, embedder := newTestRepository(t, WithEmbeddingDim(8))
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return mock.DeterministicVector(text, 3), nil
	}

	_, err := repo.Upsert(context.Background(), UpsertInput{
		Name: "n", ProjectID: "p", Code: "c",
	})
	assert.ErrorIs(t, err, ai.ErrDimensionMismatch)
}

func TestUpsert_CancelledContext(t *testing.T) {
	repo, _, embedder := newTestRepository(t)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Upsert(ctx, UpsertInput{Name: "n", ProjectID: "p", Code: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestUpsert_ConcurrentSameKey(t *testing.T) {
	repo, store, _ := newTestRepository(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Upsert(ctx, UpsertInput{
				Name: "shared", ProjectID: "demo", Code: "n := 1",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}

	count, err := store.CountSnippets(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// conflictStore wraps a real store and fails the next conflicts writes with
// ErrConflict before delegating.
type conflictStore struct {
	storage.SnippetStore

	mu        sync.Mutex
	conflicts int
	calls     int
}

func (s *conflictStore) UpsertSnippet(ctx context.Context, doc *core.SnippetDocument) (*core.SnippetDocument, error) {
	s.mu.Lock()
	s.calls++
	fail := s.conflicts > 0
	if fail {
		s.conflicts--
	}
	s.mu.Unlock()

	if fail {
		return nil, storage.ErrConflict
	}
	return s.SnippetStore.UpsertSnippet(ctx, doc)
}

func newConflictRepository(t *testing.T, conflicts int) (*Repository, *conflictStore) {
	t.Helper()

	store, backend, err := badgerstore.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	cs := &conflictStore{SnippetStore: store, conflicts: conflicts}
	repo, err := NewRepository(cs, mock.NewMockEmbedder(), WithRetryPolicy(3, time.Millisecond))
	require.NoError(t, err)
	return repo, cs
}

func TestUpsert_SingleWriteConflictIsAbsorbed(t *testing.T) {
	repo, cs := newConflictRepository(t, 1)

	doc, err := repo.Upsert(context.Background(), UpsertInput{
		Name: "n", ProjectID: "p", Code: "c",
	})
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Equal(t, 2, cs.calls, "one conflicted write plus one fresh retry")

	stored, err := cs.GetSnippet(context.Background(), "p", "n")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, stored.Id)
}

func TestUpsert_PersistentWriteConflict(t *testing.T) {
	repo, cs := newConflictRepository(t, 100)

	_, err := repo.Upsert(context.Background(), UpsertInput{
		Name: "n", ProjectID: "p", Code: "c",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, "conflict", core.Kind(err))
	assert.Equal(t, 2, cs.calls, "a write conflict is retried exactly once")
}

func TestGetAndDelete(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, UpsertInput{Name: "keep", ProjectID: "p", Code: "a"})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, UpsertInput{Name: "drop", ProjectID: "p", Code: "b"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "p", "keep")
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Name)

	require.NoError(t, repo.Delete(ctx, "p", "drop"))

	_, err = repo.Get(ctx, "p", "drop")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
