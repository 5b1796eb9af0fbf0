package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/storage"
)

// SnippetStore implements storage.SnippetStore on a BadgerDB backend.
type SnippetStore struct {
	backend *Backend
}

var _ storage.SnippetStore = (*SnippetStore)(nil)

// newSnippetStore is the internal constructor returning the concrete type.
func newSnippetStore(backend *Backend) (*SnippetStore, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &SnippetStore{backend: backend}, nil
}

// NewSnippetStore creates a snippet store on the given backend.
//
// Returns storage.SnippetStore interface to enforce abstraction.
func NewSnippetStore(backend *Backend) (storage.SnippetStore, error) {
	return newSnippetStore(backend)
}

// UpsertSnippet writes a document, replacing any existing one with the same id.
func (s *SnippetStore) UpsertSnippet(ctx context.Context, doc *core.SnippetDocument) (*core.SnippetDocument, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
			doc.Id = core.IDFromContent(doc.Key())
		}

		now := time.Now().UTC()
		existing, err := s.readSnippet(tx, doc.Id)
		if err != nil {
			return err
		}
		if existing != nil {
			doc.InsertedAt = existing.InsertedAt
		} else if doc.InsertedAt.IsZero() {
			doc.InsertedAt = now
		}
		doc.UpdatedAt = now

		if err := tx.Set(makeSnippetKey(doc.Id), storage.MarshalSnippetDocument(doc)); err != nil {
			return err
		}
		// Project index key is derived from the same natural key as the id,
		// so a replace never needs to unlink an old index entry.
		if err := tx.Set(makeProjectIndexKey(doc.ProjectID, doc.Id), storage.MarshalID(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetSnippet retrieves a document by its natural key.
func (s *SnippetStore) GetSnippet(ctx context.Context, projectID, name string) (*core.SnippetDocument, error) {
	return s.GetSnippetByID(ctx, core.IDFromContent(core.NaturalKey(projectID, name)))
}

// GetSnippetByID retrieves a document by id.
func (s *SnippetStore) GetSnippetByID(ctx context.Context, id core.ID) (*core.SnippetDocument, error) {
	var doc *core.SnippetDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = s.readSnippet(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// DeleteSnippets removes documents by natural key.
func (s *SnippetStore) DeleteSnippets(ctx context.Context, projectID string, names ...string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, name := range names {
			id := core.IDFromContent(core.NaturalKey(projectID, name))
			existing, err := s.readSnippet(tx, id)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeSnippetKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeProjectIndexKey(projectID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindSimilar returns up to limit documents ranked by cosine similarity.
func (s *SnippetStore) FindSimilar(ctx context.Context, vector []float32, projectID string, limit int) ([]*core.ScoredSnippet, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ScoredSnippet
	err := s.IterateSnippets(ctx, projectID, func(doc *core.SnippetDocument) error {
		if len(doc.Vector) == 0 {
			return nil
		}
		results = append(results, &core.ScoredSnippet{
			Document: doc,
			Score:    dotProduct(vector, doc.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Score descending, ties broken by ascending id for a stable order.
	slices.SortFunc(results, func(a, b *core.ScoredSnippet) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Document.Id < b.Document.Id:
			return -1
		case a.Document.Id > b.Document.Id:
			return 1
		default:
			return 0
		}
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// IterateSnippets calls fn for every stored document, scoped to a project
// when projectID is non-empty.
func (s *SnippetStore) IterateSnippets(ctx context.Context, projectID string, fn func(*core.SnippetDocument) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if projectID == "" {
			return s.scanAll(ctx, tx, fn)
		}
		return s.scanProject(ctx, tx, projectID, fn)
	}, false)
}

// CountSnippets reports the number of stored documents.
func (s *SnippetStore) CountSnippets(ctx context.Context, projectID string) (int, error) {
	count := 0
	err := s.IterateSnippets(ctx, projectID, func(*core.SnippetDocument) error {
		count++
		return nil
	})
	return count, err
}

// WithTransaction delegates to the backend.
func (s *SnippetStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// Close releases store resources. The backend is owned by the caller and
// closed separately.
func (s *SnippetStore) Close() error {
	return nil
}

func (s *SnippetStore) scanAll(ctx context.Context, tx *badger.Txn, fn func(*core.SnippetDocument) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(snippetPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var doc *core.SnippetDocument
		err := iter.Item().Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalSnippetDocument(val)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *SnippetStore) scanProject(ctx context.Context, tx *badger.Txn, projectID string, fn func(*core.SnippetDocument) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeProjectIndexPrefix(projectID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}
		doc, err := s.readSnippet(tx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			// Dangling index entry; skip rather than fail the scan.
			continue
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// readSnippet reads a document inside a transaction.
// Returns nil, nil when the document doesn't exist.
func (s *SnippetStore) readSnippet(tx *badger.Txn, id core.ID) (*core.SnippetDocument, error) {
	item, err := tx.Get(makeSnippetKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var doc *core.SnippetDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalSnippetDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// dotProduct calculates the dot product of two vectors. Stored vectors are
// normalized, so this equals cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
