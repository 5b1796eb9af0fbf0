package reembed

import "errors"

var (
	// ErrStoreRequired is returned when a snippet store is not provided.
	ErrStoreRequired = errors.New("snippet store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
