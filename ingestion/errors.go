package ingestion

import "errors"

var (
	// ErrRepositoryRequired indicates a nil snippet repository was provided.
	ErrRepositoryRequired = errors.New("snippet repository is required")

	// ErrMalformedItem indicates an input line could not be decoded.
	ErrMalformedItem = errors.New("malformed item")
)
