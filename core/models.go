package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored snippet documents.
// It is derived deterministically from the document's natural key.
type ID uint64

// IDFromContent generates a deterministic ID from text using BLAKE2b hashing.
// Identical input always produces the identical ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DefaultLanguage is assigned to snippets ingested without a language tag.
const DefaultLanguage = "unknown"

// SnippetDocument is a stored code snippet with its embedding.
// The pair (ProjectID, Name) is the natural key: there is exactly one live
// document per pair, and re-submission replaces it rather than duplicating.
type SnippetDocument struct {
	Id          ID
	ProjectID   string
	Name        string
	Code        string
	Language    string
	Description string
	Vector      []float32 // embedding of Code (and Description when present)
	InsertedAt  time.Time
	UpdatedAt   time.Time // set on every write
}

// NaturalKey returns the string form of a document's natural key as
// "(projectID,name)". It is the input to ID derivation.
func NaturalKey(projectID, name string) string {
	return "(" + projectID + "," + name + ")"
}

// Key returns the document's natural key string.
func (d *SnippetDocument) Key() string {
	return NaturalKey(d.ProjectID, d.Name)
}

// ScoredSnippet is a similarity search hit with its relevance score.
type ScoredSnippet struct {
	Document *SnippetDocument
	Score    float32
}
