package ai

import "errors"

// Built-in reasoning task kinds. Agents must have a prompt for each of
// these; unknown kinds fall back to a generic analysis prompt.
const (
	TaskKindSummarize     = "summarize"
	TaskKindStyleGuide    = "style_guide"
	TaskKindDocumentation = "documentation"
)

// TaskKinds lists the built-in reasoning task kinds.
var TaskKinds = []string{
	TaskKindSummarize,
	TaskKindStyleGuide,
	TaskKindDocumentation,
}

// ErrDimensionMismatch indicates the embedder returned a vector of a
// different length than the configured dimension. This is a fatal
// configuration error, never retried.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")
