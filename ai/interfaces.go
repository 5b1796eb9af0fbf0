package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, more efficiently than calling EmbedText repeatedly. The result
	// preserves input order. Returns an error if any embedding fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AgentTask is one unit of analysis work handed to a reasoning agent.
type AgentTask struct {
	// Kind selects the analysis to perform; one of the TaskKind* constants
	// or a caller-defined kind for which the agent has a prompt.
	Kind string

	// Snippets is the retrieved code context the task operates on, one
	// rendered snippet per entry.
	Snippets []string

	// Inputs carries the outputs of prerequisite tasks, keyed by task id.
	// Empty for tasks without dependencies.
	Inputs map[string]string
}

// ReasoningAgent performs a single analysis task over retrieved snippets.
// Calls may be slow (seconds); implementations must be safe for concurrent
// invocation so independent tasks can run in parallel.
type ReasoningAgent interface {
	// Run executes the task and returns the produced artifact text.
	Run(ctx context.Context, task AgentTask) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// ReasoningAgent instances, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Agent returns the reasoning agent service.
	// The returned ReasoningAgent is safe for concurrent use.
	Agent() ReasoningAgent

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
