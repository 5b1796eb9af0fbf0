// Package orchestration fans a request out over a graph of reasoning tasks
// and merges their outputs into a single artifact.
//
// A run retrieves ranked snippets for the request query, then schedules the
// declared tasks with a ready-set scheduler: tasks whose dependencies have
// completed run concurrently on a bounded worker pool, and each task sees
// the shared snippets plus the outputs of its dependencies. A failed task
// fails its transitive dependents without invoking the agent; the merge
// policy decides whether that fails the request or yields a partial
// artifact.
package orchestration
