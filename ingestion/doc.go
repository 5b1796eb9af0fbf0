// Package ingestion provides batch ingestion of snippet items, including a
// JSON-Lines reader for file imports. Items are processed concurrently over
// a bounded worker pool with per-item error isolation: invalid items are
// skipped, collaborator failures are recorded, and the batch always runs to
// completion unless the context is cancelled.
package ingestion
