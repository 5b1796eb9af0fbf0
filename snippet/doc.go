// Package snippet implements the write path for snippet documents: input
// validation, embedding computation with bounded retries, deterministic id
// derivation from the (project, name) natural key and conflict-aware
// persistence.
package snippet
