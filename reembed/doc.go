// Package reembed recomputes the stored embedding of every snippet
// document, typically after switching embedding models.
//
// Documents are processed in batches with retry logic and progress
// reporting; vectors are normalized before storage so cosine similarity
// search keeps working across the model change.
package reembed
