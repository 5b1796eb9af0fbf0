// Package query provides ranked semantic retrieval of snippet documents.
//
// The Engine embeds a natural-language query, runs a cosine-similarity
// search against the document store, filters by a minimum score and returns
// the top results. A SearchMonitor can observe each stage.
package query
