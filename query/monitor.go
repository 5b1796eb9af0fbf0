package query

import "github.com/codemem/codemem/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(dim int)
	AfterSimilaritySearch(candidates []*core.ScoredSnippet)
	AfterScoreFilter(kept, dropped int)
	Finish(results []*core.ScoredSnippet)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterEmbedding(_ int)                         {}
func (n *noopMonitor) AfterSimilaritySearch(_ []*core.ScoredSnippet) {}
func (n *noopMonitor) AfterScoreFilter(_, _ int)                    {}
func (n *noopMonitor) Finish(_ []*core.ScoredSnippet)               {}
