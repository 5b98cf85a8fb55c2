package search

import (
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/similarity"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterSemanticRanking(matches []similarity.Match)
	AfterRerank(hits []Hit[core.Candidate])
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)           {}
func (n *noopMonitor) AfterSemanticRanking(_ []similarity.Match) {}
func (n *noopMonitor) AfterRerank(_ []Hit[core.Candidate])       {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
