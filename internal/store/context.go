package store

import (
	"github.com/rcliao/ctxmem/internal/optimizer"
	"github.com/rcliao/ctxmem/internal/prompt"
)

// BuildPrompt packs the most relevant items into a token-bounded prompt.
func (s *Store) BuildPrompt(p prompt.Params) prompt.Result {
	s.mu.RLock()
	ranked := optimizer.Rank(s.entries(), s.now())
	s.mu.RUnlock()

	candidates := make([]prompt.Candidate, len(ranked))
	for i, r := range ranked {
		candidates[i] = prompt.Candidate{ID: r.ID, Content: r.Item.Content}
	}
	return s.assembler.Ranked(p, candidates)
}
