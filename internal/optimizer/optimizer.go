// Package optimizer selects which context items survive memory pressure and
// which are worth compressing.
package optimizer

import (
	"sort"
	"time"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/score"
)

const (
	// DefaultBudgetBytes is the retention budget used when none is configured.
	DefaultBudgetBytes int64 = 100 * 1024 * 1024
	// DefaultWatchdogBytes is the store size that triggers automatic optimization.
	DefaultWatchdogBytes int64 = 80 * 1024 * 1024

	compressMinBytes    = 5000
	compressMaxAccesses = 3
)

// Scored is an entry with its relevance at ranking time.
type Scored struct {
	model.Entry
	Score float64 `json:"score"`
}

// Rank scores every entry and sorts them by descending score. Ties keep input order.
func Rank(entries []model.Entry, now time.Time) []Scored {
	out := make([]Scored, len(entries))
	for i, e := range entries {
		out[i] = Scored{Entry: e, Score: score.Score(e.Item, now)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Optimize greedily keeps the highest-scoring entries while the running size
// stays within budget. Critical entries are always kept, even past the budget.
// Both returned slices are in rank order.
func Optimize(entries []model.Entry, budget int64, now time.Time) (retained, evicted []model.Entry) {
	var used int64
	for _, s := range Rank(entries, now) {
		size := int64(s.Item.SizeBytes)
		if used+size <= budget || s.Item.Priority == model.PriorityCritical {
			retained = append(retained, s.Entry)
			used += size
			continue
		}
		evicted = append(evicted, s.Entry)
	}
	return retained, evicted
}

// SuggestCompressionTargets nominates large, rarely read, medium-or-lower
// priority entries.
func SuggestCompressionTargets(entries []model.Entry) []model.Entry {
	var out []model.Entry
	for _, e := range entries {
		if e.Item.SizeBytes > compressMinBytes &&
			e.Item.AccessCount < compressMaxAccesses &&
			e.Item.Priority >= model.PriorityMedium {
			out = append(out, e)
		}
	}
	return out
}

// TotalBytes sums SizeBytes over entries.
func TotalBytes(entries []model.Entry) int64 {
	var n int64
	for _, e := range entries {
		n += int64(e.Item.SizeBytes)
	}
	return n
}
