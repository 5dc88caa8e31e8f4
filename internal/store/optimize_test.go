package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ctxmem/internal/model"
)

func sizedContent(n int, tag string) string {
	return strings.Repeat("x", n-len(tag)) + tag
}

func TestWatchdogEvictsOverBudget(t *testing.T) {
	s, _ := newClockedStore(t, Config{BudgetBytes: 2000, WatchdogBytes: 2500})

	first := mustAdd(t, s, AddParams{Content: sizedContent(1000, "1"), Priority: model.PriorityLow})
	second := mustAdd(t, s, AddParams{Content: sizedContent(1000, "2"), Priority: model.PriorityLow})
	require.Equal(t, 2, s.Len(), "no eviction under the watchdog")
	third := mustAdd(t, s, AddParams{Content: sizedContent(1000, "3"), Priority: model.PriorityLow})

	require.Equal(t, 2, s.Len())
	assert.LessOrEqual(t, s.TotalBytes(), int64(2000))
	for _, id := range []string{first, second} {
		_, ok := s.Peek(id)
		assert.True(t, ok, "%s retained", id)
	}
	_, ok := s.Peek(third)
	assert.False(t, ok, "equal-score tie evicts the newest item")
}

func TestWatchdogKeepsCriticalPastBudget(t *testing.T) {
	s, _ := newClockedStore(t, Config{BudgetBytes: 1000, WatchdogBytes: 1500})

	a := mustAdd(t, s, AddParams{Content: sizedContent(1000, "a"), Priority: model.PriorityCritical})
	low := mustAdd(t, s, AddParams{Content: sizedContent(1000, "l"), Priority: model.PriorityLow})
	_, ok := s.Peek(low)
	require.False(t, ok, "low priority item evicted")
	b := mustAdd(t, s, AddParams{Content: sizedContent(1000, "b"), Priority: model.PriorityCritical})

	for _, id := range []string{a, b} {
		_, ok := s.Peek(id)
		assert.True(t, ok, "critical %s retained", id)
	}
	assert.Equal(t, int64(2000), s.TotalBytes())
}

func TestEvictionUnlinksNeighbors(t *testing.T) {
	s, _ := newClockedStore(t, Config{BudgetBytes: 1000, WatchdogBytes: 1500})

	keep := mustAdd(t, s, AddParams{Content: sizedContent(1000, "k"), Priority: model.PriorityCritical})
	mustAdd(t, s, AddParams{Content: sizedContent(1000, "e"), Priority: model.PriorityArchive, Related: []string{keep}})

	item, _ := s.Peek(keep)
	assert.Empty(t, item.Relationships)
}

func TestOptimizeMemoryUsageCompressesLargeItems(t *testing.T) {
	s := newTestStore(t)

	id := mustAdd(t, s, AddParams{Content: logContent(200)})
	small := mustAdd(t, s, AddParams{Content: "small note"})

	report := s.OptimizeMemoryUsage()
	assert.Empty(t, report.Evicted)
	assert.Positive(t, report.MemorySaved)
	assert.Equal(t, 2, report.Before.TotalItems)
	assert.Equal(t, 2, report.After.TotalItems)
	require.Len(t, report.ActionsTaken, 1)
	assert.True(t, strings.HasPrefix(report.ActionsTaken[0], "Compressed "+id), "actions: %v", report.ActionsTaken)

	got, _ := s.Peek(small)
	assert.Equal(t, 1.0, got.CompressionRatio, "small item untouched")
}
