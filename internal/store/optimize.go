package store

import (
	"fmt"
	"time"

	"github.com/rcliao/ctxmem/internal/compress"
	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/optimizer"
	"github.com/rcliao/ctxmem/internal/score"
)

const bytesPerMB = 1024 * 1024

// SizeSummary is a point-in-time size measurement.
type SizeSummary struct {
	TotalItems     int     `json:"total_items"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	MemoryUsageMB  float64 `json:"memory_usage_mb"`
}

// OptimizeReport describes one optimization pass.
type OptimizeReport struct {
	Before       SizeSummary `json:"before_optimization"`
	After        SizeSummary `json:"after_optimization"`
	Evicted      []string    `json:"evicted"`
	ActionsTaken []string    `json:"actions_taken"`
	MemorySaved  int64       `json:"memory_saved"`
}

// OptimizeMemoryUsage evicts items that do not fit the budget and compresses
// large, rarely used survivors.
func (s *Store) OptimizeMemoryUsage() OptimizeReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optimize()
}

// optimize runs with s.mu held.
func (s *Store) optimize() OptimizeReport {
	report := OptimizeReport{
		Before:       s.sizeSummary(),
		Evicted:      []string{},
		ActionsTaken: []string{},
	}

	retained, evicted := optimizer.Optimize(s.entries(), s.budget, s.now())
	for _, e := range evicted {
		s.remove(e.ID)
		report.Evicted = append(report.Evicted, e.ID)
	}
	if len(evicted) > 0 {
		report.ActionsTaken = append(report.ActionsTaken,
			fmt.Sprintf("Evicted %d items over the %d byte budget", len(evicted), s.budget))
	}

	for _, e := range optimizer.SuggestCompressionTargets(retained) {
		before, after, err := s.compressItem(e.ID, compress.DefaultRatio)
		if err != nil {
			report.ActionsTaken = append(report.ActionsTaken,
				fmt.Sprintf("Compression failed for %s: %v", e.ID, err))
			continue
		}
		report.ActionsTaken = append(report.ActionsTaken,
			fmt.Sprintf("Compressed %s (ratio: %.2f)", e.ID, float64(after)/float64(before)))
	}

	report.After = s.sizeSummary()
	report.MemorySaved = report.Before.TotalSizeBytes - report.After.TotalSizeBytes
	if len(evicted) > 0 || report.MemorySaved != 0 {
		s.version++
	}
	s.logger.Info("memory optimized",
		"evicted", len(report.Evicted),
		"actions", len(report.ActionsTaken),
		"saved_bytes", report.MemorySaved)
	return report
}

// Cleanup removes items idle for longer than maxAge whose relevance is below
// floor. Critical items are never removed. It returns the number removed.
func (s *Store) Cleanup(maxAge time.Duration, floor float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, e := range s.entries() {
		if e.Item.Priority == model.PriorityCritical {
			continue
		}
		if now.Sub(e.Item.LastAccessed) > maxAge && score.Score(e.Item, now) < floor {
			s.remove(e.ID)
			removed++
		}
	}
	if removed > 0 {
		s.version++
		s.logger.Info("stale context cleaned up", "removed", removed)
	}
	return removed
}

func (s *Store) sizeSummary() SizeSummary {
	return SizeSummary{
		TotalItems:     len(s.index),
		TotalSizeBytes: s.totalBytes,
		MemoryUsageMB:  float64(s.totalBytes) / bytesPerMB,
	}
}
