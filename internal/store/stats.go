package store

import (
	"time"

	"github.com/rcliao/ctxmem/internal/classify"
	"github.com/rcliao/ctxmem/internal/model"
)

const (
	suggestOptimizeMB       = 50
	suggestImmediateCount   = 100
	suggestionOptimize      = "Consider running memory optimization"
	suggestionMoveToSession = "Move old immediate context to session layer"
)

// LayerSummary holds per-layer counts.
type LayerSummary struct {
	ItemCount   int     `json:"item_count"`
	SizeBytes   int64   `json:"size_bytes"`
	AvgItemSize float64 `json:"avg_item_size"`
}

// Summary describes the store contents.
type Summary struct {
	Timestamp               time.Time                    `json:"timestamp"`
	Layers                  map[model.Layer]LayerSummary `json:"layers"`
	TotalItems              int                          `json:"total_items"`
	TotalSizeBytes          int64                        `json:"total_size_bytes"`
	MemoryUsageMB           float64                      `json:"memory_usage_mb"`
	Relationships           int                          `json:"relationships"`
	PatternInsights         classify.Insights            `json:"pattern_insights"`
	OptimizationSuggestions []string                     `json:"optimization_suggestions"`
}

// Summary returns per-layer statistics, pattern insights and suggestions.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	sum := Summary{
		Timestamp:               s.now(),
		Layers:                  make(map[model.Layer]LayerSummary, model.NumLayers),
		TotalItems:              len(s.index),
		TotalSizeBytes:          s.totalBytes,
		MemoryUsageMB:           float64(s.totalBytes) / bytesPerMB,
		Relationships:           s.graph.Len(),
		OptimizationSuggestions: []string{},
	}
	for _, layer := range model.Layers {
		var ls LayerSummary
		for _, e := range s.layers[layer] {
			ls.ItemCount++
			ls.SizeBytes += int64(e.item.SizeBytes)
		}
		if ls.ItemCount > 0 {
			ls.AvgItemSize = float64(ls.SizeBytes) / float64(ls.ItemCount)
		}
		sum.Layers[layer] = ls
	}
	s.mu.RUnlock()

	sum.PatternInsights = s.classifier.Insights()
	if sum.MemoryUsageMB > suggestOptimizeMB {
		sum.OptimizationSuggestions = append(sum.OptimizationSuggestions, suggestionOptimize)
	}
	if sum.Layers[model.LayerImmediate].ItemCount > suggestImmediateCount {
		sum.OptimizationSuggestions = append(sum.OptimizationSuggestions, suggestionMoveToSession)
	}
	return sum
}
