package store

import (
	"fmt"

	"github.com/rcliao/ctxmem/internal/model"
)

// CompressStats reports the outcome of a CompressLayer batch.
type CompressStats struct {
	Layer            model.Layer `json:"layer"`
	CompressedItems  int         `json:"compressed_items"`
	OriginalSize     int         `json:"original_size"`
	CompressedSize   int         `json:"compressed_size"`
	CompressionRatio float64     `json:"compression_ratio"`
	Errors           []string    `json:"errors"`
}

// CompressLayer compresses every item in layer toward target. Failures are
// collected per item and never abort the batch.
func (s *Store) CompressLayer(layer model.Layer, target float64) CompressStats {
	stats := CompressStats{Layer: layer, Errors: []string{}}
	if !layer.Valid() {
		stats.Errors = append(stats.Errors, fmt.Sprintf("invalid layer %d", int(layer)))
		return stats
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries() {
		if e.Item.Layer != layer {
			continue
		}
		before, after, err := s.compressItem(e.ID, target)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", e.ID, err))
			continue
		}
		stats.CompressedItems++
		stats.OriginalSize += before
		stats.CompressedSize += after
	}
	if stats.OriginalSize > 0 {
		stats.CompressionRatio = float64(stats.CompressedSize) / float64(stats.OriginalSize)
	}
	if stats.CompressedItems > 0 {
		s.version++
	}
	s.logger.Debug("layer compressed", "layer", layer, "items", stats.CompressedItems,
		"errors", len(stats.Errors))
	return stats
}

// compressItem swaps the item for its compressed form. The caller holds s.mu.
func (s *Store) compressItem(id string, target float64) (before, after int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compressor panic: %v", r)
		}
	}()

	e, ok := s.lookup(id)
	if !ok {
		return 0, 0, ErrNotFound
	}
	res, err := s.compressor.Compress(e.item.Content, target)
	if err != nil {
		return 0, 0, err
	}
	before = e.item.SizeBytes
	e.item = e.item.WithCompressedContent(res.Text, e.item.CompressionRatio*res.Ratio)
	after = e.item.SizeBytes
	s.totalBytes += int64(after - before)
	return before, after, nil
}
