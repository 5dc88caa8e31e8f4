package store

import (
	"sort"

	"github.com/rcliao/ctxmem/internal/model"
)

// Snapshot returns a deep copy of every layer and the relationship graph.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.NewSnapshot(s.now())
	for _, layer := range model.Layers {
		for id, e := range s.layers[layer] {
			snap.ContextStorage[layer][id] = e.item.Clone()
		}
	}
	snap.Relationships = s.graph.Export()
	return snap
}

// Restore replaces the store contents with snap. Items are normalised on the
// way in: layer keys win over item fields, sizes are recomputed and edges to
// unknown ids are dropped. Restored content is replayed through the
// classifier so pattern insights cover the whole store.
func (s *Store) Restore(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, layer := range model.Layers {
		items := snap.ContextStorage[layer]
		ids := make([]string, 0, len(items))
		for id := range items {
			ids = append(ids, id)
		}
		// Maps carry no insertion order, so oldest first approximates it.
		sort.Slice(ids, func(i, j int) bool {
			a, b := items[ids[i]], items[ids[j]]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			if _, dup := s.index[id]; dup {
				continue
			}
			item := items[id].Clone()
			item.Layer = layer
			item.SizeBytes = len(item.Content)
			if !item.Priority.Valid() {
				item.Priority = model.ClampPriority(int(item.Priority))
			}
			if item.CompressionRatio <= 0 {
				item.CompressionRatio = 1.0
			}
			s.insert(id, item)
			s.classifier.Analyze(item.Content, item.CreatedAt)
		}
	}

	edges := make(map[string][]string, len(snap.Relationships))
	for a, list := range snap.Relationships {
		if _, ok := s.index[a]; !ok {
			continue
		}
		for _, b := range list {
			if _, ok := s.index[b]; ok && a != b {
				edges[a] = append(edges[a], b)
			}
		}
	}
	s.graph.Import(edges)
	for id := range s.index {
		s.refreshRelationships(id)
	}
	s.logger.Debug("store restored", "items", len(s.index), "linked", s.graph.Len())
}
