package store

import "fmt"

// Link records a bidirectional relationship between two existing items.
func (s *Store) Link(a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{a, b} {
		if _, ok := s.index[id]; !ok {
			return fmt.Errorf("link %s: %w", id, ErrNotFound)
		}
	}
	if a == b {
		return nil
	}
	s.link(a, b)
	s.version++
	return nil
}

// Related returns ids reachable from id within depth hops, excluding id.
func (s *Store) Related(id string, depth int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[id]; !ok {
		return nil
	}
	return s.graph.Related(id, depth)
}

func (s *Store) link(a, b string) {
	s.graph.Link(a, b)
	s.refreshRelationships(a)
	s.refreshRelationships(b)
}

// refreshRelationships mirrors the graph edges of id onto its item.
func (s *Store) refreshRelationships(id string) {
	e, ok := s.lookup(id)
	if !ok {
		return
	}
	e.item = e.item.WithRelationships(s.graph.Neighbors(id))
}
