package model

import "time"

// Snapshot is the full persisted state of a store.
type Snapshot struct {
	Timestamp      time.Time                        `json:"timestamp"`
	ContextStorage map[Layer]map[string]ContextItem `json:"context_storage"`
	Relationships  map[string][]string              `json:"relationships"`
}

// NewSnapshot returns an empty snapshot with every layer present.
func NewSnapshot(now time.Time) Snapshot {
	s := Snapshot{
		Timestamp:      now,
		ContextStorage: make(map[Layer]map[string]ContextItem, NumLayers),
		Relationships:  map[string][]string{},
	}
	for _, l := range Layers {
		s.ContextStorage[l] = map[string]ContextItem{}
	}
	return s
}

// Len returns the number of items across all layers.
func (s Snapshot) Len() int {
	n := 0
	for _, items := range s.ContextStorage {
		n += len(items)
	}
	return n
}
