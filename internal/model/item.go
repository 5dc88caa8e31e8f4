// Package model defines the core context memory data types.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority ranks how important a context item is. Lower values matter more.
type Priority int

const (
	PriorityCritical Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityArchive
)

var priorityNames = [...]string{
	PriorityCritical: "critical",
	PriorityHigh:     "high",
	PriorityMedium:   "medium",
	PriorityLow:      "low",
	PriorityArchive:  "archive",
}

// Valid reports whether p is one of the five defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityArchive
}

func (p Priority) String() string {
	if !p.Valid() {
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
	return priorityNames[p]
}

// ClampPriority maps any integer onto the nearest valid priority.
func ClampPriority(v int) Priority {
	switch {
	case v < int(PriorityCritical):
		return PriorityCritical
	case v > int(PriorityArchive):
		return PriorityArchive
	default:
		return Priority(v)
	}
}

// ParsePriority accepts a level name ("high") or its number ("2").
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, fmt.Errorf("invalid priority %d (valid: 1-5)", n)
		}
		return p, nil
	}
	if s == "normal" {
		return PriorityMedium, nil
	}
	for p := PriorityCritical; p <= PriorityArchive; p++ {
		if priorityNames[p] == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid priority %q (valid: critical, high, medium, low, archive)", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(priorityNames[p]), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Layer partitions the store by retention intent.
type Layer int

const (
	LayerImmediate Layer = iota
	LayerSession
	LayerLongTerm
	LayerCompressed
)

// NumLayers is the number of defined layers.
const NumLayers = 4

// Layers lists every layer in storage order.
var Layers = [NumLayers]Layer{LayerImmediate, LayerSession, LayerLongTerm, LayerCompressed}

var layerNames = [NumLayers]string{"immediate", "session", "long_term", "compressed"}

func (l Layer) Valid() bool {
	return l >= LayerImmediate && l <= LayerCompressed
}

func (l Layer) String() string {
	if !l.Valid() {
		return "layer(" + strconv.Itoa(int(l)) + ")"
	}
	return layerNames[l]
}

// ParseLayer accepts a layer name; "long-term" and "longterm" are aliases.
func ParseLayer(s string) (Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "long-term", "longterm":
		s = "long_term"
	}
	for _, l := range Layers {
		if layerNames[l] == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("invalid layer %q (valid: immediate, session, long_term, compressed)", s)
}

func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid layer %d", int(l))
	}
	return []byte(layerNames[l]), nil
}

func (l *Layer) UnmarshalText(b []byte) error {
	v, err := ParseLayer(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ContextItem is a retained fragment of interaction history.
// Values are treated as immutable; the With* methods return modified copies.
type ContextItem struct {
	Content          string    `json:"content"`
	Priority         Priority  `json:"priority"`
	Layer            Layer     `json:"layer"`
	CreatedAt        time.Time `json:"created_at"`
	LastAccessed     time.Time `json:"last_accessed"`
	AccessCount      int       `json:"access_count"`
	SizeBytes        int       `json:"size_bytes"`
	ContextType      string    `json:"context_type"`
	Tags             []string  `json:"tags"`
	Relationships    []string  `json:"relationships"`
	CompressionRatio float64   `json:"compression_ratio"`
}

// NewContextItem builds an uncompressed item created at now.
func NewContextItem(content, contextType string, p Priority, l Layer, tags []string, now time.Time) ContextItem {
	if contextType == "" {
		contextType = "general"
	}
	return ContextItem{
		Content:          content,
		Priority:         p,
		Layer:            l,
		CreatedAt:        now,
		LastAccessed:     now,
		SizeBytes:        len(content),
		ContextType:      contextType,
		Tags:             mergeTags(nil, tags),
		Relationships:    []string{},
		CompressionRatio: 1.0,
	}
}

// Clone returns a copy that shares no slices with c.
func (c ContextItem) Clone() ContextItem {
	c.Tags = append(make([]string, 0, len(c.Tags)), c.Tags...)
	c.Relationships = append(make([]string, 0, len(c.Relationships)), c.Relationships...)
	return c
}

// WithCompressedContent replaces the content and records the achieved ratio.
func (c ContextItem) WithCompressedContent(content string, ratio float64) ContextItem {
	c = c.Clone()
	c.Content = content
	c.SizeBytes = len(content)
	c.CompressionRatio = ratio
	return c
}

// Touched records one access at now.
func (c ContextItem) Touched(now time.Time) ContextItem {
	c = c.Clone()
	c.AccessCount++
	c.LastAccessed = now
	return c
}

func (c ContextItem) WithPriority(p Priority) ContextItem {
	c = c.Clone()
	c.Priority = p
	return c
}

func (c ContextItem) WithLayer(l Layer) ContextItem {
	c = c.Clone()
	c.Layer = l
	return c
}

// WithTags merges tags into the item's tag set.
func (c ContextItem) WithTags(tags ...string) ContextItem {
	c = c.Clone()
	c.Tags = mergeTags(c.Tags, tags)
	return c
}

// WithRelationships replaces the mirrored relationship ids.
func (c ContextItem) WithRelationships(ids []string) ContextItem {
	c = c.Clone()
	c.Relationships = append([]string{}, ids...)
	return c
}

// HasTag reports whether the item carries tag, ignoring case.
func (c ContextItem) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func mergeTags(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Entry pairs an item with its identifier.
type Entry struct {
	ID   string      `json:"id"`
	Item ContextItem `json:"item"`
}
