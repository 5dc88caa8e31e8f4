// Package store provides the layered, budget-bounded context store.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/rcliao/ctxmem/internal/classify"
	"github.com/rcliao/ctxmem/internal/compress"
	"github.com/rcliao/ctxmem/internal/graph"
	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/optimizer"
	"github.com/rcliao/ctxmem/internal/prompt"
	"github.com/rcliao/ctxmem/internal/token"
)

// ErrNotFound is returned by operations that require an existing item.
var ErrNotFound = errors.New("context item not found")

const (
	idLen        = 12
	idPrefixRune = 100
)

// Compressor shrinks item content in place of the default heuristic reducer.
type Compressor interface {
	Compress(text string, target float64) (compress.Result, error)
}

// Config tunes a Store. Zero values select the defaults.
type Config struct {
	// BudgetBytes is the retention budget used by OptimizeMemoryUsage.
	BudgetBytes int64
	// WatchdogBytes is the total size above which Add triggers optimization.
	WatchdogBytes int64

	Classifier *classify.Classifier
	Compressor Compressor
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// AddParams holds parameters for adding a context item.
type AddParams struct {
	Content     string
	ContextType string
	Priority    model.Priority // 0 means medium
	Layer       model.Layer
	Tags        []string
	Related     []string // existing ids to link the new item to
}

type entry struct {
	item model.ContextItem
	seq  uint64
}

// Store is the in-memory context store. All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	layers     [model.NumLayers]map[string]*entry
	index      map[string]model.Layer
	graph      *graph.Graph
	seq        uint64
	totalBytes int64
	version    uint64

	budget     int64
	watchdog   int64
	classifier *classify.Classifier
	compressor Compressor
	assembler  *prompt.Assembler
	now        func() time.Time
	logger     *slog.Logger
}

// New creates an empty store.
func New(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		index:      map[string]model.Layer{},
		graph:      graph.New(),
		budget:     cfg.BudgetBytes,
		watchdog:   cfg.WatchdogBytes,
		classifier: cfg.Classifier,
		compressor: cfg.Compressor,
		now:        cfg.Now,
		logger:     logger.With("component", "store"),
	}
	if s.budget <= 0 {
		s.budget = optimizer.DefaultBudgetBytes
	}
	if s.watchdog <= 0 {
		s.watchdog = optimizer.DefaultWatchdogBytes
	}
	if s.classifier == nil {
		s.classifier = classify.New()
	}
	if s.compressor == nil {
		s.compressor = compress.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.assembler = prompt.New(nil, s.compressor)
	s.reset()
	return s
}

func (s *Store) reset() {
	for i := range s.layers {
		s.layers[i] = map[string]*entry{}
	}
	s.index = map[string]model.Layer{}
	s.graph = graph.New()
	s.totalBytes = 0
}

// Add classifies content, stores it in the requested layer and returns its id.
// When the add pushes the store past the watchdog ceiling, the optimization it
// triggers may evict the new item itself; the id is still returned and later
// lookups report it as absent.
func (s *Store) Add(p AddParams) (string, error) {
	if strings.TrimSpace(p.Content) == "" {
		return "", fmt.Errorf("content is required")
	}
	if p.Priority == 0 {
		p.Priority = model.PriorityMedium
	}
	if !p.Priority.Valid() {
		return "", fmt.Errorf("invalid priority %d", int(p.Priority))
	}
	if !p.Layer.Valid() {
		return "", fmt.Errorf("invalid layer %d", int(p.Layer))
	}

	now := s.now()
	item := model.NewContextItem(p.Content, p.ContextType, p.Priority, p.Layer, p.Tags, now)
	analysis := s.classifier.Analyze(p.Content, now)
	if analysis.PriorityDelta > 0 {
		item = item.WithPriority(model.ClampPriority(int(item.Priority) - analysis.PriorityDelta))
	}
	item = item.WithTags(analysis.Tags...)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID(p.Content, now)
	s.insert(id, item)
	for _, rid := range p.Related {
		if _, ok := s.index[rid]; ok {
			s.link(id, rid)
		}
	}
	s.version++

	if s.totalBytes > s.watchdog {
		s.logger.Info("store over watchdog ceiling, optimizing",
			"total_bytes", s.totalBytes, "watchdog_bytes", s.watchdog)
		s.optimize()
	}
	return id, nil
}

// Get returns a copy of the item and records the access. A missing id is not
// an error: the item may have been evicted.
func (s *Store) Get(id string) (model.ContextItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(id)
	if !ok {
		return model.ContextItem{}, false
	}
	e.item = e.item.Touched(s.now())
	s.version++
	return e.item.Clone(), true
}

// Peek returns a copy of the item without access bookkeeping.
func (s *Store) Peek(id string) (model.ContextItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(id)
	if !ok {
		return model.ContextItem{}, false
	}
	return e.item.Clone(), true
}

// Items returns every item in insertion order.
func (s *Store) Items() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries()
}

// Remove deletes an item and its relationships. It reports whether the id existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}
	s.remove(id)
	s.version++
	return true
}

// Move migrates an item to another layer by deleting and reinserting it.
func (s *Store) Move(id string, layer model.Layer) error {
	if !layer.Valid() {
		return fmt.Errorf("invalid layer %d", int(layer))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.index[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	if from == layer {
		return nil
	}
	e := s.layers[from][id]
	delete(s.layers[from], id)
	s.seq++
	s.layers[layer][id] = &entry{item: e.item.WithLayer(layer), seq: s.seq}
	s.index[id] = layer
	s.version++
	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// TotalBytes returns the summed size of every item.
func (s *Store) TotalBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalBytes
}

// Version changes on every mutation; callers use it to skip redundant saves.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Insights exposes the classifier's pattern counters.
func (s *Store) Insights() classify.Insights {
	return s.classifier.Insights()
}

// newID hashes the content prefix and creation time. A live collision
// re-salts the hash so an id is never shared.
func (s *Store) newID(content string, at time.Time) string {
	prefix := token.Truncate(content, idPrefixRune)
	stamp := strconv.FormatInt(at.UnixNano(), 10)
	for salt := 0; ; salt++ {
		d := xxhash.New()
		d.WriteString(prefix)
		d.WriteString(stamp)
		if salt > 0 {
			d.WriteString("#" + strconv.Itoa(salt))
		}
		id := fmt.Sprintf("%016x", d.Sum64())[:idLen]
		if _, taken := s.index[id]; !taken {
			return id
		}
	}
}

func (s *Store) insert(id string, item model.ContextItem) {
	s.seq++
	s.layers[item.Layer][id] = &entry{item: item, seq: s.seq}
	s.index[id] = item.Layer
	s.totalBytes += int64(item.SizeBytes)
}

func (s *Store) lookup(id string) (*entry, bool) {
	layer, ok := s.index[id]
	if !ok {
		return nil, false
	}
	e, ok := s.layers[layer][id]
	return e, ok
}

func (s *Store) remove(id string) {
	layer := s.index[id]
	if e, ok := s.layers[layer][id]; ok {
		s.totalBytes -= int64(e.item.SizeBytes)
	}
	delete(s.layers[layer], id)
	delete(s.index, id)
	for _, n := range s.graph.Remove(id) {
		s.refreshRelationships(n)
	}
}

// entries returns copies of every item ordered by insertion.
func (s *Store) entries() []model.Entry {
	type seqEntry struct {
		model.Entry
		seq uint64
	}
	all := make([]seqEntry, 0, len(s.index))
	for _, layer := range s.layers {
		for id, e := range layer {
			all = append(all, seqEntry{Entry: model.Entry{ID: id, Item: e.item.Clone()}, seq: e.seq})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	out := make([]model.Entry, len(all))
	for i, e := range all {
		out[i] = e.Entry
	}
	return out
}
