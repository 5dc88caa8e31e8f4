package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ctxmem/internal/model"
)

func TestSearchRanksBySimilarity(t *testing.T) {
	s := newTestStore(t)

	exact := mustAdd(t, s, AddParams{Content: "fix the parser bug"})
	partial := mustAdd(t, s, AddParams{Content: "parser refactor plan"})
	mustAdd(t, s, AddParams{Content: "unrelated grocery list"})

	results := s.Search("Parser Bug", 10)
	require.Len(t, results, 2)
	assert.Equal(t, exact, results[0].ID)
	assert.Equal(t, partial, results[1].ID)
	assert.InDelta(t, 0.8, results[0].Similarity, 0.01, "substring plus full overlap")
	assert.InDelta(t, 0.15, results[1].Similarity, 0.01, "half overlap")
}

func TestSearchMatchesTags(t *testing.T) {
	s := newTestStore(t)

	id := mustAdd(t, s, AddParams{Content: "ship it on friday", Tags: []string{"Deploy"}})

	results := s.Search("deploy", 10)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.InDelta(t, 0.2, results[0].Similarity, 0.01, "tag-only match")
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for _, c := range []string{"alpha one", "alpha two", "alpha three"} {
		ids = append(ids, mustAdd(t, s, AddParams{Content: c, Layer: model.LayerSession}))
	}
	results := s.Search("alpha", 2)
	require.Len(t, results, 2)
	assert.Equal(t, ids[0], results[0].ID)
	assert.Equal(t, ids[1], results[1].ID)
}

func TestSearchBlankQuery(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, AddParams{Content: "anything"})

	assert.Empty(t, s.Search("  ", 10))
}

func TestSearchDoesNotCountAccess(t *testing.T) {
	s := newTestStore(t)
	id := mustAdd(t, s, AddParams{Content: "quiet read"})

	s.Search("quiet", 10)
	got, _ := s.Peek(id)
	assert.Equal(t, 0, got.AccessCount)
}
