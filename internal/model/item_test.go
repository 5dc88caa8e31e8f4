package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"critical": PriorityCritical,
		" HIGH ":   PriorityHigh,
		"normal":   PriorityMedium,
		"4":        PriorityLow,
		"archive":  PriorityArchive,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"0", "6", "urgent", ""} {
		_, err := ParsePriority(bad)
		assert.Error(t, err, bad)
	}
}

func TestClampPriority(t *testing.T) {
	assert.Equal(t, PriorityCritical, ClampPriority(-3))
	assert.Equal(t, PriorityLow, ClampPriority(4))
	assert.Equal(t, PriorityArchive, ClampPriority(9))
}

func TestParseLayer(t *testing.T) {
	for in, want := range map[string]Layer{
		"immediate":  LayerImmediate,
		"Session":    LayerSession,
		"long-term":  LayerLongTerm,
		"longterm":   LayerLongTerm,
		"long_term":  LayerLongTerm,
		"compressed": LayerCompressed,
	} {
		got, err := ParseLayer(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLayer("attic")
	assert.Error(t, err)
	assert.Equal(t, "layer(9)", Layer(9).String())
}

func TestNewContextItem(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := NewContextItem("héllo", "", PriorityHigh, LayerSession, []string{"a", " a ", "", "b"}, now)

	assert.Equal(t, "general", item.ContextType)
	assert.Equal(t, 6, item.SizeBytes, "size is the UTF-8 byte length")
	assert.Equal(t, []string{"a", "b"}, item.Tags)
	assert.Equal(t, now, item.CreatedAt)
	assert.Equal(t, now, item.LastAccessed)
	assert.Equal(t, 1.0, item.CompressionRatio)
	assert.NotNil(t, item.Relationships)
}

func TestItemConstructorsDoNotAlias(t *testing.T) {
	now := time.Now()
	base := NewContextItem("content", "code", PriorityMedium, LayerImmediate, []string{"x"}, now)

	tagged := base.WithTags("y", "x")
	assert.Equal(t, []string{"x"}, base.Tags)
	assert.Equal(t, []string{"x", "y"}, tagged.Tags)

	touched := base.Touched(now.Add(time.Minute))
	assert.Equal(t, 0, base.AccessCount)
	assert.Equal(t, 1, touched.AccessCount)

	small := base.WithCompressedContent("c", 0.5)
	assert.Equal(t, 1, small.SizeBytes)
	assert.Equal(t, "content", base.Content)

	assert.True(t, tagged.HasTag("Y"))
}

func TestSnapshotJSONUsesNames(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := NewSnapshot(now)
	snap.ContextStorage[LayerLongTerm]["abc"] = NewContextItem("kept", "task", PriorityLow, LayerLongTerm, nil, now)
	snap.Relationships["abc"] = []string{"def"}

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"long_term":{"abc":`)
	assert.Contains(t, string(b), `"priority":"low"`)
	assert.Contains(t, string(b), `"layer":"long_term"`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 1, back.Len())
	assert.Equal(t, PriorityLow, back.ContextStorage[LayerLongTerm]["abc"].Priority)
	assert.Equal(t, []string{"def"}, back.Relationships["abc"])
}

func TestRoleLabel(t *testing.T) {
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("bot").Valid())
	assert.Equal(t, "User", RoleUser.Label())
	assert.Equal(t, "System", RoleSystem.Label())
}
