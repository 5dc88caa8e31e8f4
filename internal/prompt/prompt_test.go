package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/token"
)

func TestRankedHeaderOnlyWhenItemCannotShrink(t *testing.T) {
	a := New(nil, nil)
	item := strings.Repeat("word ", 100) // even its summary is over budget
	res := a.Ranked(Params{MaxTokens: 100, ReservedReplyTokens: 80, SystemHeader: "H"},
		[]Candidate{{ID: "big", Content: item}})

	assert.Equal(t, "H", res.PromptText)
	assert.Empty(t, res.IncludedIDs)
	assert.Equal(t, 1, res.TokenCount)
	assert.True(t, res.Truncated)
}

func TestRankedUsesCompressedSummary(t *testing.T) {
	a := New(nil, nil)
	item := strings.Repeat("filler text\n", 40) + "error: linker exploded"
	require.Len(t, item, 502)
	res := a.Ranked(Params{MaxTokens: 100, ReservedReplyTokens: 80, SystemHeader: "H"},
		[]Candidate{{ID: "big", Content: item}})

	require.Equal(t, []string{"big:compressed"}, res.IncludedIDs)
	assert.Equal(t, "H\n\nerror: linker exploded", res.PromptText)
	assert.False(t, res.Truncated)
	assert.LessOrEqual(t, res.TokenCount, 20)
}

func TestRankedContinuesPastMisses(t *testing.T) {
	a := New(nil, nil)
	cands := []Candidate{
		{ID: "huge", Content: strings.Repeat("zzz\n", 500)},
		{ID: "small", Content: "use go 1.25"},
	}
	res := a.Ranked(Params{MaxTokens: 50}, cands)
	assert.Equal(t, []string{"small"}, res.IncludedIDs)
	assert.True(t, res.Truncated)
}

func TestRankedTokenCountWithinBudget(t *testing.T) {
	a := New(nil, nil)
	var cands []Candidate
	for i := 0; i < 30; i++ {
		cands = append(cands, Candidate{ID: string(rune('a' + i%26)), Content: strings.Repeat("token ", i+1)})
	}
	p := Params{MaxTokens: 120, ReservedReplyTokens: 20, SystemHeader: "You are helpful."}
	res := a.Ranked(p, cands)
	assert.LessOrEqual(t, res.TokenCount, p.MaxTokens-p.ReservedReplyTokens)
	assert.True(t, res.Truncated)
	assert.Equal(t, token.Estimate("You are helpful.")+sumTokens(res), res.TokenCount)
}

func TestRankedAllFit(t *testing.T) {
	res := New(nil, nil).Ranked(Params{MaxTokens: 1000}, []Candidate{{ID: "a", Content: "one"}, {ID: "b", Content: "two"}})
	assert.Equal(t, []string{"a", "b"}, res.IncludedIDs)
	assert.Equal(t, "one\n\ntwo", res.PromptText)
	assert.False(t, res.Truncated)
}

func TestRankedHeaderExceedsBudget(t *testing.T) {
	res := New(nil, nil).Ranked(Params{MaxTokens: 3, SystemHeader: "a rather long system header"},
		[]Candidate{{ID: "a", Content: "x"}})
	assert.Empty(t, res.IncludedIDs)
	assert.True(t, res.Truncated)
}

func TestChronologicalOrderAndFormat(t *testing.T) {
	turns := []Turn{
		{ID: "1", Role: model.RoleUser, Content: " hi "},
		{ID: "2", Role: model.RoleAssistant, Content: "hello"},
		{ID: "3", Role: model.RoleSystem, Content: "note"},
	}
	res := New(nil, nil).Chronological(Params{MaxTokens: 100, SystemHeader: "H"}, turns, 30)
	assert.Equal(t, "H\nUser: hi\nAssistant: hello\nSystem: note", res.PromptText)
	assert.Equal(t, []string{"1", "2", "3"}, res.IncludedIDs)
	assert.False(t, res.Truncated)
}

func TestChronologicalRecentLimit(t *testing.T) {
	turns := []Turn{
		{ID: "1", Role: model.RoleUser, Content: "a"},
		{ID: "2", Role: model.RoleUser, Content: "b"},
		{ID: "3", Role: model.RoleUser, Content: "c"},
	}
	res := New(nil, nil).Chronological(Params{MaxTokens: 100}, turns, 2)
	assert.Equal(t, []string{"2", "3"}, res.IncludedIDs)
}

func TestChronologicalTruncatesThenStops(t *testing.T) {
	turns := []Turn{
		{ID: "1", Role: model.RoleUser, Content: strings.Repeat("a", 2000)},
		{ID: "2", Role: model.RoleAssistant, Content: strings.Repeat("b", 2000)},
		{ID: "3", Role: model.RoleUser, Content: "tiny"},
	}
	res := New(nil, nil).Chronological(Params{MaxTokens: 150}, turns, 0)

	require.Equal(t, []string{"1:trunc"}, res.IncludedIDs)
	assert.Len(t, []rune(res.PromptText), TruncatedTurnRunes)
	assert.Equal(t, 100, res.TokenCount)
	assert.True(t, res.Truncated)
}

func sumTokens(r Result) int {
	n := 0
	parts := strings.Split(r.PromptText, "\n\n")
	for _, p := range parts[1:] {
		n += token.Estimate(p)
	}
	return n
}
