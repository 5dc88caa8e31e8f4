// Package prompt assembles token-budgeted prompts from context items or chat
// turns.
//
// Two modes are provided and intentionally differ in how they react to a
// candidate that does not fit: Ranked skips it and keeps trying lower-ranked
// candidates, Chronological stops so the transcript never has holes.
package prompt

import (
	"strings"

	"github.com/rcliao/ctxmem/internal/compress"
	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/token"
)

// Mode names an assembly policy.
type Mode string

const (
	ModeRanked        Mode = "ranked"
	ModeChronological Mode = "chronological"
)

const (
	// TruncatedTurnRunes is the hard cut applied to a chat turn that does not fit.
	TruncatedTurnRunes = 400

	compressedSuffix = ":compressed"
	truncatedSuffix  = ":trunc"
)

// Params bounds a prompt. The usable budget is MaxTokens minus ReservedReplyTokens.
type Params struct {
	MaxTokens           int    `json:"max_tokens"`
	ReservedReplyTokens int    `json:"reserved_reply_tokens"`
	SystemHeader        string `json:"system_header,omitempty"`
}

// Result is an assembled prompt.
type Result struct {
	Mode        Mode     `json:"mode"`
	PromptText  string   `json:"prompt_text"`
	IncludedIDs []string `json:"included_ids"`
	TokenCount  int      `json:"token_count"`
	Truncated   bool     `json:"truncated"`
}

// Candidate is one context item offered to Ranked, already in rank order.
type Candidate struct {
	ID      string
	Content string
}

// Turn is one chat message offered to Chronological, oldest first.
type Turn struct {
	ID      string
	Role    model.Role
	Content string
}

// Summarizer shrinks text that does not fit as-is.
type Summarizer interface {
	Compress(text string, target float64) (compress.Result, error)
}

// Assembler builds prompts with a token estimator and a fallback summarizer.
type Assembler struct {
	estimate   token.Estimator
	summarizer Summarizer
}

// New creates an assembler. Nil arguments fall back to token.Estimate and the
// default compressor.
func New(estimate token.Estimator, summarizer Summarizer) *Assembler {
	if estimate == nil {
		estimate = token.Estimate
	}
	if summarizer == nil {
		summarizer = compress.New()
	}
	return &Assembler{estimate: estimate, summarizer: summarizer}
}

type builder struct {
	parts     []string
	ids       []string
	used      int
	remaining int
}

func (a *Assembler) begin(p Params) *builder {
	b := &builder{ids: []string{}}
	budget := max(0, p.MaxTokens-p.ReservedReplyTokens)
	if header := strings.TrimSpace(p.SystemHeader); header != "" {
		t := a.estimate(header)
		b.parts = append(b.parts, header)
		b.used = t
		budget -= t
	}
	b.remaining = max(0, budget)
	return b
}

func (b *builder) include(id, text string, tokens int) {
	b.parts = append(b.parts, text)
	b.ids = append(b.ids, id)
	b.used += tokens
	b.remaining -= tokens
}

// Ranked includes candidates in order, falling back to a compressed summary
// for any that do not fit and skipping those that still do not fit.
func (a *Assembler) Ranked(p Params, candidates []Candidate) Result {
	b := a.begin(p)
	included := 0
	for _, c := range candidates {
		if b.remaining <= 0 {
			break
		}
		content := strings.TrimSpace(c.Content)
		tokens := a.estimate(content)
		if tokens <= b.remaining {
			b.include(c.ID, content, tokens)
			included++
			continue
		}
		res, err := a.summarizer.Compress(content, compress.SummaryRatio)
		if err != nil {
			continue
		}
		if st := a.estimate(res.Text); st <= b.remaining && st < tokens {
			b.include(c.ID+compressedSuffix, res.Text, st)
			included++
		}
	}
	return Result{
		Mode:        ModeRanked,
		PromptText:  strings.Join(b.parts, "\n\n"),
		IncludedIDs: b.ids,
		TokenCount:  b.used,
		Truncated:   included < len(candidates),
	}
}

// Chronological includes the most recent recentLimit turns oldest first and
// stops at the first turn that fits neither whole nor hard-truncated.
// A recentLimit of zero or less uses every turn.
func (a *Assembler) Chronological(p Params, turns []Turn, recentLimit int) Result {
	if recentLimit > 0 && len(turns) > recentLimit {
		turns = turns[len(turns)-recentLimit:]
	}
	b := a.begin(p)
	included := 0
	for _, turn := range turns {
		text := turn.Role.Label() + ": " + strings.TrimSpace(turn.Content)
		tokens := a.estimate(text)
		if tokens <= b.remaining {
			b.include(turn.ID, text, tokens)
			included++
			continue
		}
		short := token.Truncate(text, TruncatedTurnRunes)
		if st := a.estimate(short); st <= b.remaining && st < tokens {
			b.include(turn.ID+truncatedSuffix, short, st)
			included++
			continue
		}
		break
	}
	return Result{
		Mode:        ModeChronological,
		PromptText:  strings.Join(b.parts, "\n"),
		IncludedIDs: b.ids,
		TokenCount:  b.used,
		Truncated:   included < len(turns),
	}
}
