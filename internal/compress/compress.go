// Package compress implements a lossy heuristic text reducer.
//
// Compression is one-way: Decompress returns its input unchanged and callers
// must not expect to recover the original text.
package compress

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/ctxmem/internal/token"
)

// ErrEmptyResult is returned when the rules reduced non-empty text to nothing.
var ErrEmptyResult = errors.New("compression produced empty output")

const (
	// DefaultRatio is the target used by general optimization passes.
	DefaultRatio = 0.7
	// SummaryRatio is the target used when summarizing for a prompt.
	SummaryRatio = 0.3

	minSummarizedBlockLines = 10
	maxLineLen              = 100
	maxKeyLines             = 50

	elision = "..."
)

var (
	blankRunPattern   = regexp.MustCompile(`\n\s*\n\s*\n`)
	hspacePattern     = regexp.MustCompile(`[ \t]+`)
	codeBlockPattern  = regexp.MustCompile("(?s)```.*?```")
	structuralKeyword = []string{"def ", "class ", "import ", "from ", "return ", "if ", "for ", "while "}
	keyLineKeywords   = []string{
		"error", "warning", "failed", "success", "completed",
		"def ", "class ", "import ", "from ", "return ",
		"todo", "fixme", "bug", "note", "important",
	}
)

// Rule is one reduction step.
type Rule struct {
	Name  string
	Apply func(text string) string
}

// DefaultRules returns the reduction steps in the order they are tried.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "whitespace", Apply: CollapseWhitespace},
		{Name: "code_blocks", Apply: SummarizeCodeBlocks},
		{Name: "key_lines", Apply: ExtractKeyLines},
	}
}

// Result is compressed text plus the achieved byte ratio.
type Result struct {
	Text  string  `json:"text"`
	Ratio float64 `json:"ratio"`
}

// Compressor applies rules in order until the target ratio is reached.
type Compressor struct {
	rules []Rule
}

// New creates a compressor. With no rules it uses DefaultRules.
func New(rules ...Rule) *Compressor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Compressor{rules: rules}
}

// Compress reduces text toward target (compressed/original bytes). The target
// is a best-effort ceiling; the returned ratio may stay above it.
func (c *Compressor) Compress(text string, target float64) (Result, error) {
	if text == "" {
		return Result{Ratio: 1}, nil
	}
	orig := float64(len(text))
	out := text
	ratio := 1.0
	for _, r := range c.rules {
		out = r.Apply(out)
		ratio = float64(len(out)) / orig
		if ratio <= target {
			break
		}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Text: text, Ratio: 1}, fmt.Errorf("%w (%d bytes in)", ErrEmptyResult, len(text))
	}
	return Result{Text: out, Ratio: ratio}, nil
}

// Decompress is the identity function.
func Decompress(text string) string {
	return text
}

// CollapseWhitespace folds runs of blank lines into one blank line and runs
// of spaces or tabs into a single space.
func CollapseWhitespace(text string) string {
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return hspacePattern.ReplaceAllString(text, " ")
}

// SummarizeCodeBlocks replaces fenced blocks longer than ten lines with their
// structural lines and a line-count marker.
func SummarizeCodeBlocks(text string) string {
	return codeBlockPattern.ReplaceAllStringFunc(text, func(block string) string {
		lines := strings.Split(block, "\n")
		if len(lines) <= minSummarizedBlockLines {
			return block
		}
		lang := strings.TrimSpace(strings.ReplaceAll(lines[0], "```", ""))

		var keep []string
		for _, line := range lines[1 : len(lines)-1] {
			if containsAny(strings.ToLower(line), structuralKeyword) {
				keep = append(keep, strings.TrimSpace(line))
			}
		}
		if len(keep) > 5 {
			keep = append(append(keep[:3:3], "..."), keep[len(keep)-2:]...)
		}
		return fmt.Sprintf("```%s\n%s\n# ... (%d total lines)\n```", lang, strings.Join(keep, "\n"), len(lines)-2)
	})
}

// ExtractKeyLines keeps lines carrying a keyword plus long lines (truncated),
// eliding the middle when more than fifty survive. Elision markers and lines it
// already truncated are kept, so a second pass returns its input unchanged.
func ExtractKeyLines(text string) string {
	var keep []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case containsAny(strings.ToLower(line), keyLineKeywords):
			keep = append(keep, line)
		case line == elision:
			keep = append(keep, line)
		case utf8.RuneCountInString(line) > maxLineLen:
			keep = append(keep, token.Truncate(line, maxLineLen-len(elision))+elision)
		case utf8.RuneCountInString(line) == maxLineLen && strings.HasSuffix(line, elision):
			keep = append(keep, line)
		}
	}
	if len(keep) > maxKeyLines {
		half := maxKeyLines / 2
		keep = append(append(keep[:half:half], elision), keep[len(keep)-half:]...)
	}
	return strings.Join(keep, "\n")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
