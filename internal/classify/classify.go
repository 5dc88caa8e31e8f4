// Package classify scans context content for lexical signals (file
// operations, error words, code markers) and derives tags and a priority
// boost from them.
package classify

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	fileOpPrefix = "file_operation_"
	errorPrefix  = "error_"

	// CodeTag is added when content looks like source code.
	CodeTag = "code"
)

var (
	FileOperations  = []string{"create", "edit", "delete", "move", "copy", "read", "write"}
	ErrorIndicators = []string{"error", "failed", "exception", "traceback", "bug"}
	CodeIndicators  = []string{"def ", "class ", "import ", "function", "method"}
)

// Analysis is the outcome of running every rule over one piece of content.
type Analysis struct {
	Tags          []string
	PriorityDelta int
}

func (a *Analysis) addTag(tag string) {
	for _, t := range a.Tags {
		if t == tag {
			return
		}
	}
	a.Tags = append(a.Tags, tag)
}

// Rule inspects folded content and records its findings on the analysis.
type Rule struct {
	Name  string
	Apply func(folded string, a *Analysis)
}

// FileOperationRule tags each verb found in the content.
func FileOperationRule(verbs []string) Rule {
	return Rule{Name: "file_operations", Apply: func(folded string, a *Analysis) {
		for _, v := range verbs {
			if strings.Contains(folded, v) {
				a.addTag(fileOpPrefix + v)
			}
		}
	}}
}

// ErrorRule tags each indicator found and raises importance once per indicator.
func ErrorRule(indicators []string) Rule {
	return Rule{Name: "errors", Apply: func(folded string, a *Analysis) {
		for _, ind := range indicators {
			if strings.Contains(folded, ind) {
				a.addTag(errorPrefix + ind)
				a.PriorityDelta++
			}
		}
	}}
}

// CodeRule adds CodeTag on the first indicator found.
func CodeRule(indicators []string) Rule {
	return Rule{Name: "code", Apply: func(folded string, a *Analysis) {
		for _, ind := range indicators {
			if strings.Contains(folded, ind) {
				a.addTag(CodeTag)
				return
			}
		}
	}}
}

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		FileOperationRule(FileOperations),
		ErrorRule(ErrorIndicators),
		CodeRule(CodeIndicators),
	}
}

// Fold lower-cases and NFC-normalizes s for case-insensitive matching.
func Fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// Classifier applies a rule table and keeps running pattern counters.
// It is safe for concurrent use.
type Classifier struct {
	rules []Rule

	mu      sync.Mutex
	fileOps map[string]int
	errors  map[string]int
	hours   map[int]int
}

// New creates a classifier. With no rules it uses DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{
		rules:   rules,
		fileOps: map[string]int{},
		errors:  map[string]int{},
		hours:   map[int]int{},
	}
}

// Analyze runs every rule over content observed at the given time.
func (c *Classifier) Analyze(content string, at time.Time) Analysis {
	folded := Fold(content)
	var a Analysis
	for _, r := range c.rules {
		r.Apply(folded, &a)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range a.Tags {
		switch {
		case strings.HasPrefix(t, fileOpPrefix):
			c.fileOps[strings.TrimPrefix(t, fileOpPrefix)]++
		case strings.HasPrefix(t, errorPrefix):
			c.errors[strings.TrimPrefix(t, errorPrefix)]++
		}
	}
	c.hours[at.Hour()]++
	return a
}

// Count is a named occurrence counter.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HourCount is the number of items observed during an hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Insights summarizes what the classifier has seen so far.
type Insights struct {
	MostCommonOperations []Count     `json:"most_common_operations"`
	PeakActivityHours    []HourCount `json:"peak_activity_hours"`
	CommonErrorTypes     []Count     `json:"common_error_types"`
}

// Insights returns the top 5 operations, top 3 hours and top 5 error types.
func (c *Classifier) Insights() Insights {
	c.mu.Lock()
	defer c.mu.Unlock()

	hours := make([]HourCount, 0, len(c.hours))
	for h, n := range c.hours {
		hours = append(hours, HourCount{Hour: h, Count: n})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Count != hours[j].Count {
			return hours[i].Count > hours[j].Count
		}
		return hours[i].Hour < hours[j].Hour
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}

	return Insights{
		MostCommonOperations: topCounts(c.fileOps, 5),
		PeakActivityHours:    hours,
		CommonErrorTypes:     topCounts(c.errors, 5),
	}
}

func topCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
