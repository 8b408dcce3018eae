// Package errstats aggregates alignment operations into confusion tallies,
// per-unit error rates, and linguistic category breakdowns.
package errstats

import (
	"sort"

	"github.com/dysgair/capteval/internal/align"
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/textproc"
)

// ConfusionEntry counts how often Expected was recognized as Actual.
// Deletions have an empty Actual and insertions an empty Expected.
type ConfusionEntry struct {
	Expected string `json:"expected" yaml:"expected"`
	Actual   string `json:"actual" yaml:"actual"`
	Count    int    `json:"count" yaml:"count"`
}

// UnitStats holds occurrence and error counts for one reference unit.
type UnitStats struct {
	Total     int     `json:"total" yaml:"total"`
	Errors    int     `json:"errors" yaml:"errors"`
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`
}

// Result is the output of Aggregate.
type Result struct {
	Confusion []ConfusionEntry     `json:"confusion_matrix" yaml:"confusion_matrix"`
	PerUnit   map[string]UnitStats `json:"per_character" yaml:"per_character"`
}

// Aggregator tallies alignment operations. It is stateless apart from its
// tokenizer and may be shared between goroutines.
type Aggregator struct {
	tok *textproc.Tokenizer
}

// NewAggregator returns an Aggregator classifying tokens with tok.
func NewAggregator(tok *textproc.Tokenizer) *Aggregator {
	return &Aggregator{tok: tok}
}

// Aggregate builds confusion tallies and per-unit statistics. When filter is
// non-empty only ops whose relevant token belongs to that category are
// counted: insertions are keyed on the actual token, all other ops on the
// expected token.
func (a *Aggregator) Aggregate(ops []align.Op, filter textproc.Category) Result {
	confusion := newConfusion()
	perUnit := map[string]UnitStats{}
	for _, op := range ops {
		if filter != "" && !a.keep(op, filter) {
			continue
		}
		expected := textproc.Display(op.Expected)
		actual := textproc.Display(op.Actual)
		if expected != "" {
			st := perUnit[expected]
			st.Total++
			if op.IsError() {
				st.Errors++
			}
			perUnit[expected] = st
		}
		if op.IsError() {
			confusion.add(expected, actual)
		}
	}
	for unit, st := range perUnit {
		st.ErrorRate = metrics.Round2(metrics.Percent(st.Errors, st.Total))
		perUnit[unit] = st
	}
	return Result{Confusion: confusion.sorted(0), PerUnit: perUnit}
}

func (a *Aggregator) keep(op align.Op, filter textproc.Category) bool {
	token := op.Expected
	if op.Kind == align.Insertion {
		token = op.Actual
	}
	if token == "" {
		return false
	}
	return a.tok.Classify(token) == filter
}

type confusionKey struct {
	expected string
	actual   string
}

// confusionTally counts pairs while remembering first-seen order so that
// sorting is stable on ties.
type confusionTally struct {
	counts map[confusionKey]int
	order  []confusionKey
}

func newConfusion() *confusionTally {
	return &confusionTally{counts: map[confusionKey]int{}}
}

func (c *confusionTally) add(expected, actual string) {
	key := confusionKey{expected: expected, actual: actual}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// sorted returns entries by descending count. A positive limit truncates.
func (c *confusionTally) sorted(limit int) []ConfusionEntry {
	out := make([]ConfusionEntry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, ConfusionEntry{Expected: key.expected, Actual: key.actual, Count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
