package errstats

import (
	"log/slog"

	"github.com/dysgair/capteval/internal/align"
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

const (
	DefaultTopN = 15
	DefaultBand = 1.0
)

// Bucket names used in category breakdowns.
const (
	BucketVowels     = "vowels"
	BucketConsonants = "consonants"
	BucketClusters   = "clusters"
	BucketOverall    = "overall"
)

// Buckets lists breakdown buckets in report order.
var Buckets = []string{BucketVowels, BucketConsonants, BucketClusters, BucketOverall}

var bucketOf = map[textproc.Category]string{
	textproc.CategoryVowel:     BucketVowels,
	textproc.CategoryConsonant: BucketConsonants,
	textproc.CategoryCluster:   BucketClusters,
}

// CategoryStats summarizes errors for one linguistic category.
type CategoryStats struct {
	Total     int              `json:"total_characters" yaml:"total_characters"`
	Errors    int              `json:"error_count" yaml:"error_count"`
	ErrorRate float64          `json:"error_rate" yaml:"error_rate"`
	Confusion []ConfusionEntry `json:"confusion_matrix" yaml:"confusion_matrix"`
}

// Breakdown is the per-category analysis of one source. The overall bucket
// counts every op, so its totals overlap the category buckets.
type Breakdown struct {
	Categories map[string]CategoryStats `json:"categories" yaml:"categories"`
	Processed  int                      `json:"processed" yaml:"processed"`
	Skipped    int                      `json:"skipped" yaml:"skipped"`
}

// CategoryComparison compares both systems on one bucket.
type CategoryComparison struct {
	Difference float64 `json:"difference" yaml:"difference"`
	Winner     string  `json:"winner" yaml:"winner"`
}

// ModeBreakdown holds both systems' breakdowns for one mode.
type ModeBreakdown struct {
	A          Breakdown                     `json:"a" yaml:"a"`
	B          Breakdown                     `json:"b" yaml:"b"`
	Comparison map[string]CategoryComparison `json:"comparison" yaml:"comparison"`
}

// Improvement is the drop in error rate from raw to lenient scoring.
type Improvement struct {
	Absolute float64 `json:"absolute_improvement" yaml:"absolute_improvement"`
	Relative float64 `json:"relative_improvement" yaml:"relative_improvement"`
}

// Patterns is the linguistic pattern analysis over both systems and modes.
type Patterns struct {
	Raw         ModeBreakdown                     `json:"raw" yaml:"raw"`
	Lenient     ModeBreakdown                     `json:"lenient" yaml:"lenient"`
	Improvement map[string]map[string]Improvement `json:"improvement" yaml:"improvement"`
}

// CharacterAnalysis holds the unfiltered aggregate for each system.
type CharacterAnalysis struct {
	A Result `json:"a" yaml:"a"`
	B Result `json:"b" yaml:"b"`
}

// Analyzer runs sample-level linguistic analyses.
type Analyzer struct {
	agg    *Aggregator
	tok    *textproc.Tokenizer
	names  model.Names
	topN   int
	band   float64
	logger *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithTopN limits confusion lists per category.
func WithTopN(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithBand sets the comparable band in percentage points.
func WithBand(band float64) AnalyzerOption {
	return func(a *Analyzer) {
		if band >= 0 {
			a.band = band
		}
	}
}

// WithNames sets the system display names used for winners.
func WithNames(n model.Names) AnalyzerOption {
	return func(a *Analyzer) { a.names = n }
}

// WithLogger sets the logger for processed/skipped counts.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer returns an Analyzer using tok for tokenization.
func NewAnalyzer(tok *textproc.Tokenizer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		agg:    NewAggregator(tok),
		tok:    tok,
		names:  model.DefaultNames,
		topN:   DefaultTopN,
		band:   DefaultBand,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregator returns the underlying op aggregator.
func (a *Analyzer) Aggregator() *Aggregator {
	return a.agg
}

// CategoryBreakdown aligns each sample of src against its reference and
// tallies errors by the category of the expected token. Raw sources compare
// the unnormalized texts; lenient sources compare the normalized reference to
// the stored lenient hypothesis. Samples with an empty side are skipped.
func (a *Analyzer) CategoryBreakdown(samples []model.Sample, src model.Source) Breakdown {
	type tally struct {
		total, errors int
		confusion     *confusionTally
	}
	tallies := map[string]*tally{}
	for _, b := range Buckets {
		tallies[b] = &tally{confusion: newConfusion()}
	}
	bd := Breakdown{Categories: map[string]CategoryStats{}}
	for _, s := range samples {
		ref := s.Text
		hyp := s.Variant(src).Hypothesis
		if ref == "" || hyp == "" {
			bd.Skipped++
			continue
		}
		if src.Mode == model.ModeLenient {
			ref = textproc.Normalize(ref)
		}
		bd.Processed++
		ops := align.Align(a.tok.Tokenize(ref), a.tok.Tokenize(hyp))
		for _, op := range ops {
			buckets := []string{BucketOverall}
			if name, ok := bucketOf[a.tok.Classify(op.Expected)]; ok {
				buckets = append(buckets, name)
			}
			for _, name := range buckets {
				t := tallies[name]
				t.total++
				if op.IsError() {
					t.errors++
					t.confusion.add(textproc.Display(op.Expected), textproc.Display(op.Actual))
				}
			}
		}
	}
	for name, t := range tallies {
		bd.Categories[name] = CategoryStats{
			Total:     t.total,
			Errors:    t.errors,
			ErrorRate: metrics.Round2(metrics.Percent(t.errors, t.total)),
			Confusion: t.confusion.sorted(a.topN),
		}
	}
	a.logger.Debug("category breakdown",
		"source", src.Key(),
		"processed", bd.Processed,
		"skipped", bd.Skipped,
		"total_units", bd.Categories[BucketOverall].Total,
		"error_units", bd.Categories[BucketOverall].Errors,
	)
	return bd
}

// LinguisticPatterns runs CategoryBreakdown for both systems in both modes,
// compares the systems per bucket, and measures raw-to-lenient improvement.
func (a *Analyzer) LinguisticPatterns(samples []model.Sample) Patterns {
	p := Patterns{Improvement: map[string]map[string]Improvement{}}
	for _, mode := range model.Modes {
		mb := ModeBreakdown{
			A:          a.CategoryBreakdown(samples, model.Source{System: model.SystemA, Mode: mode}),
			B:          a.CategoryBreakdown(samples, model.Source{System: model.SystemB, Mode: mode}),
			Comparison: map[string]CategoryComparison{},
		}
		for _, bucket := range Buckets {
			ra := mb.A.Categories[bucket].ErrorRate
			rb := mb.B.Categories[bucket].ErrorRate
			diff := ra - rb
			if diff < 0 {
				diff = -diff
			}
			mb.Comparison[bucket] = CategoryComparison{
				Difference: metrics.Round2(diff),
				Winner:     a.names.Winner(ra, rb, a.band),
			}
		}
		if mode == model.ModeLenient {
			p.Lenient = mb
		} else {
			p.Raw = mb
		}
	}
	for _, sys := range model.Systems {
		raw, lenient := p.Raw.A, p.Lenient.A
		if sys == model.SystemB {
			raw, lenient = p.Raw.B, p.Lenient.B
		}
		imp := map[string]Improvement{}
		for _, bucket := range Buckets {
			r := raw.Categories[bucket].ErrorRate
			l := lenient.Categories[bucket].ErrorRate
			imp[bucket] = RateImprovement(r, l)
		}
		p.Improvement[sys.Key()] = imp
	}
	return p
}

// RateImprovement returns the absolute and relative drop from before to after.
func RateImprovement(before, after float64) Improvement {
	abs := before - after
	rel := 0.0
	if before > 0 {
		rel = metrics.SafeDivide(abs, before, 0) * 100
	}
	return Improvement{Absolute: metrics.Round2(abs), Relative: metrics.Round2(rel)}
}

// CharacterErrors aggregates every alignment op of the system's raw output
// against the normalized target, after lenient matching.
func (a *Analyzer) CharacterErrors(samples []model.Sample, sys model.System) Result {
	var ops []align.Op
	skipped := 0
	for _, s := range samples {
		ref, hyp := textproc.LenientMatch(
			textproc.Normalize(s.Text),
			textproc.Normalize(s.Output(sys).Raw.Hypothesis),
		)
		if ref == "" || hyp == "" {
			skipped++
			continue
		}
		ops = append(ops, align.Align(a.tok.Tokenize(ref), a.tok.Tokenize(hyp))...)
	}
	a.logger.Debug("character errors", "system", sys.Key(), "ops", len(ops), "skipped", skipped)
	return a.agg.Aggregate(ops, "")
}

// CharacterAnalysis runs CharacterErrors for both systems.
func (a *Analyzer) CharacterAnalysis(samples []model.Sample) CharacterAnalysis {
	return CharacterAnalysis{
		A: a.CharacterErrors(samples, model.SystemA),
		B: a.CharacterErrors(samples, model.SystemB),
	}
}
