package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dysgair/capteval/internal/compare"
	"github.com/dysgair/capteval/internal/errstats"
	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
	"github.com/dysgair/capteval/internal/wordstats"
)

// Section names accepted by Options.Sections.
const (
	SectionSummary           = "summary"
	SectionDesign            = "design"
	SectionRecommendations   = "recommendations"
	SectionComparison        = "comparison"
	SectionHybrid            = "hybrid"
	SectionImplications      = "implications"
	SectionAgreement         = "agreement"
	SectionAttribution       = "attribution"
	SectionCost              = "cost"
	SectionReliability       = "reliability"
	SectionLinguistic        = "linguistic"
	SectionCharacters        = "characters"
	SectionWords             = "words"
	SectionLength            = "length"
	SectionOverTranscription = "overtranscription"
	SectionExamples          = "examples"
	SectionCurve             = "curve"
)

// Sections lists every section in report order.
var Sections = []string{
	SectionSummary,
	SectionDesign,
	SectionRecommendations,
	SectionComparison,
	SectionHybrid,
	SectionImplications,
	SectionAgreement,
	SectionAttribution,
	SectionCost,
	SectionReliability,
	SectionLinguistic,
	SectionCharacters,
	SectionWords,
	SectionLength,
	SectionOverTranscription,
	SectionExamples,
	SectionCurve,
}

// DefaultCurveWindow is the moving-average window of learning curves.
const DefaultCurveWindow = 20

// Options configures Build. Zero values select defaults. Threshold is a
// pointer because 0 is a meaningful over-transcription gap; nil or a
// negative value selects the default.
type Options struct {
	Name        string
	Names       model.Names
	Profile     *textproc.Profile
	Band        float64
	TopN        int
	Threshold   *float64
	CurveWindow int
	Sections    []string
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Names.A == "" || o.Names.B == "" {
		o.Names = model.DefaultNames
	}
	if o.Profile == nil {
		p := textproc.Welsh()
		o.Profile = &p
	}
	if o.Band <= 0 {
		o.Band = errstats.DefaultBand
	}
	if o.TopN <= 0 {
		o.TopN = errstats.DefaultTopN
	}
	if o.Threshold == nil || *o.Threshold < 0 {
		o.Threshold = model.Float(wordstats.DefaultOverTranscriptionThreshold)
	}
	if o.CurveWindow <= 0 {
		o.CurveWindow = DefaultCurveWindow
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Curve holds per-sample CER moving averages in batch order.
type Curve struct {
	Window int       `json:"window" yaml:"window"`
	A      []float64 `json:"a" yaml:"a"`
	B      []float64 `json:"b" yaml:"b"`
}

// Report is the composite result of every analysis. Sections that were not
// requested are nil.
type Report struct {
	Name                    string                                 `json:"name,omitempty" yaml:"name,omitempty"`
	Names                   model.Names                            `json:"-" yaml:"-"`
	Language                string                                 `json:"language" yaml:"language"`
	SampleSize              int                                    `json:"sample_size" yaml:"sample_size"`
	Summary                 *Summary                               `json:"executive_summary,omitempty" yaml:"executive_summary,omitempty"`
	Design                  *Design                                `json:"study_design,omitempty" yaml:"study_design,omitempty"`
	Recommendations         *Advice                                `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Comparison              *compare.ModelComparisonResult         `json:"model_comparison,omitempty" yaml:"model_comparison,omitempty"`
	Hybrid                  *compare.HybridResult                  `json:"hybrid_best_case,omitempty" yaml:"hybrid_best_case,omitempty"`
	Implications            *compare.PracticalImplications         `json:"hybrid_practical_implications,omitempty" yaml:"hybrid_practical_implications,omitempty"`
	Agreement               *compare.AgreementResult               `json:"agreement,omitempty" yaml:"agreement,omitempty"`
	AttributionDistribution *compare.AttributionDistributionResult `json:"attribution_distribution,omitempty" yaml:"attribution_distribution,omitempty"`
	ErrorCost               *compare.AttributionCostResult         `json:"error_attribution_cost,omitempty" yaml:"error_attribution_cost,omitempty"`
	Reliability             map[string]compare.ReliabilityStats    `json:"consistency_reliability,omitempty" yaml:"consistency_reliability,omitempty"`
	Linguistic              *errstats.Patterns                     `json:"linguistic_patterns,omitempty" yaml:"linguistic_patterns,omitempty"`
	Characters              *errstats.CharacterAnalysis            `json:"character_errors,omitempty" yaml:"character_errors,omitempty"`
	WordDifficulty          *wordstats.DifficultyResult            `json:"word_difficulty,omitempty" yaml:"word_difficulty,omitempty"`
	WordLength              *wordstats.LengthResult                `json:"word_length,omitempty" yaml:"word_length,omitempty"`
	OverTranscription       *wordstats.OverTranscriptionResult     `json:"over_transcription,omitempty" yaml:"over_transcription,omitempty"`
	Examples                *Examples                              `json:"qualitative_examples,omitempty" yaml:"qualitative_examples,omitempty"`
	Curve                   *Curve                                 `json:"learning_curve,omitempty" yaml:"learning_curve,omitempty"`
}

// ValidateSections reports the first unknown section name.
func ValidateSections(sections []string) error {
	known := make(map[string]struct{}, len(Sections))
	for _, s := range Sections {
		known[s] = struct{}{}
	}
	for _, s := range sections {
		if _, ok := known[strings.ToLower(strings.TrimSpace(s))]; !ok {
			return fmt.Errorf("unknown section %q (available: %s)", s, strings.Join(Sections, ", "))
		}
	}
	return nil
}

// Build runs the requested analyses over samples. With no sections
// requested every analysis runs.
func Build(samples []model.Sample, opts Options) (Report, error) {
	if err := ValidateSections(opts.Sections); err != nil {
		return Report{}, err
	}
	opts = opts.withDefaults()
	want := sectionFilter(opts.Sections)

	profile := *opts.Profile
	cmp := compare.New(
		compare.WithNames(opts.Names),
		compare.WithProfile(profile),
		compare.WithLogger(opts.Logger),
	)
	analyzer := errstats.NewAnalyzer(textproc.NewTokenizer(profile),
		errstats.WithTopN(opts.TopN),
		errstats.WithBand(opts.Band),
		errstats.WithNames(opts.Names),
		errstats.WithLogger(opts.Logger),
	)

	r := Report{
		Name:       opts.Name,
		Names:      opts.Names,
		Language:   profile.Name(),
		SampleSize: len(samples),
	}

	var summary Summary
	if want(SectionSummary) || want(SectionRecommendations) {
		summary = ExecutiveSummary(samples, opts.Names, opts.Band)
	}
	if want(SectionSummary) {
		r.Summary = &summary
	}
	if want(SectionDesign) {
		d := StudyDesign(samples, opts.Names, profile.Name())
		r.Design = &d
	}
	if want(SectionRecommendations) {
		a := Recommendations(summary, profile)
		r.Recommendations = &a
	}
	if want(SectionComparison) {
		c := cmp.ModelComparison(samples)
		r.Comparison = &c
	}
	if want(SectionHybrid) {
		h := cmp.HybridBestCase(samples)
		r.Hybrid = &h
	}
	if want(SectionImplications) {
		p := cmp.HybridPracticalImplications(samples)
		r.Implications = &p
	}
	if want(SectionAgreement) {
		a := cmp.Agreement(samples)
		r.Agreement = &a
	}
	if want(SectionAttribution) {
		a := cmp.AttributionDistribution(samples)
		r.AttributionDistribution = &a
	}
	if want(SectionCost) {
		c := cmp.ErrorAttributionCost(samples)
		r.ErrorCost = &c
	}
	if want(SectionReliability) {
		r.Reliability = cmp.ConsistencyReliability(samples)
	}
	if want(SectionLinguistic) {
		p := analyzer.LinguisticPatterns(samples)
		r.Linguistic = &p
	}
	if want(SectionCharacters) {
		c := analyzer.CharacterAnalysis(samples)
		r.Characters = &c
	}
	if want(SectionWords) {
		d := wordstats.WordDifficulty(samples)
		r.WordDifficulty = &d
	}
	if want(SectionLength) {
		l := wordstats.WordLength(samples)
		r.WordLength = &l
	}
	if want(SectionOverTranscription) {
		o := wordstats.OverTranscription(samples, *opts.Threshold)
		r.OverTranscription = &o
	}
	if want(SectionExamples) {
		e := QualitativeExamples(samples)
		r.Examples = &e
	}
	if want(SectionCurve) {
		c := LearningCurve(samples, opts.CurveWindow)
		r.Curve = &c
	}

	opts.Logger.Debug("report built", "name", opts.Name, "samples", len(samples), "sections", sectionNames(want))
	return r, nil
}

// LearningCurve returns moving averages of each system's per-sample CER,
// lenient when present and raw otherwise. Samples without either are
// skipped for that system.
func LearningCurve(samples []model.Sample, window int) Curve {
	var a, b []float64
	for _, s := range samples {
		if v, ok := curveCER(s.A); ok {
			a = append(a, v)
		}
		if v, ok := curveCER(s.B); ok {
			b = append(b, v)
		}
	}
	return Curve{
		Window: window,
		A:      metrics.MovingAverage(a, window),
		B:      metrics.MovingAverage(b, window),
	}
}

func curveCER(out model.SystemOutput) (float64, bool) {
	if out.Lenient.CER != nil {
		return metrics.SafeFloat(*out.Lenient.CER, 0), true
	}
	if out.Raw.CER != nil {
		return metrics.SafeFloat(*out.Raw.CER, 0), true
	}
	return 0, false
}

func sectionFilter(sections []string) func(string) bool {
	if len(sections) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

func sectionNames(want func(string) bool) []string {
	var names []string
	for _, s := range Sections {
		if want(s) {
			names = append(names, s)
		}
	}
	return names
}
