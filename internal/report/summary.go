// Package report assembles the comparative analyses into a single report and
// renders it as JSON, YAML or terminal text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

// ModeMetrics compares mean CER of both systems for one mode.
type ModeMetrics struct {
	MeanA                     float64 `json:"a_cer_mean" yaml:"a_cer_mean"`
	MeanB                     float64 `json:"b_cer_mean" yaml:"b_cer_mean"`
	PercentagePointDifference float64 `json:"percentage_point_difference" yaml:"percentage_point_difference"`
	RelativeImprovement       float64 `json:"relative_improvement" yaml:"relative_improvement"`
	Winner                    string  `json:"winner" yaml:"winner"`
}

// Summary is the executive summary of a batch.
type Summary struct {
	TotalRecordings      int         `json:"total_recordings" yaml:"total_recordings"`
	TotalWords           int         `json:"total_words" yaml:"total_words"`
	AvgRecordingsPerWord float64     `json:"avg_recordings_per_word" yaml:"avg_recordings_per_word"`
	MinRecordingsPerWord int         `json:"min_recordings_per_word" yaml:"min_recordings_per_word"`
	MaxRecordingsPerWord int         `json:"max_recordings_per_word" yaml:"max_recordings_per_word"`
	OverallWinner        string      `json:"overall_winner" yaml:"overall_winner"`
	KeyFinding           string      `json:"key_finding" yaml:"key_finding"`
	Raw                  ModeMetrics `json:"raw_metrics" yaml:"raw_metrics"`
	Normalized           ModeMetrics `json:"normalized_metrics" yaml:"normalized_metrics"`
	InsufficientData     string      `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

const notAvailable = "N/A"

// ExecutiveSummary reports sample counts and the overall winner. The winner
// is decided on raw CER means; differences under band are Comparable.
func ExecutiveSummary(samples []model.Sample, names model.Names, band float64) Summary {
	if len(samples) == 0 {
		return Summary{
			OverallWinner:    notAvailable,
			KeyFinding:       "No data available for analysis",
			InsufficientData: "no samples",
		}
	}
	s := Summary{
		TotalRecordings: len(samples),
		Raw:             modeMetrics(samples, model.ModeRaw, names),
		Normalized:      modeMetrics(samples, model.ModeLenient, names),
	}

	perWord := wordCounts(samples)
	s.TotalWords = len(perWord)
	if len(perWord) > 0 {
		counts := make([]float64, 0, len(perWord))
		for _, n := range perWord {
			counts = append(counts, float64(n))
		}
		lo, hi := metrics.MinMax(counts)
		s.AvgRecordingsPerWord = metrics.Round2(metrics.Mean(counts))
		s.MinRecordingsPerWord = int(lo)
		s.MaxRecordingsPerWord = int(hi)
	}

	s.OverallWinner = names.Winner(s.Raw.MeanA, s.Raw.MeanB, band)
	s.KeyFinding = keyFinding(s, band)
	return s
}

func modeMetrics(samples []model.Sample, mode model.Mode, names model.Names) ModeMetrics {
	meanA := metrics.Mean(cerValues(samples, model.Source{System: model.SystemA, Mode: mode}))
	meanB := metrics.Mean(cerValues(samples, model.Source{System: model.SystemB, Mode: mode}))
	pp := meanB - meanA
	if pp < 0 {
		pp = -pp
	}
	winner := names.B
	if meanA < meanB {
		winner = names.A
	}
	return ModeMetrics{
		MeanA:                     metrics.Round2(meanA),
		MeanB:                     metrics.Round2(meanB),
		PercentagePointDifference: metrics.Round2(pp),
		RelativeImprovement:       metrics.Round2(metrics.SafeDivide(pp, max(meanA, meanB), 0) * 100),
		Winner:                    winner,
	}
}

func keyFinding(s Summary, band float64) string {
	if s.OverallWinner == model.Comparable {
		return fmt.Sprintf(
			"Both systems perform comparably with strict (raw) matching (CER difference < %.1f percentage points). "+
				"With normalized matching, which ignores punctuation and spacing, the difference is %.1f percentage points "+
				"in favour of %s.",
			band, s.Normalized.PercentagePointDifference, s.Normalized.Winner)
	}
	finding := fmt.Sprintf(
		"%s achieves %.1f percentage points lower CER (%.1f%% relative improvement) with strict (raw) matching. ",
		s.OverallWinner, s.Raw.PercentagePointDifference, s.Raw.RelativeImprovement)
	if s.Normalized.Winner == s.OverallWinner {
		finding += fmt.Sprintf(
			"With normalized matching its advantage is %.1f percentage points (%.1f%% relative improvement).",
			s.Normalized.PercentagePointDifference, s.Normalized.RelativeImprovement)
	} else {
		finding += fmt.Sprintf(
			"With normalized matching %s leads instead, by %.1f percentage points.",
			s.Normalized.Winner, s.Normalized.PercentagePointDifference)
	}
	return finding
}

// Design describes how the data was collected and analysed.
type Design struct {
	StudyType           string         `json:"study_type" yaml:"study_type"`
	ResearchDesign      ResearchDesign `json:"research_design" yaml:"research_design"`
	DataCollection      DataCollection `json:"data_collection" yaml:"data_collection"`
	StatisticalApproach StatsApproach  `json:"statistical_approach" yaml:"statistical_approach"`
	Limitations         []string       `json:"limitations" yaml:"limitations"`
	Strengths           []string       `json:"strengths" yaml:"strengths"`
}

// ResearchDesign is the shape of the comparison.
type ResearchDesign struct {
	Type            string `json:"type" yaml:"type"`
	Participants    int    `json:"participants" yaml:"participants"`
	Systems         int    `json:"asr_models" yaml:"asr_models"`
	UniqueWords     int    `json:"unique_words" yaml:"unique_words"`
	TotalRecordings int    `json:"total_recordings" yaml:"total_recordings"`
}

// DataCollection describes the recorded material.
type DataCollection struct {
	Task      string   `json:"task" yaml:"task"`
	Language  string   `json:"language" yaml:"language"`
	Systems   []string `json:"asr_models_compared" yaml:"asr_models_compared"`
	DateRange string   `json:"date_range" yaml:"date_range"`
}

// StatsApproach names the statistics used.
type StatsApproach struct {
	Paradigm          string   `json:"paradigm" yaml:"paradigm"`
	Rationale         string   `json:"rationale" yaml:"rationale"`
	PrimaryMetrics    []string `json:"primary_metrics" yaml:"primary_metrics"`
	EffectSizeMeasure string   `json:"effect_size_measure" yaml:"effect_size_measure"`
}

// StudyDesign returns the methodological metadata of a batch. The date range
// spans the earliest and latest sample timestamps.
func StudyDesign(samples []model.Sample, names model.Names, language string) Design {
	return Design{
		StudyType: "Single-participant descriptive case study",
		ResearchDesign: ResearchDesign{
			Type:            "Within-subjects comparison",
			Participants:    1,
			Systems:         2,
			UniqueWords:     len(wordCounts(samples)),
			TotalRecordings: len(samples),
		},
		DataCollection: DataCollection{
			Task:      "Single-word pronunciation",
			Language:  language,
			Systems:   []string{names.A, names.B},
			DateRange: dateRange(samples),
		},
		StatisticalApproach: StatsApproach{
			Paradigm:          "Descriptive statistics with effect sizes",
			Rationale:         "Single-participant study precludes inferential testing",
			PrimaryMetrics:    []string{"CER (Character Error Rate)", "Error attribution"},
			EffectSizeMeasure: "Cohen's d",
		},
		Limitations: []string{
			"Single participant: findings may not generalize",
			"No control group or baseline comparison",
			"Limited to single-word pronunciation tasks",
			fmt.Sprintf("Findings are specific to the %s language profile", language),
		},
		Strengths: []string{
			"Real-world ecological validity",
			"Character-level error analysis with cluster support",
			"Pedagogical framing beyond technical accuracy",
			"Dual metrics approach (raw and normalized)",
			"Linguistic perspective (vowels, consonants, clusters)",
		},
	}
}

func dateRange(samples []model.Sample) string {
	var dates []string
	for _, s := range samples {
		if s.CreatedAt != nil {
			dates = append(dates, s.CreatedAt.UTC().Format("2006-01-02"))
		}
	}
	if len(dates) == 0 {
		return "Not available"
	}
	sort.Strings(dates)
	return dates[0] + " to " + dates[len(dates)-1]
}

func wordCounts(samples []model.Sample) map[string]int {
	counts := map[string]int{}
	for _, s := range samples {
		if w := strings.TrimSpace(s.Text); w != "" {
			counts[w]++
		}
	}
	return counts
}

func cerValues(samples []model.Sample, src model.Source) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := s.Variant(src).CER; v != nil {
			out = append(out, metrics.SafeFloat(*v, 0))
		}
	}
	return out
}
