package compare

import (
	"math"
	"sort"
	"strings"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

const difficultWordCount = 10

// Selection counts which system the hybrid chose per sample.
type Selection struct {
	A   int `json:"a" yaml:"a"`
	B   int `json:"b" yaml:"b"`
	Tie int `json:"tie" yaml:"tie"`
}

// SelectionShare is a Selection expressed as percentages of all samples.
type SelectionShare struct {
	A   float64 `json:"a" yaml:"a"`
	B   float64 `json:"b" yaml:"b"`
	Tie float64 `json:"tie" yaml:"tie"`
}

// Preference is the share of decisive selections won by each system. Ties
// are excluded from the A and B shares but reported against all samples.
type Preference struct {
	APct   float64 `json:"a_pct" yaml:"a_pct"`
	BPct   float64 `json:"b_pct" yaml:"b_pct"`
	TiePct float64 `json:"tie_pct" yaml:"tie_pct"`
}

// HybridSubsetResult compares the hybrid with the best single configuration
// over a subset of samples.
type HybridSubsetResult struct {
	HybridCER             float64            `json:"hybrid_cer" yaml:"hybrid_cer"`
	BestSingleCER         float64            `json:"best_single_cer" yaml:"best_single_cer"`
	BestSingleConfig      string             `json:"best_single_config,omitempty" yaml:"best_single_config,omitempty"`
	ConfigMeans           map[string]float64 `json:"config_means,omitempty" yaml:"config_means,omitempty"`
	ImprovementAbsolute   float64            `json:"improvement_absolute" yaml:"improvement_absolute"`
	ImprovementPercentage float64            `json:"improvement_percentage" yaml:"improvement_percentage"`
	SampleSize            int                `json:"sample_size" yaml:"sample_size"`
	InsufficientData      string             `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// HybridResult is the full hybrid best-case analysis.
type HybridResult struct {
	HybridSubsetResult `yaml:",inline"`
	Selection          Selection      `json:"selection_counts" yaml:"selection_counts"`
	SelectionShare     SelectionShare `json:"selection_percentages" yaml:"selection_percentages"`
	Preference         Preference     `json:"model_preference" yaml:"model_preference"`
}

// bestSource returns the configuration of the best single result, or false
// when there is none.
func (h HybridSubsetResult) bestSource() (model.Source, bool) {
	for _, src := range model.Sources {
		if src.Key() == h.BestSingleConfig {
			return src, true
		}
	}
	return model.Source{}, false
}

type hybridCore struct {
	subset    HybridSubsetResult
	selection Selection
}

var (
	lenientA = model.Source{System: model.SystemA, Mode: model.ModeLenient}
	lenientB = model.Source{System: model.SystemB, Mode: model.ModeLenient}
)

// hybrid picks min(lenient A, lenient B) per sample with both values and
// compares it with the four fixed configurations over the same samples. A
// raw configuration missing a value in that subset is not eligible. Ties
// between configuration means keep the earlier one in model.Sources order.
func hybrid(samples []model.Sample) hybridCore {
	var core hybridCore
	var values []float64
	configs := make(map[model.Source][]float64, len(model.Sources))
	eligible := map[model.Source]bool{}
	for _, src := range model.Sources {
		eligible[src] = true
	}
	for _, s := range samples {
		va, vb := s.Variant(lenientA).CER, s.Variant(lenientB).CER
		if va == nil || vb == nil {
			continue
		}
		a, b := metrics.SafeFloat(*va, 0), metrics.SafeFloat(*vb, 0)
		switch {
		case a < b:
			core.selection.A++
		case b < a:
			core.selection.B++
		default:
			core.selection.Tie++
		}
		values = append(values, math.Min(a, b))
		for _, src := range model.Sources {
			v := s.Variant(src).CER
			if v == nil {
				eligible[src] = false
				continue
			}
			configs[src] = append(configs[src], metrics.SafeFloat(*v, 0))
		}
	}
	if len(values) == 0 {
		core.subset.InsufficientData = "no samples with lenient CER for both systems"
		return core
	}
	sub := HybridSubsetResult{
		HybridCER:   metrics.Mean(values),
		SampleSize:  len(values),
		ConfigMeans: map[string]float64{},
	}
	found := false
	for _, src := range model.Sources {
		if !eligible[src] {
			continue
		}
		m := metrics.Mean(configs[src])
		sub.ConfigMeans[src.Key()] = m
		if !found || m < sub.BestSingleCER {
			sub.BestSingleCER = m
			sub.BestSingleConfig = src.Key()
			found = true
		}
	}
	sub.ImprovementAbsolute = sub.BestSingleCER - sub.HybridCER
	sub.ImprovementPercentage = metrics.SafeDivide(sub.ImprovementAbsolute, sub.BestSingleCER, 0) * 100
	core.subset = sub
	return core
}

// HybridSubset compares hybrid selection with the best single configuration
// over samples.
func (c *Comparator) HybridSubset(samples []model.Sample) HybridSubsetResult {
	return hybrid(samples).subset
}

// HybridBestCase evaluates an oracle that picks the system with the lower
// lenient CER for every sample.
func (c *Comparator) HybridBestCase(samples []model.Sample) HybridResult {
	core := hybrid(samples)
	res := HybridResult{HybridSubsetResult: core.subset, Selection: core.selection}
	if core.subset.InsufficientData != "" {
		return res
	}
	sel := core.selection
	total := sel.A + sel.B + sel.Tie
	res.SelectionShare = SelectionShare{
		A:   metrics.Percent(sel.A, total),
		B:   metrics.Percent(sel.B, total),
		Tie: metrics.Percent(sel.Tie, total),
	}
	res.Preference = Preference{
		APct:   metrics.Percent(sel.A, sel.A+sel.B),
		BPct:   metrics.Percent(sel.B, sel.A+sel.B),
		TiePct: metrics.Percent(sel.Tie, total),
	}
	c.logger.Debug("hybrid best case", "samples", res.SampleSize,
		"best", res.BestSingleConfig, "hybrid_cer", res.HybridCER)
	return res
}

// ErrorReductionResult counts ASR errors of the best single configuration
// that the other system got right.
type ErrorReductionResult struct {
	TotalASRErrors int     `json:"total_asr_errors" yaml:"total_asr_errors"`
	Preventable    int     `json:"preventable_by_hybrid" yaml:"preventable_by_hybrid"`
	StillErrors    int     `json:"still_errors" yaml:"still_errors"`
	ReductionRate  float64 `json:"reduction_rate" yaml:"reduction_rate"`
	BestConfig     string  `json:"best_config_used" yaml:"best_config_used"`
}

// ErrorReduction counts samples where best's system was labelled ASR_ERROR
// while the other system was labelled CORRECT. Labels use the lenient
// variant and fall back to raw; samples lacking a label for either system
// are skipped.
func (c *Comparator) ErrorReduction(samples []model.Sample, best model.Source) ErrorReductionResult {
	res := ErrorReductionResult{BestConfig: best.Key()}
	for _, s := range samples {
		own := effectiveAttribution(s, best.System)
		other := effectiveAttribution(s, best.System.Other())
		if own == model.AttributionNone || other == model.AttributionNone {
			continue
		}
		if own != model.AttributionASRError {
			continue
		}
		res.TotalASRErrors++
		if other == model.AttributionCorrect {
			res.Preventable++
		}
	}
	res.StillErrors = res.TotalASRErrors - res.Preventable
	res.ReductionRate = math.Round(metrics.Percent(res.Preventable, res.TotalASRErrors)*10) / 10
	return res
}

func effectiveAttribution(s model.Sample, sys model.System) model.Attribution {
	out := s.Output(sys)
	if out.Lenient.Attribution != model.AttributionNone {
		return out.Lenient.Attribution
	}
	return out.Raw.Attribution
}

// PracticalImplications compares hybrid and best single configuration on
// the areas that matter most for learners.
type PracticalImplications struct {
	Overall          HybridSubsetResult   `json:"overall" yaml:"overall"`
	Clusters         HybridSubsetResult   `json:"clusters" yaml:"clusters"`
	DifficultWords   HybridSubsetResult   `json:"difficult_words" yaml:"difficult_words"`
	ErrorReduction   ErrorReductionResult `json:"error_reduction" yaml:"error_reduction"`
	InsufficientData string               `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// HybridPracticalImplications evaluates the hybrid overall, on targets
// containing a cluster, on the hardest words, and by errors it would avoid.
func (c *Comparator) HybridPracticalImplications(samples []model.Sample) PracticalImplications {
	overall := hybrid(samples).subset
	if overall.InsufficientData != "" {
		return PracticalImplications{InsufficientData: overall.InsufficientData}
	}
	var clustered []model.Sample
	for _, s := range samples {
		if c.profile.ContainsCluster(s.Text) {
			clustered = append(clustered, s)
		}
	}
	hardest := difficultWords(samples, difficultWordCount)
	var difficult []model.Sample
	for _, s := range samples {
		if _, ok := hardest[strings.TrimSpace(s.Text)]; ok {
			difficult = append(difficult, s)
		}
	}
	res := PracticalImplications{
		Overall:        overall,
		Clusters:       hybrid(clustered).subset,
		DifficultWords: hybrid(difficult).subset,
	}
	if best, ok := overall.bestSource(); ok {
		res.ErrorReduction = c.ErrorReduction(samples, best)
	}
	return res
}

// difficultWords returns the n targets with the highest mean lenient CER.
// Each sample contributes system A's lenient CER, else system B's, else 0.
// A zero CER from A also falls through to B, so a word only scores 0 when
// neither system had trouble with it.
func difficultWords(samples []model.Sample, n int) map[string]struct{} {
	type word struct {
		text string
		sum  float64
		n    int
	}
	index := map[string]int{}
	var words []word
	for _, s := range samples {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		v := metrics.SafeFloatPtr(s.Variant(lenientA).CER, 0)
		if v == 0 {
			v = metrics.SafeFloatPtr(s.Variant(lenientB).CER, 0)
		}
		i, ok := index[text]
		if !ok {
			i = len(words)
			index[text] = i
			words = append(words, word{text: text})
		}
		words[i].sum += v
		words[i].n++
	}
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].sum/float64(words[i].n) > words[j].sum/float64(words[j].n)
	})
	out := make(map[string]struct{}, n)
	for i := 0; i < len(words) && i < n; i++ {
		out[words[i].text] = struct{}{}
	}
	return out
}
