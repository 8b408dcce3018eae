package compare

import (
	"fmt"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

const maxCostExamples = 5

// Attribute labels a transcription pair by comparing the recognizer output
// and a human transcription against the target. Raw mode compares after
// lowercasing and trimming; lenient mode normalizes and applies lenient
// matching to each pair. An empty human transcription yields no label.
func Attribute(target, asr, human string, mode model.Mode) model.Attribution {
	if human == "" {
		return model.AttributionNone
	}
	var humanCorrect, asrCorrect, asrMatchesHuman bool
	if mode == model.ModeLenient {
		t, a, h := textproc.Normalize(target), textproc.Normalize(asr), textproc.Normalize(human)
		humanCorrect = lenientEqual(t, h)
		asrCorrect = lenientEqual(t, a)
		asrMatchesHuman = lenientEqual(a, h)
	} else {
		t, a, h := textproc.StrictNormalize(target), textproc.StrictNormalize(asr), textproc.StrictNormalize(human)
		humanCorrect = h == t
		asrCorrect = a == t
		asrMatchesHuman = a == h
	}
	switch {
	case humanCorrect && asrCorrect:
		return model.AttributionCorrect
	case humanCorrect:
		return model.AttributionASRError
	case asrMatchesHuman:
		return model.AttributionUserError
	default:
		return model.AttributionAmbiguous
	}
}

func lenientEqual(reference, hypothesis string) bool {
	r, h := textproc.LenientMatch(reference, hypothesis)
	return r == h
}

// LabelNone counts samples without a usable label.
const LabelNone = "NONE"

// DistributionLabels lists distribution keys in report order.
var DistributionLabels = []string{
	string(model.AttributionASRError),
	string(model.AttributionUserError),
	string(model.AttributionAmbiguous),
	string(model.AttributionCorrect),
	LabelNone,
}

// Distribution counts attribution labels for one system and mode.
type Distribution struct {
	Counts      map[string]int     `json:"counts" yaml:"counts"`
	Percentages map[string]float64 `json:"percentages" yaml:"percentages"`
}

// FeedbackScore rates how useful and trustworthy the labels are for learners.
type FeedbackScore struct {
	UsableFeedbackPct float64 `json:"usable_feedback_pct" yaml:"usable_feedback_pct"`
	TrustScore        float64 `json:"trust_score" yaml:"trust_score"`
}

// ModeDistribution holds both systems' distributions for one mode.
type ModeDistribution struct {
	A               Distribution  `json:"a" yaml:"a"`
	B               Distribution  `json:"b" yaml:"b"`
	ScoreA          FeedbackScore `json:"score_a" yaml:"score_a"`
	ScoreB          FeedbackScore `json:"score_b" yaml:"score_b"`
	MoreUsable      string        `json:"more_usable" yaml:"more_usable"`
	MoreTrustworthy string        `json:"more_trustworthy" yaml:"more_trustworthy"`
	UsableAdvantage float64       `json:"usable_advantage" yaml:"usable_advantage"`
	TrustAdvantage  float64       `json:"trust_advantage" yaml:"trust_advantage"`
}

// AttributionDistributionResult covers both modes.
type AttributionDistributionResult struct {
	Raw              ModeDistribution `json:"raw" yaml:"raw"`
	Lenient          ModeDistribution `json:"lenient" yaml:"lenient"`
	InsufficientData string           `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// AttributionDistribution counts labels per system and mode. Missing or
// unknown labels are counted as NONE.
func (c *Comparator) AttributionDistribution(samples []model.Sample) AttributionDistributionResult {
	var res AttributionDistributionResult
	if len(samples) == 0 {
		res.InsufficientData = "no samples"
		return res
	}
	for _, mode := range model.Modes {
		md := ModeDistribution{
			A: distribution(samples, model.Source{System: model.SystemA, Mode: mode}),
			B: distribution(samples, model.Source{System: model.SystemB, Mode: mode}),
		}
		md.ScoreA = feedbackScore(md.A)
		md.ScoreB = feedbackScore(md.B)
		rawTrustA := trust(md.A)
		rawTrustB := trust(md.B)
		md.MoreUsable = c.greater(md.ScoreA.UsableFeedbackPct, md.ScoreB.UsableFeedbackPct)
		md.MoreTrustworthy = c.greater(rawTrustA, rawTrustB)
		md.UsableAdvantage = abs(md.ScoreA.UsableFeedbackPct - md.ScoreB.UsableFeedbackPct)
		md.TrustAdvantage = abs(rawTrustA - rawTrustB)
		if mode == model.ModeLenient {
			res.Lenient = md
		} else {
			res.Raw = md
		}
	}
	return res
}

func distribution(samples []model.Sample, src model.Source) Distribution {
	d := Distribution{Counts: map[string]int{}, Percentages: map[string]float64{}}
	for _, label := range DistributionLabels {
		d.Counts[label] = 0
	}
	for _, s := range samples {
		label := s.Variant(src).Attribution
		if label == model.AttributionNone || !label.Valid() {
			d.Counts[LabelNone]++
			continue
		}
		d.Counts[string(label)]++
	}
	for _, label := range DistributionLabels {
		d.Percentages[label] = metrics.Percent(d.Counts[label], len(samples))
	}
	return d
}

func trust(d Distribution) float64 {
	return d.Percentages[string(model.AttributionCorrect)] - 0.5*d.Percentages[string(model.AttributionAmbiguous)]
}

func feedbackScore(d Distribution) FeedbackScore {
	usable := d.Percentages[string(model.AttributionCorrect)] + d.Percentages[string(model.AttributionASRError)]
	return FeedbackScore{
		UsableFeedbackPct: metrics.SafeFloat(usable, 0),
		TrustScore:        metrics.SafeFloat(max(0, trust(d)), 0),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// CostExample is a sample illustrating a costly outcome.
type CostExample struct {
	Target string `json:"target" yaml:"target"`
	Human  string `json:"human,omitempty" yaml:"human,omitempty"`
	ASR    string `json:"asr" yaml:"asr"`
}

// CostBucket counts one outcome class.
type CostBucket struct {
	Count    int           `json:"count" yaml:"count"`
	Rate     float64       `json:"rate" yaml:"rate"`
	Examples []CostExample `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Cost is the pedagogical cost of one source's labels. False acceptances
// tell a learner they were right when the output mismatched the target;
// false rejections tell a learner who spoke correctly that they were wrong.
// RiskScore weights false acceptances three times and so ranges over
// [0, 300]; SafetyScore is 100 minus RiskScore and is not clamped, so it goes
// negative once the weighted errors outnumber the labelled cases.
type Cost struct {
	FalseAcceptance  CostBucket `json:"false_acceptance" yaml:"false_acceptance"`
	FalseRejection   CostBucket `json:"false_rejection" yaml:"false_rejection"`
	TruePositive     CostBucket `json:"true_positive" yaml:"true_positive"`
	TrueNegative     CostBucket `json:"true_negative" yaml:"true_negative"`
	Ambiguous        int        `json:"ambiguous" yaml:"ambiguous"`
	Total            int        `json:"total_cases" yaml:"total_cases"`
	RiskScore        float64    `json:"pedagogical_risk_score" yaml:"pedagogical_risk_score"`
	SafetyScore      float64    `json:"pedagogical_safety_score" yaml:"pedagogical_safety_score"`
	InsufficientData string     `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// SafetyComparison names the system with the higher safety score.
type SafetyComparison struct {
	SaferSystem     string  `json:"safer_system" yaml:"safer_system"`
	SafetyAdvantage float64 `json:"safety_advantage" yaml:"safety_advantage"`
	Recommendation  string  `json:"recommendation" yaml:"recommendation"`
}

// ModeCost holds both systems' costs for one mode.
type ModeCost struct {
	A          Cost             `json:"a" yaml:"a"`
	B          Cost             `json:"b" yaml:"b"`
	Comparison SafetyComparison `json:"comparison" yaml:"comparison"`
}

// CostImprovement is the change from raw to lenient scoring. Positive
// changes in false acceptance and rejection are reductions.
type CostImprovement struct {
	FalseAcceptanceChange  float64 `json:"false_acceptance_change" yaml:"false_acceptance_change"`
	FalseRejectionChange   float64 `json:"false_rejection_change" yaml:"false_rejection_change"`
	SafetyScoreImprovement float64 `json:"safety_score_improvement" yaml:"safety_score_improvement"`
}

// AttributionCostResult covers both modes.
type AttributionCostResult struct {
	Raw         ModeCost                   `json:"raw" yaml:"raw"`
	Lenient     ModeCost                   `json:"lenient" yaml:"lenient"`
	Improvement map[string]CostImprovement `json:"improvement" yaml:"improvement"`
}

// CostOf classifies one source's labels against whether its output matches
// the target. CORRECT with a match is a true positive and without one a
// false acceptance; ASR_ERROR is a false rejection; USER_ERROR is a true
// negative; AMBIGUOUS only counts toward the total. Samples without a label
// are skipped.
func CostOf(samples []model.Sample, src model.Source) Cost {
	var cost Cost
	for _, s := range samples {
		v := s.Variant(src)
		if v.Attribution == model.AttributionNone {
			continue
		}
		cost.Total++
		example := CostExample{Target: s.Text, Human: s.Human, ASR: v.Hypothesis}
		switch v.Attribution {
		case model.AttributionCorrect:
			if matchesTarget(s.Text, v.Hypothesis, src.Mode) {
				cost.TruePositive.Count++
			} else {
				cost.FalseAcceptance.add(example)
			}
		case model.AttributionASRError:
			cost.FalseRejection.add(example)
		case model.AttributionUserError:
			cost.TrueNegative.Count++
		default:
			cost.Ambiguous++
		}
	}
	if cost.Total == 0 {
		cost.InsufficientData = "no labelled samples"
		return cost
	}
	for _, b := range []*CostBucket{&cost.FalseAcceptance, &cost.FalseRejection, &cost.TruePositive, &cost.TrueNegative} {
		b.Rate = metrics.Percent(b.Count, cost.Total)
	}
	cost.RiskScore = metrics.SafeDivide(float64(3*cost.FalseAcceptance.Count+cost.FalseRejection.Count), float64(cost.Total), 0) * 100
	cost.SafetyScore = 100 - cost.RiskScore
	return cost
}

func (b *CostBucket) add(ex CostExample) {
	b.Count++
	if len(b.Examples) < maxCostExamples {
		b.Examples = append(b.Examples, ex)
	}
}

// matchesTarget reports whether hyp equals the target. Raw hypotheses are
// normalized first; lenient hypotheses are stored normalized already.
func matchesTarget(target, hyp string, mode model.Mode) bool {
	if mode == model.ModeLenient {
		return hyp == textproc.Normalize(target)
	}
	return textproc.Normalize(hyp) == textproc.Normalize(target)
}

// ErrorAttributionCost computes Cost for every source, compares the systems
// per mode, and measures the raw-to-lenient change per system.
func (c *Comparator) ErrorAttributionCost(samples []model.Sample) AttributionCostResult {
	res := AttributionCostResult{Improvement: map[string]CostImprovement{}}
	for _, mode := range model.Modes {
		mc := ModeCost{
			A: CostOf(samples, model.Source{System: model.SystemA, Mode: mode}),
			B: CostOf(samples, model.Source{System: model.SystemB, Mode: mode}),
		}
		safer := c.greater(mc.A.SafetyScore, mc.B.SafetyScore)
		adv := abs(mc.A.SafetyScore - mc.B.SafetyScore)
		mc.Comparison = SafetyComparison{
			SaferSystem:     safer,
			SafetyAdvantage: adv,
			Recommendation:  fmt.Sprintf("%s is %.1f points safer for learners (%s scoring)", safer, adv, mode),
		}
		if mode == model.ModeLenient {
			res.Lenient = mc
		} else {
			res.Raw = mc
		}
		c.logger.Debug("error attribution cost", "mode", mode.String(),
			"a_total", mc.A.Total, "a_false_accept", mc.A.FalseAcceptance.Count, "a_false_reject", mc.A.FalseRejection.Count,
			"b_total", mc.B.Total, "b_false_accept", mc.B.FalseAcceptance.Count, "b_false_reject", mc.B.FalseRejection.Count)
	}
	for _, sys := range model.Systems {
		raw, lenient := res.Raw.A, res.Lenient.A
		if sys == model.SystemB {
			raw, lenient = res.Raw.B, res.Lenient.B
		}
		res.Improvement[sys.Key()] = CostImprovement{
			FalseAcceptanceChange:  raw.FalseAcceptance.Rate - lenient.FalseAcceptance.Rate,
			FalseRejectionChange:   raw.FalseRejection.Rate - lenient.FalseRejection.Rate,
			SafetyScoreImprovement: lenient.SafetyScore - raw.SafetyScore,
		}
	}
	return res
}
