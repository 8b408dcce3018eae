package report

import (
	"fmt"
	"strings"

	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// Confidence levels for the primary recommendation.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Primary is the recommended system.
type Primary struct {
	System     string `json:"recommended_model" yaml:"recommended_model"`
	Rationale  string `json:"rationale" yaml:"rationale"`
	Confidence string `json:"confidence" yaml:"confidence"`
}

// NormalizationStrategy says where each metric family belongs.
type NormalizationStrategy struct {
	Recommendation    string `json:"recommendation" yaml:"recommendation"`
	RawUseCase        string `json:"raw_use_case" yaml:"raw_use_case"`
	NormalizedUseCase string `json:"normalized_use_case" yaml:"normalized_use_case"`
}

// Advice is the practical guidance derived from a summary.
type Advice struct {
	Primary                   Primary               `json:"primary_recommendation" yaml:"primary_recommendation"`
	NormalizationStrategy     NormalizationStrategy `json:"normalization_strategy" yaml:"normalization_strategy"`
	SystemDesign              []string              `json:"system_design_implications" yaml:"system_design_implications"`
	PedagogicalConsiderations []string              `json:"pedagogical_considerations" yaml:"pedagogical_considerations"`
	HumanVerification         []string              `json:"features_requiring_human_verification" yaml:"features_requiring_human_verification"`
	ImplementationNotes       []string              `json:"implementation_notes" yaml:"implementation_notes"`
}

// Recommendations turns an executive summary into system-selection advice.
// A Comparable verdict gives Medium confidence; an empty batch gives Low.
func Recommendations(summary Summary, profile textproc.Profile) Advice {
	var primary Primary
	switch summary.OverallWinner {
	case notAvailable, "":
		primary = Primary{System: notAvailable, Rationale: "No data available", Confidence: ConfidenceLow}
	case model.Comparable:
		primary = Primary{System: "Either system acceptable", Rationale: "Systems show comparable performance", Confidence: ConfidenceMedium}
	default:
		rationale := "Lower CER in both raw and normalized metrics"
		if summary.Normalized.Winner != summary.OverallWinner {
			rationale = fmt.Sprintf("Lower raw CER; normalized metrics favour %s", summary.Normalized.Winner)
		}
		primary = Primary{System: summary.OverallWinner, Rationale: rationale, Confidence: ConfidenceHigh}
	}

	monitor := "Monitor recognition of the sounds learners find hardest"
	if clusters := profile.Clusters(); len(clusters) > 0 {
		monitor = fmt.Sprintf("Monitor cluster recognition (%s) as these are critical for L2 learners", strings.Join(clusters, ", "))
	}

	return Advice{
		Primary: primary,
		NormalizationStrategy: NormalizationStrategy{
			Recommendation:    "Implement both raw and normalized metrics",
			RawUseCase:        "Technical accuracy reporting",
			NormalizedUseCase: "Learner-facing feedback",
		},
		SystemDesign: []string{
			fmt.Sprintf("Deploy %s as the primary recognizer", primary.System),
			"Implement both raw and normalized CER metrics for comprehensive assessment",
			"Use normalized metrics for learner-facing feedback",
			"Use raw metrics for technical accuracy reporting and system monitoring",
			"Deploy a hybrid approach for best per-word performance",
			"Consider ensemble methods to leverage both systems' strengths",
		},
		PedagogicalConsiderations: []string{
			"Normalized CER provides more pedagogically relevant feedback for L2 learners",
			"False acceptances are more harmful than false rejections",
			monitor,
			"Focus error analysis on phonological challenges rather than punctuation or capitalization",
			"Provide targeted practice on high-error units identified in linguistic analysis",
		},
		HumanVerification: []string{
			"Clusters with high error rates (>25% CER)",
			"Words with false acceptance errors",
			"Novel vocabulary not in training data",
			"Ambiguous pronunciations where both systems disagree",
		},
		ImplementationNotes: []string{
			"Monitor the false acceptance rate",
			"Set confidence thresholds based on pedagogical priorities",
			"Log system disagreements for continuous improvement",
		},
	}
}
