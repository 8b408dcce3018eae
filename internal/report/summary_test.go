package report

import (
	"strings"
	"testing"
	"time"

	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

func TestExecutiveSummary(t *testing.T) {
	samples := []model.Sample{
		scored("cath", "cath", "kath", 10, 5, 30, 20),
		scored("cath", "cat", "kat", 20, 5, 40, 10),
		scored("ci", "ci", "ki", 0, 0, 20, 0),
	}
	s := ExecutiveSummary(samples, model.DefaultNames, 1)
	if s.TotalRecordings != 3 || s.TotalWords != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.AvgRecordingsPerWord != 1.5 || s.MinRecordingsPerWord != 1 || s.MaxRecordingsPerWord != 2 {
		t.Fatalf("unexpected per-word counts: %+v", s)
	}
	if s.Raw.MeanA != 10 || s.Raw.MeanB != 30 || s.Raw.PercentagePointDifference != 20 {
		t.Fatalf("unexpected raw metrics: %+v", s.Raw)
	}
	if s.Raw.RelativeImprovement != 66.67 {
		t.Fatalf("expected relative improvement 66.67, got %v", s.Raw.RelativeImprovement)
	}
	if s.Normalized.MeanA != 3.33 || s.Normalized.MeanB != 10 || s.Normalized.Winner != "Whisper" {
		t.Fatalf("unexpected normalized metrics: %+v", s.Normalized)
	}
	if s.OverallWinner != "Whisper" {
		t.Fatalf("expected Whisper, got %s", s.OverallWinner)
	}
	if !strings.HasPrefix(s.KeyFinding, "Whisper achieves 20.0 percentage points lower CER") {
		t.Fatalf("unexpected key finding: %q", s.KeyFinding)
	}
	if s.InsufficientData != "" {
		t.Fatalf("unexpected insufficient marker: %q", s.InsufficientData)
	}
}

func TestExecutiveSummaryComparable(t *testing.T) {
	samples := []model.Sample{scored("dyn", "dyn", "din", 10, 10, 10.5, 30)}
	s := ExecutiveSummary(samples, model.DefaultNames, 1)
	if s.OverallWinner != model.Comparable {
		t.Fatalf("expected Comparable, got %s", s.OverallWinner)
	}
	if !strings.Contains(s.KeyFinding, "in favour of Whisper") {
		t.Fatalf("unexpected key finding: %q", s.KeyFinding)
	}
}

func TestExecutiveSummaryEmpty(t *testing.T) {
	s := ExecutiveSummary(nil, model.DefaultNames, 1)
	if s.OverallWinner != "N/A" || s.KeyFinding != "No data available for analysis" {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
	if s.InsufficientData == "" {
		t.Fatalf("expected insufficient data marker")
	}
}

func TestStudyDesignDateRange(t *testing.T) {
	first := time.Date(2024, 3, 2, 23, 30, 0, 0, time.UTC)
	last := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	a := scored("cath", "cath", "cath", 0, 0, 0, 0)
	a.CreatedAt = &last
	b := scored("ci", "ci", "ci", 0, 0, 0, 0)
	b.CreatedAt = &first
	d := StudyDesign([]model.Sample{a, b, scored("dyn", "", "", 0, 0, 0, 0)}, model.DefaultNames, "welsh")
	if d.DataCollection.DateRange != "2024-03-02 to 2024-03-09" {
		t.Fatalf("unexpected date range: %q", d.DataCollection.DateRange)
	}
	if d.ResearchDesign.UniqueWords != 3 || d.ResearchDesign.TotalRecordings != 3 {
		t.Fatalf("unexpected design counts: %+v", d.ResearchDesign)
	}
	if got := StudyDesign(nil, model.DefaultNames, "welsh").DataCollection.DateRange; got != "Not available" {
		t.Fatalf("expected Not available, got %q", got)
	}
}

func TestRecommendations(t *testing.T) {
	welsh := textproc.Welsh()
	tests := []struct {
		name       string
		summary    Summary
		system     string
		confidence string
		rationale  string
	}{
		{
			name:       "clear winner",
			summary:    Summary{OverallWinner: "Whisper", Normalized: ModeMetrics{Winner: "Whisper"}},
			system:     "Whisper",
			confidence: ConfidenceHigh,
			rationale:  "Lower CER in both raw and normalized metrics",
		},
		{
			name:       "split winner",
			summary:    Summary{OverallWinner: "Whisper", Normalized: ModeMetrics{Winner: "Wav2Vec2"}},
			system:     "Whisper",
			confidence: ConfidenceHigh,
			rationale:  "Lower raw CER; normalized metrics favour Wav2Vec2",
		},
		{
			name:       "comparable",
			summary:    Summary{OverallWinner: model.Comparable},
			system:     "Either system acceptable",
			confidence: ConfidenceMedium,
			rationale:  "Systems show comparable performance",
		},
		{
			name:       "no data",
			summary:    ExecutiveSummary(nil, model.DefaultNames, 1),
			system:     "N/A",
			confidence: ConfidenceLow,
			rationale:  "No data available",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Recommendations(tt.summary, welsh)
			if a.Primary.System != tt.system || a.Primary.Confidence != tt.confidence || a.Primary.Rationale != tt.rationale {
				t.Fatalf("unexpected primary: %+v", a.Primary)
			}
		})
	}

	a := Recommendations(tests[0].summary, welsh)
	found := false
	for _, line := range a.PedagogicalConsiderations {
		if strings.Contains(line, "ll") && strings.Contains(line, "Monitor cluster recognition") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cluster monitoring advice: %v", a.PedagogicalConsiderations)
	}
}
