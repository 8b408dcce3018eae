package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dysgair/capteval/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "capteval.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return st
}

func sampleAt(text string, at time.Time, aCER float64) model.Sample {
	s := model.Sample{Text: text, Human: text, CreatedAt: &at}
	s.A.Raw = model.Variant{Hypothesis: text + "!", CER: model.Float(aCER), Attribution: model.AttributionASRError}
	s.A.Lenient = model.Variant{Hypothesis: text, CER: model.Float(0), WER: model.Float(0), Attribution: model.AttributionCorrect}
	s.B.Raw = model.Variant{Hypothesis: "x"}
	return s
}

func TestImportAndListRoundTrip(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	in := []model.Sample{
		sampleAt("cath", base, 25),
		sampleAt("llaeth", base.Add(time.Hour), 16.67),
	}
	in[1].CreatedAt = nil
	if _, err := st.ImportBatch(ctx, "week1", in); err != nil {
		t.Fatalf("import: %v", err)
	}

	got, err := st.ListSamples(ctx, model.SampleFilter{Batch: "week1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	first := got[0]
	if first.Text != "cath" || first.Human != "cath" {
		t.Fatalf("unexpected sample: %+v", first)
	}
	if first.CreatedAt == nil || !first.CreatedAt.Equal(base) {
		t.Fatalf("unexpected created_at: %v", first.CreatedAt)
	}
	if first.A.Raw.CER == nil || *first.A.Raw.CER != 25 {
		t.Fatalf("unexpected a raw cer: %v", first.A.Raw.CER)
	}
	if first.A.Raw.WER != nil {
		t.Fatalf("expected missing wer, got %v", *first.A.Raw.WER)
	}
	if first.A.Raw.Attribution != model.AttributionASRError || first.A.Lenient.Attribution != model.AttributionCorrect {
		t.Fatalf("unexpected attributions: %q %q", first.A.Raw.Attribution, first.A.Lenient.Attribution)
	}
	if first.B.Raw.Hypothesis != "x" || first.B.Raw.CER != nil || first.B.Lenient.Attribution != model.AttributionNone {
		t.Fatalf("unexpected b output: %+v", first.B)
	}
	if got[1].Text != "llaeth" || got[1].CreatedAt != nil {
		t.Fatalf("unexpected second sample: %+v", got[1])
	}
}

func TestImportReplacesBatch(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := st.ImportBatch(ctx, "week1", []model.Sample{sampleAt("a", base, 1), sampleAt("b", base, 2)}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := st.ImportBatch(ctx, "week2", []model.Sample{sampleAt("c", base, 3)}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := st.ImportBatch(ctx, "week1", []model.Sample{sampleAt("d", base, 4)}); err != nil {
		t.Fatalf("reimport: %v", err)
	}

	batches, err := st.ListBatches(ctx)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	counts := map[string]int{}
	for _, b := range batches {
		counts[b.Name] = b.SampleCount
		if b.ImportedAt.IsZero() {
			t.Fatalf("missing import time for %s", b.Name)
		}
	}
	if counts["week1"] != 1 || counts["week2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	got, err := st.ListSamples(ctx, model.SampleFilter{Batch: "week1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Text != "d" {
		t.Fatalf("unexpected samples after reimport: %+v", got)
	}
}

func TestListSamplesFilters(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var in []model.Sample
	for i, text := range []string{"un", "dau", "tri", "pedwar", "pump"} {
		in = append(in, sampleAt(text, base.Add(time.Duration(i)*24*time.Hour), float64(i)))
	}
	if _, err := st.ImportBatch(ctx, "rhifau", in); err != nil {
		t.Fatalf("import: %v", err)
	}

	last, err := st.ListSamples(ctx, model.SampleFilter{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].Text != "pedwar" || last[1].Text != "pump" {
		t.Fatalf("unexpected last samples: %+v", last)
	}

	since := base.Add(48 * time.Hour)
	recent, err := st.ListSamples(ctx, model.SampleFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 3 || recent[0].Text != "tri" {
		t.Fatalf("unexpected recent samples: %+v", recent)
	}

	none, err := st.ListSamples(ctx, model.SampleFilter{Batch: "missing"})
	if err != nil {
		t.Fatalf("list missing: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no samples, got %d", len(none))
	}
}

func TestImportBatchRejectsEmptyName(t *testing.T) {
	st := openTemp(t)
	if _, err := st.ImportBatch(context.Background(), "  ", nil); err == nil {
		t.Fatalf("expected error for empty batch name")
	}
}
