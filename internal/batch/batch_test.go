package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dysgair/capteval/internal/model"
)

const jsonList = `[
  {"text": "cath", "human": "cath", "created_at": "2025-03-01T10:00:00Z",
   "a": {"raw": {"hypothesis": "Cath.", "cer": 40, "attribution": "ASR_ERROR"},
         "lenient": {"hypothesis": "cath", "cer": 0}},
   "b": {"raw": {"hypothesis": "cat"}}}
]`

const yamlObject = `
name: week-1
samples:
  - text: llan
    created_at: 2025-03-02T09:30:00Z
    a:
      raw:
        hypothesis: lan
        cer: 25
  - text: ci
`

func TestDecodeJSONList(t *testing.T) {
	b, err := Decode(strings.NewReader(jsonList), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(b.Samples))
	}
	s := b.Samples[0]
	if s.Text != "cath" || s.A.Raw.Attribution != model.AttributionASRError || *s.A.Raw.CER != 40 {
		t.Fatalf("unexpected sample: %+v", s)
	}
	if s.A.Raw.WER != nil || s.B.Raw.CER != nil {
		t.Fatalf("absent metrics must stay nil")
	}
	if s.CreatedAt == nil || s.CreatedAt.Day() != 1 {
		t.Fatalf("unexpected timestamp: %v", s.CreatedAt)
	}
}

func TestDecodeYAMLObject(t *testing.T) {
	b, err := Decode(strings.NewReader(yamlObject), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Name != "week-1" || len(b.Samples) != 2 {
		t.Fatalf("unexpected batch: %+v", b)
	}
	if *b.Samples[0].A.Raw.CER != 25 || b.Samples[0].CreatedAt == nil {
		t.Fatalf("unexpected first sample: %+v", b.Samples[0])
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := []struct {
		data   string
		format Format
	}{
		{`"just a string"`, FormatJSON},
		{`{"name": "x"}`, FormatJSON},
		{`{"samples": {"text": "a"}}`, FormatJSON},
		{`[1, 2]`, FormatJSON},
		{``, FormatJSON},
		{`[{"text": 5}]`, FormatJSON},
		{`text: a`, FormatYAML},
		{`- a`, FormatYAML},
		{`plain`, FormatYAML},
		{``, FormatYAML},
	}
	for _, tc := range cases {
		_, err := Decode(strings.NewReader(tc.data), tc.format)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Decode(%q, %s) = %v, want ErrInvalidInput", tc.data, tc.format, err)
		}
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "first.json")
	yamlPath := filepath.Join(dir, "second.yml")
	if err := os.WriteFile(jsonPath, []byte(jsonList), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(yamlPath, []byte(yamlObject), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	batches, err := LoadAll(context.Background(), []string{jsonPath, yamlPath})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if batches[0].Name != "first" || batches[1].Name != "week-1" {
		t.Fatalf("unexpected names: %q %q", batches[0].Name, batches[1].Name)
	}
	if _, err := LoadAll(context.Background(), []string{filepath.Join(dir, "missing.json")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFormatFor(t *testing.T) {
	if FormatFor("a.YAML") != FormatYAML || FormatFor("b.yml") != FormatYAML || FormatFor("c.txt") != FormatJSON {
		t.Fatalf("unexpected format detection")
	}
}
