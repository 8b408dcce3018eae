package report

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Unit", "Rate", "Count"}
	rows := [][]string{
		{"a", "97.50", "12"},
		{"ŵ", "8.00", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "Unit   Rate  Count" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "────  ─────  ─────" {
		t.Fatalf("unexpected ruler: %q", lines[1])
	}
	if lines[2] != "a     97.50     12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	if lines[3] != "ŵ      8.00      3" {
		t.Fatalf("unexpected row line: %q", lines[3])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}
