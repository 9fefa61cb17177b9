package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// mockAnalyzer implements TextAnalyzer
type mockAnalyzer struct {
	failOn string
}

func (m *mockAnalyzer) AnalyzeText(ctx context.Context, text string) ([]*model.TrennkostResult, error) {
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("analysis failed")
	}
	return []*model.TrennkostResult{
		{DishName: text, Verdict: model.VerdictOK},
	}, nil
}

func TestBatchProcessor_ProcessLines(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	lines := []string{
		"Lachs mit Brokkoli",
		"Reis mit Gemüse",
		"Apfel",
	}

	outcomes := processor.ProcessLines(context.Background(), lines)
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	seen := make(map[string]bool)
	for _, o := range outcomes {
		if o.Error != nil {
			t.Errorf("unexpected error for %q: %v", o.Line, o.Error)
		}
		if len(o.Results) != 1 {
			t.Errorf("expected 1 result for %q, got %d", o.Line, len(o.Results))
			continue
		}
		if o.Results[0].DishName != o.Line {
			t.Errorf("dish name %q does not match line %q", o.Results[0].DishName, o.Line)
		}
		seen[o.Line] = true
	}
	for _, line := range lines {
		if !seen[line] {
			t.Errorf("no outcome for line %q", line)
		}
	}
}

func TestBatchProcessor_ErrorPropagation(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{failOn: "Burger"}, 2)

	outcomes := processor.ProcessLines(context.Background(), []string{
		"Lachs mit Brokkoli",
		"Burger mit Pommes",
	})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}

	var failed *AnalyzeOutcome
	for _, o := range outcomes {
		if o.Line == "Burger mit Pommes" {
			failed = o
		}
	}
	if failed == nil {
		t.Fatal("missing outcome for failing line")
	}
	if failed.GetError() == nil {
		t.Errorf("expected error for failing line")
	}
	if len(failed.Results) != 0 {
		t.Errorf("expected no results for failing line, got %d", len(failed.Results))
	}
}

func TestBatchProcessor_EmptyInput(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	outcomes := processor.ProcessLines(context.Background(), nil)
	if len(outcomes) != 0 {
		t.Errorf("expected 0 outcomes for empty input, got %d", len(outcomes))
	}
}

func TestReadLinesFromFile(t *testing.T) {
	content := `# Speiseplan Woche 36
Lachs mit Brokkoli

Reis mit Gemüse
# Kommentar mitten in der Datei
Lachs mit Brokkoli
Apfel
`
	path := filepath.Join(t.TempDir(), "speiseplan.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	lines, err := ReadLinesFromFile(path)
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	want := []string{"Lachs mit Brokkoli", "Reis mit Gemüse", "Apfel"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestReadLinesFromFile_NotFound(t *testing.T) {
	_, err := ReadLinesFromFile("/nonexistent/speiseplan.txt")
	if err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speiseplan.txt")
	if err := os.WriteFile(path, []byte("Apfel\nBanane\n"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	outcomes, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Errorf("expected 2 outcomes, got %d", len(outcomes))
	}
}
