package format

import (
	"strings"
	"testing"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

func notOKResult() *model.TrennkostResult {
	return &model.TrennkostResult{
		DishName: "Reis mit Hähnchen",
		Verdict:  model.VerdictNotOK,
		Summary:  "Reis mit Hähnchen: NICHT OK — KH + PROTEIN sollten nicht kombiniert werden.",
		Problems: []model.Problem{
			{
				RuleID:         "R001",
				Description:    "Kohlenhydrate und Protein nicht kombinieren",
				Severity:       model.SeverityCritical,
				AffectedItems:  []string{"Reis (KH)", "Hähnchen (PROTEIN)"},
				AffectedGroups: []model.FoodGroup{model.GroupKH, model.GroupProtein},
				SourceRef:      "modul-1.1/page-001",
				Explanation:    "Beide gleichzeitig neutralisieren die Verdauungssäfte.",
			},
		},
		GroupsFound: map[model.FoodGroup][]string{
			model.GroupKH:      {"Reis"},
			model.GroupProtein: {"Hähnchen"},
		},
	}
}

func TestFormatResults_Structure(t *testing.T) {
	out := FormatResults([]*model.TrennkostResult{notOKResult()}, false)

	for _, want := range []string{
		"═══ TRENNKOST-ANALYSE (DETERMINISTISCH) ═══",
		"darf NICHT verändert werden",
		"── Reis mit Hähnchen ──",
		"Verdict: NICHT OK",
		"[R001]",
		"Betrifft: Reis (KH), Hähnchen (PROTEIN)",
		"Quelle: modul-1.1/page-001",
		"═══ ENDE TRENNKOST-ANALYSE ═══",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatResults_NoQuestionsWarning(t *testing.T) {
	out := FormatResults([]*model.TrennkostResult{notOKResult()}, false)

	if !strings.Contains(out, "Stelle KEINE Rückfragen") {
		t.Error("expected no-questions warning for a fully resolved dish")
	}
	if !strings.Contains(out, "KEINE OFFENEN FRAGEN") {
		t.Error("expected explicit no-open-questions marker")
	}

	withQuestion := notOKResult()
	withQuestion.Verdict = model.VerdictConditional
	withQuestion.Questions = []model.Question{
		{Question: "Wie viel Fett ist enthalten?", Reason: "Die Fettmenge beeinflusst die Bewertung."},
	}
	out = FormatResults([]*model.TrennkostResult{withQuestion}, false)
	if strings.Contains(out, "Stelle KEINE Rückfragen") {
		t.Error("warning must not appear when questions are open")
	}
	if !strings.Contains(out, "→ Wie viel Fett ist enthalten?") {
		t.Error("open question missing from output")
	}
}

func TestFormatResults_NeverInvents(t *testing.T) {
	r := &model.TrennkostResult{
		DishName: "Apfel",
		Verdict:  model.VerdictOK,
		Summary:  "Apfel: Kombination ist OK nach Trennkost-Prinzip.",
		GroupsFound: map[model.FoodGroup][]string{
			model.GroupObst: {"Apfel"},
		},
	}
	out := FormatResults([]*model.TrennkostResult{r}, false)

	// Only the found group may appear in the group listing.
	if !strings.Contains(out, "OBST: Apfel") {
		t.Errorf("group line missing:\n%s", out)
	}
	for _, absent := range []string{"Probleme:", "TRENNKOST-KONFORME ALTERNATIVEN"} {
		if strings.Contains(out, absent) {
			t.Errorf("output invents section %q for a clean result:\n%s", absent, out)
		}
	}
}

func TestFixDirections(t *testing.T) {
	out := FormatResults([]*model.TrennkostResult{notOKResult()}, false)

	if !strings.Contains(out, "TRENNKOST-KONFORME ALTERNATIVEN") {
		t.Fatalf("fix directions missing:\n%s", out)
	}
	// One direction per conflicting group, deterministic order (KH before
	// PROTEIN).
	if !strings.Contains(out, "Richtung 1: Behalte Kohlenhydrate (Reis)") {
		t.Errorf("first direction wrong:\n%s", out)
	}
	if !strings.Contains(out, "Richtung 2: Behalte Protein (Hähnchen)") {
		t.Errorf("second direction wrong:\n%s", out)
	}
	if !strings.Contains(out, "WICHTIG: Kein(e) Protein im Alternativgericht!") {
		t.Errorf("forbidden-group warning missing:\n%s", out)
	}
}

func TestFixDirections_OnlyForNotOK(t *testing.T) {
	r := notOKResult()
	r.Verdict = model.VerdictConditional
	out := FormatResults([]*model.TrennkostResult{r}, false)
	if strings.Contains(out, "TRENNKOST-KONFORME ALTERNATIVEN") {
		t.Error("fix directions must only appear for NOT_OK verdicts")
	}
}

func TestFixDirections_StripsCanonicalSuffix(t *testing.T) {
	r := notOKResult()
	r.GroupsFound = map[model.FoodGroup][]string{
		model.GroupKH:      {"Spaghetti → Pasta"},
		model.GroupProtein: {"Hähnchen"},
	}
	out := FormatResults([]*model.TrennkostResult{r}, false)
	if !strings.Contains(out, "Behalte Kohlenhydrate (Spaghetti)") {
		t.Errorf("canonical suffix leaked into fix direction:\n%s", out)
	}
}

func TestBreakfastBlock(t *testing.T) {
	r := notOKResult()
	out := FormatResults([]*model.TrennkostResult{r}, true)

	if !strings.Contains(out, "FRÜHSTÜCKS-HINWEIS") {
		t.Fatal("breakfast guidance missing")
	}
	if !strings.Contains(out, "FETTREICHE ITEMS IN DIESER MAHLZEIT: Hähnchen (Protein)") {
		t.Errorf("fat-rich item flagging missing:\n%s", out)
	}

	// Without breakfast context the block stays out.
	out = FormatResults([]*model.TrennkostResult{r}, false)
	if strings.Contains(out, "FRÜHSTÜCKS-HINWEIS") {
		t.Error("breakfast block must only appear in breakfast context")
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery([]*model.TrennkostResult{notOKResult()}, false)

	if !strings.HasPrefix(q, "Lebensmittelkombinationen Trennkost Regeln") {
		t.Errorf("query missing base phrase: %q", q)
	}
	if !strings.Contains(q, "Kohlenhydrate Getreide") {
		t.Errorf("query missing KH terms: %q", q)
	}
	if !strings.Contains(q, "Proteine Fleisch Fisch Eier") {
		t.Errorf("query missing PROTEIN terms: %q", q)
	}
	// The explanation mentions Verdauungssäfte, so milieu terms join.
	if !strings.Contains(q, "sauer basisch neutralisieren") {
		t.Errorf("query missing milieu terms: %q", q)
	}
	if strings.Contains(q, "Gärung Fäulnis") {
		t.Errorf("query invents fermentation terms: %q", q)
	}

	q = BuildQuery([]*model.TrennkostResult{notOKResult()}, true)
	if !strings.Contains(q, "Frühstück optimal fettfrei") {
		t.Errorf("query missing breakfast terms: %q", q)
	}
}
