package parse

import (
	"strings"
	"testing"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
	"github.com/finnflow/lebensessenz-kursbot/internal/ontology"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	idx, compounds, err := ontology.Load(model.DataConfig{})
	if err != nil {
		t.Fatalf("load data: %v", err)
	}
	return NewParser(idx, compounds)
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

func TestParse_QuotingVariants(t *testing.T) {
	p := newTestParser(t)

	// Quoted and parenthesized inputs must yield the same item split as
	// the plain form.
	variants := []string{
		"rotbarsch mit kartoffeln",
		`"Rotbarsch" mit "Kartoffeln"`,
		"(Rotbarsch) mit (Kartoffeln)",
		"„Rotbarsch“ mit ‚Kartoffeln‘",
	}
	for _, input := range variants {
		dishes := p.Parse(input)
		if len(dishes) != 1 {
			t.Errorf("Parse(%q) = %d dishes, want 1", input, len(dishes))
			continue
		}
		items := lowerAll(dishes[0].Items)
		if len(items) != 2 || items[0] != "rotbarsch" || items[1] != "kartoffeln" {
			t.Errorf("Parse(%q) items = %v, want [rotbarsch kartoffeln]", input, dishes[0].Items)
		}
	}
}

func TestParse_Separators(t *testing.T) {
	p := newTestParser(t)

	inputs := []string{
		"Reis, Hähnchen, Brokkoli",
		"Reis und Hähnchen und Brokkoli",
		"Reis mit Hähnchen & Brokkoli",
		"Reis; Hähnchen; Brokkoli",
	}
	for _, input := range inputs {
		dishes := p.Parse(input)
		if len(dishes) != 1 {
			t.Errorf("Parse(%q) = %d dishes, want 1", input, len(dishes))
			continue
		}
		if len(dishes[0].Items) != 3 {
			t.Errorf("Parse(%q) items = %v, want 3 items", input, dishes[0].Items)
		}
	}
}

func TestParse_CompoundAlone(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("Burger")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	if dishes[0].Name != "Burger" {
		t.Errorf("name = %q, want Burger", dishes[0].Name)
	}
	if dishes[0].Items != nil {
		t.Errorf("items = %v, want nil (decomposition happens later)", dishes[0].Items)
	}
}

func TestParse_CompoundWithExplicitItems(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("Burger mit Tempeh, Salat")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	if dishes[0].Name != "Burger" {
		t.Errorf("name = %q, want Burger", dishes[0].Name)
	}
	items := lowerAll(dishes[0].Items)
	if len(items) != 2 || items[0] != "tempeh" || items[1] != "salat" {
		t.Errorf("items = %v, want [Tempeh Salat]", dishes[0].Items)
	}
}

func TestParse_AdjectivesAndFatHints(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("gebratenes Hähnchen, pochiertes Ei, eingelegte Gurke")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	items := lowerAll(dishes[0].Items)
	if len(items) != 3 || items[0] != "hähnchen" || items[1] != "ei" || items[2] != "gurke" {
		t.Errorf("items = %v, want adjectives stripped", dishes[0].Items)
	}
	if len(dishes[0].FatHints) != 1 || dishes[0].FatHints[0] != "gebratenes" {
		t.Errorf("fat hints = %v, want [gebratenes]", dishes[0].FatHints)
	}
}

func TestParse_AdjectiveOnlyTokenVanishes(t *testing.T) {
	p := newTestParser(t)

	// "frittiert" as a trailing token is a preparation note, not a food.
	dishes := p.Parse("Kartoffeln, frittiert")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	if dishes[0].Name != "Kartoffeln" {
		t.Errorf("name = %q, want Kartoffeln", dishes[0].Name)
	}
	if dishes[0].Items != nil {
		t.Errorf("items = %v, want nil", dishes[0].Items)
	}
	if len(dishes[0].FatHints) != 1 || dishes[0].FatHints[0] != "frittiert" {
		t.Errorf("fat hints = %v, want [frittiert]", dishes[0].FatHints)
	}
}

func TestParse_Question_Compound(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("Ist Spaghetti Carbonara ok?")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	if dishes[0].Name != "Spaghetti Carbonara" {
		t.Errorf("name = %q, want Spaghetti Carbonara", dishes[0].Name)
	}
	if dishes[0].Items != nil {
		t.Errorf("items = %v, want nil", dishes[0].Items)
	}
}

func TestParse_Question_Foods(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("Darf ich Banane und Spinat zusammen essen?")
	if len(dishes) != 1 {
		t.Fatalf("expected 1 dish, got %d", len(dishes))
	}
	items := dishes[0].Items
	if len(items) != 2 || items[0] != "Banane" || items[1] != "Spinat" {
		t.Errorf("items = %v, want [Banane Spinat]", items)
	}
}

func TestParse_IngredientList(t *testing.T) {
	p := newTestParser(t)

	input := `Folgendes Frühstück ok?
Haferflocken: 60g
Banane: ½ Stück
Kokosjoghurt (vegan): 2-3 EL
Zubereitung: alles vermischen und quellen lassen`

	dishes := p.Parse(input)
	if len(dishes) != 1 {
		t.Fatalf("expected 1 aggregated dish, got %d", len(dishes))
	}
	items := lowerAll(dishes[0].Items)
	if len(items) != 3 {
		t.Fatalf("items = %v, want 3 ingredients", dishes[0].Items)
	}
	for i, want := range []string{"haferflocken", "banane", "kokosjoghurt"} {
		if items[i] != want {
			t.Errorf("item %d = %q, want %q", i, items[i], want)
		}
	}
}

func TestParse_NumberedDishList(t *testing.T) {
	p := newTestParser(t)

	dishes := p.Parse("1. Pizza 2. Grüner Smoothie")
	if len(dishes) != 2 {
		t.Fatalf("expected 2 dishes, got %d: %v", len(dishes), dishes)
	}
	if dishes[0].Name != "Pizza" || dishes[1].Name != "Grüner Smoothie" {
		t.Errorf("names = %q, %q", dishes[0].Name, dishes[1].Name)
	}
}

func TestParse_EmptyAndFallback(t *testing.T) {
	p := newTestParser(t)

	if dishes := p.Parse("   "); dishes != nil {
		t.Errorf("Parse(blank) = %v, want nil", dishes)
	}

	dishes := p.Parse("Zaubertrank")
	if len(dishes) != 1 || dishes[0].Name != "Zaubertrank" {
		t.Errorf("unrecognized input should fall back to a single query, got %v", dishes)
	}
}

func TestDetectTemporalSeparation(t *testing.T) {
	tests := []struct {
		input string
		first string
		wait  int
	}{
		{"Apfel 30 min vor dem Mittagessen", "apfel", 30},
		{"erst Obst, dann Reis", "obst", 0},
		{"Apfel und nach 45 Minuten Hähnchen", "apfel", 45},
	}
	for _, tt := range tests {
		split := DetectTemporalSeparation(tt.input)
		if split == nil {
			t.Errorf("DetectTemporalSeparation(%q) = nil", tt.input)
			continue
		}
		if len(split.FirstFoods) == 0 || split.FirstFoods[0] != tt.first {
			t.Errorf("%q: first foods = %v, want [%s]", tt.input, split.FirstFoods, tt.first)
		}
		if split.WaitMinutes != tt.wait {
			t.Errorf("%q: wait = %d, want %d", tt.input, split.WaitMinutes, tt.wait)
		}
	}

	if split := DetectTemporalSeparation("Reis zusammen mit Hähnchen"); split != nil {
		t.Errorf("combined meal detected as temporal split: %+v", split)
	}
}

func TestIsBreakfastContext(t *testing.T) {
	positive := []string{
		"Was esse ich zum Frühstück?",
		"Morgens gibt es Porridge",
		"Overnight Oats mit Beeren",
	}
	for _, s := range positive {
		if !IsBreakfastContext(s) {
			t.Errorf("IsBreakfastContext(%q) = false, want true", s)
		}
	}
	if IsBreakfastContext("Abendessen: Lachs mit Brokkoli") {
		t.Error("dinner misdetected as breakfast")
	}
}

func TestIsFoodQuery(t *testing.T) {
	p := newTestParser(t)

	positive := []string{
		"Darf ich Reis und Hähnchen kombinieren?",
		"Passt Lachs zu Brokkoli zusammen?",
		"Reis, Hähnchen",
	}
	for _, s := range positive {
		if !p.IsFoodQuery(s) {
			t.Errorf("IsFoodQuery(%q) = false, want true", s)
		}
	}

	negative := []string{
		"Empfiehl mir ein Gericht",
		"Was darf ich heute essen?",
		"Hast du ein gutes Gericht für mich?",
	}
	for _, s := range negative {
		if p.IsFoodQuery(s) {
			t.Errorf("IsFoodQuery(%q) = true, want false", s)
		}
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("<div><p>Mittagsmenü</p></div>") {
		t.Error("markup not detected")
	}
	if LooksLikeHTML("Reis < Kartoffeln > Pasta") {
		t.Error("plain text misdetected as HTML")
	}
}

func TestExtractText(t *testing.T) {
	input := `<html><body>
<h1>Mittagsmenü</h1>
<ul>
<li>Lachs mit Brokkoli</li>
<li>Reis mit Gemüse</li>
</ul>
<script>analytics();</script>
</body></html>`

	text, err := ExtractText(input)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %v", lines)
	}
	if !strings.Contains(text, "Lachs mit Brokkoli") {
		t.Errorf("menu entry missing from extracted text: %q", text)
	}
	if strings.Contains(text, "analytics") {
		t.Errorf("script content leaked into extracted text: %q", text)
	}
}

func TestInferDishName(t *testing.T) {
	if got := InferDishName([]string{"Reis", "Hähnchen"}); got != "Reis + Hähnchen" {
		t.Errorf("InferDishName = %q", got)
	}
	got := InferDishName([]string{"Reis", "Hähnchen", "Brokkoli", "Salat", "Gurke"})
	if got != "Reis + Hähnchen + 3 weitere" {
		t.Errorf("InferDishName = %q", got)
	}
}
