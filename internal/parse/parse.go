// Package parse turns free-form user text into dish queries: dish names
// plus optional explicit ingredient lists. It understands natural-language
// questions, pasted ingredient lists, menu lines and quoted fragments.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/finnflow/lebensessenz-kursbot/internal/ontology"
)

// DishQuery is one dish extracted from the input. Items == nil means the
// dish name itself still needs decomposition (compound lookup or fallback
// extraction); an empty non-nil list never occurs.
type DishQuery struct {
	Name     string
	Items    []string
	FatHints []string // Cooking-method adjectives implying added fat ("gebraten")
}

// Separators between ingredients: commas, semicolons, "und", "mit", "&".
var itemSeparators = regexp.MustCompile(`(?i)[,;]\s*|\s+und\s+|\s+mit\s+|\s+&\s+`)

// Characters trimmed from token edges. Includes straight and curly quotes;
// quoted ingredients must parse the same as unquoted ones.
const tokenCutset = "\"'“”„‚’‘()[]{}?!.,;:- \t"

// Purely descriptive adjectives that never denote an ingredient.
var cosmeticAdjectives = buildAdjectiveSet(
	"normal", "frisch", "roh", "gekocht", "gegrillt", "gedünstet",
	"geschmort", "gebacken", "gedämpft", "eingelegt", "pochiert",
	"mariniert", "vegan", "vegetarisch", "glutenfrei", "laktosefrei",
	"biologisch", "klein", "groß", "ganz", "halb",
)

// Cooking methods that imply added fat. These are removed from the token
// like cosmetic adjectives, but they additionally surface as a fat hint so
// the inferred frying fat is not lost.
var fatAdjectives = buildAdjectiveSet("gebraten", "frittiert", "paniert")

// buildAdjectiveSet expands a German adjective stem into its inflected
// forms (stem, stem+e, stem+er, stem+es).
func buildAdjectiveSet(stems ...string) map[string]bool {
	set := make(map[string]bool, len(stems)*4)
	for _, stem := range stems {
		for _, suffix := range []string{"", "e", "er", "es"} {
			set[stem+suffix] = true
		}
	}
	set["bio"] = true
	return set
}

// Pattern: "IngredientName (optional note): quantity".
// Matches "Haferflocken: 60g", "Kokosjoghurt (vegan): 2-3 EL", "Banane: ½ Stück".
var ingredientQuantityLine = regexp.MustCompile(
	`^([A-ZÄÖÜa-zäöüß][A-ZÄÖÜa-zäöüß\s\-]{1,40}?)` +
		`(?:\s*\([^)]{1,30}\))?` +
		`\s*:\s*` +
		`[\d½¼¾⅓⅔\-–~<>]`)

// Lines skipped while parsing pasted recipes: instructions and headers.
var skipLine = regexp.MustCompile(`(?i)zubereitung|anleitung|schritt|tipps?:|hinweis|warum|erklärt` +
	`|einweichen|einrühren|vorbereiten|vermischen|anrichten|unterheben`)

var questionStart = regexp.MustCompile(`(?i)^(ist|kann|darf|sind|passt|was|wie|wäre|würde)\s`)

var numberedItem = regexp.MustCompile(`\d+[.)]\s*`)

// Parser extracts dish queries from text using the ontology and compound
// registry for recognition. It holds only immutable references and is safe
// for concurrent use.
type Parser struct {
	index     *ontology.Index
	compounds *ontology.Compounds
}

// NewParser creates a parser over the loaded data.
func NewParser(index *ontology.Index, compounds *ontology.Compounds) *Parser {
	return &Parser{index: index, compounds: compounds}
}

// Parse splits text into dish queries.
//
// Handled shapes:
//   - pasted ingredient lists ("Haferflocken: 60g\n...") → one aggregated dish
//   - natural-language questions ("Ist Spaghetti Carbonara ok?")
//   - plain ingredient enumerations ("Reis, Hähnchen, Brokkoli")
//   - compound names with explicit extras ("Burger mit Tempeh, Salat")
//   - numbered or newline-separated dish lists
func (p *Parser) Parse(text string) []DishQuery {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// A pasted recipe has a question intro but an ingredient-list body,
	// so this check runs before question detection.
	if dishes := p.parseIngredientList(text); dishes != nil {
		return dishes
	}

	if strings.Contains(text, "?") || questionStart.MatchString(text) {
		if dishes := p.parseQuestion(text); dishes != nil {
			return dishes
		}
	}

	var dishes []DishQuery
	for _, line := range splitDishLines(text) {
		if q, ok := p.parseLine(line); ok {
			dishes = append(dishes, q)
		}
	}
	if len(dishes) == 0 {
		return []DishQuery{{Name: text}}
	}
	return dishes
}

// parseLine handles a single dish line.
func (p *Parser) parseLine(line string) (DishQuery, bool) {
	if p.compounds.Lookup(line) != nil {
		return DishQuery{Name: line}, true
	}

	parts, fatHints := p.splitItems(line)
	switch {
	case len(parts) >= 2:
		// "Burger mit Tempeh, Salat": leading compound name, rest explicit.
		if p.compounds.Lookup(parts[0]) != nil {
			return DishQuery{Name: parts[0], Items: parts[1:], FatHints: fatHints}, true
		}
		return DishQuery{Name: InferDishName(parts), Items: parts, FatHints: fatHints}, true
	case len(parts) == 1:
		return DishQuery{Name: parts[0], FatHints: fatHints}, true
	}
	return DishQuery{}, false
}

// splitItems tokenizes a line into ingredient candidates, dropping cosmetic
// adjectives and collecting fat-method hints.
func (p *Parser) splitItems(line string) (parts []string, fatHints []string) {
	for _, raw := range itemSeparators.Split(line, -1) {
		token := strings.Trim(raw, tokenCutset)
		if token == "" {
			continue
		}
		token, hints := stripAdjectives(token)
		fatHints = append(fatHints, hints...)
		if token == "" {
			continue
		}
		parts = append(parts, token)
	}
	return parts, fatHints
}

// stripAdjectives removes leading adjectives from a token. Cosmetic ones
// vanish; fat-implying ones are returned as hints.
func stripAdjectives(token string) (string, []string) {
	var hints []string
	words := strings.Fields(token)
	for len(words) > 0 {
		w := strings.ToLower(strings.Trim(words[0], tokenCutset))
		if fatAdjectives[w] {
			hints = append(hints, w)
			words = words[1:]
			continue
		}
		if cosmeticAdjectives[w] {
			words = words[1:]
			continue
		}
		break
	}
	// A token that was nothing but adjectives is not an ingredient.
	if len(words) == 0 {
		return "", hints
	}
	// Single adjective-only tokens like "frittiert" at the end of a list.
	rest := strings.Join(words, " ")
	low := strings.ToLower(strings.Trim(rest, tokenCutset))
	if fatAdjectives[low] {
		return "", append(hints, low)
	}
	if cosmeticAdjectives[low] {
		return "", hints
	}
	return rest, hints
}

// parseQuestion extracts foods from a natural-language question by scanning
// for compound names (longest first) and ontology terms on word boundaries.
func (p *Parser) parseQuestion(text string) []DishQuery {
	searchText := text
	compound := p.compounds.FindInText(text)
	if compound != "" {
		// Remove the matched name so its own words are not re-matched as
		// individual ingredients.
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(compound))
		searchText = re.ReplaceAllString(text, " ")
	}

	_, fatHints := p.splitItems(searchText)
	found := p.index.ScanCanonicals(searchText)

	switch {
	case compound != "" && len(found) > 0:
		return []DishQuery{{Name: compound, Items: found, FatHints: fatHints}}
	case compound != "":
		return []DishQuery{{Name: compound, FatHints: fatHints}}
	case len(found) > 1:
		return []DishQuery{{Name: InferDishName(found), Items: found, FatHints: fatHints}}
	case len(found) == 1:
		return []DishQuery{{Name: found[0], FatHints: fatHints}}
	}
	return nil
}

// parseIngredientList detects a pasted recipe: three or more lines shaped
// like "Name: quantity". All ingredient lines aggregate into ONE dish so
// the combination is judged as a whole.
func (p *Parser) parseIngredientList(text string) []DishQuery {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return nil
	}

	var ingredients []string
	var fatHints []string
	questionIntro := ""

	for _, line := range lines {
		if skipLine.MatchString(line) || hasEmoji(line) {
			continue
		}
		if m := ingredientQuantityLine.FindStringSubmatch(line); m != nil {
			name := strings.Trim(m[1], "-– ")
			name, hints := stripAdjectives(name)
			fatHints = append(fatHints, hints...)
			if len([]rune(name)) >= 2 {
				ingredients = append(ingredients, name)
			}
			continue
		}
		if questionIntro == "" && strings.Contains(line, "?") && len([]rune(line)) < 80 {
			questionIntro = line
		}
	}

	if len(ingredients) < 3 {
		return nil
	}

	dishName := "Rezept-Kombination"
	if questionIntro != "" {
		name := strings.SplitN(questionIntro, "?", 2)[0]
		name = regexp.MustCompile(`(?i)^(folgendes?|mein|das|ein|eine)\s+`).ReplaceAllString(strings.TrimSpace(name), "")
		if name = strings.TrimSpace(name); name != "" {
			dishName = name
		}
	}

	return []DishQuery{{Name: dishName, Items: ingredients, FatHints: fatHints}}
}

// InferDishName creates a display name from an ingredient list.
func InferDishName(items []string) string {
	if len(items) <= 3 {
		return strings.Join(items, " + ")
	}
	return fmt.Sprintf("%s + %s + %d weitere", items[0], items[1], len(items)-2)
}

// splitDishLines splits on newlines and numbered prefixes ("1. Pizza  2. ...").
func splitDishLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		for _, part := range numberedItem.Split(line, -1) {
			if part = strings.TrimSpace(part); part != "" {
				lines = append(lines, part)
			}
		}
	}
	return lines
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func hasEmoji(s string) bool {
	for _, r := range s {
		if r >= 0x1F300 && r <= 0x1FAFF {
			return true
		}
		if r == 0x2705 || r == 0x274C || r == 0x26A0 || r == 0x2192 {
			return true
		}
	}
	return false
}
