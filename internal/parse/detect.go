package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// TemporalSplit describes sequential eating ("erst Obst, dann Reis"):
// the foods come one after the other instead of on one plate, so the
// combination rules do not apply.
type TemporalSplit struct {
	FirstFoods  []string
	SecondFoods []string
	WaitMinutes int // 0 when no wait time was given
}

var temporalPatterns = []*regexp.Regexp{
	// "Apfel 30 min vor dem Mittagessen"
	regexp.MustCompile(`(?i)([\wäöüß]+(?:\s+[\wäöüß]+)?)\s+(?:(\d+)\s*min(?:uten)?\s+)?vor\s+(?:dem|der)?\s*([\wäöüß]+)`),
	// "erst Obst, dann Reis" / "zuerst Obst, danach Reis"
	regexp.MustCompile(`(?i)(?:erst|zuerst)\s+([\wäöüß]+(?:\s+[\wäöüß]+)?),?\s+(?:dann|danach|anschließend)\s+([\wäöüß]+)`),
	// "Apfel und nach 45 min Hähnchen"
	regexp.MustCompile(`(?i)([\wäöüß]+(?:\s+[\wäöüß]+)?)\s+und\s+nach\s+(\d+)\s*min(?:uten)?\s+([\wäöüß]+)`),
	// "nach dem Apfel dann Reis"
	regexp.MustCompile(`(?i)nach\s+(?:dem|der)?\s*([\wäöüß]+(?:\s+[\wäöüß]+)?)\s+dann\s+([\wäöüß]+)`),
}

// DetectTemporalSeparation reports whether text asks about eating foods
// one AFTER the other rather than together. Returns nil when the text
// describes a single combined meal.
func DetectTemporalSeparation(text string) *TemporalSplit {
	for _, re := range temporalPatterns {
		m := re.FindStringSubmatch(strings.ToLower(text))
		if m == nil {
			continue
		}
		switch len(m) {
		case 4:
			split := &TemporalSplit{
				FirstFoods:  []string{strings.TrimSpace(m[1])},
				SecondFoods: []string{strings.TrimSpace(m[3])},
			}
			if m[2] != "" {
				split.WaitMinutes, _ = strconv.Atoi(m[2])
			}
			return split
		case 3:
			return &TemporalSplit{
				FirstFoods:  []string{strings.TrimSpace(m[1])},
				SecondFoods: []string{strings.TrimSpace(m[2])},
			}
		}
	}
	return nil
}

var breakfastKeywords = regexp.MustCompile(`(?i)frühstück|fruehstueck|morgens|vormittag|zum\s*frühstück|breakfast` +
	`|morgenessen|am\s*morgen|in\s*der\s*früh|in\s*der\s*frueh` +
	`|haferflocken|porridge|müsli|muesli|overnight|granola|oatmeal`)

// IsBreakfastContext reports whether the message is about breakfast or
// morning eating, either explicitly or via typical breakfast foods.
func IsBreakfastContext(text string) bool {
	return breakfastKeywords.MatchString(text)
}

var foodQueryKeywords = regexp.MustCompile(`(?i)essen|kombinieren|kombination|zusammen|mischen` +
	`|trennkost|erlaubt|darf ich|kann ich.*essen` +
	`|ist.*ok|in ordnung|passt.*zusammen|speisekarte|menü` +
	`|gericht|mahlzeit|teller`)

// Requests FOR a recipe or suggestion are not analysis questions.
var recipeRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)hast du.*gericht`),
	regexp.MustCompile(`(?i)gib.*gericht`),
	regexp.MustCompile(`(?i)kannst du.*gericht.*vorschlag`),
	regexp.MustCompile(`(?i)schlage.*gericht.*vor`),
	regexp.MustCompile(`(?i)empfiehl.*gericht`),
	regexp.MustCompile(`(?i)idee.*für.*gericht`),
	regexp.MustCompile(`(?i)was.*darf.*ich.*essen`),
	regexp.MustCompile(`(?i)was.*könnte.*ich.*essen`),
	regexp.MustCompile(`(?i)was.*wäre.*eine.*gute.*option`),
	regexp.MustCompile(`(?i)gute.*option.*für`),
	regexp.MustCompile(`(?i)vorschlag.*für.*(frühstück|mittagessen|abendessen)`),
}

// IsFoodQuery reports whether the message asks to analyze a concrete food
// combination. Recipe requests ("empfiehl mir ein Gericht") return false:
// the user wants a suggestion, not a verdict.
func (p *Parser) IsFoodQuery(text string) bool {
	for _, re := range recipeRequestPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	if foodQueryKeywords.MatchString(text) {
		return true
	}

	// No keyword hit: two or more recognizable foods still count.
	found := map[string]bool{}
	for _, segment := range itemSeparators.Split(strings.TrimSpace(text), -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if m := p.index.Lookup(segment); m != nil {
			found[strings.ToLower(segment)] = true
			continue
		}
		for _, word := range strings.Fields(segment) {
			word = strings.Trim(word, "?!.,;:()")
			if len([]rune(word)) >= 3 && p.index.Lookup(word) != nil {
				found[strings.ToLower(word)] = true
				break
			}
		}
	}
	return len(found) >= 2
}
