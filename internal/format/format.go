// Package format renders analysis results into the text block a generative
// explanation layer consumes, plus retrieval query terms. It never invents
// items, groups or claims: everything comes from the result itself.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

var groupDisplay = map[model.FoodGroup]string{
	model.GroupKH:              "Kohlenhydrate",
	model.GroupProtein:         "Protein",
	model.GroupMilch:           "Milchprodukte",
	model.GroupHuelsenfruechte: "Hülsenfrüchte",
	model.GroupObst:            "Obst",
	model.GroupFett:            "Fette",
	model.GroupTrockenobst:     "Trockenobst",
}

var verdictDisplay = map[model.Verdict]string{
	model.VerdictOK:          "OK",
	model.VerdictNotOK:       "NICHT OK",
	model.VerdictConditional: "BEDINGT",
	model.VerdictUnknown:     "UNKLAR",
}

// FormatResults renders results as structured text for the LLM context.
// The verdict is rule-based and the block says so: the LLM explains it,
// never changes it.
func FormatResults(results []*model.TrennkostResult, breakfastContext bool) string {
	var parts []string
	parts = append(parts,
		"═══ TRENNKOST-ANALYSE (DETERMINISTISCH) ═══",
		"WICHTIG: Das Verdict wurde regelbasiert ermittelt und darf NICHT verändert werden.",
		"Deine Aufgabe: Erkläre das Ergebnis anhand der Kurs-Snippets.")

	for _, r := range results {
		if len(r.Questions) == 0 {
			parts = append(parts, "⚠️ KRITISCH: Alle Zutaten sind explizit genannt und bestätigt. Stelle KEINE Rückfragen zu Zutaten!")
			break
		}
	}
	parts = append(parts, "")

	for _, r := range results {
		parts = append(parts, formatResult(r, breakfastContext)...)
		parts = append(parts, "")
	}

	parts = append(parts, "═══ ENDE TRENNKOST-ANALYSE ═══")
	return strings.Join(parts, "\n")
}

func formatResult(r *model.TrennkostResult, breakfastContext bool) []string {
	verdict := verdictDisplay[r.Verdict]
	if verdict == "" {
		verdict = string(r.Verdict)
	}

	parts := []string{
		fmt.Sprintf("── %s ──", r.DishName),
		fmt.Sprintf("Verdict: %s", verdict),
		fmt.Sprintf("Zusammenfassung: %s", r.Summary),
	}

	if lines := groupLines(r); len(lines) > 0 {
		parts = append(parts, "Gruppen:")
		parts = append(parts, lines...)
	}

	if len(r.Problems) > 0 {
		parts = append(parts, "Probleme:")
		for _, p := range r.Problems {
			parts = append(parts, fmt.Sprintf("  [%s] %s", p.RuleID, p.Description))
			parts = append(parts, fmt.Sprintf("    Betrifft: %s", strings.Join(p.AffectedItems, ", ")))
			parts = append(parts, fmt.Sprintf("    Erklärung: %s", p.Explanation))
			if p.SourceRef != "" {
				parts = append(parts, fmt.Sprintf("    Quelle: %s", p.SourceRef))
			}
		}
	}

	if len(r.Questions) > 0 {
		parts = append(parts, "Offene Fragen (bitte an den User weitergeben):")
		for _, q := range r.Questions {
			parts = append(parts, fmt.Sprintf("  → %s", q.Question))
			if q.Reason != "" {
				parts = append(parts, fmt.Sprintf("     Grund: %s", q.Reason))
			}
		}
	} else {
		parts = append(parts, "KEINE OFFENEN FRAGEN — alle Zutaten sind klar und bestätigt.")
	}

	if len(r.OKNotes) > 0 {
		parts = append(parts, "OK-Kombinationen: "+strings.Join(r.OKNotes, "; "))
	}

	if dirs := fixDirections(r); len(dirs) > 0 {
		parts = append(parts, "TRENNKOST-KONFORME ALTERNATIVEN (frage den User):")
		for i, d := range dirs {
			parts = append(parts, fmt.Sprintf("  Richtung %d: %s", i+1, d))
		}
		parts = append(parts, "  → Frage den User, welche Komponente er behalten möchte.")
	}

	if breakfastContext {
		parts = append(parts, "")
		parts = append(parts, breakfastBlock(r)...)
	}

	return parts
}

// groupLines lists the found groups in fixed group order.
func groupLines(r *model.TrennkostResult) []string {
	var lines []string
	for _, g := range model.AllGroups {
		if g == model.GroupUnknown {
			continue
		}
		items := r.GroupsFound[g]
		if len(items) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", g, strings.Join(items, ", ")))
	}
	return lines
}

// fixDirections generates deterministic repair suggestions for NOT_OK
// dishes: for each conflicting group, keep it and swap the others for
// low-starch vegetables.
func fixDirections(r *model.TrennkostResult) []string {
	if r.Verdict != model.VerdictNotOK {
		return nil
	}

	conflicting := make(map[model.FoodGroup]bool)
	for _, p := range r.Problems {
		for _, g := range p.AffectedGroups {
			if g != model.GroupNeutral && g != model.GroupUnknown {
				conflicting[g] = true
			}
		}
	}
	if len(conflicting) < 2 {
		return nil
	}

	var groups []model.FoodGroup
	for g := range conflicting {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	var directions []string
	for _, keep := range groups {
		keepItems := r.GroupsFound[keep]
		if len(keepItems) == 0 {
			continue
		}

		var replaceItems, forbidden []string
		for _, g := range groups {
			if g == keep || len(r.GroupsFound[g]) == 0 {
				continue
			}
			replaceItems = append(replaceItems, cleanLabels(r.GroupsFound[g]))
			forbidden = append(forbidden, display(g))
		}
		if len(replaceItems) == 0 {
			continue
		}

		directions = append(directions, fmt.Sprintf(
			"Behalte %s (%s) → ersetze %s durch stärkearmes Gemüse/Salat. WICHTIG: Kein(e) %s im Alternativgericht!",
			display(keep), cleanLabels(keepItems),
			strings.Join(replaceItems, ", "),
			strings.Join(forbidden, ", ")))
	}
	return directions
}

// breakfastBlock renders the two-stage breakfast guidance and flags
// fat-rich items in the analyzed meal.
func breakfastBlock(r *model.TrennkostResult) []string {
	lines := []string{
		"FRÜHSTÜCKS-HINWEIS (Kurs Modul 1.2):",
		"Das Kursmaterial empfiehlt ein zweistufiges Frühstück:",
		"  1. Frühstück: Frisches Obst ODER Grüner Smoothie (fettfrei)",
		"     → Obst verdaut in 20-30 Min, Bananen/Trockenobst 45-60 Min",
		"  2. Frühstück (falls 1. nicht reicht): Fettfreie Kohlenhydrate (max 1-2 TL Fett)",
		"     → Empfehlungen: Overnight-Oats, Porridge, Reis-Pudding, Hirse-Grieß,",
		"       glutenfreies Brot mit Gurke/Tomate + max 1-2 TL Avocado",
		"",
		"WARUM FETTARM VOR MITTAGS?",
		"  Bis mittags läuft die Entgiftung des Körpers auf Hochtouren.",
		"  Leichte Kost spart Verdauungsenergie → mehr Energie für Entgiftung/Entschlackung.",
		"  Fettreiche Lebensmittel belasten die Verdauung und behindern diesen Prozess.",
	}

	var fatItems []string
	for _, g := range []model.FoodGroup{model.GroupFett, model.GroupMilch, model.GroupProtein} {
		for _, label := range r.GroupsFound[g] {
			fatItems = append(fatItems, fmt.Sprintf("%s (%s)", cleanLabel(label), display(g)))
		}
	}
	if len(fatItems) > 0 {
		lines = append(lines, "",
			fmt.Sprintf("FETTREICHE ITEMS IN DIESER MAHLZEIT: %s", strings.Join(fatItems, ", ")),
			"→ Empfehle dem User ZUERST fettarme Frühstücks-Alternativen (Obst, Haferflocken, Gemüse-Sticks).",
			"→ Falls der User darauf besteht: gewählte Komponente + Gemüse ist erlaubt, aber mit Hinweis.")
	}

	return lines
}

// BuildQuery assembles retrieval query terms from the results. Terms come
// only from found groups and fired problems.
func BuildQuery(results []*model.TrennkostResult, breakfastContext bool) string {
	queryParts := []string{"Lebensmittelkombinationen Trennkost Regeln"}

	if breakfastContext {
		queryParts = append(queryParts, "Frühstück optimal fettfrei fettarm Obst Smoothie Entgiftung zweistufig Overnight-Oats Porridge")
	}

	mentioned := make(map[model.FoodGroup]bool)
	for _, r := range results {
		for g := range r.GroupsFound {
			mentioned[g] = true
		}
		for _, p := range r.Problems {
			for _, g := range p.AffectedGroups {
				mentioned[g] = true
			}
		}
	}

	groupTerms := map[model.FoodGroup]string{
		model.GroupKH:              "Kohlenhydrate Getreide stärkehaltiges Gemüse",
		model.GroupProtein:         "Proteine Fleisch Fisch Eier",
		model.GroupMilch:           "Milchprodukte Käse sauer verstoffwechselt",
		model.GroupHuelsenfruechte: "Hülsenfrüchte schwer verdaulich",
		model.GroupObst:            "Obst allein nüchterner Magen Verdauung schnell",
		model.GroupFett:            "Fette kleine Mengen Öle",
		model.GroupNeutral:         "stärkearmes Gemüse Salat neutral kombinierbar",
	}
	for _, g := range model.AllGroups {
		if mentioned[g] {
			if terms, ok := groupTerms[g]; ok {
				queryParts = append(queryParts, terms)
			}
		}
	}

	milieu, gaerung := false, false
	for _, r := range results {
		for _, p := range r.Problems {
			expl := strings.ToLower(p.Explanation)
			if strings.Contains(expl, "milieu") || strings.Contains(expl, "verdauungssäfte") {
				milieu = true
			}
			if strings.Contains(expl, "gärung") || strings.Contains(expl, "fäulnis") {
				gaerung = true
			}
		}
	}
	if milieu {
		queryParts = append(queryParts, "verschiedene Milieus Verdauung sauer basisch neutralisieren")
	}
	if gaerung {
		queryParts = append(queryParts, "Gärung Fäulnis Obst Fermentation")
	}

	return strings.Join(queryParts, " ")
}

func display(g model.FoodGroup) string {
	if d, ok := groupDisplay[g]; ok {
		return d
	}
	return string(g)
}

// cleanLabel strips the canonical suffix from an item label ("raw → canonical").
func cleanLabel(label string) string {
	return strings.SplitN(label, " → ", 2)[0]
}

func cleanLabels(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = cleanLabel(l)
	}
	return strings.Join(out, ", ")
}
