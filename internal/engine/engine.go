// Package engine implements the deterministic Trennkost rule engine.
// Evaluation is a pure function over classified items: no I/O, no external
// calls, no randomness. The probabilistic classifier never reaches this code.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// Engine evaluates a normalized dish against the loaded rule set.
type Engine struct {
	rules *model.RuleSet
}

// New creates an engine over an already-validated rule set.
func New(rules *model.RuleSet) *Engine {
	return &Engine{rules: rules}
}

// NewDefault creates an engine with the embedded rule set.
func NewDefault() (*Engine, error) {
	rules, err := LoadRules("")
	if err != nil {
		return nil, err
	}
	return New(rules), nil
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *model.RuleSet {
	return e.rules
}

// partition is the precomputed view of a dish analysis that rule
// conditions are checked against.
type partition struct {
	groups    map[model.FoodGroup][]model.FoodItem
	subgroups map[model.FoodGroup]map[model.FoodSubgroup]bool
	flags     map[model.Flag]bool
}

func (p *partition) has(g model.FoodGroup) bool {
	return len(p.groups[g]) > 0
}

// Evaluate applies all rules to the analysis and returns a fresh result.
// Calling it twice with the same input yields bit-identical output.
func (e *Engine) Evaluate(a *model.DishAnalysis) *model.TrennkostResult {
	all := a.AllItems()
	part := buildPartition(a, all)

	var problems []model.Problem
	var okNotes []string
	worst := model.VerdictOK
	triggeredPairs := make(map[string]bool)

	for _, id := range e.rules.Priority {
		rule := e.rules.Get(id)
		fired, detail := checkCondition(rule.Condition, part, triggeredPairs)
		if !fired {
			continue
		}
		if pc, ok := rule.Condition.(model.PairPresent); ok {
			triggeredPairs[pc.PairKey()] = true
		}

		switch {
		case rule.Advisory:
			// Advisory rules add an INFO problem and never touch the verdict.
			problems = append(problems, e.buildProblem(rule, detail, part))
		case rule.Verdict == model.VerdictOK:
			okNotes = append(okNotes, rule.Description)
		default:
			problems = append(problems, e.buildProblem(rule, detail, part))
			worst = worseVerdict(worst, rule.Verdict)
		}
	}

	// Unknown items force CONDITIONAL unless a rule already forced NOT_OK.
	if part.flags[model.FlagUnknownItems] && worst != model.VerdictNotOK {
		worst = worseVerdict(worst, model.VerdictConditional)
	}

	questions := e.buildQuestions(a, part, problems, worst)
	if len(questions) > 0 && worst == model.VerdictOK {
		worst = model.VerdictConditional
	}

	return &model.TrennkostResult{
		DishName:       a.DishName,
		Verdict:        worst,
		Summary:        buildSummary(a.DishName, worst, problems, questions),
		Items:          all,
		Problems:       problems,
		Questions:      questions,
		OKNotes:        okNotes,
		GroupsFound:    groupLabels(part),
		SubgroupsFound: sortedSubgroups(part),
	}
}

func buildPartition(a *model.DishAnalysis, all []model.FoodItem) *partition {
	p := &partition{
		groups:    make(map[model.FoodGroup][]model.FoodItem),
		subgroups: make(map[model.FoodGroup]map[model.FoodSubgroup]bool),
		flags:     make(map[model.Flag]bool),
	}
	for _, item := range all {
		p.groups[item.Group] = append(p.groups[item.Group], item)
		if item.Subgroup != "" {
			if p.subgroups[item.Group] == nil {
				p.subgroups[item.Group] = make(map[model.FoodSubgroup]bool)
			}
			p.subgroups[item.Group][item.Subgroup] = true
		}
		if item.Canonical == "Zucker" {
			p.flags[model.FlagRefinedSugar] = true
		}
	}
	if len(a.UnknownTerms) > 0 {
		p.flags[model.FlagUnknownItems] = true
	}
	if len(a.AssumedItems) > 0 {
		p.flags[model.FlagAssumedItems] = true
	}
	return p
}

// detail carries the context of a fired rule for problem construction.
type detail struct {
	pair  []model.FoodGroup
	group model.FoodGroup
}

// checkCondition decides whether a rule condition is satisfied by the
// partition. The type switch is exhaustive over the closed condition set.
func checkCondition(cond model.Condition, p *partition, triggeredPairs map[string]bool) (bool, detail) {
	switch c := cond.(type) {
	case model.PairPresent:
		if triggeredPairs[c.PairKey()] {
			// A higher-priority rule already handled this pair.
			return false, detail{}
		}
		if c.A == c.B {
			// Same-group pair: fires on two or more items of that group.
			if len(p.groups[c.A]) >= 2 {
				return true, detail{pair: []model.FoodGroup{c.A}}
			}
			return false, detail{}
		}
		if !p.has(c.A) || !p.has(c.B) {
			return false, detail{}
		}
		if len(c.AllowedSubgroups) > 0 {
			// Exception rule: every single item of group B must carry one
			// of the allowed subgroups. One item outside the set disables
			// the exception, regardless of what else is in the group.
			for _, item := range p.groups[c.B] {
				if !subgroupAllowed(item.Subgroup, c.AllowedSubgroups) {
					return false, detail{}
				}
			}
		}
		return true, detail{pair: []model.FoodGroup{c.A, c.B}}

	case model.GroupPresent:
		if p.has(c.Group) {
			return true, detail{group: c.Group}
		}
		return false, detail{}

	case model.FlagPresent:
		return p.flags[c.Flag], detail{}

	case model.SubgroupCountAtLeast:
		if len(p.subgroups[c.Group]) >= c.Min {
			return true, detail{group: c.Group}
		}
		return false, detail{}
	}
	return false, detail{}
}

func subgroupAllowed(s model.FoodSubgroup, allowed []model.FoodSubgroup) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

func (e *Engine) buildProblem(rule *model.Rule, d detail, p *partition) model.Problem {
	var affectedItems []string
	var affectedGroups []model.FoodGroup

	switch cond := rule.Condition.(type) {
	case model.SubgroupCountAtLeast:
		// Label items with their subgroup so the conflict is visible
		// ("Hähnchen (FLEISCH)", "Ei (EIER)").
		affectedGroups = append(affectedGroups, cond.Group)
		for _, item := range p.groups[cond.Group] {
			if item.Subgroup != "" {
				affectedItems = append(affectedItems, fmt.Sprintf("%s (%s)", item.Label(), item.Subgroup))
			}
		}
	case model.FlagPresent:
		if cond.Flag == model.FlagRefinedSugar {
			affectedGroups = append(affectedGroups, model.GroupKH)
			for _, g := range model.AllGroups {
				for _, item := range p.groups[g] {
					if item.Canonical == "Zucker" {
						affectedItems = append(affectedItems, item.Label())
					}
				}
			}
		}
	default:
		groups := d.pair
		if len(groups) == 0 && d.group != "" {
			groups = []model.FoodGroup{d.group}
		}
		for _, g := range groups {
			affectedGroups = append(affectedGroups, g)
			for _, item := range p.groups[g] {
				affectedItems = append(affectedItems, fmt.Sprintf("%s (%s)", item.Label(), g))
			}
		}
	}

	return model.Problem{
		RuleID:         rule.ID,
		Description:    rule.Description,
		Severity:       rule.Severity,
		AffectedItems:  affectedItems,
		AffectedGroups: affectedGroups,
		SourceRef:      rule.SourceRef,
		Explanation:    rule.Explanation,
	}
}

// buildQuestions generates clarification questions, but only where the
// answer could still change the verdict. A dish that is already NOT_OK
// from fully resolved items gets no questions.
func (e *Engine) buildQuestions(a *model.DishAnalysis, p *partition, problems []model.Problem, verdict model.Verdict) []model.Question {
	var questions []model.Question
	notOK := verdict == model.VerdictNotOK

	if len(a.UnknownTerms) > 0 && !notOK {
		questions = append(questions, model.Question{
			Question: fmt.Sprintf(
				"Folgende Zutaten konnte ich nicht eindeutig zuordnen: %s. Kannst du diese näher beschreiben?",
				strings.Join(a.UnknownTerms, ", ")),
			Reason:       "Unbekannte Zutaten verhindern eine vollständige Bewertung.",
			AffectsItems: a.UnknownTerms,
		})
	}

	if len(a.AssumedItems) > 0 && !notOK {
		var names []string
		for _, item := range a.AssumedItems {
			names = append(names, item.RawTerm)
		}
		questions = append(questions, model.Question{
			Question:     fmt.Sprintf("Ich vermute folgende zusätzliche Zutaten: %s. Stimmt das?", strings.Join(names, ", ")),
			Reason:       "Vermutete Zutaten müssen bestätigt werden für eine sichere Bewertung.",
			AffectsItems: names,
		})
	}

	// Ambiguous entries: ask when the verdict is still open, or when the
	// ambiguous item's group is part of an actual conflict (resolving it
	// could then flip the verdict).
	for _, item := range a.AllItems() {
		if item.AmbiguityNote == "" {
			continue
		}
		if notOK && !groupInProblems(item.Group, problems) {
			continue
		}
		questions = append(questions, model.Question{
			Question:     fmt.Sprintf("'%s' ist mehrdeutig: %s", item.RawTerm, item.AmbiguityNote),
			Reason:       "Mehrdeutige Zutat erfordert Klärung für korrekte Zuordnung.",
			AffectsItems: []string{item.RawTerm},
		})
	}

	// Fat quantity matters as soon as fat meets another concentrated group.
	if p.has(model.GroupFett) && !notOK {
		other := false
		for _, g := range model.AllGroups {
			if g != model.GroupFett && g.Concentrated() && p.has(g) {
				other = true
				break
			}
		}
		if other {
			var fettItems []string
			for _, item := range p.groups[model.GroupFett] {
				fettItems = append(fettItems, item.Label())
			}
			questions = append(questions, model.Question{
				Question: fmt.Sprintf(
					"Wie viel Fett (%s) ist enthalten? Kleine Mengen (1-2 TL) sind mit allem OK, größere nur mit Gemüse/Salat.",
					strings.Join(fettItems, ", ")),
				Reason:       "Die Fettmenge beeinflusst die Bewertung.",
				AffectsItems: fettItems,
			})
		}
	}

	// Compound clarification is skipped once the user named ingredients:
	// the explicit list already answers it.
	if a.ClarificationHint != "" && !a.HasExplicitItems && !notOK {
		questions = append(questions, model.Question{
			Question:     a.ClarificationHint,
			Reason:       "Details zum Gericht nötig für vollständige Analyse.",
			AffectsItems: []string{a.DishName},
		})
	}

	return questions
}

func groupInProblems(g model.FoodGroup, problems []model.Problem) bool {
	for _, p := range problems {
		for _, pg := range p.AffectedGroups {
			if pg == g {
				return true
			}
		}
	}
	return false
}

func worseVerdict(a, b model.Verdict) model.Verdict {
	rank := func(v model.Verdict) int {
		switch v {
		case model.VerdictNotOK:
			return 2
		case model.VerdictConditional:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func groupLabels(p *partition) map[model.FoodGroup][]string {
	out := make(map[model.FoodGroup][]string, len(p.groups))
	for _, g := range model.AllGroups {
		items := p.groups[g]
		if len(items) == 0 {
			continue
		}
		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, item.Label())
		}
		out[g] = labels
	}
	return out
}

func sortedSubgroups(p *partition) map[model.FoodGroup][]model.FoodSubgroup {
	if len(p.subgroups) == 0 {
		return nil
	}
	out := make(map[model.FoodGroup][]model.FoodSubgroup, len(p.subgroups))
	for _, g := range model.AllGroups {
		set := p.subgroups[g]
		if len(set) == 0 {
			continue
		}
		subs := make([]model.FoodSubgroup, 0, len(set))
		for s := range set {
			subs = append(subs, s)
		}
		sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
		out[g] = subs
	}
	return out
}

func buildSummary(dishName string, verdict model.Verdict, problems []model.Problem, questions []model.Question) string {
	switch verdict {
	case model.VerdictOK:
		return fmt.Sprintf("%s: Kombination ist OK nach Trennkost-Prinzip.", dishName)
	case model.VerdictNotOK:
		groupSet := make(map[model.FoodGroup]bool)
		for _, p := range problems {
			if p.Severity != model.SeverityCritical {
				continue
			}
			for _, g := range p.AffectedGroups {
				groupSet[g] = true
			}
		}
		if len(groupSet) > 0 {
			var groups []string
			for _, g := range model.AllGroups {
				if groupSet[g] {
					groups = append(groups, string(g))
				}
			}
			return fmt.Sprintf("%s: NICHT OK — %s sollten nicht kombiniert werden.", dishName, strings.Join(groups, " + "))
		}
		return fmt.Sprintf("%s: NICHT OK nach Trennkost-Prinzip.", dishName)
	case model.VerdictConditional:
		if len(questions) > 0 {
			return fmt.Sprintf("%s: Bedingt OK — Rückfragen nötig (%d offene Fragen).", dishName, len(questions))
		}
		return fmt.Sprintf("%s: Bedingt OK — hängt von Mengen/Details ab.", dishName)
	}
	return fmt.Sprintf("%s: Kann nicht sicher bewertet werden (unbekannte Zutaten).", dishName)
}
