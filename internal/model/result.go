package model

// Verdict is the overall compatibility outcome for a dish.
type Verdict string

const (
	VerdictOK          Verdict = "OK"          // Combination is fine
	VerdictNotOK       Verdict = "NOT_OK"      // Combination violates rules
	VerdictConditional Verdict = "CONDITIONAL" // Depends on quantity/context/clarification
	VerdictUnknown     Verdict = "UNKNOWN"     // Cannot determine (unknown ingredients)
)

// ValidVerdict reports whether v is a known verdict.
func ValidVerdict(v Verdict) bool {
	switch v {
	case VerdictOK, VerdictNotOK, VerdictConditional, VerdictUnknown:
		return true
	}
	return false
}

// Severity ranks an individual triggered rule. It is used for tie-breaking
// among problems, never for overriding the verdict ordering.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // Hard rule violation (e.g. KH+PROTEIN)
	SeverityWarning  Severity = "WARNING"  // Soft or quantity-dependent violation
	SeverityInfo     Severity = "INFO"     // Informational, never elevates the verdict
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Problem is a single triggered rule violation or advisory.
type Problem struct {
	RuleID         string      `json:"rule_id"`
	Description    string      `json:"description"`
	Severity       Severity    `json:"severity"`
	AffectedItems  []string    `json:"affected_items"`  // Human-readable: ["Pasta (KH)", "Ei (PROTEIN)"]
	AffectedGroups []FoodGroup `json:"affected_groups"` // Machine-readable: [KH, PROTEIN]
	SourceRef      string      `json:"source_ref,omitempty"`
	Explanation    string      `json:"explanation,omitempty"`
}

// Question is a clarification the user must answer for a definitive verdict.
type Question struct {
	Question     string   `json:"question"`
	Reason       string   `json:"reason"`
	AffectsItems []string `json:"affects_items"`
}

// TrennkostResult is the final output of one rule evaluation. It is a value
// object: created fresh per call and never mutated afterwards.
type TrennkostResult struct {
	DishName       string                       `json:"dish_name"`
	Verdict        Verdict                      `json:"verdict"`
	Summary        string                       `json:"summary"`
	Items          []FoodItem                   `json:"items"`
	Problems       []Problem                    `json:"problems,omitempty"`
	Questions      []Question                   `json:"questions,omitempty"`
	OKNotes        []string                     `json:"ok_notes,omitempty"`        // Combinations that are explicitly fine
	GroupsFound    map[FoodGroup][]string       `json:"groups_found"`              // group → item labels
	SubgroupsFound map[FoodGroup][]FoodSubgroup `json:"subgroups_found,omitempty"` // group → sorted subgroups
}

// HasCritical reports whether any problem carries CRITICAL severity.
func (r *TrennkostResult) HasCritical() bool {
	for _, p := range r.Problems {
		if p.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
