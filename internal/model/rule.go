package model

import "fmt"

// Flag names a boolean property of a dish analysis that a rule can test.
type Flag string

const (
	FlagUnknownItems Flag = "unknown-items" // Analysis contains unresolved terms
	FlagAssumedItems Flag = "assumed-items" // Analysis contains inferred items
	FlagRefinedSugar Flag = "refined-sugar" // An item resolved to refined white sugar
)

// ValidFlag reports whether f is a known flag.
func ValidFlag(f Flag) bool {
	switch f {
	case FlagUnknownItems, FlagAssumedItems, FlagRefinedSugar:
		return true
	}
	return false
}

// Condition is the closed set of rule condition kinds. Evaluation is an
// exhaustive type switch in the engine; adding a kind without handling it
// there is a load-time error.
type Condition interface {
	isCondition()
	// Validate checks the condition's parameters against the known vocabularies.
	Validate() error
}

// PairPresent fires when both groups are present. A == B means "two or more
// items of the same group". A non-empty AllowedSubgroups turns the rule into
// an exception: it fires only when every item of group B carries one of the
// allowed subgroups.
type PairPresent struct {
	A                FoodGroup
	B                FoodGroup
	AllowedSubgroups []FoodSubgroup
}

func (PairPresent) isCondition() {}

func (c PairPresent) Validate() error {
	if !ValidGroup(c.A) {
		return fmt.Errorf("unknown group %q in pair", c.A)
	}
	if !ValidGroup(c.B) {
		return fmt.Errorf("unknown group %q in pair", c.B)
	}
	for _, s := range c.AllowedSubgroups {
		if !ValidSubgroup(s) {
			return fmt.Errorf("unknown subgroup %q in allowed_subgroups", s)
		}
	}
	return nil
}

// PairKey returns the order-independent key used for pair suppression.
func (c PairPresent) PairKey() string {
	a, b := string(c.A), string(c.B)
	if a > b {
		a, b = b, a
	}
	return a + "+" + b
}

// GroupPresent fires when the group has at least one item.
type GroupPresent struct {
	Group FoodGroup
}

func (GroupPresent) isCondition() {}

func (c GroupPresent) Validate() error {
	if !ValidGroup(c.Group) {
		return fmt.Errorf("unknown group %q", c.Group)
	}
	return nil
}

// FlagPresent fires when the named analysis flag is set.
type FlagPresent struct {
	Flag Flag
}

func (FlagPresent) isCondition() {}

func (c FlagPresent) Validate() error {
	if !ValidFlag(c.Flag) {
		return fmt.Errorf("unknown flag %q", c.Flag)
	}
	return nil
}

// SubgroupCountAtLeast fires when a group holds Min or more distinct
// subgroups (e.g. meat and egg in the same dish).
type SubgroupCountAtLeast struct {
	Group FoodGroup
	Min   int
}

func (SubgroupCountAtLeast) isCondition() {}

func (c SubgroupCountAtLeast) Validate() error {
	if !ValidGroup(c.Group) {
		return fmt.Errorf("unknown group %q", c.Group)
	}
	if c.Min < 2 {
		return fmt.Errorf("subgroup count minimum must be >= 2, got %d", c.Min)
	}
	return nil
}

// Rule is a single combination rule, loaded once at startup.
type Rule struct {
	ID            string
	Description   string
	Condition     Condition
	Verdict       Verdict
	Severity      Severity
	Advisory      bool   // Advisory rules only add INFO problems, never touch the verdict
	SourceRef     string // Course material reference
	Explanation   string
	ExceptionNote string
}

// RuleSet holds all rules plus the explicit evaluation order. Exception
// rules must appear in Priority before the general rules they narrow.
type RuleSet struct {
	Rules    []Rule
	Priority []string

	byID map[string]*Rule
}

// NewRuleSet builds a RuleSet and validates it. Any inconsistency is a
// startup failure.
func NewRuleSet(rules []Rule, priority []string) (*RuleSet, error) {
	rs := &RuleSet{
		Rules:    rules,
		Priority: priority,
		byID:     make(map[string]*Rule, len(rules)),
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i)
		}
		if _, dup := rs.byID[r.ID]; dup {
			return nil, fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		if r.Condition == nil {
			return nil, fmt.Errorf("rule %s: missing condition", r.ID)
		}
		if err := r.Condition.Validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		if !ValidVerdict(r.Verdict) {
			return nil, fmt.Errorf("rule %s: unknown verdict %q", r.ID, r.Verdict)
		}
		if !ValidSeverity(r.Severity) {
			return nil, fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
		}
		if r.Advisory && r.Severity != SeverityInfo {
			return nil, fmt.Errorf("rule %s: advisory rules must have INFO severity", r.ID)
		}
		rs.byID[r.ID] = r
	}
	if len(rs.Priority) == 0 {
		for _, r := range rs.Rules {
			rs.Priority = append(rs.Priority, r.ID)
		}
	}
	seen := make(map[string]bool, len(rs.Priority))
	for _, id := range rs.Priority {
		if rs.byID[id] == nil {
			return nil, fmt.Errorf("rule priority references unknown rule %q", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("rule priority lists %q twice", id)
		}
		seen[id] = true
	}
	for _, r := range rs.Rules {
		if !seen[r.ID] {
			return nil, fmt.Errorf("rule %s is missing from the priority list", r.ID)
		}
	}
	return rs, nil
}

// Get returns the rule with the given id, or nil.
func (rs *RuleSet) Get(id string) *Rule {
	return rs.byID[id]
}
