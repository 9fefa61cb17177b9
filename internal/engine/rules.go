package engine

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

//go:embed data/rules.yaml
var embedded embed.FS

type rulesFile struct {
	RulePriority []string   `yaml:"rule_priority"`
	Rules        []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	RuleID        string        `yaml:"rule_id"`
	Description   string        `yaml:"description"`
	Condition     conditionSpec `yaml:"condition"`
	Verdict       string        `yaml:"verdict"`
	Severity      string        `yaml:"severity"`
	Advisory      bool          `yaml:"advisory"`
	SourceRef     string        `yaml:"source_ref"`
	Explanation   string        `yaml:"explanation"`
	ExceptionNote string        `yaml:"exception_note"`
}

type conditionSpec struct {
	Pair             []string           `yaml:"pair"`
	AllowedSubgroups []string           `yaml:"allowed_subgroups"`
	GroupPresent     string             `yaml:"group_present"`
	Flag             string             `yaml:"flag"`
	SubgroupCount    *subgroupCountSpec `yaml:"subgroup_count"`
}

type subgroupCountSpec struct {
	Group string `yaml:"group"`
	Min   int    `yaml:"min"`
}

// LoadRules reads the rule set from a YAML file, or from the embedded
// default when path is empty. Malformed rules fail the load.
func LoadRules(path string) (*model.RuleSet, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = embedded.ReadFile("data/rules.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule set contains no rules")
	}

	rules := make([]model.Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		cond, err := buildCondition(spec.Condition)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", spec.RuleID, err)
		}
		rules = append(rules, model.Rule{
			ID:            spec.RuleID,
			Description:   spec.Description,
			Condition:     cond,
			Verdict:       model.Verdict(spec.Verdict),
			Severity:      model.Severity(spec.Severity),
			Advisory:      spec.Advisory,
			SourceRef:     spec.SourceRef,
			Explanation:   spec.Explanation,
			ExceptionNote: spec.ExceptionNote,
		})
	}

	return model.NewRuleSet(rules, file.RulePriority)
}

// buildCondition maps the YAML condition onto the closed variant type.
// Exactly one condition kind must be set.
func buildCondition(spec conditionSpec) (model.Condition, error) {
	kinds := 0
	if len(spec.Pair) > 0 {
		kinds++
	}
	if spec.GroupPresent != "" {
		kinds++
	}
	if spec.Flag != "" {
		kinds++
	}
	if spec.SubgroupCount != nil {
		kinds++
	}
	if kinds != 1 {
		return nil, fmt.Errorf("condition must set exactly one of pair, group_present, flag, subgroup_count (got %d)", kinds)
	}
	if len(spec.AllowedSubgroups) > 0 && len(spec.Pair) == 0 {
		return nil, fmt.Errorf("allowed_subgroups is only valid on pair conditions")
	}

	switch {
	case len(spec.Pair) > 0:
		if len(spec.Pair) != 2 {
			return nil, fmt.Errorf("pair condition needs exactly two groups, got %d", len(spec.Pair))
		}
		cond := model.PairPresent{
			A: model.FoodGroup(spec.Pair[0]),
			B: model.FoodGroup(spec.Pair[1]),
		}
		for _, s := range spec.AllowedSubgroups {
			cond.AllowedSubgroups = append(cond.AllowedSubgroups, model.FoodSubgroup(s))
		}
		return cond, nil
	case spec.GroupPresent != "":
		return model.GroupPresent{Group: model.FoodGroup(spec.GroupPresent)}, nil
	case spec.Flag != "":
		return model.FlagPresent{Flag: model.Flag(spec.Flag)}, nil
	default:
		return model.SubgroupCountAtLeast{
			Group: model.FoodGroup(spec.SubgroupCount.Group),
			Min:   spec.SubgroupCount.Min,
		}, nil
	}
}
