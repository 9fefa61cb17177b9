package model

// FoodGroup is the top-level food category used by the combination rules.
// The codes follow the German course material (Modul 1.1).
type FoodGroup string

const (
	GroupObst            FoodGroup = "OBST"            // Fresh fruit
	GroupTrockenobst     FoodGroup = "TROCKENOBST"     // Dried fruit (dates, figs, raisins)
	GroupNeutral         FoodGroup = "NEUTRAL"         // Low-starch vegetables, salad, herbs, sprouts
	GroupKH              FoodGroup = "KH"              // Complex carbs: grains, pseudocereals, starchy vegetables
	GroupHuelsenfruechte FoodGroup = "HUELSENFRUECHTE" // Legumes (special rules)
	GroupProtein         FoodGroup = "PROTEIN"         // Animal protein: meat, fish, eggs
	GroupMilch           FoodGroup = "MILCH"           // Dairy (separate from other protein)
	GroupFett            FoodGroup = "FETT"            // Fats: oils, nuts, avocado, butter
	GroupUnknown         FoodGroup = "UNKNOWN"         // Not in ontology
)

// AllGroups lists every group in a fixed order. Result maps are always
// iterated in this order so repeated evaluations are bit-identical.
var AllGroups = []FoodGroup{
	GroupObst,
	GroupTrockenobst,
	GroupNeutral,
	GroupKH,
	GroupHuelsenfruechte,
	GroupProtein,
	GroupMilch,
	GroupFett,
	GroupUnknown,
}

// ValidGroup reports whether g is a known group code.
func ValidGroup(g FoodGroup) bool {
	for _, known := range AllGroups {
		if g == known {
			return true
		}
	}
	return false
}

// Concentrated reports whether the group counts as a concentrated food
// for quantity-sensitive checks (everything except NEUTRAL and UNKNOWN).
func (g FoodGroup) Concentrated() bool {
	return g != GroupNeutral && g != GroupUnknown
}

// FoodSubgroup refines a FoodGroup for rules that need finer granularity.
type FoodSubgroup string

const (
	// OBST
	SubgroupFrisch FoodSubgroup = "FRISCH"
	SubgroupBeeren FoodSubgroup = "BEEREN"
	// TROCKENOBST
	SubgroupTrocken FoodSubgroup = "TROCKEN"
	// NEUTRAL
	SubgroupStaerkearmesGemuese FoodSubgroup = "STAERKEARMES_GEMUESE"
	SubgroupSalat               FoodSubgroup = "SALAT"
	SubgroupKraeuter            FoodSubgroup = "KRAEUTER"
	SubgroupSprossen            FoodSubgroup = "SPROSSEN"
	SubgroupBlattgruen          FoodSubgroup = "BLATTGRUEN" // Combines with OBST (smoothie exception)
	SubgroupZwiebelLauch        FoodSubgroup = "ZWIEBEL_LAUCH"
	SubgroupKreuzbluetler       FoodSubgroup = "KREUZBLUETLER"
	// KH
	SubgroupGetreide               FoodSubgroup = "GETREIDE"
	SubgroupPseudogetreide         FoodSubgroup = "PSEUDOGETREIDE"
	SubgroupStaerkehaltigesGemuese FoodSubgroup = "STAERKEHALTIGES_GEMUESE"
	// HUELSENFRUECHTE
	SubgroupHuelse FoodSubgroup = "HUELSE"
	// PROTEIN
	SubgroupFleisch FoodSubgroup = "FLEISCH"
	SubgroupFisch   FoodSubgroup = "FISCH"
	SubgroupEier    FoodSubgroup = "EIER"
	// MILCH
	SubgroupMilchprodukt FoodSubgroup = "MILCHPRODUKT"
	// FETT
	SubgroupOel            FoodSubgroup = "OEL"
	SubgroupNussSamen      FoodSubgroup = "NUSS_SAMEN"
	SubgroupTierischesFett FoodSubgroup = "TIERISCHES_FETT"
)

var allSubgroups = map[FoodSubgroup]bool{
	SubgroupFrisch:                 true,
	SubgroupBeeren:                 true,
	SubgroupTrocken:                true,
	SubgroupStaerkearmesGemuese:    true,
	SubgroupSalat:                  true,
	SubgroupKraeuter:               true,
	SubgroupSprossen:               true,
	SubgroupBlattgruen:             true,
	SubgroupZwiebelLauch:           true,
	SubgroupKreuzbluetler:          true,
	SubgroupGetreide:               true,
	SubgroupPseudogetreide:         true,
	SubgroupStaerkehaltigesGemuese: true,
	SubgroupHuelse:                 true,
	SubgroupFleisch:                true,
	SubgroupFisch:                  true,
	SubgroupEier:                   true,
	SubgroupMilchprodukt:           true,
	SubgroupOel:                    true,
	SubgroupNussSamen:              true,
	SubgroupTierischesFett:         true,
}

// ValidSubgroup reports whether s is a known subgroup code.
func ValidSubgroup(s FoodSubgroup) bool {
	return allSubgroups[s]
}

// Confidence tags how a food item was resolved. The ordering for conflict
// resolution is exact > alias > compound > external > unknown.
type Confidence string

const (
	ConfidenceExact    Confidence = "exact"                 // Full term matched a canonical name or synonym
	ConfidenceAlias    Confidence = "alias"                 // Matched via a word inside a longer phrase
	ConfidenceCompound Confidence = "compound-derived"      // Came from a compound dish template
	ConfidenceExternal Confidence = "externally-classified" // Classified by the fallback classifier
	ConfidenceUnknown  Confidence = "unknown"               // Could not be resolved
)

// Rank returns the ordering position of a confidence level (higher is better).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceExact:
		return 4
	case ConfidenceAlias:
		return 3
	case ConfidenceCompound:
		return 2
	case ConfidenceExternal:
		return 1
	default:
		return 0
	}
}

// FoodItem is a single classified ingredient.
type FoodItem struct {
	RawTerm          string       `json:"raw_term"`                    // Original term from the input
	Canonical        string       `json:"canonical,omitempty"`         // Normalized name from the ontology
	Group            FoodGroup    `json:"group"`
	Subgroup         FoodSubgroup `json:"subgroup,omitempty"`
	Confidence       Confidence   `json:"confidence"`
	Assumed          bool         `json:"assumed,omitempty"`           // Inferred, not explicitly stated
	AssumptionReason string       `json:"assumption_reason,omitempty"` // Why it was assumed
	AmbiguityNote    string       `json:"ambiguity_note,omitempty"`    // Set for entries like "Bohnen"
}

// Label renders the item as "raw → canonical" for result output.
func (f FoodItem) Label() string {
	if f.Canonical != "" && f.Canonical != f.RawTerm {
		return f.RawTerm + " → " + f.Canonical
	}
	return f.RawTerm
}

// DishAnalysis is the output of extraction and normalization for one dish.
type DishAnalysis struct {
	DishName          string     `json:"dish_name"`
	Items             []FoodItem `json:"items"`                        // Explicit or compound base items
	AssumedItems      []FoodItem `json:"assumed_items,omitempty"`      // Inferred items (optionals, cooking fat)
	UnknownTerms      []string   `json:"unknown_terms,omitempty"`      // Terms that stayed unresolved
	ClarificationHint string     `json:"clarification_hint,omitempty"` // Compound clarification question, if any
	HasExplicitItems  bool       `json:"has_explicit_items"`           // True when the user named ingredients
}

// AllItems returns explicit plus assumed items in input order.
func (a *DishAnalysis) AllItems() []FoodItem {
	out := make([]FoodItem, 0, len(a.Items)+len(a.AssumedItems))
	out = append(out, a.Items...)
	out = append(out, a.AssumedItems...)
	return out
}
