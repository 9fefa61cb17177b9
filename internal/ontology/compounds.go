package ontology

import "strings"

// Compound is a known multi-ingredient dish with a default decomposition.
type Compound struct {
	Name               string
	BaseItems          []string // Canonical references, always present in the dish
	OptionalItems      []string // Canonical references, typically but not always present
	NeedsClarification string   // Question to ask when no explicit ingredients were given
}

// Compounds maps dish names to their default decomposition. Like the Index
// it is immutable after load.
type Compounds struct {
	byName map[string]*Compound
	names  []string // Original casing, load order
}

// Lookup finds a compound by exact, case-insensitive dish name.
func (c *Compounds) Lookup(dishName string) *Compound {
	return c.byName[strings.ToLower(strings.TrimSpace(dishName))]
}

// Names returns all compound names in load order.
func (c *Compounds) Names() []string {
	return c.names
}

// Len returns the number of compounds.
func (c *Compounds) Len() int {
	return len(c.names)
}

// FindInText returns the longest compound name appearing as a substring of
// the text, or "". Longest-first so "Spaghetti Carbonara" wins over any
// shorter overlapping name.
func (c *Compounds) FindInText(text string) string {
	lower := strings.ToLower(text)
	best := ""
	for _, name := range c.names {
		if len(name) <= len(best) {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			best = name
		}
	}
	return best
}
