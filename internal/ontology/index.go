package ontology

import (
	"strings"
	"unicode"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// Entry is a single food in the ontology.
type Entry struct {
	Canonical     string
	Synonyms      []string
	Group         model.FoodGroup
	Subgroup      model.FoodSubgroup
	Ambiguous     bool
	AmbiguityNote string
	Notes         string
}

// Match is a successful lookup.
type Match struct {
	Entry      *Entry
	Confidence model.Confidence // exact for full-term matches, alias for embedded-word matches
	MatchedOn  string           // The synonym or canonical name that matched
}

// Index maps food-term synonyms to canonical entries. It is built once at
// startup and read-only afterwards, so concurrent readers need no locking.
type Index struct {
	entries []Entry
	// lowercase synonym/canonical → entry index
	synonyms map[string]int
}

// Entries returns all ontology entries in load order.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// SynonymCount returns the number of indexed terms including canonical names.
func (idx *Index) SynonymCount() int {
	return len(idx.synonyms)
}

// Lookup resolves a term to an ontology entry. Matching is case-insensitive
// and word-boundary aware:
//
//  1. The full trimmed term is tried against canonical names and synonyms.
//  2. Failing that, every contiguous word n-gram of the term is tried,
//     longest first, so "gegrilltes Hähnchen" finds "Hähnchen" while
//     "Reise" never finds "Reis".
//
// Returns nil when nothing matches.
func (idx *Index) Lookup(term string) *Match {
	key := normalizeTerm(term)
	if key == "" {
		return nil
	}

	// Exact full-term match always wins over any embedded match, so a term
	// like "water" hits its own entry instead of "watermelon".
	if i, ok := idx.synonyms[key]; ok {
		return &Match{Entry: &idx.entries[i], Confidence: model.ConfidenceExact, MatchedOn: key}
	}

	words := splitWords(key)
	if len(words) < 2 {
		return nil
	}

	// Longest n-grams first; single words last. Ties go to the earliest
	// position so lookups stay deterministic.
	for size := len(words) - 1; size >= 1; size-- {
		for start := 0; start+size <= len(words); start++ {
			gram := strings.Join(words[start:start+size], " ")
			if len([]rune(gram)) < 3 {
				continue
			}
			if i, ok := idx.synonyms[gram]; ok {
				return &Match{Entry: &idx.entries[i], Confidence: model.ConfidenceAlias, MatchedOn: gram}
			}
		}
	}

	return nil
}

// FoodItem resolves a term into a model.FoodItem. Unresolved terms come back
// with group UNKNOWN and confidence unknown; they never disappear silently.
func (idx *Index) FoodItem(term string) model.FoodItem {
	raw := strings.TrimSpace(term)
	m := idx.Lookup(raw)
	if m == nil {
		return model.FoodItem{
			RawTerm:    raw,
			Group:      model.GroupUnknown,
			Confidence: model.ConfidenceUnknown,
		}
	}
	item := model.FoodItem{
		RawTerm:    raw,
		Canonical:  m.Entry.Canonical,
		Group:      m.Entry.Group,
		Subgroup:   m.Entry.Subgroup,
		Confidence: m.Confidence,
	}
	if m.Entry.Ambiguous {
		item.AmbiguityNote = m.Entry.AmbiguityNote
	}
	return item
}

// ContainsFood reports whether the text mentions at least one ontology term
// as a whole word.
func (idx *Index) ContainsFood(text string) bool {
	words := splitWords(normalizeTerm(text))
	for size := min(len(words), 4); size >= 1; size-- {
		for start := 0; start+size <= len(words); start++ {
			gram := strings.Join(words[start:start+size], " ")
			if len([]rune(gram)) < 3 {
				continue
			}
			if _, ok := idx.synonyms[gram]; ok {
				return true
			}
		}
	}
	return false
}

// ScanCanonicals returns the canonical names of all entries mentioned in the
// text as whole words, in entry load order, deduplicated. Used for free-text
// question parsing.
func (idx *Index) ScanCanonicals(text string) []string {
	words := splitWords(normalizeTerm(text))
	found := make(map[int]bool)
	for size := min(len(words), 4); size >= 1; size-- {
		for start := 0; start+size <= len(words); start++ {
			gram := strings.Join(words[start:start+size], " ")
			if len([]rune(gram)) < 3 {
				continue
			}
			if i, ok := idx.synonyms[gram]; ok {
				found[i] = true
			}
		}
	}
	var out []string
	for i := range idx.entries {
		if found[i] {
			out = append(out, idx.entries[i].Canonical)
		}
	}
	return out
}

// normalizeTerm lowercases and collapses whitespace.
func normalizeTerm(s string) string {
	return strings.Join(splitWords(strings.ToLower(strings.TrimSpace(s))), " ")
}

// splitWords breaks a term on anything that is not a letter, digit or
// hyphen. Quotes, parentheses and punctuation all act as word boundaries.
func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
