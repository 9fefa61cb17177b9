package ontology

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

//go:embed data/ontology.yaml data/compounds.yaml
var embedded embed.FS

type ontologyFile struct {
	Entries []entrySpec `yaml:"entries"`
}

type entrySpec struct {
	Canonical     string   `yaml:"canonical"`
	Group         string   `yaml:"group"`
	Subgroup      string   `yaml:"subgroup"`
	Synonyms      []string `yaml:"synonyms"`
	Ambiguous     bool     `yaml:"ambiguous"`
	AmbiguityNote string   `yaml:"ambiguity_note"`
	Notes         string   `yaml:"notes"`
}

type compoundsFile struct {
	Compounds []compoundSpec `yaml:"compounds"`
}

type compoundSpec struct {
	Name               string   `yaml:"name"`
	BaseItems          []string `yaml:"base_items"`
	OptionalItems      []string `yaml:"optional_items"`
	NeedsClarification string   `yaml:"needs_clarification"`
}

// Load reads the ontology and compound data files. Empty paths select the
// embedded defaults. Any malformed or inconsistent entry fails the load;
// the process must not start with bad data.
func Load(cfg model.DataConfig) (*Index, *Compounds, error) {
	idx, err := LoadIndex(cfg.OntologyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load ontology: %w", err)
	}
	compounds, err := LoadCompounds(cfg.CompoundsPath, idx)
	if err != nil {
		return nil, nil, fmt.Errorf("load compounds: %w", err)
	}
	return idx, compounds, nil
}

// LoadIndex builds the synonym index from a YAML file, or from the embedded
// default when path is empty.
func LoadIndex(path string) (*Index, error) {
	data, err := readDataFile(path, "data/ontology.yaml")
	if err != nil {
		return nil, err
	}

	var file ontologyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse ontology yaml: %w", err)
	}
	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("ontology contains no entries")
	}

	idx := &Index{
		entries:  make([]Entry, 0, len(file.Entries)),
		synonyms: make(map[string]int),
	}
	// owner tracks which canonical claimed each synonym, for error messages.
	owner := make(map[string]string)

	for _, spec := range file.Entries {
		canonical := strings.TrimSpace(spec.Canonical)
		if canonical == "" {
			return nil, fmt.Errorf("ontology entry with empty canonical name")
		}

		group := model.FoodGroup(strings.TrimSpace(spec.Group))
		if !model.ValidGroup(group) {
			return nil, fmt.Errorf("entry %q: unknown group %q", canonical, spec.Group)
		}
		var subgroup model.FoodSubgroup
		if s := strings.TrimSpace(spec.Subgroup); s != "" {
			subgroup = model.FoodSubgroup(s)
			if !model.ValidSubgroup(subgroup) {
				return nil, fmt.Errorf("entry %q: unknown subgroup %q", canonical, spec.Subgroup)
			}
		}
		if spec.Ambiguous && spec.AmbiguityNote == "" {
			return nil, fmt.Errorf("entry %q: ambiguous entries need an ambiguity_note", canonical)
		}

		entry := Entry{
			Canonical:     canonical,
			Group:         group,
			Subgroup:      subgroup,
			Ambiguous:     spec.Ambiguous,
			AmbiguityNote: strings.TrimSpace(spec.AmbiguityNote),
			Notes:         strings.TrimSpace(spec.Notes),
		}
		for _, syn := range spec.Synonyms {
			if s := strings.TrimSpace(syn); s != "" {
				entry.Synonyms = append(entry.Synonyms, s)
			}
		}

		i := len(idx.entries)
		idx.entries = append(idx.entries, entry)

		// Every synonym must map to exactly one canonical entry. A collision
		// is never resolved by last-write-wins.
		for _, name := range append([]string{canonical}, entry.Synonyms...) {
			key := normalizeTerm(name)
			if key == "" {
				continue
			}
			if prev, taken := owner[key]; taken {
				if prev == canonical {
					continue // Same entry listing a term twice is harmless
				}
				return nil, fmt.Errorf("synonym %q claimed by both %q and %q", name, prev, canonical)
			}
			owner[key] = canonical
			idx.synonyms[key] = i
		}
	}

	return idx, nil
}

// LoadCompounds builds the compound registry and verifies that every
// base/optional item is a resolvable canonical reference.
func LoadCompounds(path string, idx *Index) (*Compounds, error) {
	data, err := readDataFile(path, "data/compounds.yaml")
	if err != nil {
		return nil, err
	}

	var file compoundsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse compounds yaml: %w", err)
	}

	canonicals := make(map[string]bool, idx.Len())
	for _, e := range idx.Entries() {
		canonicals[normalizeTerm(e.Canonical)] = true
	}

	c := &Compounds{byName: make(map[string]*Compound, len(file.Compounds))}
	for _, spec := range file.Compounds {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("compound with empty name")
		}
		key := strings.ToLower(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("compound %q: duplicate name", name)
		}
		if len(spec.BaseItems) == 0 {
			return nil, fmt.Errorf("compound %q: no base items", name)
		}
		for _, ref := range append(append([]string{}, spec.BaseItems...), spec.OptionalItems...) {
			if !canonicals[normalizeTerm(ref)] {
				return nil, fmt.Errorf("compound %q: item %q is not a canonical ontology entry", name, ref)
			}
		}
		compound := &Compound{
			Name:               name,
			BaseItems:          spec.BaseItems,
			OptionalItems:      spec.OptionalItems,
			NeedsClarification: strings.TrimSpace(spec.NeedsClarification),
		}
		c.byName[key] = compound
		c.names = append(c.names, name)
	}

	return c, nil
}

func readDataFile(path, embeddedName string) ([]byte, error) {
	if path == "" {
		return embedded.ReadFile(embeddedName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
