// Package classify holds the external fallback classifiers. The ontology
// answers most lookups; a classifier only sees terms the ontology does not
// know, and its answers are marked as externally classified so the rule
// engine can stay cautious about them.
package classify

import (
	"context"
	"fmt"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// Classifier defines the interface for external classification providers
type Classifier interface {
	// Name returns the provider name
	Name() string

	// ClassifyTerms assigns a food group to each unknown term
	ClassifyTerms(ctx context.Context, terms []string) ([]Classification, error)

	// ExtractIngredients decomposes an unrecognized dish name into ingredients
	ExtractIngredients(ctx context.Context, dishName string) (*Extraction, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Classification is the provider's answer for one term.
type Classification struct {
	Term      string          `json:"item"`
	Group     model.FoodGroup `json:"group"`
	Canonical string          `json:"canonical"`
	Ambiguous bool            `json:"ambiguous,omitempty"`
}

// Extraction is the provider's decomposition of a dish name.
type Extraction struct {
	DishName string          `json:"dish_name"`
	Items    []ExtractedItem `json:"items"`
}

// ExtractedItem is one ingredient from an extraction. Assumed marks
// ingredients the provider guessed rather than read from the input.
type ExtractedItem struct {
	Name    string `json:"name"`
	Assumed bool   `json:"assumed"`
	Reason  string `json:"reason,omitempty"`
}

// Config holds classifier provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   10,
		MaxTokens: 1000,
	}
}

// classifyPrompt instructs the model to map food terms onto groups.
// German on purpose: the vocabulary and the user inputs are German.
const classifyPrompt = `Du bist ein Lebensmittel-Klassifikator für ein Trennkost-System.

Gegeben eine Liste von Lebensmitteln, ordne JEDES einzelne einer Gruppe zu.

GRUPPEN:
- OBST: Frisches Obst (Apfel, Banane, Beeren, etc.)
- TROCKENOBST: Trockenfrüchte (Datteln, Feigen, Rosinen)
- NEUTRAL: Stärkearmes Gemüse, Salat, Kräuter, Sprossen (Brokkoli, Gurke, Tomate, Spinat, Petersilie)
- KH: Komplexe Kohlenhydrate - Getreide, Pseudogetreide, stärkehaltiges Gemüse (Reis, Pasta, Brot, Kartoffel, Mais, Quinoa)
- HUELSENFRUECHTE: Hülsenfrüchte (Linsen, Kichererbsen, Bohnen, Tofu, Tempeh)
- PROTEIN: Tierisches Eiweiß - Fisch, Fleisch, Eier (Lachs, Hähnchen, Steak, Ei)
- MILCH: Milchprodukte (Käse, Joghurt, Sahne, Milch) ABER NICHT Butter/Ghee (die sind FETT)
- FETT: Fette und Öle, Nüsse, Samen, Avocado, Butter, Ghee (Olivenöl, Mandeln, Walnüsse)
- UNKNOWN: Wenn du dir nicht sicher bist

WICHTIG:
- Antworte NUR als JSON-Array
- Keine Erklärungen, nur die Zuordnung
- Wenn ein Item mehrdeutig ist, setze "ambiguous": true

Beispiel-Input: ["Spaghetti", "Tomatensauce", "Parmesan", "Basilikum"]
Beispiel-Output:
[
  {"item": "Spaghetti", "group": "KH", "canonical": "Pasta"},
  {"item": "Tomatensauce", "group": "NEUTRAL", "canonical": "Tomate"},
  {"item": "Parmesan", "group": "MILCH", "canonical": "Käse"},
  {"item": "Basilikum", "group": "NEUTRAL", "canonical": "Basilikum"}
]
`

// extractPrompt instructs the model to decompose a dish into ingredients.
const extractPrompt = `Du bist ein Lebensmittel-Extraktor. Gegeben ein Gericht oder eine Beschreibung, extrahiere ALLE einzelnen Zutaten.

REGELN:
- Liste JEDE einzelne Zutat separat auf
- Zerlege zusammengesetzte Gerichte (z.B. "Carbonara" → Pasta, Ei, Speck, Parmesan)
- Kennzeichne vermutete Zutaten mit "assumed": true
- Wenn Soßen/Teige dabei sind, zerlege deren Bestandteile
- Sei spezifisch: "Weizenmehl" statt nur "Mehl"

Antworte NUR als JSON:
{
  "dish_name": "Name des Gerichts",
  "items": [
    {"name": "Zutat", "assumed": false},
    {"name": "Vermutete Zutat", "assumed": true, "reason": "Warum vermutet"}
  ]
}

WICHTIG: Markiere Zutaten die du nur vermutest IMMER mit "assumed": true.
Zutaten die klar sichtbar/genannt sind: "assumed": false.
`

// validateClassifications drops answers for terms that were never asked
// about and normalizes unusable groups to UNKNOWN.
func validateClassifications(asked []string, got []Classification) []Classification {
	askedSet := make(map[string]bool, len(asked))
	for _, t := range asked {
		askedSet[t] = true
	}

	out := make([]Classification, 0, len(got))
	for _, c := range got {
		if !askedSet[c.Term] {
			continue
		}
		if !model.ValidGroup(c.Group) {
			c.Group = model.GroupUnknown
		}
		if c.Canonical == "" {
			c.Canonical = c.Term
		}
		out = append(out, c)
	}
	return out
}

func errNoResponse(provider string) error {
	return fmt.Errorf("no response from %s", provider)
}
