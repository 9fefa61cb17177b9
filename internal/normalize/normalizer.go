// Package normalize turns parsed dish queries into classified food items.
//
// Pipeline:
//  1. Compound decomposition (deterministic)
//  2. Ontology lookup per explicit item (deterministic)
//  3. External classification for remaining unknowns (slow, optional)
//
// The external classifier is ONLY used for extraction and classification,
// never for the verdict.
package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finnflow/lebensessenz-kursbot/internal/classify"
	"github.com/finnflow/lebensessenz-kursbot/internal/diag"
	"github.com/finnflow/lebensessenz-kursbot/internal/model"
	"github.com/finnflow/lebensessenz-kursbot/internal/ontology"
	"github.com/finnflow/lebensessenz-kursbot/internal/parse"
)

// Normalizer resolves dish queries against the ontology, with an optional
// external classifier for unknowns. All fields are read-only after
// construction, so one Normalizer serves concurrent requests.
type Normalizer struct {
	index      *ontology.Index
	compounds  *ontology.Compounds
	classifier classify.Classifier // nil when classification is disabled
	recorder   diag.Recorder
	timeout    time.Duration
	retries    int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClassifier attaches an external fallback classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(n *Normalizer) { n.classifier = c }
}

// WithRecorder attaches a diagnostic recorder for unknown terms.
func WithRecorder(r diag.Recorder) Option {
	return func(n *Normalizer) { n.recorder = r }
}

// WithTimeout bounds each external classification call.
func WithTimeout(d time.Duration) Option {
	return func(n *Normalizer) { n.timeout = d }
}

// WithRetries sets how often a failed classification call is retried.
func WithRetries(r int) Option {
	return func(n *Normalizer) { n.retries = r }
}

// New creates a Normalizer over the loaded data.
func New(index *ontology.Index, compounds *ontology.Compounds, opts ...Option) *Normalizer {
	n := &Normalizer{
		index:     index,
		compounds: compounds,
		recorder:  diag.NopRecorder{},
		timeout:   10 * time.Second,
		retries:   1,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeDish resolves one dish query into classified items.
//
// A compound match does not short-circuit explicit items: when both are
// present, the explicit list wins. Compound base items whose group is
// already covered by an explicit item are dropped; uncovered ones survive
// as assumed items so the verdict still accounts for them.
func (n *Normalizer) NormalizeDish(ctx context.Context, q parse.DishQuery) *model.DishAnalysis {
	analysis := &model.DishAnalysis{
		DishName:         q.Name,
		HasExplicitItems: len(q.Items) > 0,
	}

	compound := n.compounds.Lookup(q.Name)

	switch {
	case compound != nil && len(q.Items) == 0:
		n.decomposeCompound(analysis, compound)

	case len(q.Items) > 0:
		n.resolveExplicit(analysis, q.Items)
		if compound != nil {
			n.mergeCompound(analysis, compound)
		}

	default:
		n.resolveSingleName(ctx, analysis, q.Name)
	}

	for _, hint := range q.FatHints {
		analysis.AssumedItems = append(analysis.AssumedItems, n.fatItem(hint))
	}

	n.classifyUnknowns(ctx, analysis)
	n.collectUnknowns(analysis)
	return analysis
}

// decomposeCompound fills the analysis from a compound template alone.
func (n *Normalizer) decomposeCompound(analysis *model.DishAnalysis, c *ontology.Compound) {
	for _, name := range c.BaseItems {
		item := n.index.FoodItem(name)
		item.Confidence = model.ConfidenceCompound
		analysis.Items = append(analysis.Items, item)
	}
	for _, name := range c.OptionalItems {
		item := n.index.FoodItem(name)
		item.Confidence = model.ConfidenceCompound
		item.Assumed = true
		item.AssumptionReason = fmt.Sprintf("Typische optionale Zutat in %s", c.Name)
		analysis.AssumedItems = append(analysis.AssumedItems, item)
	}
	analysis.ClarificationHint = c.NeedsClarification
}

// resolveExplicit looks up every explicitly named ingredient.
func (n *Normalizer) resolveExplicit(analysis *model.DishAnalysis, raw []string) {
	for _, term := range raw {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		analysis.Items = append(analysis.Items, n.index.FoodItem(term))
	}
}

// mergeCompound folds a compound template into an analysis that already
// has explicit items. Explicit items take the slot of same-group base
// items; only base items for groups the user never mentioned survive, as
// assumptions. Optional items and the clarification question are dropped
// entirely: the user already said what is in the dish.
func (n *Normalizer) mergeCompound(analysis *model.DishAnalysis, c *ontology.Compound) {
	covered := make(map[model.FoodGroup]bool)
	for _, item := range analysis.Items {
		if item.Group != model.GroupUnknown {
			covered[item.Group] = true
		}
	}

	for _, name := range c.BaseItems {
		item := n.index.FoodItem(name)
		if covered[item.Group] {
			continue
		}
		item.Confidence = model.ConfidenceCompound
		item.Assumed = true
		item.AssumptionReason = fmt.Sprintf("Typische Zutat in %s, nicht explizit genannt", c.Name)
		analysis.AssumedItems = append(analysis.AssumedItems, item)
	}
}

// resolveSingleName handles a bare dish name that is not a known compound.
// If the name itself is an ontology term ("Wassermelone"), that settles it.
// Otherwise the external classifier may decompose it into ingredients.
func (n *Normalizer) resolveSingleName(ctx context.Context, analysis *model.DishAnalysis, name string) {
	item := n.index.FoodItem(name)
	if item.Group != model.GroupUnknown {
		analysis.Items = append(analysis.Items, item)
		return
	}

	if n.classifier == nil {
		analysis.Items = append(analysis.Items, item)
		return
	}

	extraction, err := n.callExtract(ctx, name)
	if err != nil || extraction == nil {
		analysis.Items = append(analysis.Items, item)
		return
	}

	for _, ext := range extraction.Items {
		fi := n.index.FoodItem(ext.Name)
		if ext.Assumed {
			fi.Assumed = true
			fi.AssumptionReason = ext.Reason
			analysis.AssumedItems = append(analysis.AssumedItems, fi)
		} else {
			analysis.Items = append(analysis.Items, fi)
		}
	}
}

// fatItem builds the assumed frying-fat item implied by a cooking method.
func (n *Normalizer) fatItem(method string) model.FoodItem {
	item := n.index.FoodItem("Bratfett")
	item.RawTerm = method
	item.Assumed = true
	item.AssumptionReason = fmt.Sprintf("Zubereitungsart %q bedeutet zugesetztes Fett", method)
	return item
}

// classifyUnknowns sends still-unknown items to the external classifier.
// Successful answers are tagged externally classified; failures leave the
// items unknown. The verdict path never depends on this call succeeding.
func (n *Normalizer) classifyUnknowns(ctx context.Context, analysis *model.DishAnalysis) {
	if n.classifier == nil {
		return
	}

	var pending []*model.FoodItem
	for i := range analysis.Items {
		if analysis.Items[i].Group == model.GroupUnknown {
			pending = append(pending, &analysis.Items[i])
		}
	}
	for i := range analysis.AssumedItems {
		if analysis.AssumedItems[i].Group == model.GroupUnknown {
			pending = append(pending, &analysis.AssumedItems[i])
		}
	}
	if len(pending) == 0 {
		return
	}

	terms := make([]string, len(pending))
	for i, item := range pending {
		terms[i] = item.RawTerm
	}

	classified, err := n.callClassify(ctx, terms)
	if err != nil {
		return
	}

	byTerm := make(map[string]classify.Classification, len(classified))
	for _, c := range classified {
		byTerm[strings.ToLower(c.Term)] = c
	}
	for _, item := range pending {
		c, ok := byTerm[strings.ToLower(item.RawTerm)]
		if !ok || c.Group == model.GroupUnknown {
			continue
		}
		item.Group = c.Group
		item.Canonical = c.Canonical
		item.Confidence = model.ConfidenceExternal
		if c.Ambiguous && item.AmbiguityNote == "" {
			item.AmbiguityNote = fmt.Sprintf("%q ist mehrdeutig", item.RawTerm)
		}
	}
}

// callClassify runs ClassifyTerms with a bounded timeout and one retry.
func (n *Normalizer) callClassify(ctx context.Context, terms []string) ([]classify.Classification, error) {
	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, n.timeout)
		classified, err := n.classifier.ClassifyTerms(callCtx, terms)
		cancel()
		if err == nil {
			return classified, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// callExtract runs ExtractIngredients with a bounded timeout and one retry.
func (n *Normalizer) callExtract(ctx context.Context, dishName string) (*classify.Extraction, error) {
	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, n.timeout)
		extraction, err := n.classifier.ExtractIngredients(callCtx, dishName)
		cancel()
		if err == nil {
			return extraction, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// collectUnknowns records what stayed unresolved after all stages.
func (n *Normalizer) collectUnknowns(analysis *model.DishAnalysis) {
	seen := make(map[string]bool)
	add := func(term string) {
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			return
		}
		seen[key] = true
		analysis.UnknownTerms = append(analysis.UnknownTerms, term)
		n.recorder.Record(term)
	}
	for _, item := range analysis.Items {
		if item.Group == model.GroupUnknown {
			add(item.RawTerm)
		}
	}
	for _, item := range analysis.AssumedItems {
		if item.Group == model.GroupUnknown {
			add(item.RawTerm)
		}
	}
}
