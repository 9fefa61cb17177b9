// Package pipeline wires the analysis stages together: parsing, ontology
// normalization, rule evaluation. It owns the process-lifetime resources
// (classifier, cache, diagnostic store) that the pure stages must not.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/finnflow/lebensessenz-kursbot/internal/cache"
	"github.com/finnflow/lebensessenz-kursbot/internal/classify"
	"github.com/finnflow/lebensessenz-kursbot/internal/diag"
	"github.com/finnflow/lebensessenz-kursbot/internal/engine"
	"github.com/finnflow/lebensessenz-kursbot/internal/model"
	"github.com/finnflow/lebensessenz-kursbot/internal/normalize"
	"github.com/finnflow/lebensessenz-kursbot/internal/ontology"
	"github.com/finnflow/lebensessenz-kursbot/internal/parse"
	"github.com/finnflow/lebensessenz-kursbot/internal/worker"
)

// Analyzer orchestrates the complete analysis of free-form text into
// verdicts. Construction is fail-fast: malformed data files abort startup.
type Analyzer struct {
	parser     *parse.Parser
	normalizer *normalize.Normalizer
	engine     *engine.Engine
	recorder   diag.Recorder
	config     *model.Config
}

// NewAnalyzer builds an analyzer from configuration. Data files load
// eagerly and validate fully; any malformed entry is a startup error.
func NewAnalyzer(cfg *model.Config) (*Analyzer, error) {
	index, compounds, err := ontology.Load(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}

	rules, err := engine.LoadRules(cfg.Data.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	recorder := diag.Recorder(diag.NopRecorder{})
	if cfg.Diagnostics.Enabled {
		store, err := diag.Open(cfg.Diagnostics.UnknownsDB)
		if err != nil {
			// Diagnostics are an observability side channel; a broken store
			// must not keep the analyzer from starting.
			fmt.Fprintf(os.Stderr, "Warning: diagnostics disabled: %v\n", err)
		} else {
			recorder = store
		}
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return nil, err
	}

	opts := []normalize.Option{
		normalize.WithRecorder(recorder),
		normalize.WithTimeout(time.Duration(cfg.Classifier.Timeout) * time.Second),
		normalize.WithRetries(cfg.Classifier.Retries),
	}
	if classifier != nil {
		opts = append(opts, normalize.WithClassifier(classifier))
	}

	return &Analyzer{
		parser:     parse.NewParser(index, compounds),
		normalizer: normalize.New(index, compounds, opts...),
		engine:     engine.New(rules),
		recorder:   recorder,
		config:     cfg,
	}, nil
}

// buildClassifier assembles the classifier stack: provider, then cache,
// then rate limit. Returns nil when no provider is configured.
func buildClassifier(cfg *model.Config) (classify.Classifier, error) {
	classifier, err := classify.NewClassifier(classify.ConfigFromModel(cfg.Classifier))
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	if classifier == nil {
		return nil, nil
	}

	if cfg.Cache.Enabled {
		store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		classifier = classify.NewCachedClassifier(classifier, store, cfg.Cache.DiskTTL)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	return classify.NewThrottledClassifier(classifier, limiter), nil
}

// Close releases the analyzer's resources.
func (a *Analyzer) Close() error {
	return a.recorder.Close()
}

// Parser exposes the analyzer's parser for input-type detection.
func (a *Analyzer) Parser() *parse.Parser {
	return a.parser
}

// AnalyzeText analyzes free-form text and returns one result per dish.
//
// Pasted HTML is rendered to plain text first. Sequential-eating questions
// ("erst Obst, dann Reis") get a dedicated OK result: foods eaten one
// after the other are not a combination.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) ([]*model.TrennkostResult, error) {
	if parse.LooksLikeHTML(text) {
		plain, err := parse.ExtractText(text)
		if err != nil {
			return nil, fmt.Errorf("extract text from HTML: %w", err)
		}
		text = plain
	}

	if split := parse.DetectTemporalSeparation(text); split != nil {
		return []*model.TrennkostResult{temporalResult(split)}, nil
	}

	queries := a.parser.Parse(text)
	if len(queries) == 0 {
		return nil, fmt.Errorf("no dishes found in input")
	}

	results := make([]*model.TrennkostResult, 0, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, a.Classify(ctx, q))
	}
	return results, nil
}

// Classify analyzes a single dish query.
func (a *Analyzer) Classify(ctx context.Context, q parse.DishQuery) *model.TrennkostResult {
	analysis := a.normalizer.NormalizeDish(ctx, q)

	if a.config.Analysis.Mode == "strict" && len(analysis.AssumedItems) > 0 {
		return a.evaluateStrict(analysis)
	}
	return a.engine.Evaluate(analysis)
}

// evaluateStrict judges only the explicitly given items. Assumed items
// stay out of the verdict but come back as a confirmation question, and
// an OK verdict is downgraded to CONDITIONAL when the assumed items would
// flip it to NOT_OK.
func (a *Analyzer) evaluateStrict(analysis *model.DishAnalysis) *model.TrennkostResult {
	strict := &model.DishAnalysis{
		DishName:          analysis.DishName,
		Items:             analysis.Items,
		UnknownTerms:      analysis.UnknownTerms,
		ClarificationHint: analysis.ClarificationHint,
		HasExplicitItems:  analysis.HasExplicitItems,
	}
	result := a.engine.Evaluate(strict)

	if result.Verdict == model.VerdictNotOK {
		// The explicit items alone already fail; assumptions only pile on.
		return result
	}

	var names, labeled []string
	for _, item := range analysis.AssumedItems {
		names = append(names, item.RawTerm)
		labeled = append(labeled, fmt.Sprintf("%s (%s)", item.RawTerm, item.Group))
	}
	result.Questions = append(result.Questions, model.Question{
		Question: fmt.Sprintf(
			"Typische weitere Zutaten in %s: %s. Sind diese enthalten? Das könnte die Bewertung ändern.",
			analysis.DishName, strings.Join(labeled, ", ")),
		Reason:       "Vermutete Zutaten könnten die Kombination beeinflussen.",
		AffectsItems: names,
	})

	if result.Verdict == model.VerdictOK {
		assumption := a.engine.Evaluate(analysis)
		if assumption.Verdict == model.VerdictNotOK {
			result.Verdict = model.VerdictConditional
			result.Summary = fmt.Sprintf(
				"%s: Bedingt OK — mit typischen Zusatz-Zutaten wäre es NOT_OK.",
				analysis.DishName)
		}
	}
	return result
}

// temporalResult builds the fixed answer for sequential eating.
func temporalResult(split *parse.TemporalSplit) *model.TrennkostResult {
	name := fmt.Sprintf("%s, danach %s",
		strings.Join(split.FirstFoods, " + "),
		strings.Join(split.SecondFoods, " + "))

	summary := fmt.Sprintf(
		"%s: OK — zeitlich getrenntes Essen ist keine Kombination. Obst braucht 20-30 Minuten Abstand, Trockenobst 45-60 Minuten.",
		name)
	if split.WaitMinutes > 0 {
		summary = fmt.Sprintf(
			"%s: OK — mit %d Minuten Abstand gelten die Kombinationsregeln nicht. Obst braucht 20-30 Minuten, Trockenobst 45-60 Minuten.",
			name, split.WaitMinutes)
	}

	return &model.TrennkostResult{
		DishName: name,
		Verdict:  model.VerdictOK,
		Summary:  summary,
		OKNotes: []string{
			"Nacheinander gegessene Lebensmittel werden getrennt verdaut.",
		},
	}
}
