package classify

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/finnflow/lebensessenz-kursbot/internal/cache"
)

// CachedClassifier wraps a Classifier with a cache so repeated unknown
// terms cost one provider call in total. Classification answers for a food
// term do not go stale, so the TTLs can be generous.
type CachedClassifier struct {
	inner    Classifier
	store    cache.Cache
	termTTL  time.Duration
	extraTTL time.Duration
}

// NewCachedClassifier wraps inner with the given cache.
func NewCachedClassifier(inner Classifier, store cache.Cache, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{
		inner:    inner,
		store:    store,
		termTTL:  ttl,
		extraTTL: ttl,
	}
}

// Name returns the wrapped provider's name
func (c *CachedClassifier) Name() string {
	return c.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (c *CachedClassifier) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

// ClassifyTerms serves cached answers per term and asks the provider only
// for the remaining misses.
func (c *CachedClassifier) ClassifyTerms(ctx context.Context, terms []string) ([]Classification, error) {
	var results []Classification
	var misses []string

	for _, term := range terms {
		key := cache.Key("classify:" + strings.ToLower(term))
		if data, ok := c.store.Get(key); ok {
			var cached Classification
			if err := json.Unmarshal(data, &cached); err == nil {
				results = append(results, cached)
				continue
			}
		}
		misses = append(misses, term)
	}

	if len(misses) > 0 {
		fresh, err := c.inner.ClassifyTerms(ctx, misses)
		if err != nil {
			// Cached hits alone are incomplete; the caller degrades all
			// asked terms to unknown.
			return nil, err
		}
		for _, cl := range fresh {
			if data, err := json.Marshal(cl); err == nil {
				_ = c.store.Set(cache.Key("classify:"+strings.ToLower(cl.Term)), data, c.termTTL)
			}
			results = append(results, cl)
		}
	}

	// Provider answers come back in arbitrary order; callers diff against
	// the asked list, so keep the output stable.
	sort.Slice(results, func(i, j int) bool { return results[i].Term < results[j].Term })
	return results, nil
}

// ExtractIngredients caches dish decompositions by lowercased dish name.
func (c *CachedClassifier) ExtractIngredients(ctx context.Context, dishName string) (*Extraction, error) {
	key := cache.Key("extract:" + strings.ToLower(dishName))
	if data, ok := c.store.Get(key); ok {
		var cached Extraction
		if err := json.Unmarshal(data, &cached); err == nil && len(cached.Items) > 0 {
			return &cached, nil
		}
	}

	fresh, err := c.inner.ExtractIngredients(ctx, dishName)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(fresh); err == nil {
		_ = c.store.Set(key, data, c.extraTTL)
	}
	return fresh, nil
}
