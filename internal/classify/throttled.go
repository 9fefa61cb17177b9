package classify

import "context"

// Limiter gates provider calls. Satisfied by worker.Limiter keyed by
// provider name.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// ThrottledClassifier applies a rate limit before each provider call so
// batch runs do not hammer the API.
type ThrottledClassifier struct {
	inner   Classifier
	limiter Limiter
}

// NewThrottledClassifier wraps inner with the given limiter.
func NewThrottledClassifier(inner Classifier, limiter Limiter) *ThrottledClassifier {
	return &ThrottledClassifier{inner: inner, limiter: limiter}
}

// Name returns the wrapped provider's name
func (t *ThrottledClassifier) Name() string {
	return t.inner.Name()
}

// IsAvailable delegates to the wrapped provider without throttling
func (t *ThrottledClassifier) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}

// ClassifyTerms waits for rate limit clearance, then delegates
func (t *ThrottledClassifier) ClassifyTerms(ctx context.Context, terms []string) ([]Classification, error) {
	if err := t.limiter.Wait(ctx, t.inner.Name()); err != nil {
		return nil, err
	}
	return t.inner.ClassifyTerms(ctx, terms)
}

// ExtractIngredients waits for rate limit clearance, then delegates
func (t *ThrottledClassifier) ExtractIngredients(ctx context.Context, dishName string) (*Extraction, error) {
	if err := t.limiter.Wait(ctx, t.inner.Name()); err != nil {
		return nil, err
	}
	return t.inner.ExtractIngredients(ctx, dishName)
}
