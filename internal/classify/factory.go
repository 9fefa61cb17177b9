package classify

import (
	"fmt"
	"strings"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// NewClassifier creates a classifier based on configuration. A nil, nil
// return means no provider is configured and classification is disabled.
func NewClassifier(config Config) (Classifier, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClassifier(config)

	case "ollama":
		return NewOllamaClassifier(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.ClassifierConfig to classify.Config
func ConfigFromModel(modelConfig model.ClassifierConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}
