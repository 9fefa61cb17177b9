package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClassifier implements the Classifier interface for OpenAI models
type OpenAIClassifier struct {
	client *openai.Client
	config Config
}

// NewOpenAIClassifier creates a new OpenAI classifier
func NewOpenAIClassifier(config Config) (*OpenAIClassifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (c *OpenAIClassifier) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (c *OpenAIClassifier) IsAvailable(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// ClassifyTerms assigns a food group to each term via the Chat Completions API
func (c *OpenAIClassifier) ClassifyTerms(ctx context.Context, terms []string) ([]Classification, error) {
	payload, err := json.Marshal(terms)
	if err != nil {
		return nil, fmt.Errorf("marshal terms: %w", err)
	}

	raw, err := c.complete(ctx, classifyPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	got, err := parseClassifications(raw)
	if err != nil {
		return nil, err
	}
	return validateClassifications(terms, got), nil
}

// ExtractIngredients decomposes a dish name into ingredients
func (c *OpenAIClassifier) ExtractIngredients(ctx context.Context, dishName string) (*Extraction, error) {
	raw, err := c.complete(ctx, extractPrompt, "Gericht: "+dishName)
	if err != nil {
		return nil, err
	}
	return parseExtraction(raw)
}

// complete runs one system+user exchange and returns the text answer
func (c *OpenAIClassifier) complete(ctx context.Context, system, user string) (string, error) {
	model := c.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := c.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3, // Lower temperature for more deterministic labeling
	}

	resp, err := c.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoResponse("OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
