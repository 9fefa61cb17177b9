package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFence removes a Markdown code fence wrapper if the model added
// one despite the JSON-only instruction.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseClassifications parses the model's JSON array answer.
func parseClassifications(raw string) ([]Classification, error) {
	var out []Classification
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse classification response: %w", err)
	}
	return out, nil
}

// parseExtraction parses the model's JSON object answer.
func parseExtraction(raw string) (*Extraction, error) {
	var out Extraction
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("extraction response contains no items")
	}
	return &out, nil
}
