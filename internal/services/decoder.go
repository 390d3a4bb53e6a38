package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"alfredoptarigan/rallycoach/internal/models"
)

// analysisFields lists the report fields in the order the schema declares them.
var analysisFields = []string{
	"technicalScore",
	"tacticalScore",
	"summary",
	"strengths",
	"improvements",
	"drills",
}

// DecodeAnalysisResult parses a report produced by the backend or an AI provider.
// Every failure wraps ErrInvalidPayload.
func DecodeAnalysisResult(text string) (*models.AnalysisResult, error) {
	jsonStr := extractJSON(text)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	for _, field := range analysisFields {
		value, ok := raw[field]
		if !ok || string(value) == "null" {
			return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidPayload, field)
		}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &result, nil
}

// extractJSON strips a surrounding Markdown fence and returns the outermost
// JSON object in text. Fences inside string values are left alone.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(strings.TrimPrefix(text, "```json"), "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
