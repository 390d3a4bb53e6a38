package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"alfredoptarigan/rallycoach/internal/models"
)

const scenarioJSON = `{"technicalScore":78,"tacticalScore":65,"summary":"Solid baseline play","strengths":["Strong forehand"],"improvements":["Footwork on approach"],"drills":["Split-step ladder drill"]}`

func scenarioResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		TechnicalScore: 78,
		TacticalScore:  65,
		Summary:        "Solid baseline play",
		Strengths:      []string{"Strong forehand"},
		Improvements:   []string{"Footwork on approach"},
		Drills:         []string{"Split-step ladder drill"},
	}
}

func TestDecodeAnalysisResult_RoundTrip(t *testing.T) {
	got, err := DecodeAnalysisResult(scenarioJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, scenarioResult()) {
		t.Fatalf("decoded %+v, want %+v", got, scenarioResult())
	}
}

func TestDecodeAnalysisResult_MarkdownFence(t *testing.T) {
	got, err := DecodeAnalysisResult("Here is the report:\n```json\n" + scenarioJSON + "\n```\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary != "Solid baseline play" {
		t.Fatalf("Summary = %q", got.Summary)
	}
}

func TestDecodeAnalysisResult_FenceInsideValue(t *testing.T) {
	body := `{"technicalScore":78,"tacticalScore":65,"summary":"Notes: ` + "```" + ` end","strengths":["Use ` + "```json" + ` blocks"],"improvements":[],"drills":[]}`

	for name, input := range map[string]string{
		"bare":   body,
		"fenced": "```json\n" + body + "\n```",
		"inline": "```json" + body + "```",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeAnalysisResult(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Summary != "Notes: ``` end" {
				t.Fatalf("Summary = %q", got.Summary)
			}
			if len(got.Strengths) != 1 || got.Strengths[0] != "Use ```json blocks" {
				t.Fatalf("Strengths = %q", got.Strengths)
			}
		})
	}
}

func TestDecodeAnalysisResult_MissingField(t *testing.T) {
	for _, field := range analysisFields {
		t.Run(field, func(t *testing.T) {
			var payload map[string]any
			if err := json.Unmarshal([]byte(scenarioJSON), &payload); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			delete(payload, field)
			data, _ := json.Marshal(payload)

			got, err := DecodeAnalysisResult(string(data))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			if got != nil {
				t.Fatalf("expected no result, got %+v", got)
			}
		})
	}
}

func TestDecodeAnalysisResult_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":        "the model refused",
		"empty":           "",
		"null field":      `{"technicalScore":78,"tacticalScore":65,"summary":"s","strengths":null,"improvements":[],"drills":[]}`,
		"score too high":  `{"technicalScore":178,"tacticalScore":65,"summary":"s","strengths":[],"improvements":[],"drills":[]}`,
		"negative score":  `{"technicalScore":78,"tacticalScore":-5,"summary":"s","strengths":[],"improvements":[],"drills":[]}`,
		"score as string": `{"technicalScore":"78","tacticalScore":65,"summary":"s","strengths":[],"improvements":[],"drills":[]}`,
		"list of numbers": `{"technicalScore":78,"tacticalScore":65,"summary":"s","strengths":[1,2],"improvements":[],"drills":[]}`,
		"list as string":  `{"technicalScore":78,"tacticalScore":65,"summary":"s","strengths":"forehand","improvements":[],"drills":[]}`,
		"empty summary":   `{"technicalScore":78,"tacticalScore":65,"summary":"","strengths":[],"improvements":[],"drills":[]}`,
		"null list item":  `{"technicalScore":78,"tacticalScore":65,"summary":"s","strengths":[null],"improvements":[],"drills":[]}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeAnalysisResult(input)
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			if got != nil {
				t.Fatalf("expected no result, got %+v", got)
			}
		})
	}
}
