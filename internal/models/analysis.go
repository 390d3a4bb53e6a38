package models

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// AnalysisResult is the coaching report produced for one run.
type AnalysisResult struct {
	TechnicalScore float64  `json:"technicalScore"`
	TacticalScore  float64  `json:"tacticalScore"`
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	Drills         []string `json:"drills"`
}

// Validate checks the value constraints of a report. Field presence is
// checked at decode time, where absent and zero values can still be told apart.
func (r *AnalysisResult) Validate() error {
	if err := validateScore("technicalScore", r.TechnicalScore); err != nil {
		return err
	}
	if err := validateScore("tacticalScore", r.TacticalScore); err != nil {
		return err
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("summary must not be empty")
	}

	lists := []struct {
		name  string
		items []string
	}{
		{"strengths", r.Strengths},
		{"improvements", r.Improvements},
		{"drills", r.Drills},
	}
	for _, l := range lists {
		if l.items == nil {
			return fmt.Errorf("%s is required", l.name)
		}
		for i, item := range l.items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("%s[%d] must not be empty", l.name, i)
			}
		}
	}

	return nil
}

func validateScore(name string, v float64) error {
	if math.IsNaN(v) || v < MinScore || v > MaxScore {
		return fmt.Errorf("%s must be between %d and %d, got %v", name, MinScore, MaxScore, v)
	}
	return nil
}
