package services

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"alfredoptarigan/rallycoach/internal/models"
)

const SystemInstruction = `You are RallyCoach AI, an elite world-class tennis coach with expertise in biomechanics and match strategy.
Your task is to analyze tennis match footage (provided via descriptions or frames) and provide professional, actionable feedback.
Be specific about footwork, racket path, strike point, and court positioning.
Use professional tennis terminology (e.g., closed-stance, unit turn, split step, inside-out forehand).`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildMatchAnalysisPrompt creates the user prompt for one uploaded match
func (pb *PromptBuilder) BuildMatchAnalysisPrompt(meta models.VideoMetadata, frameCount int, videoAttached bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze the tennis match footage uploaded as %q", meta.Name)
	if meta.Size > 0 {
		fmt.Fprintf(&sb, " (%s)", formatBytes(meta.Size))
	}
	if meta.Duration != nil && *meta.Duration > 0 {
		fmt.Fprintf(&sb, ", duration %.0f seconds", *meta.Duration)
	}
	sb.WriteString(".\n")

	switch {
	case videoAttached:
		sb.WriteString("The full video is attached.\n")
	case frameCount > 0:
		fmt.Fprintf(&sb, "%d still frames from the match are attached in chronological order.\n", frameCount)
	default:
		sb.WriteString("No footage is attached; base the report on typical patterns for a club-level player.\n")
	}

	sb.WriteString(`
Score technical execution and tactical awareness from 0 to 100.
Give a brief summary, the key strengths, actionable technical improvements and recommended practice drills.`)

	return sb.String()
}

// AnalysisSchema is the structured-output schema every provider is forced into.
func AnalysisSchema() *genai.Schema {
	stringList := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: description,
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"technicalScore": {Type: genai.TypeNumber, Description: "Technical execution score 0-100"},
			"tacticalScore":  {Type: genai.TypeNumber, Description: "Strategic awareness score 0-100"},
			"summary":        {Type: genai.TypeString, Description: "Brief overview of the performance"},
			"strengths":      stringList("Key things the player did well"),
			"improvements":   stringList("Actionable technical fixes"),
			"drills":         stringList("Recommended practice drills"),
		},
		Required:         append([]string(nil), analysisFields...),
		PropertyOrdering: append([]string(nil), analysisFields...),
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
