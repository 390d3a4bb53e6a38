package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"alfredoptarigan/rallycoach/internal/models"
)

const analysisTemperature = 0.3

type aiAcquirer struct {
	completion          CompletionService
	promptBuilder       *PromptBuilder
	inlineVideoMaxBytes int64
}

// NewAIAcquirer generates reports directly with a completion provider. Videos
// no larger than inlineVideoMaxBytes are attached inline; zero disables that.
func NewAIAcquirer(completion CompletionService, inlineVideoMaxBytes int64) ReportAcquirer {
	return &aiAcquirer{
		completion:          completion,
		promptBuilder:       NewPromptBuilder(),
		inlineVideoMaxBytes: inlineVideoMaxBytes,
	}
}

func (a *aiAcquirer) Name() string {
	return "ai/" + a.completion.Name()
}

// Acquire implements ReportAcquirer.
func (a *aiAcquirer) Acquire(ctx context.Context, video VideoInput) (*models.AnalysisResult, error) {
	attachments := append([]Attachment(nil), video.Frames...)

	videoAttached := false
	if inline, ok, err := a.inlineVideo(video); err != nil {
		return nil, err
	} else if ok {
		attachments = append(attachments, inline)
		videoAttached = true
	}

	req := CompletionRequest{
		SystemInstruction: SystemInstruction,
		Prompt:            a.promptBuilder.BuildMatchAnalysisPrompt(video.Metadata, len(video.Frames), videoAttached),
		Attachments:       attachments,
		Schema:            AnalysisSchema(),
		Temperature:       analysisTemperature,
	}

	log.Printf("🤖 Requesting analysis of %s from %s\n", video.Metadata.Name, a.completion.Name())

	text, err := a.completion.GenerateJSON(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	result, err := DecodeAnalysisResult(text)
	if err != nil {
		log.Printf("❌ Failed to decode analysis response: %v\n", err)
		return nil, err
	}

	return result, nil
}

func (a *aiAcquirer) inlineVideo(video VideoInput) (Attachment, bool, error) {
	if a.inlineVideoMaxBytes <= 0 || video.Path == "" || video.MIMEType == "" {
		return Attachment{}, false, nil
	}

	info, err := os.Stat(video.Path)
	if err != nil {
		return Attachment{}, false, fmt.Errorf("failed to stat staged upload: %w", err)
	}
	if info.Size() == 0 || info.Size() > a.inlineVideoMaxBytes {
		return Attachment{}, false, nil
	}

	data, err := os.ReadFile(video.Path)
	if err != nil {
		return Attachment{}, false, fmt.Errorf("failed to read staged upload: %w", err)
	}

	return Attachment{MIMEType: video.MIMEType, Data: data}, true, nil
}
