package services

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// Attachment is inline binary content sent alongside the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

type CompletionRequest struct {
	SystemInstruction string
	Prompt            string
	Attachments       []Attachment
	Schema            *genai.Schema
	Temperature       float32
}

// CompletionService returns the raw JSON text a provider generated for req.
type CompletionService interface {
	GenerateJSON(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

type geminiService struct {
	client    *genai.Client
	modelName string
}

func NewGeminiService(apiKey, modelName string) (CompletionService, error) {
	ctx := context.Background()

	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *geminiService) Name() string {
	return "gemini:" + g.modelName
}

// GenerateJSON implements CompletionService.
func (g *geminiService) GenerateJSON(ctx context.Context, req CompletionRequest) (string, error) {
	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, geminiContents(req), config)
	if err != nil {
		log.Printf("❌ Gemini API error: %v\n", err)
		return "", fmt.Errorf("%w: gemini generate content: %v", ErrTransport, err)
	}

	if resp == nil {
		return "", ErrEmptyResponse
	}

	text := resp.Text()
	if text == "" {
		log.Println("❌ No text content in Gemini response")
		return "", ErrEmptyResponse
	}

	log.Printf("📊 Gemini response received: %d characters\n", len(text))
	return text, nil
}

// geminiContents places inline media before the text prompt.
func geminiContents(req CompletionRequest) []*genai.Content {
	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
