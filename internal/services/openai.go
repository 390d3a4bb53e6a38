package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

type openAIService struct {
	client    *openai.Client
	modelName string
}

func NewOpenAIService(apiKey, baseURL, modelName string) (CompletionService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is not set")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &openAIService{
		client:    openai.NewClientWithConfig(clientConfig),
		modelName: modelName,
	}, nil
}

func (o *openAIService) Name() string {
	return "openai:" + o.modelName
}

// GenerateJSON implements CompletionService.
func (o *openAIService) GenerateJSON(ctx context.Context, req CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	messages = append(messages, openAIUserMessage(req))

	chatReq := openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		schema := ToJSONSchema(req.Schema)
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "analysis_result",
				Schema: &schema,
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		log.Printf("❌ OpenAI API error: %v\n", err)
		return "", fmt.Errorf("%w: openai chat completion: %v", ErrTransport, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	log.Printf("📊 OpenAI response received: %d characters\n", len(text))
	return text, nil
}

func openAIUserMessage(req CompletionRequest) openai.ChatCompletionMessage {
	var images []openai.ChatMessagePart
	for _, a := range req.Attachments {
		if !strings.HasPrefix(a.MIMEType, "image/") {
			log.Printf("⚠️  Skipping %s attachment: chat completions only accept images\n", a.MIMEType)
			continue
		}
		images = append(images, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	if len(images) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		}
	}

	parts := append(images, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}

// ToJSONSchema converts a Gemini schema into the JSON Schema form used by
// OpenAI strict structured outputs.
func ToJSONSchema(s *genai.Schema) jsonschema.Definition {
	if s == nil {
		return jsonschema.Definition{}
	}

	def := jsonschema.Definition{
		Type:        jsonSchemaType(s.Type),
		Description: s.Description,
	}

	if s.Items != nil {
		items := ToJSONSchema(s.Items)
		def.Items = &items
	}

	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = ToJSONSchema(prop)
		}
		def.Required = append([]string(nil), s.Required...)
		def.AdditionalProperties = false
	}

	return def
}

func jsonSchemaType(t genai.Type) jsonschema.DataType {
	switch t {
	case genai.TypeObject:
		return jsonschema.Object
	case genai.TypeArray:
		return jsonschema.Array
	case genai.TypeString:
		return jsonschema.String
	case genai.TypeNumber:
		return jsonschema.Number
	case genai.TypeInteger:
		return jsonschema.Integer
	case genai.TypeBoolean:
		return jsonschema.Boolean
	}
	return jsonschema.DataType(strings.ToLower(string(t)))
}
