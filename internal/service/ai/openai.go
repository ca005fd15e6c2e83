package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
// The default base URL points at Gemini's compatibility layer.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIProvider creates a provider for model. Extra client options are
// appended after the API key and base URL.
func NewOpenAIProvider(apiKey, baseURL, model string, temperature float64, maxTokens int, opts ...option.RequestOption) *OpenAIProvider {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIProvider{
		client:      openai.NewClient(clientOpts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.Instruction != "" {
		messages = append(messages, openai.SystemMessage(req.Instruction))
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, openAIUserMessage(turn.Content))
		case chat.RoleModel:
			messages = append(messages, openai.AssistantMessage(turn.Content.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

func openAIUserMessage(content chat.Content) openai.ChatCompletionMessageParamUnion {
	if !content.HasImage() {
		return openai.UserMessage(content.Text)
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	if content.HasText() {
		parts = append(parts, openai.TextContentPart(content.Text))
	}
	parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL: dataURL(content.Image),
	}))

	return openai.UserMessage(parts)
}
