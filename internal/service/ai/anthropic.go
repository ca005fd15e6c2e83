package ai

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropicProvider creates a provider for model.
func NewAnthropicProvider(apiKey, baseURL, model string, temperature float64, maxTokens int, opts ...option.RequestOption) *AnthropicProvider {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &AnthropicProvider{
		client:      anthropic.NewClient(clientOpts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Generate implements Provider.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Turns))
	for _, turn := range req.Turns {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropicUserBlocks(turn.Content)...))
		case chat.RoleModel:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content.Text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(p.maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(p.temperature),
	}
	if req.Instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instruction}}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	return out.String(), nil
}

func anthropicUserBlocks(content chat.Content) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	if content.HasText() || !content.HasImage() {
		blocks = append(blocks, anthropic.NewTextBlock(content.Text))
	}
	if content.HasImage() {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			content.Image.MIMEType,
			base64.StdEncoding.EncodeToString(content.Image.Data),
		))
	}
	return blocks
}
