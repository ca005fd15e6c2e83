package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

// ChainProvider runs the transcript through an eino chain: a chat template
// carrying the system instruction followed by the chat model.
type ChainProvider struct {
	name  string
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainProvider compiles the prompt chain around chatModel.
func NewChainProvider(ctx context.Context, name string, chatModel model.BaseChatModel) (*ChainProvider, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainProvider{name: name, chain: runnable}, nil
}

func (p *ChainProvider) Name() string { return p.name }

// Generate implements Provider.
func (p *ChainProvider) Generate(ctx context.Context, req Request) (string, error) {
	response, err := p.chain.Invoke(ctx, map[string]any{
		"system":  req.Instruction,
		"history": schemaMessages(req.Turns),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}
	return response.Content, nil
}

func schemaMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, userSchemaMessage(turn.Content))
		case chat.RoleModel:
			history = append(history, schema.AssistantMessage(turn.Content.Text, nil))
		}
	}
	return history
}

func userSchemaMessage(content chat.Content) *schema.Message {
	if !content.HasImage() {
		return schema.UserMessage(content.Text)
	}

	// 带图片的消息走多模态格式。
	var parts []schema.ChatMessagePart
	if content.HasText() {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: content.Text,
		})
	}
	parts = append(parts, schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeImageURL,
		ImageURL: &schema.ChatMessageImageURL{
			URL:      dataURL(content.Image),
			MIMEType: content.Image.MIMEType,
		},
	})

	return &schema.Message{Role: schema.User, MultiContent: parts}
}
