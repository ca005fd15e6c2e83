package ai

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

type fakeChatModel struct {
	input []*schema.Message
	reply string
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.input = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

func TestChainProviderBuildsConversation(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: "Coba jelaskan dulu apa yang kamu tahu."}

	provider, err := NewChainProvider(ctx, "ark", fake)
	require.NoError(t, err)
	assert.Equal(t, "ark", provider.Name())

	at := time.Now()
	text, err := provider.Generate(ctx, Request{
		Instruction: "kamu tutor",
		Turns: []chat.Turn{
			chat.UserTurn(chat.Content{Text: "Apa itu pecahan?"}, at),
			chat.ModelTurn("Menurutmu apa?", at),
			chat.UserTurn(chat.Content{
				Text:  "Ini soalnya",
				Image: &chat.Image{Data: []byte{0x89, 0x50}, MIMEType: "image/png"},
			}, at),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Coba jelaskan dulu apa yang kamu tahu.", text)

	require.Len(t, fake.input, 4)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "kamu tutor", fake.input[0].Content)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, "Apa itu pecahan?", fake.input[1].Content)
	assert.Equal(t, schema.Assistant, fake.input[2].Role)

	image := fake.input[3]
	require.Len(t, image.MultiContent, 2)
	assert.Equal(t, schema.ChatMessagePartTypeText, image.MultiContent[0].Type)
	assert.Equal(t, "Ini soalnya", image.MultiContent[0].Text)
	require.NotNil(t, image.MultiContent[1].ImageURL)
	assert.Equal(t, "data:image/png;base64,iVA=", image.MultiContent[1].ImageURL.URL)
}

func TestUserSchemaMessageImageOnly(t *testing.T) {
	msg := userSchemaMessage(chat.Content{Image: &chat.Image{Data: []byte("x"), MIMEType: "image/gif"}})

	require.Len(t, msg.MultiContent, 1)
	assert.Equal(t, schema.ChatMessagePartTypeImageURL, msg.MultiContent[0].Type)
	assert.Equal(t, "image/gif", msg.MultiContent[0].ImageURL.MIMEType)
}

func TestNewChainProviderRequiresModel(t *testing.T) {
	_, err := NewChainProvider(context.Background(), "ark", nil)
	assert.Error(t, err)
}
