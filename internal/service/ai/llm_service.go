package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
)

var (
	ErrModelUnavailable = errors.New("generative model is not configured")
	ErrEmptyResponse    = errors.New("generative model returned an empty response")
)

// Request is one call to the external model: the fixed instruction plus the
// full transcript to continue.
type Request struct {
	Instruction string
	Turns       []chat.Turn
}

// Provider is the boundary to a third-party generative language API.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Service sends transcripts to the configured provider along with the
// current system instruction.
type Service struct {
	provider    Provider
	instruction *InstructionSource
	timeout     time.Duration
}

// NewService creates a new AI service instance. A zero timeout leaves the
// call bounded only by ctx.
func NewService(provider Provider, instruction *InstructionSource, timeout time.Duration) *Service {
	if provider == nil {
		provider = Unavailable{}
	}
	if instruction == nil {
		instruction = StaticInstruction(DefaultInstruction)
	}
	return &Service{
		provider:    provider,
		instruction: instruction,
		timeout:     timeout,
	}
}

// ProviderName reports which provider backs the service.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Reply asks the model for the next turn of the conversation.
func (s *Service) Reply(ctx context.Context, turns []chat.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("no turns to send")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Generate(ctx, Request{
		Instruction: s.instruction.Current(),
		Turns:       turns,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}

	log.Debug().
		Str("component", "ai").
		Str("provider", s.provider.Name()).
		Int("turns", len(turns)).
		Int("length", len(text)).
		Dur("took", time.Since(start)).
		Msg("generated response")
	return text, nil
}

// Unavailable stands in when no provider credentials are configured; every
// call fails with ErrModelUnavailable.
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrModelUnavailable
}

// dataURL encodes an image as an RFC 2397 data URL.
func dataURL(img *chat.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
