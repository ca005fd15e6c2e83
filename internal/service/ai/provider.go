package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/config"
)

// NewProvider builds the provider selected by cfg. When cfg carries no
// credentials the Unavailable provider is returned so the rest of the
// service can still run.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	if !cfg.Enabled() {
		log.Warn().
			Str("component", "ai").
			Str("provider", cfg.Provider).
			Msg("AI credentials missing, chat endpoints will fail until configured")
		return Unavailable{}, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewChainProvider(ctx, config.ProviderArk, chatModel)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
