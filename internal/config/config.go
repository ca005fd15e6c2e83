package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/viper"
)

// Supported generative model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderArk       = "ark"
	ProviderAnthropic = "anthropic"
)

const (
	defaultAddr           = ":3000"
	defaultModel          = "gemini-2.5-flash"
	defaultOpenAIBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultArkBaseURL     = "https://ark.cn-beijing.volces.com/api/v3"
	defaultArkRegion      = "cn-beijing"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultMaxImageBytes  = 5 << 20
	defaultAllowedTypes   = "image/jpeg,image/png,image/jpg,image/webp,image/gif"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Session SessionConfig
	Upload  UploadConfig
	AI      AIConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Pretty bool
}

// SessionConfig controls session expiry.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	MaxImageBytes int64
	AllowedTypes  []string
}

// Allows reports whether mimeType is an accepted image type.
func (c UploadConfig) Allows(mimeType string) bool {
	return slices.Contains(c.AllowedTypes, strings.ToLower(strings.TrimSpace(mimeType)))
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	InstructionFile string

	// Ark accepts an AK/SK pair instead of an API key.
	AccessKey string
	SecretKey string
	Region    string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.APIKey != "" {
		return true
	}
	return c.Provider == ProviderArk && c.AccessKey != "" && c.SecretKey != ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set AI_API_KEY + AI_MODEL or an AK/SK pair")
	}

	temperature := float32(c.Temperature)
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

// Load reads configuration from v. Environment variables are bound here;
// command line flags are expected to be bound by the caller.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig(v)
	if err != nil {
		return nil, err
	}

	upload, err := loadUploadConfig(v)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Log:     LogConfig{Level: v.GetString("log.level"), Pretty: v.GetBool("log.pretty")},
		Session: session,
		Upload:  upload,
		AI:      ai,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.sweep_interval", 15*time.Minute)
	v.SetDefault("upload.max_image_bytes", defaultMaxImageBytes)
	v.SetDefault("upload.allowed_types", defaultAllowedTypes)
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", time.Duration(0))
}

var envBindings = map[string][]string{
	"server.addr":            {"PORT"},
	"log.level":              {"LOG_LEVEL"},
	"log.pretty":             {"LOG_PRETTY"},
	"session.ttl":            {"SESSION_TTL"},
	"session.sweep_interval": {"SESSION_SWEEP_INTERVAL"},
	"upload.max_image_bytes": {"UPLOAD_MAX_IMAGE_BYTES"},
	"upload.allowed_types":   {"UPLOAD_ALLOWED_TYPES"},
	"ai.provider":            {"AI_PROVIDER"},
	"ai.model":               {"AI_MODEL"},
	"ai.api_key":             {"AI_API_KEY", "GEMINI_API_KEY"},
	"ai.base_url":            {"AI_BASE_URL"},
	"ai.temperature":         {"AI_TEMPERATURE"},
	"ai.max_tokens":          {"AI_MAX_TOKENS"},
	"ai.timeout":             {"AI_TIMEOUT"},
	"ai.instruction_file":    {"AI_INSTRUCTION_FILE"},
	"ai.ark.access_key":      {"ARK_ACCESS_KEY"},
	"ai.ark.secret_key":      {"ARK_SECRET_KEY"},
	"ai.ark.region":          {"ARK_REGION"},
}

func bindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	port := strings.TrimSpace(v.GetString("server.addr"))
	if port == "" {
		port = defaultAddr
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadSessionConfig(v *viper.Viper) (SessionConfig, error) {
	ttl := v.GetDuration("session.ttl")
	if ttl <= 0 {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_TTL value %q: must be positive", v.GetString("session.ttl"))
	}

	interval := v.GetDuration("session.sweep_interval")
	if interval <= 0 {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL value %q: must be positive", v.GetString("session.sweep_interval"))
	}

	return SessionConfig{TTL: ttl, SweepInterval: interval}, nil
}

func loadUploadConfig(v *viper.Viper) (UploadConfig, error) {
	maxBytes := v.GetInt64("upload.max_image_bytes")
	if maxBytes <= 0 {
		return UploadConfig{}, fmt.Errorf("invalid UPLOAD_MAX_IMAGE_BYTES value %q: must be positive", v.GetString("upload.max_image_bytes"))
	}

	var allowed []string
	for _, item := range strings.Split(v.GetString("upload.allowed_types"), ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			allowed = append(allowed, item)
		}
	}
	if len(allowed) == 0 {
		return UploadConfig{}, fmt.Errorf("UPLOAD_ALLOWED_TYPES must list at least one MIME type")
	}

	return UploadConfig{MaxImageBytes: maxBytes, AllowedTypes: allowed}, nil
}

func loadAIConfig(v *viper.Viper) (AIConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("ai.provider")))
	switch provider {
	case ProviderOpenAI, ProviderArk, ProviderAnthropic:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: want %s, %s or %s", provider, ProviderOpenAI, ProviderArk, ProviderAnthropic)
	}

	temperature := v.GetFloat64("ai.temperature")
	if temperature < 0 || temperature > 2 {
		return AIConfig{}, fmt.Errorf("invalid AI_TEMPERATURE value %v: must be within [0, 2]", temperature)
	}

	maxTokens := v.GetInt("ai.max_tokens")
	if maxTokens <= 0 {
		return AIConfig{}, fmt.Errorf("invalid AI_MAX_TOKENS value %d: must be positive", maxTokens)
	}

	timeout := v.GetDuration("ai.timeout")
	if timeout < 0 {
		return AIConfig{}, fmt.Errorf("invalid AI_TIMEOUT value %q: must not be negative", v.GetString("ai.timeout"))
	}

	cfg := AIConfig{
		Provider:        provider,
		Model:           strings.TrimSpace(v.GetString("ai.model")),
		APIKey:          strings.TrimSpace(v.GetString("ai.api_key")),
		BaseURL:         strings.TrimSpace(v.GetString("ai.base_url")),
		Temperature:     temperature,
		MaxTokens:       maxTokens,
		Timeout:         timeout,
		InstructionFile: strings.TrimSpace(v.GetString("ai.instruction_file")),
		AccessKey:       strings.TrimSpace(v.GetString("ai.ark.access_key")),
		SecretKey:       strings.TrimSpace(v.GetString("ai.ark.secret_key")),
		Region:          strings.TrimSpace(v.GetString("ai.ark.region")),
	}

	switch provider {
	case ProviderOpenAI:
		cfg.Model = valueOrDefault(cfg.Model, defaultModel)
		cfg.BaseURL = valueOrDefault(cfg.BaseURL, defaultOpenAIBaseURL)
	case ProviderArk:
		cfg.BaseURL = valueOrDefault(cfg.BaseURL, defaultArkBaseURL)
		cfg.Region = valueOrDefault(cfg.Region, defaultArkRegion)
	case ProviderAnthropic:
		cfg.Model = valueOrDefault(cfg.Model, defaultAnthropicModel)
	}

	return cfg, nil
}

func valueOrDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
