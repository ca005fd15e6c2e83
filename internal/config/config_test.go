package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound variable; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Session.SweepInterval)
	assert.EqualValues(t, 5<<20, cfg.Upload.MaxImageBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/gif"}, cfg.Upload.AllowedTypes)

	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Equal(t, defaultOpenAIBaseURL, cfg.AI.BaseURL)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.AI.MaxTokens)
	assert.Zero(t, cfg.AI.Timeout)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "1m")
	t.Setenv("UPLOAD_MAX_IMAGE_BYTES", "1024")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "image/PNG, image/gif ,")
	t.Setenv("AI_PROVIDER", "ark")
	t.Setenv("AI_MODEL", "doubao-pro")
	t.Setenv("ARK_ACCESS_KEY", "ak")
	t.Setenv("ARK_SECRET_KEY", "sk")
	t.Setenv("AI_TIMEOUT", "45s")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.EqualValues(t, 1024, cfg.Upload.MaxImageBytes)
	assert.Equal(t, []string{"image/png", "image/gif"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, defaultArkBaseURL, cfg.AI.BaseURL)
	assert.Equal(t, defaultArkRegion, cfg.AI.Region)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadServerAddressForms(t *testing.T) {
	cases := map[string]string{
		"9000":           ":9000",
		":9001":          ":9001",
		"127.0.0.1:9002": "127.0.0.1:9002",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", in)
			cfg, err := Load(viper.New())
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Server.Addr)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"port with space", "PORT", "80 80"},
		{"unknown provider", "AI_PROVIDER", "palm"},
		{"zero ttl", "SESSION_TTL", "0s"},
		{"negative interval", "SESSION_SWEEP_INTERVAL", "-1m"},
		{"zero upload", "UPLOAD_MAX_IMAGE_BYTES", "0"},
		{"temperature", "AI_TEMPERATURE", "3.5"},
		{"max tokens", "AI_MAX_TOKENS", "-5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	assert.False(t, AIConfig{Provider: ProviderOpenAI, Model: "m"}.Enabled())
	assert.False(t, AIConfig{Provider: ProviderOpenAI, APIKey: "k"}.Enabled())
	assert.True(t, AIConfig{Provider: ProviderOpenAI, Model: "m", APIKey: "k"}.Enabled())
	assert.False(t, AIConfig{Provider: ProviderOpenAI, Model: "m", AccessKey: "a", SecretKey: "s"}.Enabled())
	assert.True(t, AIConfig{Provider: ProviderArk, Model: "m", AccessKey: "a", SecretKey: "s"}.Enabled())
}

func TestUploadConfigAllows(t *testing.T) {
	cfg := UploadConfig{AllowedTypes: []string{"image/png", "image/jpeg"}}
	assert.True(t, cfg.Allows("image/png"))
	assert.True(t, cfg.Allows(" IMAGE/JPEG "))
	assert.False(t, cfg.Allows("application/pdf"))
}
