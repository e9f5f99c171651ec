package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	deepseekx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/deepseek"
	geminix "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/gemini"
	openrouterx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/openrouter"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderDeepSeek   = "deepseek"
	ProviderGemini     = "gemini"
	ProviderOffline    = "offline"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"800"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	Retries            int           `envconfig:"RETRIES" split_words:"true" default:"1"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) provider() string {
	return strings.ToLower(strings.TrimSpace(c.Provider))
}

func (c Config) Validate() error {
	switch c.provider() {
	case ProviderOffline:
		return nil
	case ProviderOpenRouter, ProviderDeepSeek, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: %s api key is required", contractx.ErrValidation, c.provider())
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be within 0..2", contractx.ErrValidation)
	}
	if c.Retries < 0 || c.Retries > 3 {
		return fmt.Errorf("%w: retries must be within 0..3", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	cfg := openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openrouterx.DefaultBaseURL
	}
	return cfg
}

func (c Config) DeepSeek() deepseekx.Config {
	cfg := deepseekx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxCompletionToken,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = deepseekx.DefaultBaseURL
	}
	return cfg
}

func (c Config) Gemini() geminix.Config {
	return geminix.Config{
		APIKey:          strings.TrimSpace(c.APIKey),
		Model:           strings.TrimSpace(c.Model),
		MaxOutputTokens: c.MaxCompletionToken,
		Temperature:     c.Temperature,
	}
}
