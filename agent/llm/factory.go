package llm

import (
	"context"
	"fmt"

	deepseekx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/deepseek"
	geminix "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
)

// NewChatModel builds the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg Config) (einomodel.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.provider() {
	case ProviderOpenRouter:
		orCfg := cfg.OpenRouter()
		return orCfg.New(ctx)
	case ProviderDeepSeek:
		m, err := deepseekx.New(cfg.DeepSeek())
		if err != nil {
			return nil, err
		}
		return m, nil
	case ProviderGemini:
		m, err := geminix.New(ctx, cfg.Gemini())
		if err != nil {
			return nil, err
		}
		return m, nil
	case ProviderOffline:
		return NewOfflineModel(), nil
	}
	return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
}
