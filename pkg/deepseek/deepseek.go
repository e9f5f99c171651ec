// Package deepseek adapts DeepSeek's OpenAI-compatible chat API to an eino chat model.
package deepseek

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultBaseURL = "https://api.deepseek.com/v1"

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.deepseek.com/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"deepseek-chat"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" split_words:"true" default:"800"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

var _ model.BaseChatModel = (*ChatModel)(nil)

type ChatModel struct {
	client      openaisdk.Client
	model       string
	maxTokens   int
	temperature float32
}

func New(cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("deepseek: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("deepseek: model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		// retries belong to the caller
		option.WithMaxRetries(0),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &ChatModel{
		client:      openaisdk.NewClient(opts...),
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{
		Temperature: &m.temperature,
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
	}, opts...)

	params := openaisdk.ChatCompletionNewParams{
		Model:    *common.Model,
		Messages: toParams(input),
	}
	if common.Temperature != nil {
		params.Temperature = openaisdk.Float(float64(*common.Temperature))
	}
	if common.MaxTokens != nil && *common.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(*common.MaxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("deepseek: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("deepseek: response has no choices")
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream delivers the whole completion as a single chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toParams(input []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}
	return out
}
