// Package gemini adapts Google's Gemini models to an eino chat model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Config struct {
	APIKey          string  `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model           string  `envconfig:"MODEL" split_words:"true" default:"gemini-2.0-flash"`
	MaxOutputTokens int     `envconfig:"MAX_OUTPUT_TOKENS" split_words:"true" default:"800"`
	Temperature     float32 `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
}

var _ model.BaseChatModel = (*ChatModel)(nil)

type ChatModel struct {
	client *genai.Client
	cfg    Config
}

func New(ctx context.Context, cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini: model is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &ChatModel{client: client, cfg: cfg}, nil
}

func (m *ChatModel) Close() error {
	return m.client.Close()
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{
		Temperature: &m.cfg.Temperature,
		Model:       &m.cfg.Model,
	}, opts...)

	gm := m.client.GenerativeModel(*common.Model)
	if common.Temperature != nil {
		gm.SetTemperature(*common.Temperature)
	}
	if m.cfg.MaxOutputTokens > 0 {
		gm.SetMaxOutputTokens(int32(m.cfg.MaxOutputTokens))
	}

	system, history, last, err := splitConversation(input)
	if err != nil {
		return nil, err
	}
	if system != "" {
		gm.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := gm.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, errors.New("gemini: response has no text")
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream delivers the whole completion as a single chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// splitConversation maps eino messages onto Gemini's shape: system messages
// become the system instruction, the final user message is sent, and the rest
// becomes chat history with roles "user" and "model".
func splitConversation(input []*schema.Message) (system string, history []*genai.Content, last string, err error) {
	var systems []string
	var turns []*schema.Message
	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			systems = append(systems, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != schema.User {
		return "", nil, "", errors.New("gemini: conversation must end with a user message")
	}

	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	return strings.Join(systems, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
