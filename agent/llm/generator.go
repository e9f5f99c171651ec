package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	postprocessx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/postprocess"
	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

var _ contractx.Generator = (*Generator)(nil)

var errEmptyCompletion = errors.New("empty completion")

type GeneratorOption func(*Generator)

// WithRetries sets how many times a failed or empty completion is retried.
func WithRetries(n int) GeneratorOption {
	return func(g *Generator) {
		if n >= 0 {
			g.retries = n
		}
	}
}

// Generator runs the reply graph: system text, bounded history and the user
// prompt go through a chat template into the chat model.
type Generator struct {
	runner  compose.Runnable[map[string]any, *schema.Message]
	retries int
}

func NewGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, opts ...GeneratorOption) (*Generator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	runner, err := compileGeneratorGraph(ctx, chatModel)
	if err != nil {
		return nil, fmt.Errorf("%w: compile generator graph: %v", contractx.ErrLLMUnavailable, err)
	}
	g := &Generator{runner: runner, retries: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Generate returns the trimmed raw completion. A completion that is empty once
// reasoning segments are removed counts as a failure.
func (g *Generator) Generate(ctx context.Context, system, user string, history []contractx.Turn) (string, error) {
	vars := map[string]any{
		"system":  system,
		"history": toMessages(history),
		"input":   user,
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		msg, err := g.runner.Invoke(ctx, vars)
		if err == nil && (msg == nil || postprocessx.StripReasoning(msg.Content) == "") {
			err = errEmptyCompletion
		}
		if err == nil {
			return strings.TrimSpace(msg.Content), nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("reply generation failed")
	}
	return "", fmt.Errorf("%w: %v", contractx.ErrLLMUnavailable, lastErr)
}

func toMessages(history []contractx.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(turn.Text, nil))
		default:
			out = append(out, schema.UserMessage(turn.Text))
		}
	}
	return out
}

func compileGeneratorGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add generator prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add generator model node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", compose.END},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("add generator edge %s->%s: %w", e[0], e[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("llm.generator_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile generator graph: %w", err)
	}
	return runner, nil
}
