package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

type classifierLLMOutput struct {
	Intent string `json:"intent"`
}

// Classifier is the fallback routing stage. It asks the chat model for one
// label at temperature 0 and parses the JSON answer.
type Classifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

var _ contractx.Classifier = (*Classifier)(nil)

func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Classifier, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt is empty", contractx.ErrValidation)
	}
	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &Classifier{runner: runner}, nil
}

// Classify returns IntentUnknown with a nil error when the model itself is unsure.
func (c *Classifier) Classify(ctx context.Context, text string, last contractx.Intent) (contractx.Intent, error) {
	prev := string(last)
	if prev == "" {
		prev = "none"
	}
	out, err := c.runner.Invoke(ctx,
		map[string]any{
			"input": fmt.Sprintf("Previous intent: %s\nMessage: %s", prev, strings.TrimSpace(text)),
		},
		compose.WithChatModelOption(einomodel.WithTemperature(0)),
	)
	if err != nil {
		return contractx.IntentUnknown, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrLLMUnavailable, err)
	}

	label := strings.ToLower(strings.TrimSpace(out.Intent))
	if label == "unknown" || label == "" {
		return contractx.IntentUnknown, nil
	}
	intent, ok := contractx.ParseIntent(label)
	if !ok {
		return contractx.IntentUnknown, fmt.Errorf("%w: unsupported intent=%q", contractx.ErrSchemaViolation, out.Intent)
	}
	return intent, nil
}

func compileClassifierGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, classifierLLMOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)
	parser := schema.NewMessageJSONParser[classifierLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, classifierLLMOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add classifier prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add classifier model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add classifier parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add classifier edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.classifier_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return runner, nil
}
