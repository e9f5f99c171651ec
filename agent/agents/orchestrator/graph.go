package orchestrator

import (
	"context"
	"fmt"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	nodex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/nodes/orchestrator"
	"github.com/cloudwego/eino/compose"
)

func (o *Orchestrator) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadSession(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_session: %w", err)
	}

	if err := graph.AddLambdaNode("route_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RouteTurn(ctx, in, o.router)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route_turn: %w", err)
	}

	if err := graph.AddLambdaNode("apply_slot_updates",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplySlotUpdates(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_slot_updates: %w", err)
	}

	if err := graph.AddLambdaNode("reply_clarification",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			st, err := nodex.ReplyClarification(in)
			if err != nil {
				return nodex.GraphOutput{}, err
			}
			nodex.SaveSession(ctx, st, o.store)
			o.metrics.ObserveClarification(st.Decision.Kind.String())
			return nodex.GraphOutput{Reply: st.Reply, Clarification: true}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reply_clarification: %w", err)
	}

	if err := graph.AddLambdaNode("fetch_tool_facts",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FetchToolFacts(ctx, in, o.gateway, o.metrics)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node fetch_tool_facts: %w", err)
	}

	if err := graph.AddLambdaNode("compose_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposePrompt(in, o.composer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("generate_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GenerateReply(ctx, in, o.generator, o.metrics)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_reply: %w", err)
	}

	if err := graph.AddLambdaNode("postprocess_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PostprocessReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node postprocess_reply: %w", err)
	}

	if err := graph.AddLambdaNode("commit_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			st, err := nodex.CommitTurn(in, o.historyTurns)
			if err != nil {
				return nodex.GraphOutput{}, err
			}
			nodex.SaveSession(ctx, st, o.store)
			o.metrics.ObserveTurn(st.Decision.Intent)
			return nodex.GraphOutput{Reply: st.Reply}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node commit_turn: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Decision.IsClarification() {
				return "reply_clarification", nil
			}
			return "fetch_tool_facts", nil
		},
		map[string]bool{
			"reply_clarification": true,
			"fetch_tool_facts":    true,
		},
	)
	if err := graph.AddBranch("apply_slot_updates", branch); err != nil {
		return nil, fmt.Errorf("add branch apply_slot_updates: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_session"},
		{"load_session", "route_turn"},
		{"route_turn", "apply_slot_updates"},
		{"reply_clarification", compose.END},
		{"fetch_tool_facts", "compose_prompt"},
		{"compose_prompt", "generate_reply"},
		{"generate_reply", "postprocess_reply"},
		{"postprocess_reply", "commit_turn"},
		{"commit_turn", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
