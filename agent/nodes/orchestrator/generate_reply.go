package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	metricsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/metrics"
	postprocessx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/postprocess"
	promptx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/prompt"
	"github.com/rs/zerolog/log"
)

// Apology is the reply when the model could not be reached.
const Apology = "Sorry, I couldn't reach the language model just now. Your trip details are saved, please try again."

func ComposePrompt(in *GraphState, composer *promptx.Composer) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Prompt = composer.Compose(promptx.Input{
		Intent:    in.Decision.Intent,
		Slots:     in.Session.Slots,
		FactsLine: in.Facts.Line(),
		History:   in.Session.History,
		Text:      in.Decision.Text,
	})
	return in, nil
}

// GenerateReply calls the model once per turn. A failure is recovered into the
// apology; the error is kept on the state for the post-processing node.
func GenerateReply(ctx context.Context, in *GraphState, gen contractx.Generator, m *metricsx.Metrics) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	started := time.Now()
	raw, err := gen.Generate(ctx, in.Prompt.System, in.Prompt.User, in.Prompt.History)
	m.ObserveGeneration(time.Since(started), err)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("reply generation failed")
		in.LLMErr = err
		in.Reply = Apology
		return in, nil
	}
	in.Raw = raw
	return in, nil
}

// PostprocessReply shapes the model text for the routed intent.
func PostprocessReply(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.LLMErr != nil {
		return in, nil
	}

	slots := in.Session.Slots
	in.Reply = postprocessx.Apply(in.Raw, postprocessx.Options{
		Intent:        in.Decision.Intent,
		KidFriendly:   slots.KidFriendly != nil && *slots.KidFriendly,
		FactsLine:     in.Facts.Line(),
		UserText:      in.Decision.Text,
		MissingDates:  !slots.HasDates() && slots.Month == 0,
		MissingBudget: slots.BudgetHint == "",
	})
	return in, nil
}

// CommitTurn appends the exchange to the capped history.
func CommitTurn(in *GraphState, historyTurns int) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.Append(historyTurns,
		contractx.Turn{Role: contractx.RoleUser, Text: in.Text},
		contractx.Turn{Role: contractx.RoleAssistant, Text: in.Reply},
	)
	return in, nil
}
