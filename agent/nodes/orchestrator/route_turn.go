package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	routerx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/router"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	"github.com/rs/zerolog/log"
)

// TurnRouter is the routing stage seen by the graph.
type TurnRouter interface {
	Route(ctx context.Context, text string, slots statex.Slots, pending *statex.Pending, now time.Time) routerx.Decision
}

func RouteTurn(ctx context.Context, in *GraphState, router TurnRouter) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Decision = router.Route(ctx, in.Text, in.Session.Slots, in.Session.Pending, in.Now)
	return in, nil
}

// ApplySlotUpdates merges the routed update into the session. It runs before
// any collaborator is called for the reply, so the slots survive a failed
// generation. The previous pending clarification is always consumed here.
func ApplySlotUpdates(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	d := in.Decision
	slots := statex.Merge(in.Session.Slots, d.Update)
	if !d.IsClarification() && d.Intent != contractx.IntentUnknown {
		slots.LastIntent = d.Intent
	}
	in.Session.Slots = slots
	in.Session.Pending = d.Pending

	if err := d.Err(); err != nil {
		log.Debug().
			Err(err).
			Str("session_id", in.SessionID).
			Str("kind", d.Kind.String()).
			Msg("turn degraded")
	}
	return in, nil
}

// ReplyClarification answers with the clarifying question alone. History is
// left untouched for clarification turns.
func ReplyClarification(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	in.Reply = in.Decision.Clarification
	return in, nil
}
