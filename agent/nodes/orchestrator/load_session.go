package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	"github.com/rs/zerolog/log"
)

// LoadSession loads the session or starts a new one on first use. A stored
// clarification that no longer validates is dropped rather than failing the turn.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrSessionNotFound):
		sess = statex.NewSession(in.SessionID, in.Now)
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	if err := sess.Validate(); err != nil {
		if !errors.Is(err, statex.ErrPendingCorrupt) {
			return nil, err
		}
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("dropping corrupt pending clarification")
		sess.Pending = nil
	}
	sess.EnsureWeather()

	in.Session = sess
	return in, nil
}

// SaveSession persists the session. A failed save is logged and the turn still
// gets its reply.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) {
	in.Session.Touch(in.Now)
	if err := store.Save(ctx, in.Session); err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("save session failed")
	}
}
