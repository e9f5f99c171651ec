package orchestratornode

import (
	"errors"
	"strings"
	"time"

	promptx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/prompt"
	routerx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/router"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	toolx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
	// Clarification is set when the reply is a clarifying question.
	Clarification bool
}

// GraphState carries one turn through the graph. Session is mutated in place
// and saved by the last node of either path.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session  *statex.Session
	Decision routerx.Decision

	Facts  *toolx.ToolFacts
	Prompt promptx.Prompt

	Raw    string
	LLMErr error
	Reply  string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
