package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatService is the conversation surface the HTTP layer drives.
type ChatService interface {
	HandleTurn(ctx context.Context, sessionID string, text string) string
	Reset(ctx context.Context, sessionID string) error
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type ChatHandler struct {
	chat  ChatService
	newID func() string
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat, newID: uuid.NewString}
}

// Chat answers one message. A request without a session id starts a new
// session; an empty message gets an empty reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = h.newID()
	}

	reply := h.chat.HandleTurn(r.Context(), sessionID, req.Message)
	WriteJSONResponse(w, r, http.StatusOK, ChatResponse{SessionID: sessionID, Reply: reply})
}

func (h *ChatHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chat.Reset(r.Context(), sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("reset session failed")
		ErrorResponse(w, r, http.StatusInternalServerError, "could not reset session")
		return
	}
	WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
