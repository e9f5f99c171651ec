package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
)

const DefaultHistoryTurns = 6

type PendingKind string

const (
	// PendingConfirm holds contradicting slot values awaiting a yes/no.
	PendingConfirm PendingKind = "confirm"
	// PendingChoice holds ambiguous city candidates awaiting a pick.
	PendingChoice PendingKind = "choice"
	// PendingCity remembers the request behind "which city?" so the answer
	// keeps its intent.
	PendingCity PendingKind = "city"
)

// Pending is a clarification asked on the previous turn. It is answered (or
// dropped) by the very next turn.
type Pending struct {
	Kind    PendingKind       `json:"kind"`
	Update  Slots             `json:"update"`
	Choices []contractx.Place `json:"choices,omitempty"`
	Intent  contractx.Intent  `json:"intent,omitempty"`
	Text    string            `json:"text,omitempty"`
}

// Session owns one Slots record, the capped turn history and the weather cache.
type Session struct {
	ID      string                        `json:"id"`
	Slots   Slots                         `json:"slots"`
	History []contractx.Turn              `json:"history,omitempty"`
	Weather map[string]contractx.Forecast `json:"weather,omitempty"`
	Pending *Pending                      `json:"pending,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

var ErrPendingCorrupt = errors.New("pending clarification corrupt")

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Weather:   make(map[string]contractx.Forecast, 4),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) EnsureWeather() {
	if s.Weather == nil {
		s.Weather = make(map[string]contractx.Forecast, 4)
	}
}

// Append adds turns and drops the oldest entries beyond limit.
func (s *Session) Append(limit int, turns ...contractx.Turn) {
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	s.History = append(s.History, turns...)
	if over := len(s.History) - limit; over > 0 {
		s.History = append([]contractx.Turn(nil), s.History[over:]...)
	}
}

// Recent returns at most limit turns, oldest first.
func (s *Session) Recent(limit int) []contractx.Turn {
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	h := s.History
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]contractx.Turn(nil), h...)
}

func (s *Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	if s.Slots.Month < 0 || s.Slots.Month > 12 {
		return fmt.Errorf("%w: month=%d", contractx.ErrValidation, s.Slots.Month)
	}
	if (s.Slots.Lat == nil) != (s.Slots.Lon == nil) {
		return fmt.Errorf("%w: lat/lon must be set together", contractx.ErrValidation)
	}
	if s.Slots.HasCoords() && s.Slots.City == "" {
		return fmt.Errorf("%w: coordinates without city", contractx.ErrValidation)
	}
	if p := s.Pending; p != nil {
		switch p.Kind {
		case PendingConfirm, PendingCity:
		case PendingChoice:
			if len(p.Choices) == 0 {
				return fmt.Errorf("%w: choice without candidates", ErrPendingCorrupt)
			}
		default:
			return fmt.Errorf("%w: kind=%q", ErrPendingCorrupt, p.Kind)
		}
	}
	return nil
}
