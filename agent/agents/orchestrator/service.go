package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	metricsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/metrics"
	nodex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/nodes/orchestrator"
	promptx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/prompt"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// FallbackReply answers a turn the pipeline could not complete.
const FallbackReply = "Sorry, something went wrong on my side. Please try again."

type Config struct {
	HistoryTurns int `envconfig:"HISTORY_TURNS" default:"6"`
}

func (c Config) Validate() error {
	if c.HistoryTurns < 2 || c.HistoryTurns > 50 {
		return fmt.Errorf("%w: history turns must be within 2..50", contractx.ErrValidation)
	}
	return nil
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithMetrics(m *metricsx.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator runs one turn at a time per session. Different sessions run in
// parallel.
type Orchestrator struct {
	store     statex.Store
	router    nodex.TurnRouter
	gateway   nodex.WeatherGateway
	composer  *promptx.Composer
	generator contractx.Generator
	metrics   *metricsx.Metrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyTurns int
	locks        *sessionLocks

	now func() time.Time
}

func New(
	store statex.Store,
	router nodex.TurnRouter,
	gateway nodex.WeatherGateway,
	composer *promptx.Composer,
	generator contractx.Generator,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}
	if composer == nil {
		return nil, errors.New("prompt composer is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.HistoryTurns == 0 {
		cfg.HistoryTurns = statex.DefaultHistoryTurns
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:        store,
		router:       router,
		gateway:      gateway,
		composer:     composer,
		generator:    generator,
		historyTurns: cfg.HistoryTurns,
		locks:        newSessionLocks(),
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn answers one user message. It never fails: an empty message gets
// an empty reply and pipeline errors are logged and answered with
// FallbackReply.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID string, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	sessionID = strings.TrimSpace(sessionID)
	unlock := o.locks.lock(sessionID)
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return FallbackReply
	}
	log.Debug().
		Str("session_id", sessionID).
		Bool("clarification", out.Clarification).
		Msg("turn answered")
	return out.Reply
}

// Reset forgets a session. Unknown sessions are not an error.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}

	unlock := o.locks.lock(sessionID)
	defer unlock()

	if err := o.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, statex.ErrSessionNotFound) {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// sessionLocks hands out one mutex per session id and forgets it once no turn
// holds or waits for it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (s *sessionLocks) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
