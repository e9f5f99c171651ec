// Package bootstrap wires the turn pipeline from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	orchestratorx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/agents/orchestrator"
	cityx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/city"
	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	lexiconx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/lexicon"
	llmx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/llm"
	metricsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/metrics"
	promptx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/prompt"
	routerx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/router"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	toolx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/tool"
	gmapsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/gmaps"
	openmeteox "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/openmeteo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// App is a built pipeline. Close releases the store and model clients.
type App struct {
	Orchestrator *orchestratorx.Orchestrator
	Registry     *prometheus.Registry

	closers []io.Closer
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Build(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	lex := lexiconx.Default()
	if path := strings.TrimSpace(cfg.App.LexiconPath); path != "" {
		loaded, err := lexiconx.Load(path)
		if err != nil {
			return fail(fmt.Errorf("load lexicon: %w", err))
		}
		lex = loaded
	}

	weather, err := openmeteox.NewClient(cfg.Weather)
	if err != nil {
		return fail(err)
	}

	geocoder, err := newGeocoder(cfg, weather)
	if err != nil {
		return fail(err)
	}
	resolver, err := cityx.NewResolver(cityx.NewCachingGeocoder(geocoder, cfg.geocodeTTL()))
	if err != nil {
		return fail(err)
	}

	chatModel, err := llmx.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("build chat model: %w", err))
	}
	if c, ok := chatModel.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	prompts := promptx.LoadPromptSet()
	classifier, err := routerx.NewClassifier(ctx, chatModel, prompts.Classifier)
	if err != nil {
		return fail(err)
	}
	router, err := routerx.New(resolver, routerx.WithLexicon(lex), routerx.WithClassifier(classifier))
	if err != nil {
		return fail(err)
	}

	generator, err := llmx.NewGenerator(ctx, chatModel, llmx.WithRetries(cfg.LLM.Retries))
	if err != nil {
		return fail(err)
	}

	gateway, err := toolx.NewGateway(weather, cfg.Tool)
	if err != nil {
		return fail(err)
	}

	store, err := newStore(ctx, cfg, app)
	if err != nil {
		return fail(err)
	}

	orchestrator, err := orchestratorx.New(
		store,
		router,
		gateway,
		promptx.NewComposer(prompts, cfg.Turn.HistoryTurns),
		generator,
		cfg.Turn,
		orchestratorx.WithMetrics(metricsx.New(app.Registry)),
	)
	if err != nil {
		return fail(err)
	}
	app.Orchestrator = orchestrator

	log.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Str("store", cfg.App.StoreBackend).
		Str("geocoder", cfg.App.Geocoder).
		Int("history_turns", cfg.Turn.HistoryTurns).
		Msg("travel assistant ready")
	return app, nil
}

func newGeocoder(cfg Config, weather *openmeteox.Client) (contractx.Geocoder, error) {
	if strings.EqualFold(cfg.App.Geocoder, GeocoderGoogle) {
		g, err := gmapsx.New(cfg.Maps)
		if err != nil {
			return nil, fmt.Errorf("build google geocoder: %w", err)
		}
		return g, nil
	}
	return weather, nil
}

func newStore(ctx context.Context, cfg Config, app *App) (statex.Store, error) {
	if !strings.EqualFold(cfg.App.StoreBackend, StoreRedis) {
		return statex.NewMemoryStore(), nil
	}

	client := cfg.Redis.NewClient()
	app.closers = append(app.closers, client)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}
	return statex.NewRedisStore(client,
		statex.WithKeyPrefix(cfg.Redis.KeyPrefix),
		statex.WithTTL(cfg.Redis.TTL),
	)
}
