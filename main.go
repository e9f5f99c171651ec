package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apix "github.com/AvinoamNukrai/LLM-Travel-Assistant/internal/api"
	"github.com/AvinoamNukrai/LLM-Travel-Assistant/internal/bootstrap"
	_ "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/logger/autoload"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := bootstrap.MustLoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build travel assistant")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("close resources")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           apix.NewRouter(cfg.HTTP, apix.NewChatHandler(app.Orchestrator), app.Registry),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
