package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "rightmove_tools/internal/adapters/http_server"
	"rightmove_tools/internal/adapters/observability"
	"rightmove_tools/internal/bootstrap"
	"rightmove_tools/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stdout)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	router, cleanup, err := bootstrap.Router(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer cleanup()

	// a call may spend FetchAttempts full timeouts on the wire
	timeout := time.Duration(cfg.FetchAttempts)*cfg.FetchTimeout + 5*time.Second
	srv := server.New(log.Logger, timeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{D: router})

	log.Info().Str("addr", cfg.HTTPAddr).Str("base", cfg.BaseURL).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
