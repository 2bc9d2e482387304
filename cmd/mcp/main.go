package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"rightmove_tools/internal/adapters/jsonrpc"
	"rightmove_tools/internal/adapters/observability"
	"rightmove_tools/internal/bootstrap"
	"rightmove_tools/internal/shared"
)

const (
	serverName    = "rightmove-mcp-server"
	serverVersion = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// stdout carries the RPC channel; logs go to stderr
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stderr)

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	router, cleanup, err := bootstrap.Router(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer cleanup()

	log.Info().
		Str("base", cfg.BaseURL).
		Int("workers", cfg.Workers).
		Msg("Rightmove MCP server running on stdio")

	srv := jsonrpc.New(router, serverName, serverVersion, cfg.Workers)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("stdio server failed")
		cleanup()
		os.Exit(1)
	}
	log.Info().Msg("stdio server stopped")
}
