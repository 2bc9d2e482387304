// Package bootstrap assembles the tool router from configuration. Both
// entry points share it so the HTTP and stdio surfaces serve identical tools.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	redisad "rightmove_tools/internal/adapters/redis"
	"rightmove_tools/internal/adapters/rightmove"
	"rightmove_tools/internal/app"
	"rightmove_tools/internal/domain"
	"rightmove_tools/internal/extract"
	"rightmove_tools/internal/query"
	"rightmove_tools/internal/shared"
)

// Router builds the fetch, extract and dispatch stack. The returned cleanup
// releases the cache connection, if any.
func Router(ctx context.Context, cfg shared.Config) (*app.Router, func(), error) {
	sel := extract.DefaultSelectors()
	if cfg.SelectorsFile != "" {
		var err error
		if sel, err = extract.LoadSelectors(cfg.SelectorsFile); err != nil {
			return nil, nil, err
		}
		log.Info().Str("file", cfg.SelectorsFile).Msg("selector overrides loaded")
	}
	ex, err := extract.New(sel, cfg.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	var fetcher domain.PageFetcher = rightmove.New(rightmove.Options{
		RPS:         cfg.FetchRPS,
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.FetchAttempts,
	})
	cleanup := func() {}
	switch {
	case cfg.RedisAddr == "":
	case cfg.CacheTTL <= 0:
		// redis treats a zero TTL as no expiry
		log.Warn().Dur("ttl", cfg.CacheTTL).Msg("CACHE_TTL_SECONDS is not positive; page cache disabled")
	default:
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := cache.Ping(pctx); err != nil {
			// a dead cache only costs latency; run without it
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; page cache disabled")
			_ = cache.Close()
		} else {
			fetcher = rightmove.NewCachedFetcher(fetcher, cache, cfg.CacheTTL)
			cleanup = func() { _ = cache.Close() }
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("page cache enabled")
		}
	}

	svc := app.NewPropertyService(fetcher, query.PlaceholderResolver{}, query.NewCodec(cfg.BaseURL), ex)
	router, err := app.NewRouter(svc)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build router: %w", err)
	}
	return router, cleanup, nil
}
