package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	BaseURL       string
	FetchRPS      float64
	FetchTimeout  time.Duration
	FetchAttempts int
	SelectorsFile string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	Workers       int
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not parse .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer setting")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid setting")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		BaseURL:       env("RIGHTMOVE_BASE_URL", "https://www.rightmove.co.uk"),
		FetchRPS:      atof("FETCH_RPS", 2),
		FetchTimeout:  time.Duration(atoi("FETCH_TIMEOUT_SECONDS", 20)) * time.Second,
		FetchAttempts: atoi("FETCH_MAX_ATTEMPTS", 3),
		SelectorsFile: env("SELECTORS_FILE", ""),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		Workers:       atoi("RPC_WORKERS", 4),
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty; page cache disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
