package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rightmove_tools/internal/shared"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"APP_ENV", "RIGHTMOVE_BASE_URL", "FETCH_RPS", "FETCH_TIMEOUT_SECONDS", "REDIS_ADDR", "RPC_WORKERS", "CACHE_TTL_SECONDS"} {
		t.Setenv(k, "")
	}
	c := shared.Load()
	if c.AppEnv != "prod" || c.BaseURL != "https://www.rightmove.co.uk" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.FetchRPS != 2 || c.FetchTimeout != 20*time.Second || c.Workers != 4 || c.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected numeric defaults %+v", c)
	}
	if c.RedisAddr != "" {
		t.Fatalf("cache must default to disabled, got %q", c.RedisAddr)
	}
}

func TestLoad_EnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RPC_WORKERS=9\nREDIS_ADDR=from-dotenv:6379\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// set variables win over .env
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "abc")
	os.Unsetenv("RPC_WORKERS")
	t.Cleanup(func() { os.Unsetenv("RPC_WORKERS") })

	c := shared.Load()
	if c.Workers != 9 {
		t.Fatalf("expected .env to set workers, got %d", c.Workers)
	}
	if c.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr)
	}
	if c.FetchTimeout != 20*time.Second {
		t.Fatalf("invalid value should fall back to default, got %v", c.FetchTimeout)
	}
}
