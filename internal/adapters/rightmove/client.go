// internal/adapters/rightmove/client.go
package rightmove

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rightmove_tools/internal/adapters/observability"
	"rightmove_tools/internal/domain"
)

// maxBody caps how much markup is read from a single page.
const maxBody = 8 << 20

// browserHeaders is sent with every request. Accept-Encoding is left to the
// transport so gzip bodies are decoded transparently.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-GB,en;q=0.5",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

type Options struct {
	RPS         float64
	Timeout     time.Duration
	MaxAttempts int
}

// Client fetches rightmove pages as raw markup.
type Client struct {
	hc          *http.Client
	rl          *rate.Limiter
	maxAttempts int
}

func New(opts Options) *Client {
	if opts.RPS <= 0 {
		opts.RPS = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		hc:          &http.Client{Timeout: opts.Timeout},
		rl:          rate.NewLimiter(rate.Limit(opts.RPS), burst),
		maxAttempts: opts.MaxAttempts,
	}
}

// Fetch performs a GET with client-side rate limiting and returns the body.
// 429 and transient 5xx responses are retried up to MaxAttempts, honoring
// Retry-After when provided.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	endpoint := endpointLabel(rawURL)
	start := time.Now()

	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		last := i == c.maxAttempts-1

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", err
		}
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("rightmove", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", lastErr
		}
		observability.ObserveExternal("rightmove", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
			if err != nil {
				return "", fmt.Errorf("read body: %w", err)
			}
			return string(b), nil

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return "", fmt.Errorf("GET %s: %w", rawURL, domain.ErrNotFound)

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return "", fmt.Errorf("GET %s: %w", rawURL, domain.ErrForbidden)

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusInternalServerError,
			resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("GET %s: remote %d", rawURL, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("GET %s: %w", rawURL, domain.ErrRateLimited)
			}
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", lastErr

		default:
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return "", fmt.Errorf("GET %s: bad status %d", rawURL, resp.StatusCode)
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no attempt made")
	}
	return "", lastErr
}

// endpointLabel keeps metric cardinality bounded: the first path segment only.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	seg := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	if seg == "" {
		return "/"
	}
	return "/" + seg
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
