package rightmove_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rightmove_tools/internal/adapters/rightmove"
)

type countingFetcher struct {
	calls int
	body  string
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.body, f.err
}

type mapCache struct {
	store map[string]string
	ttls  []int
}

func (c *mapCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*string) = v
	return true, nil
}
func (c *mapCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.store[key] = v.(string)
	c.ttls = append(c.ttls, ttlSec)
	return nil
}
func (c *mapCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func TestCachedFetcher_MissThenHit(t *testing.T) {
	next := &countingFetcher{body: "<html>a</html>"}
	f := rightmove.NewCachedFetcher(next, &mapCache{store: map[string]string{}}, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := f.Fetch(context.Background(), "https://example.test/a")
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if got != "<html>a</html>" {
			t.Fatalf("unexpected body %q", got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	next := &countingFetcher{err: errors.New("boom")}
	cache := &mapCache{store: map[string]string{}}
	f := rightmove.NewCachedFetcher(next, cache, time.Minute)

	if _, err := f.Fetch(context.Background(), "https://example.test/b"); err == nil {
		t.Fatalf("expected error")
	}
	if len(cache.store) != 0 {
		t.Fatalf("failed fetch must not be cached: %v", cache.store)
	}
}

func TestCachedFetcher_TTLNeverZero(t *testing.T) {
	cases := map[time.Duration]int{time.Minute: 60, 1500 * time.Millisecond: 1, 200 * time.Millisecond: 1}
	for ttl, want := range cases {
		cache := &mapCache{store: map[string]string{}}
		f := rightmove.NewCachedFetcher(&countingFetcher{body: "x"}, cache, ttl)
		if _, err := f.Fetch(context.Background(), "https://example.test/c"); err != nil {
			t.Fatalf("ttl %v: err: %v", ttl, err)
		}
		if len(cache.ttls) != 1 || cache.ttls[0] != want {
			t.Errorf("ttl %v: want %ds, got %v", ttl, want, cache.ttls)
		}
	}
}
