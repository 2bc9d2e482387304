package rightmove

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"

	"rightmove_tools/internal/domain"
)

// CachedFetcher serves repeated GETs for the same URL from a cache for ttl.
// Cache errors never fail a fetch; they only cost a round trip.
type CachedFetcher struct {
	next  domain.PageFetcher
	cache domain.Cache
	ttl   time.Duration
}

func NewCachedFetcher(next domain.PageFetcher, cache domain.Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl}
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	key := cacheKey(url)
	var markup string
	if ok, err := f.cache.Get(ctx, key, &markup); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("markup cache get failed")
	} else if ok {
		return markup, nil
	}

	markup, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	// sub-second TTLs round up; zero would mean no expiry
	ttlSec := int(f.ttl.Seconds())
	if ttlSec < 1 {
		ttlSec = 1
	}
	if err := f.cache.Set(ctx, key, markup, ttlSec); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("markup cache set failed")
	}
	return markup, nil
}

func cacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "page:" + hex.EncodeToString(sum[:])
}
