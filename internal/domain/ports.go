package domain

import (
	"context"
	"errors"
)

// PageFetcher issues a GET for a fully-formed URL and returns the raw markup.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LocationResolver turns a free-text location into the site's location identifier.
type LocationResolver interface {
	Resolve(ctx context.Context, location string) (LocationID, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// LocationKind selects the identifier namespace used in search URLs.
type LocationKind string

const (
	KindPostcode LocationKind = "POSTCODE"
	KindRegion   LocationKind = "REGION"
)

type LocationID struct {
	Kind LocationKind
	ID   string
}

// String renders the identifier as the search page expects it, e.g. "REGION^1000".
func (l LocationID) String() string { return string(l.Kind) + "^" + l.ID }

var (
	ErrNotFound           = errors.New("rightmove: not found")
	ErrForbidden          = errors.New("rightmove: forbidden")
	ErrRateLimited        = errors.New("rightmove: rate limited")
	ErrLocationUnresolved = errors.New("location could not be resolved")
)
