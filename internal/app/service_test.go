package app_test

import (
	"context"
	"errors"
	"testing"

	"rightmove_tools/internal/app"
	"rightmove_tools/internal/domain"
	"rightmove_tools/internal/extract"
	"rightmove_tools/internal/query"
)

func newService(t *testing.T, f domain.PageFetcher, r domain.LocationResolver) *app.PropertyService {
	t.Helper()
	ex, err := extract.New(extract.DefaultSelectors(), base)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return app.NewPropertyService(f, r, query.NewCodec(base), ex)
}

func TestSearchURL_DoesNotFetch(t *testing.T) {
	f := &fakeFetcher{}
	minPrice := 100000.0
	got, err := newService(t, f, query.PlaceholderResolver{}).SearchURL(context.Background(),
		domain.SearchParams{Location: "Bath", MinPrice: &minPrice})
	if err != nil {
		t.Fatalf("search url: %v", err)
	}
	want := base + "/property-for-sale/find.html?searchLocation=Bath&useLocationIdentifier=true" +
		"&locationIdentifier=REGION%5E1000&buy=For+sale&minPrice=100000&radius=0.0&_includeSSTC=on"
	if got != want {
		t.Fatalf("\nwant %s\ngot  %s", want, got)
	}
	if len(f.urls) != 0 {
		t.Fatalf("no fetch expected, got %v", f.urls)
	}
}

func TestSearch_ResolverErrorIsWrapped(t *testing.T) {
	_, err := newService(t, &fakeFetcher{}, failingResolver{}).Search(context.Background(),
		domain.SearchParams{Location: "Atlantis"})
	if !errors.Is(err, domain.ErrLocationUnresolved) {
		t.Fatalf("expected ErrLocationUnresolved, got %v", err)
	}
}

func TestDetails_FetchErrorPassesThrough(t *testing.T) {
	f := &fakeFetcher{err: domain.ErrNotFound}
	_, err := newService(t, f, query.PlaceholderResolver{}).Details(context.Background(), "99")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.urls) != 1 || f.urls[0] != base+"/properties/99" {
		t.Fatalf("unexpected fetches %v", f.urls)
	}
}
