package app

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"rightmove_tools/internal/domain"
	"rightmove_tools/internal/extract"
	"rightmove_tools/internal/query"
)

// PropertyService runs the build-URL, fetch, parse, extract pipelines. It
// keeps no per-call state; every URL, document and record is call-local.
type PropertyService struct {
	fetcher  domain.PageFetcher
	resolver domain.LocationResolver
	codec    query.Codec
	ex       *extract.Extractor
}

func NewPropertyService(f domain.PageFetcher, r domain.LocationResolver, c query.Codec, ex *extract.Extractor) *PropertyService {
	return &PropertyService{fetcher: f, resolver: r, codec: c, ex: ex}
}

// SearchURL resolves the location and compiles the search URL without fetching.
func (s *PropertyService) SearchURL(ctx context.Context, p domain.SearchParams) (string, error) {
	loc, err := s.resolver.Resolve(ctx, p.Location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLocationUnresolved, err)
	}
	return s.codec.Encode(p, loc), nil
}

func (s *PropertyService) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	searchURL, err := s.SearchURL(ctx, p)
	if err != nil {
		return domain.SearchResult{}, err
	}
	doc, err := s.load(ctx, searchURL)
	if err != nil {
		return domain.SearchResult{}, err
	}
	total, listings := s.ex.Listings(doc)
	return domain.SearchResult{
		TotalResults:    total,
		Properties:      listings,
		SearchURL:       searchURL,
		ManualSearchURL: s.codec.ManualURL(p),
	}, nil
}

func (s *PropertyService) Details(ctx context.Context, id string) (domain.PropertyDetail, error) {
	doc, err := s.load(ctx, s.codec.DetailURL(id))
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	return s.ex.Detail(doc, id), nil
}

func (s *PropertyService) Statistics(ctx context.Context, location string) (domain.AreaStatistics, error) {
	pageURL := s.codec.StatisticsURL(location)
	doc, err := s.load(ctx, pageURL)
	if err != nil {
		return domain.AreaStatistics{}, err
	}
	return s.ex.Statistics(doc, location, pageURL), nil
}

func (s *PropertyService) load(ctx context.Context, url string) (*goquery.Document, error) {
	markup, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return extract.Parse(markup)
}
