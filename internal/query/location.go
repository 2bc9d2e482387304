package query

import (
	"context"
	"regexp"

	"rightmove_tools/internal/domain"
)

var postcodeRe = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}$`)

// Classify reports POSTCODE for UK-postcode-shaped strings and REGION for
// anything else. The string is matched as given; surrounding whitespace
// makes it a region.
func Classify(location string) domain.LocationKind {
	if postcodeRe.MatchString(location) {
		return domain.KindPostcode
	}
	return domain.KindRegion
}

// Placeholder identifiers. They do not point at the searched location.
const (
	placeholderPostcodeID = "360286"
	placeholderRegionID   = "1000"
)

// PlaceholderResolver classifies the location and returns a fixed identifier
// for its kind. Searches built from it are not scoped to the requested place;
// it exists until a real location lookup is wired in.
type PlaceholderResolver struct{}

func (PlaceholderResolver) Resolve(_ context.Context, location string) (domain.LocationID, error) {
	kind := Classify(location)
	id := placeholderRegionID
	if kind == domain.KindPostcode {
		id = placeholderPostcodeID
	}
	return domain.LocationID{Kind: kind, ID: id}, nil
}
