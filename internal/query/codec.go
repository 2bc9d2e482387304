package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"rightmove_tools/internal/domain"
)

const searchPath = "/property-for-sale/find.html"

// propertyTypeTerms maps the search enum onto the site's propertyTypes vocabulary.
var propertyTypeTerms = map[domain.PropertyType]string{
	domain.TypeHouses:     "detached,semi-detached,terraced",
	domain.TypeFlats:      "flats",
	domain.TypeBungalows:  "bungalow",
	domain.TypeLand:       "land",
	domain.TypeCommercial: "commercial",
	domain.TypeOther:      "",
}

// Codec compiles SearchParams into search page URLs rooted at base.
type Codec struct {
	base string
}

func NewCodec(base string) Codec {
	return Codec{base: strings.TrimRight(base, "/")}
}

type term struct{ key, val string }

// Encode builds the search URL. Terms are emitted in a fixed order and only
// for fields that are present; radius and the SSTC flag are always emitted.
func (c Codec) Encode(p domain.SearchParams, loc domain.LocationID) string {
	terms := make([]term, 0, 12)
	if p.Location != "" {
		terms = append(terms,
			term{"searchLocation", collapseSpaces(p.Location)},
			term{"useLocationIdentifier", "true"},
			term{"locationIdentifier", loc.String()},
		)
	}
	terms = append(terms, term{"buy", "For sale"})
	if p.MinPrice != nil {
		terms = append(terms, term{"minPrice", formatNumber(*p.MinPrice)})
	}
	if p.MaxPrice != nil {
		terms = append(terms, term{"maxPrice", formatNumber(*p.MaxPrice)})
	}
	if p.PropertyType != nil {
		terms = append(terms, term{"propertyTypes", propertyTypeTerms[*p.PropertyType]})
	}
	if p.Bedrooms != nil {
		terms = append(terms, term{"minBedrooms", strconv.Itoa(*p.Bedrooms)})
	}
	radius := "0.0"
	if p.Radius != nil {
		radius = oneDecimal(*p.Radius)
	}
	terms = append(terms, term{"radius", radius})
	if p.SortType != nil {
		terms = append(terms, term{"sortType", strconv.Itoa(*p.SortType)})
	}
	if p.Index != nil {
		terms = append(terms, term{"index", strconv.Itoa(*p.Index)})
	}
	terms = append(terms, term{"_includeSSTC", "on"})

	return c.base + searchPath + "?" + encodeTerms(terms)
}

// ManualURL is a reduced search URL meant for a person to open and refine in a browser.
func (c Codec) ManualURL(p domain.SearchParams) string {
	var terms []term
	if p.Location != "" {
		terms = append(terms, term{"searchLocation", collapseSpaces(p.Location)})
	}
	if p.MinPrice != nil {
		terms = append(terms, term{"minPrice", formatNumber(*p.MinPrice)})
	}
	if p.MaxPrice != nil {
		terms = append(terms, term{"maxPrice", formatNumber(*p.MaxPrice)})
	}
	if p.Radius != nil {
		terms = append(terms, term{"radius", formatNumber(*p.Radius)})
	}
	return c.base + searchPath + "?" + encodeTerms(terms)
}

// DetailURL is the property page for id.
func (c Codec) DetailURL(id string) string {
	return c.base + "/properties/" + url.PathEscape(id)
}

// StatisticsURL is the house-prices page for location.
func (c Codec) StatisticsURL(location string) string {
	return c.base + "/house-prices/" + escapeComponent(location) + ".html"
}

// componentUnescape restores the marks a URI component leaves literal.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*",
)

// escapeComponent escapes everything except letters, digits and -_.!~*'().
// Reserved characters such as & = + : @ $ are percent-encoded.
func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

func encodeTerms(terms []term) string {
	var b strings.Builder
	for i, t := range terms {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(t.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(t.val))
	}
	return b.String()
}

// collapseSpaces joins whitespace runs into one space, which query escaping renders as '+'.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// oneDecimal rounds half away from zero, so 0.25 renders as 0.3.
func oneDecimal(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', 1, 64)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
