package domain

// PropertyType is the search-side property category.
type PropertyType string

const (
	TypeHouses     PropertyType = "houses"
	TypeFlats      PropertyType = "flats"
	TypeBungalows  PropertyType = "bungalows"
	TypeLand       PropertyType = "land"
	TypeCommercial PropertyType = "commercial"
	TypeOther      PropertyType = "other"
)

// Sort orders understood by the search page.
const (
	SortHighestPrice = 1
	SortLowestPrice  = 2
	SortNewest       = 6
	SortOldest       = 10
)

// PageSize is the number of cards per search results page; index must be a multiple of it.
const PageSize = 24

// SearchParams is a search request. Only Location is mandatory.
type SearchParams struct {
	Location     string        `json:"location"`
	MinPrice     *float64      `json:"minPrice,omitempty"`
	MaxPrice     *float64      `json:"maxPrice,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Radius       *float64      `json:"radius,omitempty"`
	SortType     *int          `json:"sortType,omitempty"`
	Index        *int          `json:"index,omitempty"`
}

type PropertyListing struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	Address      string `json:"address"`
	Bedrooms     *int   `json:"bedrooms,omitempty"`
	Bathrooms    *int   `json:"bathrooms,omitempty"`
	PropertyType string `json:"propertyType"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl,omitempty"`
	URL          string `json:"url"`
	Agent        string `json:"agent"`
	DateAdded    string `json:"dateAdded,omitempty"`
}

type Agent struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type PropertyDetail struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Price           string            `json:"price"`
	Address         string            `json:"address"`
	Description     string            `json:"description"`
	KeyFeatures     []string          `json:"keyFeatures"`
	Floorplan       string            `json:"floorplan,omitempty"`
	Images          []string          `json:"images"`
	Agent           Agent             `json:"agent"`
	PropertyDetails map[string]string `json:"propertyDetails"`
}

type AreaStatistics struct {
	Location      string            `json:"location"`
	AveragePrices map[string]string `json:"averagePrices"`
	PriceChanges  map[string]string `json:"priceChanges"`
	SalesVolume   string            `json:"salesVolume"`
	TimeOnMarket  string            `json:"timeOnMarket"`
	URL           string            `json:"url"`
}

// SearchResult is the search tool payload. SearchParams echoes the caller's
// arguments verbatim.
type SearchResult struct {
	TotalResults    string            `json:"totalResults"`
	Properties      []PropertyListing `json:"properties"`
	SearchParams    any               `json:"searchParams"`
	SearchURL       string            `json:"searchUrl"`
	ManualSearchURL string            `json:"manualSearchUrl"`
}
