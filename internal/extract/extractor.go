// Package extract turns rightmove markup into property records. Extraction
// never fails on missing nodes: an unmatched selector yields an empty value.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rightmove_tools/internal/domain"
)

var (
	propertyIDRe = regexp.MustCompile(`/property-(\d+)\.html`)
	bedroomsRe   = regexp.MustCompile(`(?i)(\d+)\s*bed`)
	bathroomsRe  = regexp.MustCompile(`(?i)(\d+)\s*bath`)
)

type Extractor struct {
	sel  Selectors
	base *url.URL
}

// New returns an Extractor resolving relative links against baseURL.
func New(sel Selectors, baseURL string) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	return &Extractor{sel: sel, base: u}, nil
}

// Parse builds a queryable document from raw markup.
func Parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Listings extracts the result-count label and the listing cards of a search
// page. Cards without an id or a title are dropped.
func (e *Extractor) Listings(doc *goquery.Document) (string, []domain.PropertyListing) {
	ls := e.sel.Listing
	root := doc.Selection
	out := make([]domain.PropertyListing, 0)

	ls.Card.all(root).Each(func(_ int, card *goquery.Selection) {
		href := ""
		for _, css := range ls.Link {
			if h, ok := card.Find(css).First().Attr("href"); ok {
				href = strings.TrimSpace(h)
				break
			}
		}
		id := ""
		if m := propertyIDRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		}
		title := ls.Title.text(card)
		if id == "" || title == "" {
			return
		}

		description := ls.Description.text(card)
		l := domain.PropertyListing{
			ID:           id,
			Title:        title,
			Price:        ls.Price.text(card),
			Address:      ls.Address.text(card),
			PropertyType: ls.Type.text(card),
			Description:  description,
			URL:          e.absolute(href),
			Agent:        ls.Agent.text(card),
			DateAdded:    ls.DateAdded.text(card),
		}
		if img := ls.Image.all(card).First(); img.Length() > 0 {
			l.ImageURL = ls.ImageAttrs.attr(img)
		}
		blurb := title + " " + description
		l.Bedrooms = firstInt(bedroomsRe, blurb)
		l.Bathrooms = firstInt(bathroomsRe, blurb)
		out = append(out, l)
	})

	return ls.ResultCount.text(root), out
}

// Detail extracts a property page.
func (e *Extractor) Detail(doc *goquery.Document, id string) domain.PropertyDetail {
	ds := e.sel.Detail
	root := doc.Selection
	d := domain.PropertyDetail{
		ID:          id,
		Title:       ds.Title.text(root),
		Price:       ds.Price.text(root),
		Address:     ds.Address.text(root),
		Description: ds.Description.text(root),
		KeyFeatures: make([]string, 0),
		Images:      make([]string, 0),
		Agent: domain.Agent{
			Name:    ds.AgentName.text(root),
			Phone:   ds.AgentPhone.text(root),
			Address: ds.AgentAddress.text(root),
		},
		PropertyDetails: make(map[string]string),
	}
	if fp := ds.Floorplan.all(root).First(); fp.Length() > 0 {
		d.Floorplan = ds.ImageAttrs.attr(fp)
	}

	ds.KeyFeatures.all(root).Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			d.KeyFeatures = append(d.KeyFeatures, t)
		}
	})

	ds.Images.all(root).Each(func(_ int, img *goquery.Selection) {
		if src := ds.ImageAttrs.attr(img); src != "" {
			d.Images = append(d.Images, src)
		}
	})

	// later duplicate labels overwrite earlier ones
	ds.Section.all(root).Each(func(_ int, sec *goquery.Selection) {
		label := ds.SectionLabel.text(sec)
		value := ds.SectionValue.text(sec)
		if label != "" && value != "" {
			d.PropertyDetails[label] = value
		}
	})

	return d
}

// Statistics extracts a house-prices page. Average prices are keyed by the
// header cell immediately preceding each data cell.
func (e *Extractor) Statistics(doc *goquery.Document, location, pageURL string) domain.AreaStatistics {
	ss := e.sel.Statistics
	root := doc.Selection
	st := domain.AreaStatistics{
		Location:      location,
		AveragePrices: make(map[string]string),
		PriceChanges:  make(map[string]string),
		SalesVolume:   ss.SalesVolume.text(root),
		TimeOnMarket:  ss.TimeOnMarket.text(root),
		URL:           pageURL,
	}

	ss.DataCell.all(root).Each(func(_ int, cell *goquery.Selection) {
		value := strings.TrimSpace(cell.Text())
		label := strings.TrimSpace(cell.PrevFiltered(ss.HeaderCell.group()).Text())
		if label != "" && value != "" {
			st.AveragePrices[label] = value
		}
	})

	ss.PriceChange.all(root).Each(func(_ int, row *goquery.Selection) {
		label := ss.PriceChangeLabel.text(row)
		value := ss.PriceChangeValue.text(row)
		if label != "" && value != "" {
			st.PriceChanges[label] = value
		}
	})

	return st
}

func (e *Extractor) absolute(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return e.base.String() + href
	}
	return e.base.ResolveReference(ref).String()
}

func firstInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
