package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

//go:embed selectors.yaml
var defaultSelectorsYAML []byte

// Selector is an ordered list of alternatives for one field. In YAML it may
// be written as a single string or a list.
type Selector []string

func (s *Selector) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = Selector{n.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("selector at line %d: want string or list", n.Line)
}

// text returns the trimmed text of the first node matched by the first
// alternative that yields non-empty text.
func (s Selector) text(root *goquery.Selection) string {
	for _, css := range s {
		if t := strings.TrimSpace(root.Find(css).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// all returns the nodes of the first alternative that matches anything.
func (s Selector) all(root *goquery.Selection) *goquery.Selection {
	for _, css := range s {
		if m := root.Find(css); m.Length() > 0 {
			return m
		}
	}
	return root.Slice(0, 0)
}

// attr returns the first non-empty attribute of node, in alternative order.
func (s Selector) attr(node *goquery.Selection) string {
	for _, name := range s {
		if v, ok := node.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// group joins the alternatives into one CSS selector group.
func (s Selector) group() string { return strings.Join(s, ", ") }

type ListingSelectors struct {
	Card        Selector `yaml:"card"`
	Link        Selector `yaml:"link"`
	Title       Selector `yaml:"title"`
	Price       Selector `yaml:"price"`
	Address     Selector `yaml:"address"`
	Type        Selector `yaml:"type"`
	Description Selector `yaml:"description"`
	Image       Selector `yaml:"image"`
	ImageAttrs  Selector `yaml:"image_attrs"`
	Agent       Selector `yaml:"agent"`
	DateAdded   Selector `yaml:"date_added"`
	ResultCount Selector `yaml:"result_count"`
}

type DetailSelectors struct {
	Title        Selector `yaml:"title"`
	Price        Selector `yaml:"price"`
	Address      Selector `yaml:"address"`
	Description  Selector `yaml:"description"`
	KeyFeatures  Selector `yaml:"key_features"`
	Floorplan    Selector `yaml:"floorplan"`
	Images       Selector `yaml:"images"`
	ImageAttrs   Selector `yaml:"image_attrs"`
	AgentName    Selector `yaml:"agent_name"`
	AgentPhone   Selector `yaml:"agent_phone"`
	AgentAddress Selector `yaml:"agent_address"`
	Section      Selector `yaml:"section"`
	SectionLabel Selector `yaml:"section_label"`
	SectionValue Selector `yaml:"section_value"`
}

type StatisticsSelectors struct {
	DataCell         Selector `yaml:"data_cell"`
	HeaderCell       Selector `yaml:"header_cell"`
	PriceChange      Selector `yaml:"price_change"`
	PriceChangeLabel Selector `yaml:"price_change_label"`
	PriceChangeValue Selector `yaml:"price_change_value"`
	SalesVolume      Selector `yaml:"sales_volume"`
	TimeOnMarket     Selector `yaml:"time_on_market"`
}

// Selectors is the full selector table for the three page kinds.
type Selectors struct {
	Listing    ListingSelectors    `yaml:"listing"`
	Detail     DetailSelectors     `yaml:"detail"`
	Statistics StatisticsSelectors `yaml:"statistics"`
}

// DefaultSelectors returns the embedded selector table.
func DefaultSelectors() Selectors {
	var s Selectors
	if err := yaml.Unmarshal(defaultSelectorsYAML, &s); err != nil {
		panic(fmt.Sprintf("embedded selectors.yaml: %v", err))
	}
	return s
}

// LoadSelectors overlays the YAML file at path onto the defaults. Fields the
// file does not mention keep their default selectors. An empty path returns
// the defaults.
func LoadSelectors(path string) (Selectors, error) {
	s := DefaultSelectors()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, fmt.Errorf("read selectors: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Selectors{}, fmt.Errorf("parse selectors %s: %w", path, err)
	}
	return s, nil
}
