package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Issue is a non-fatal authoring problem found while loading.
type Issue struct {
	Phrase  string
	Service string
	Err     error
}

type fileCatalog struct {
	Groups []fileGroup `yaml:"groups"`
}

type fileGroup struct {
	Category    string        `yaml:"category"`
	Icon        string        `yaml:"icon"`
	Description string        `yaml:"description"`
	Problems    []fileProblem `yaml:"problems"`
}

type fileProblem struct {
	Phrase  string      `yaml:"phrase"`
	Service fileService `yaml:"service"`
}

type fileService struct {
	Name              string             `yaml:"name"`
	Description       string             `yaml:"description"`
	Icon              string             `yaml:"icon"`
	Price             priceSpec          `yaml:"price"`
	UrgencyMultiplier map[string]float64 `yaml:"urgencyMultiplier"`
}

// priceSpec accepts either an authored string ("$150 - $1,500") or a
// {min, max} mapping.
type priceSpec struct {
	raw        string
	structured bool
	min, max   *int
}

func (p *priceSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.raw = node.Value
		return nil
	case yaml.MappingNode:
		var v struct {
			Min *int `yaml:"min"`
			Max *int `yaml:"max"`
		}
		if err := node.Decode(&v); err != nil {
			return err
		}
		p.structured = true
		p.min, p.max = v.Min, v.Max
		return nil
	default:
		return fmt.Errorf("line %d: price must be a string or a {min, max} mapping", node.Line)
	}
}

func (p priceSpec) resolve() (PriceRange, error) {
	if !p.structured {
		return ParsePriceRange(p.raw)
	}
	if p.min == nil || p.max == nil {
		return PriceRange{}, fmt.Errorf("price mapping needs min and max: %w", ErrMalformedPriceString)
	}
	return checkedRange(*p.min, *p.max, fmt.Sprintf("%d-%d", *p.min, *p.max))
}

// Load parses a YAML catalog. Price strings are parsed here, once; a
// malformed price degrades that descriptor to {0,0} and is reported as an
// Issue rather than failing the load.
func Load(r io.Reader) (*Catalog, []Issue, error) {
	var fc fileCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("catalog is empty")
		}
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}

	var issues []Issue
	groups := make([]Group, 0, len(fc.Groups))
	for _, fg := range fc.Groups {
		g := Group{
			Category:    fg.Category,
			Icon:        fg.Icon,
			Description: fg.Description,
			Problems:    make([]Entry, 0, len(fg.Problems)),
		}
		for _, fp := range fg.Problems {
			svc, err := fp.Service.descriptor()
			if err != nil {
				return nil, nil, fmt.Errorf("phrase %q: %w", fp.Phrase, err)
			}
			price, priceErr := fp.Service.Price.resolve()
			if priceErr != nil {
				svc.MalformedPrice = true
				issues = append(issues, Issue{Phrase: fp.Phrase, Service: svc.ServiceName, Err: priceErr})
			} else {
				svc.BasePrice = price
			}
			g.Problems = append(g.Problems, Entry{Phrase: fp.Phrase, Service: svc})
		}
		groups = append(groups, g)
	}

	c, err := New(groups)
	if err != nil {
		return nil, nil, err
	}
	return c, issues, nil
}

func (fs fileService) descriptor() (ServiceDescriptor, error) {
	multipliers := make(Multipliers, len(fs.UrgencyMultiplier))
	for key, v := range fs.UrgencyMultiplier {
		u, ok := ParseUrgency(key)
		if !ok {
			return ServiceDescriptor{}, fmt.Errorf("unknown urgency %q", key)
		}
		multipliers[u] = v
	}

	return ServiceDescriptor{
		ServiceName:       fs.Name,
		Description:       fs.Description,
		Icon:              fs.Icon,
		UrgencyMultiplier: multipliers,
	}, nil
}

// LoadFile loads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, []Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in HVAC catalog.
func Default() (*Catalog, []Issue, error) {
	return Load(bytes.NewReader(defaultCatalogYAML))
}

// MustDefault is Default for callers that treat a broken built-in catalog as a programming error.
func MustDefault() *Catalog {
	c, _, err := Default()
	if err != nil {
		panic("built-in catalog: " + err.Error())
	}
	return c
}
