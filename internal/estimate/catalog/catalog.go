// Package catalog holds the problem catalog: ordered category groups mapping
// customer-facing problem phrases to service descriptors.
// The catalog is read-only once loaded.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Urgency is how quickly the customer needs service.
type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyNormal    Urgency = "normal"
	UrgencyScheduled Urgency = "scheduled"
)

// DefaultUrgency is assumed until the customer picks one.
const DefaultUrgency = UrgencyNormal

// Urgencies lists every urgency level in display order.
var Urgencies = []Urgency{UrgencyEmergency, UrgencyUrgent, UrgencyNormal, UrgencyScheduled}

// ParseUrgency accepts an urgency level case-insensitively.
func ParseUrgency(value string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Urgencies {
		if u == known {
			return u, true
		}
	}
	return "", false
}

// ErrMalformedPriceString marks a descriptor whose authored price could not
// be read as exactly two non-negative integers.
var ErrMalformedPriceString = errors.New("malformed price string")

// PriceRange is an inclusive price range in whole dollars.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// String renders the range as "$min - $max".
func (p PriceRange) String() string {
	return fmt.Sprintf("$%d - $%d", p.Min, p.Max)
}

// Multipliers maps urgency levels to price multipliers.
type Multipliers map[Urgency]float64

// For returns the multiplier for u, or 1.0 when none is defined.
func (m Multipliers) For(u Urgency) float64 {
	if v, ok := m[u]; ok {
		return v
	}
	return 1.0
}

// complete returns a copy with every urgency level present.
func (m Multipliers) complete() Multipliers {
	out := make(Multipliers, len(Urgencies))
	for _, u := range Urgencies {
		out[u] = m.For(u)
	}
	return out
}

// ServiceDescriptor describes a named service and how it is priced.
type ServiceDescriptor struct {
	ServiceName       string      `json:"service"`
	Description       string      `json:"description"`
	BasePrice         PriceRange  `json:"basePriceRange"`
	Icon              string      `json:"icon"`
	UrgencyMultiplier Multipliers `json:"urgencyMultiplier"`
	// MalformedPrice is set when the authored price degraded to {0,0}.
	MalformedPrice bool `json:"malformedPrice,omitempty"`
}

// PriceErr reports ErrMalformedPriceString for degraded descriptors.
func (d ServiceDescriptor) PriceErr() error {
	if d.MalformedPrice {
		return fmt.Errorf("%s: %w", d.ServiceName, ErrMalformedPriceString)
	}
	return nil
}

// IsZero reports whether the descriptor is unset.
func (d ServiceDescriptor) IsZero() bool {
	return d.ServiceName == ""
}

// Entry binds one problem phrase to its descriptor.
type Entry struct {
	Phrase  string            `json:"phrase"`
	Service ServiceDescriptor `json:"service"`
}

// Group is a category of related problems.
type Group struct {
	Category    string  `json:"category"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	Problems    []Entry `json:"problems"`
}

// Catalog is the ordered problem catalog.
type Catalog struct {
	groups  []Group
	byExact map[string]int
	flat    []flatEntry
}

type flatEntry struct {
	category string
	entry    Entry
	lower    string
}

// New builds a catalog from groups, preserving declaration order.
// Missing urgency multipliers default to 1.0.
func New(groups []Group) (*Catalog, error) {
	if len(groups) == 0 {
		return nil, errors.New("catalog has no groups")
	}

	c := &Catalog{
		groups:  make([]Group, 0, len(groups)),
		byExact: make(map[string]int),
	}

	for gi, g := range groups {
		if strings.TrimSpace(g.Category) == "" {
			return nil, fmt.Errorf("group %d: category is required", gi)
		}
		copied := Group{
			Category:    g.Category,
			Icon:        g.Icon,
			Description: g.Description,
			Problems:    make([]Entry, 0, len(g.Problems)),
		}
		for pi, p := range g.Problems {
			phrase := strings.TrimSpace(p.Phrase)
			if phrase == "" {
				return nil, fmt.Errorf("group %q problem %d: phrase is required", g.Category, pi)
			}
			if strings.TrimSpace(p.Service.ServiceName) == "" {
				return nil, fmt.Errorf("phrase %q: service name is required", phrase)
			}
			if _, dup := c.byExact[phrase]; dup {
				return nil, fmt.Errorf("phrase %q is declared twice", phrase)
			}
			for u, v := range p.Service.UrgencyMultiplier {
				if v < 0 {
					return nil, fmt.Errorf("phrase %q: negative multiplier for %s", phrase, u)
				}
			}

			svc := p.Service
			svc.UrgencyMultiplier = svc.UrgencyMultiplier.complete()
			entry := Entry{Phrase: phrase, Service: svc}

			copied.Problems = append(copied.Problems, entry)
			c.byExact[phrase] = len(c.flat)
			c.flat = append(c.flat, flatEntry{
				category: g.Category,
				entry:    entry,
				lower:    strings.ToLower(phrase),
			})
		}
		c.groups = append(c.groups, copied)
	}

	return c, nil
}

// Groups returns the catalog groups in declaration order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		problems := make([]Entry, len(g.Problems))
		copy(problems, g.Problems)
		g.Problems = problems
		out[i] = g
	}
	return out
}

// Len returns the number of phrases.
func (c *Catalog) Len() int {
	return len(c.flat)
}

// Lookup returns the entry whose phrase equals phrase exactly.
func (c *Catalog) Lookup(phrase string) (Entry, string, bool) {
	idx, ok := c.byExact[phrase]
	if !ok {
		return Entry{}, "", false
	}
	f := c.flat[idx]
	return f.entry, f.category, true
}

// Walk visits every entry in catalog order until fn returns false.
// lowerPhrase is the pre-lowered phrase used for substring matching.
func (c *Catalog) Walk(fn func(category string, e Entry, lowerPhrase string) bool) {
	for _, f := range c.flat {
		if !fn(f.category, f.entry, f.lower) {
			return
		}
	}
}

// Search filters groups to phrases containing term, case-insensitively.
// Groups left without phrases are dropped.
func (c *Catalog) Search(term string) []Group {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return c.Groups()
	}
	var out []Group
	for _, g := range c.groups {
		var matched []Entry
		for _, p := range g.Problems {
			if strings.Contains(strings.ToLower(p.Phrase), needle) {
				matched = append(matched, p)
			}
		}
		if len(matched) > 0 {
			g.Problems = matched
			out = append(out, g)
		}
	}
	return out
}

// Fallback is returned when no catalog phrase matches.
func Fallback() ServiceDescriptor {
	return ServiceDescriptor{
		ServiceName: "General Consultation",
		Description: "Custom HVAC problem assessment",
		BasePrice:   PriceRange{Min: 75, Max: 200},
		Icon:        "🔧",
		UrgencyMultiplier: Multipliers{
			UrgencyEmergency: 1.2,
			UrgencyUrgent:    1.1,
			UrgencyNormal:    1.0,
			UrgencyScheduled: 0.95,
		},
	}
}
