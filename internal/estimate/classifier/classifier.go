// Package classifier maps a free-text problem statement to a catalog service.
package classifier

import (
	"strings"

	"estimate_portal_backend/internal/estimate/catalog"
)

// MatchKind records how a descriptor was chosen.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchFallback  MatchKind = "fallback"
)

// Result is the outcome of classifying one input.
type Result struct {
	Descriptor catalog.ServiceDescriptor `json:"descriptor"`
	Phrase     string                    `json:"phrase,omitempty"`
	Category   string                    `json:"category,omitempty"`
	Kind       MatchKind                 `json:"kind"`
}

// Classifier matches problem text against a read-only catalog.
type Classifier struct {
	catalog *catalog.Catalog
}

// New creates a classifier over c.
func New(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Classify returns the descriptor for input. It never fails; unmatched input
// gets the general consultation descriptor.
func (c *Classifier) Classify(input string) catalog.ServiceDescriptor {
	return c.Match(input).Descriptor
}

// Match classifies input and reports which phrase matched.
//
// An exact phrase match anywhere in the catalog wins. Otherwise the first
// phrase in catalog order whose lower-cased form occurs inside the
// lower-cased input is used, regardless of phrase length.
func (c *Classifier) Match(input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || c.catalog == nil {
		return fallback()
	}

	if entry, category, ok := c.catalog.Lookup(trimmed); ok {
		return Result{Descriptor: entry.Service, Phrase: entry.Phrase, Category: category, Kind: MatchExact}
	}

	lowered := strings.ToLower(trimmed)
	var result Result
	found := false
	c.catalog.Walk(func(category string, e catalog.Entry, lowerPhrase string) bool {
		if strings.Contains(lowered, lowerPhrase) {
			result = Result{Descriptor: e.Service, Phrase: e.Phrase, Category: category, Kind: MatchSubstring}
			found = true
			return false
		}
		return true
	})
	if found {
		return result
	}

	return fallback()
}

func fallback() Result {
	return Result{Descriptor: catalog.Fallback(), Kind: MatchFallback}
}
