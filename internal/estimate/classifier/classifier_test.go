package classifier

import (
	"testing"

	"estimate_portal_backend/internal/estimate/catalog"
)

func TestEveryCatalogPhraseClassifiesToItsOwnDescriptor(t *testing.T) {
	cat := catalog.MustDefault()
	c := New(cat)

	cat.Walk(func(category string, e catalog.Entry, _ string) bool {
		got := c.Match(e.Phrase)
		if got.Kind != MatchExact {
			t.Errorf("%q: expected exact match, got %s", e.Phrase, got.Kind)
		}
		if got.Descriptor.ServiceName != e.Service.ServiceName || got.Descriptor.BasePrice != e.Service.BasePrice {
			t.Errorf("%q: got %+v, want %+v", e.Phrase, got.Descriptor, e.Service)
		}
		if got.Category != category {
			t.Errorf("%q: got category %q, want %q", e.Phrase, got.Category, category)
		}
		return true
	})
}

func TestClassifyTrimsBeforeExactMatch(t *testing.T) {
	c := New(catalog.MustDefault())
	got := c.Match("  AC not cooling at all \n")
	if got.Kind != MatchExact || got.Phrase != "AC not cooling at all" {
		t.Fatalf("expected trimmed exact match, got %+v", got)
	}
}

func TestClassifyFallsBackForUnknownInput(t *testing.T) {
	c := New(catalog.MustDefault())
	for _, input := range []string{"xyzzy gibberish", "", "   "} {
		got := c.Match(input)
		if got.Kind != MatchFallback {
			t.Fatalf("%q: expected fallback, got %s", input, got.Kind)
		}
		if got.Descriptor.ServiceName != "General Consultation" {
			t.Fatalf("%q: unexpected fallback service %q", input, got.Descriptor.ServiceName)
		}
		if got.Descriptor.BasePrice != (catalog.PriceRange{Min: 75, Max: 200}) {
			t.Fatalf("%q: unexpected fallback price %+v", input, got.Descriptor.BasePrice)
		}
	}
}

func TestClassifySubstringMatchIsCaseInsensitive(t *testing.T) {
	c := New(catalog.MustDefault())

	cases := []struct {
		input   string
		service string
	}{
		{input: "My AC NOT COOLING since yesterday", service: "Central Air - Repair"},
		{input: "the heating not working in the basement", service: "Heating - Repair"},
		{input: "Looking for a new installation quote", service: "Central Air - Installation"},
	}
	for _, tc := range cases {
		got := c.Match(tc.input)
		if got.Kind != MatchSubstring {
			t.Errorf("%q: expected substring match, got %s", tc.input, got.Kind)
		}
		if got.Descriptor.ServiceName != tc.service {
			t.Errorf("%q: got %q, want %q", tc.input, got.Descriptor.ServiceName, tc.service)
		}
	}
}

func TestSubstringTiesResolveByCatalogOrder(t *testing.T) {
	cat, err := catalog.New([]catalog.Group{
		{
			Category: "First",
			Problems: []catalog.Entry{
				{Phrase: "noise", Service: catalog.ServiceDescriptor{ServiceName: "Short"}},
			},
		},
		{
			Category: "Second",
			Problems: []catalog.Entry{
				{Phrase: "loud noise at night", Service: catalog.ServiceDescriptor{ServiceName: "Long"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	got := New(cat).Match("there is a loud noise at night")
	if got.Descriptor.ServiceName != "Short" {
		t.Fatalf("expected first declared phrase to win, got %q", got.Descriptor.ServiceName)
	}

	exact := New(cat).Match("loud noise at night")
	if exact.Descriptor.ServiceName != "Long" || exact.Kind != MatchExact {
		t.Fatalf("expected exact match to beat earlier substring, got %+v", exact)
	}
}
