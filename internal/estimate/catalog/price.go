package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceNumberPattern = regexp.MustCompile(`\d[\d,]*`)

// ParsePriceRange reads an authored range such as "$150 - $1,500".
// Exactly two non-negative integers with min <= max are required; anything
// else yields {0,0} and ErrMalformedPriceString.
func ParsePriceRange(raw string) (PriceRange, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "$-") {
		return PriceRange{}, fmt.Errorf("%q: %w", raw, ErrMalformedPriceString)
	}

	matches := priceNumberPattern.FindAllString(raw, -1)
	if len(matches) != 2 {
		return PriceRange{}, fmt.Errorf("%q: %w", raw, ErrMalformedPriceString)
	}

	bounds := make([]int, 2)
	for i, m := range matches {
		n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		if err != nil {
			return PriceRange{}, fmt.Errorf("%q: %w", raw, ErrMalformedPriceString)
		}
		bounds[i] = n
	}

	return checkedRange(bounds[0], bounds[1], raw)
}

func checkedRange(minimum, maximum int, source string) (PriceRange, error) {
	if minimum < 0 || maximum < 0 || minimum > maximum {
		return PriceRange{}, fmt.Errorf("%q: %w", source, ErrMalformedPriceString)
	}
	return PriceRange{Min: minimum, Max: maximum}, nil
}
