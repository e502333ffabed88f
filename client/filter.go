package client

import (
	"sort"
	"strings"
)

// Filter narrows a product list the way the storefront does: case-insensitive
// name substring match, tag membership and an inclusive price range.
// Zero values leave the corresponding dimension unfiltered.
type Filter struct {
	Query    string
	Tag      string
	MinPrice float64
	MaxPrice float64
}

// Apply returns the products matching every set dimension, in input order.
func (f Filter) Apply(products []Product) []Product {
	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.Tag != "" && !hasTag(p, f.Tag) {
			continue
		}
		if p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

func hasTag(p Product, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SortOrder selects a storefront sort.
type SortOrder int

const (
	// SortFeatured keeps the input order.
	SortFeatured SortOrder = iota
	// SortPriceAsc sorts by price, cheapest first.
	SortPriceAsc
	// SortPriceDesc sorts by price, most expensive first.
	SortPriceDesc
	// SortName sorts alphabetically by name.
	SortName
)

// SortProducts returns a sorted copy; the input slice is left untouched.
// Sorting is stable, so equal items keep their relative order.
func SortProducts(products []Product, order SortOrder) []Product {
	sorted := append([]Product{}, products...)
	switch order {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case SortName:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	}
	return sorted
}
