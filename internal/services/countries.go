package services

import (
	"sort"

	"superstore-map/internal/models"
)

// countryNameMap translates dataset country names to the geography feature
// names used by the map join.
var countryNameMap = map[string]string{
	"Guinea-Bissau":   "Guinea Bissau",
	"Serbia":          "Republic of Serbia",
	"Tanzania":        "United Republic of Tanzania",
	"United States":   "USA",
	"United Kingdom":  "England",
	"Myanmar (Burma)": "Myanmar",
}

// NormalizeCountryName maps a dataset country name to its map feature name.
// Unknown names pass through unchanged.
func NormalizeCountryName(name string) string {
	if mapped, ok := countryNameMap[name]; ok {
		return mapped
	}
	return name
}

// UniqueCountries returns the sorted set of normalized country names present
// in the order data, for the comparison pickers.
func UniqueCountries(orders []models.Order) []string {
	seen := make(map[string]struct{})
	for i := range orders {
		seen[NormalizeCountryName(orders[i].Country)] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
