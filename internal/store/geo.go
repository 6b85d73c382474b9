package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"superstore-map/internal/models"
)

// geoCountryNameMap translates worldcities country names to the dataset's
// country names so the circle join lines up.
var geoCountryNameMap = map[string]string{
	"Congo (Brazzaville)": "Republic of the Congo",
	"Congo (Kinshasa)":    "Democratic Republic of the Congo",
	"Korea, South":        "South Korea",
	"Korea, North":        "North Korea",
	"Czechia":             "Czech Republic",
	"Burma":               "Myanmar (Burma)",
	"Eswatini":            "Swaziland",
	"North Macedonia":     "Macedonia",
	"Côte d’Ivoire":       "Côte-d'Ivoire",
}

// CityIndex maps country → city → position.
type CityIndex map[string]map[string]models.LatLng

// Lookup returns the position for a (country, city) pair.
func (idx CityIndex) Lookup(country, city string) (models.LatLng, bool) {
	cities, ok := idx[country]
	if !ok {
		return models.LatLng{}, false
	}
	pos, ok := cities[city]
	return pos, ok
}

// LoadCityIndex parses a worldcities CSV (city, country, lat, lng columns)
// into a position index. Rows with unparseable coordinates are skipped.
func LoadCityIndex(filename string) (CityIndex, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open city index: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read city index header: %w", err)
	}
	columns := indexColumns(header)

	out := make(CityIndex)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read city record: %w", err)
		}

		city := columns.get(record, "city")
		country := columns.get(record, "country")
		if city == "" || country == "" {
			continue
		}
		lat, latErr := strconv.ParseFloat(columns.get(record, "lat"), 64)
		lng, lngErr := strconv.ParseFloat(columns.get(record, "lng"), 64)
		if latErr != nil || lngErr != nil {
			continue
		}

		if mapped, ok := geoCountryNameMap[strings.TrimSpace(country)]; ok {
			country = mapped
		}

		cities := out[country]
		if cities == nil {
			cities = make(map[string]models.LatLng)
			out[country] = cities
		}
		cities[city] = models.LatLng{Lat: lat, Lng: lng}
	}

	return out, nil
}
