package store

import (
	"testing"
)

const citiesHeader = "city,city_ascii,lat,lng,country,iso2,iso3"

func TestLoadCityIndex(t *testing.T) {
	path := writeTempCSV(t, citiesHeader+"\n"+
		"New York,New York,40.6943,-73.9249,United States,US,USA\n"+
		"Paris,Paris,48.8567,2.3522,France,FR,FRA\n"+
		"Yangon,Yangon,16.7950,96.1600,Burma,MM,MMR\n"+
		"Nowhere,Nowhere,not-a-number,0,France,FR,FRA\n")

	idx, err := LoadCityIndex(path)
	if err != nil {
		t.Fatalf("LoadCityIndex() error = %v", err)
	}

	pos, ok := idx.Lookup("United States", "New York")
	if !ok {
		t.Fatal("expected New York in the index")
	}
	if pos.Lat != 40.6943 || pos.Lng != -73.9249 {
		t.Errorf("New York position = %+v", pos)
	}

	// worldcities name translated to the dataset's name
	if _, ok := idx.Lookup("Myanmar (Burma)", "Yangon"); !ok {
		t.Error("Burma should be indexed under Myanmar (Burma)")
	}
	if _, ok := idx.Lookup("Burma", "Yangon"); ok {
		t.Error("raw worldcities name should not remain in the index")
	}

	// bad coordinates skipped, valid row for the same country kept
	if _, ok := idx.Lookup("France", "Nowhere"); ok {
		t.Error("row with unparseable lat should be skipped")
	}
	if _, ok := idx.Lookup("France", "Paris"); !ok {
		t.Error("Paris should survive the skipped sibling row")
	}
}

func TestLoadCityIndexMissingFile(t *testing.T) {
	if _, err := LoadCityIndex("does/not/exist.csv"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestCityIndexLookupMisses(t *testing.T) {
	idx := CityIndex{"France": {"Paris": {Lat: 48.86, Lng: 2.35}}}

	if _, ok := idx.Lookup("Spain", "Madrid"); ok {
		t.Error("unknown country should miss")
	}
	if _, ok := idx.Lookup("France", "Lyon"); ok {
		t.Error("unknown city should miss")
	}
}
