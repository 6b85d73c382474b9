package services

import (
	"math"
	"testing"

	"superstore-map/internal/models"
)

func TestRadiusScale(t *testing.T) {
	s := &RadiusScale{DomainMax: 100, RangeMin: 3, RangeMax: 35}

	if got := s.Radius(0); got != 3 {
		t.Errorf("Radius(0) = %v, want 3", got)
	}
	if got := s.Radius(100); got != 35 {
		t.Errorf("Radius(100) = %v, want 35", got)
	}
	// sqrt scale: a quarter of the domain lands halfway across the range
	if got := s.Radius(25); math.Abs(got-19) > 1e-9 {
		t.Errorf("Radius(25) = %v, want 19", got)
	}
	// negatives clamp to the range minimum
	if got := s.Radius(-50); got != 3 {
		t.Errorf("Radius(-50) = %v, want 3", got)
	}

	empty := &RadiusScale{DomainMax: 0, RangeMin: 3, RangeMax: 35}
	if got := empty.Radius(10); got != 3 {
		t.Errorf("Radius with empty domain = %v, want 3", got)
	}
}

func TestScaleEngineDomain(t *testing.T) {
	engine := NewScaleEngine()
	buckets := AggregateCities(sampleOrders(), models.DateWindow{})

	s := engine.RadiusScale(buckets, models.CircleSales, 1)
	if s.DomainMax != 300 {
		t.Errorf("sales domain max = %v, want 300", s.DomainMax)
	}
	if s.RangeMin != 3 || s.RangeMax != 30 {
		t.Errorf("sales range = [%v, %v], want [3, 30]", s.RangeMin, s.RangeMax)
	}

	// the profit domain uses magnitudes, so a large loss still sets the max
	s = engine.RadiusScale(buckets, models.CircleProfit, 1)
	if s.DomainMax != 30 {
		t.Errorf("profit domain max = %v, want 30", s.DomainMax)
	}
}

func TestScaleEngineEmptyDomainFloor(t *testing.T) {
	engine := NewScaleEngine()

	s := engine.RadiusScale(CityBuckets{}, models.CircleOrders, 1)
	if s.DomainMax != 1 {
		t.Errorf("empty domain max = %v, want floor of 1", s.DomainMax)
	}
	if got := s.Radius(0); got != 3 {
		t.Errorf("Radius(0) on empty domain = %v, want 3", got)
	}
}

func TestScaleEngineMemoization(t *testing.T) {
	engine := NewScaleEngine()
	buckets := AggregateCities(sampleOrders(), models.DateWindow{})

	first := engine.RadiusScale(buckets, models.CircleOrders, 1)
	second := engine.RadiusScale(buckets, models.CircleOrders, 1)
	if first != second {
		t.Error("same metric and revision should return the cached scale")
	}
	if got := engine.Recomputes(); got != 1 {
		t.Errorf("Recomputes() = %d, want 1", got)
	}

	// a metric change recomputes
	engine.RadiusScale(buckets, models.CircleSales, 1)
	if got := engine.Recomputes(); got != 2 {
		t.Errorf("Recomputes() after metric change = %d, want 2", got)
	}

	// a revision bump with the same metric recomputes too; this is what keeps
	// scales fresh when the window changes under an unchanged metric
	engine.RadiusScale(buckets, models.CircleSales, 2)
	if got := engine.Recomputes(); got != 3 {
		t.Errorf("Recomputes() after revision bump = %d, want 3", got)
	}
}

func TestColorScale(t *testing.T) {
	s := &ColorScale{Min: 0, Max: 100}

	if got := s.Color(0); got != "#f7fbff" {
		t.Errorf("Color(0) = %q, want #f7fbff", got)
	}
	if got := s.Color(100); got != "#08306b" {
		t.Errorf("Color(100) = %q, want #08306b", got)
	}
	// out-of-domain values clamp to the endpoints
	if got := s.Color(-10); got != "#f7fbff" {
		t.Errorf("Color(-10) = %q, want #f7fbff", got)
	}
	if got := s.Color(500); got != "#08306b" {
		t.Errorf("Color(500) = %q, want #08306b", got)
	}

	degenerate := &ColorScale{Min: 5, Max: 5}
	if got := degenerate.Color(5); got != "#f7fbff" {
		t.Errorf("degenerate Color(5) = %q, want #f7fbff", got)
	}
}

func TestDeriveHeatmap(t *testing.T) {
	buckets := AggregateCountries(sampleOrders(), models.DateWindow{})

	t.Run("orders", func(t *testing.T) {
		enc, err := DeriveHeatmap(buckets, models.HeatmapOrders)
		if err != nil {
			t.Fatal(err)
		}
		if enc.Scale == nil || enc.Scale.Max != 2 {
			t.Errorf("orders scale = %+v, want max 2", enc.Scale)
		}
		if enc.Legend.Type != "gradient" {
			t.Errorf("legend type = %q, want gradient", enc.Legend.Type)
		}
	})

	t.Run("profit keeps negative minimum", func(t *testing.T) {
		enc, err := DeriveHeatmap(buckets, models.HeatmapProfit)
		if err != nil {
			t.Fatal(err)
		}
		if enc.Scale.Min != -30 {
			t.Errorf("profit scale min = %v, want -30", enc.Scale.Min)
		}
	})

	t.Run("categorical", func(t *testing.T) {
		enc, err := DeriveHeatmap(buckets, models.HeatmapShipMode)
		if err != nil {
			t.Fatal(err)
		}
		if enc.Scale != nil {
			t.Error("categorical metric should not carry a numeric scale")
		}
		if enc.Legend.Type != "categorical" || len(enc.Legend.Items) != 4 {
			t.Errorf("ship mode legend = %+v, want 4 categorical items", enc.Legend)
		}
		if enc.Legend.Items[0].Label != "Standard Class" || enc.Legend.Items[0].Color != "#3182bd" {
			t.Errorf("first legend item = %+v", enc.Legend.Items[0])
		}
	})

	t.Run("unknown metric", func(t *testing.T) {
		if _, err := DeriveHeatmap(buckets, models.HeatmapMetric("bogus")); err == nil {
			t.Error("expected error for unknown metric")
		}
	})
}

func TestHeatmapCountryColor(t *testing.T) {
	buckets := AggregateCountries(sampleOrders(), models.DateWindow{})

	enc, err := DeriveHeatmap(buckets, models.HeatmapOrders)
	if err != nil {
		t.Fatal(err)
	}

	if got := enc.CountryColor(nil); got != "#e0e0e0" {
		t.Errorf("nil bucket color = %q, want neutral fill", got)
	}
	if got := enc.CountryColor(buckets["USA"]); got != "#08306b" {
		t.Errorf("max-orders country color = %q, want ramp top", got)
	}

	cat, err := DeriveHeatmap(buckets, models.HeatmapCategory)
	if err != nil {
		t.Fatal(err)
	}
	if got := cat.CountryColor(buckets["France"]); got != "#e6550d" {
		t.Errorf("France category color = %q, want Office Supplies palette color", got)
	}
}
