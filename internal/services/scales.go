package services

import (
	"fmt"
	"math"
	"sync"

	"superstore-map/internal/models"
)

// RadiusScale is a square-root scale mapping metric values to pixel radii, so
// circle area rather than radius tracks the metric. The domain lower bound is
// always 0.
type RadiusScale struct {
	DomainMax float64 `json:"domain_max"`
	RangeMin  float64 `json:"range_min"`
	RangeMax  float64 `json:"range_max"`
}

// Radius maps a value into the pixel range. Callers pass absolute values for
// the profit metric; sign is encoded with color, magnitude with size.
func (s *RadiusScale) Radius(value float64) float64 {
	if value < 0 {
		value = 0
	}
	if s.DomainMax <= 0 {
		return s.RangeMin
	}
	return s.RangeMin + (s.RangeMax-s.RangeMin)*math.Sqrt(value/s.DomainMax)
}

// scaleRange returns the tuned pixel range per metric. Metrics have very
// different natural scales; the ranges keep discrimination reasonable.
func scaleRange(metric models.CircleMetric) (float64, float64) {
	switch metric {
	case models.CircleSales:
		return 3, 30
	case models.CircleShipping:
		return 3, 25
	case models.CircleProfit:
		return 3, 28
	case models.CircleQuantity:
		return 3, 30
	case models.CircleDiscount:
		return 3, 22
	default: // orders
		return 3, 35
	}
}

// ScaleEngine memoizes radius-scale derivation. Recomputing scans every value
// in every bucket, so it is skipped unless the metric changed or the bucket
// revision moved. Keying on the revision (not just the metric) prevents stale
// scales from being reused after a rebuild with the same metric selected.
type ScaleEngine struct {
	mu         sync.Mutex
	lastMetric models.CircleMetric
	lastRev    uint64
	cached     *RadiusScale
	recomputes int
}

func NewScaleEngine() *ScaleEngine {
	return &ScaleEngine{}
}

// RadiusScale derives (or returns the memoized) radius scale for the metric
// against the given bucket revision.
func (e *ScaleEngine) RadiusScale(buckets CityBuckets, metric models.CircleMetric, revision uint64) *RadiusScale {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cached != nil && e.lastMetric == metric && e.lastRev == revision {
		return e.cached
	}

	maxValue := 1.0
	for _, cities := range buckets {
		for _, m := range cities {
			v := m.Value(metric)
			if metric == models.CircleProfit {
				v = math.Abs(v)
			}
			if v > maxValue {
				maxValue = v
			}
		}
	}

	rangeMin, rangeMax := scaleRange(metric)
	e.cached = &RadiusScale{DomainMax: maxValue, RangeMin: rangeMin, RangeMax: rangeMax}
	e.lastMetric = metric
	e.lastRev = revision
	e.recomputes++
	return e.cached
}

// Recomputes reports how many times the scale was actually rebuilt.
func (e *ScaleEngine) Recomputes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputes
}

// ColorScale is a sequential numeric scale interpolating the blues ramp.
type ColorScale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Color maps a value to a hex color along the ramp. Values outside the domain
// clamp to the endpoints.
func (s *ColorScale) Color(value float64) string {
	span := s.Max - s.Min
	if span <= 0 {
		return bluesRamp(0)
	}
	t := (value - s.Min) / span
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return bluesRamp(t)
}

// bluesRamp linearly interpolates between the endpoints of the blues color
// ramp. Presentation tuning, not a contract.
func bluesRamp(t float64) string {
	lerp := func(a, b float64) int {
		return int(math.Round(a + (b-a)*t))
	}
	// #f7fbff → #08306b
	return fmt.Sprintf("#%02x%02x%02x", lerp(0xf7, 0x08), lerp(0xfb, 0x30), lerp(0xff, 0x6b))
}

// categoricalColors is the fixed palette for modal-category fills.
var categoricalColors = map[string]string{
	"Standard Class":  "#3182bd",
	"First Class":     "#e6550d",
	"Second Class":    "#31a354",
	"Same Day":        "#756bb1",
	"Consumer":        "#3182bd",
	"Corporate":       "#e6550d",
	"Home Office":     "#31a354",
	"Technology":      "#3182bd",
	"Office Supplies": "#e6550d",
	"Furniture":       "#31a354",
	"Medium":          "#3182bd",
	"High":            "#e6550d",
	"Low":             "#31a354",
	"Critical":        "#756bb1",
}

const neutralFill = "#e0e0e0"

// HeatmapEncoding binds a heatmap metric to its color scale and legend.
// Categorical metrics bypass the numeric scale and color by modal category.
type HeatmapEncoding struct {
	Metric models.HeatmapMetric `json:"metric"`
	Scale  *ColorScale          `json:"scale,omitempty"`
	Legend models.Legend        `json:"legend"`
}

// DeriveHeatmap builds the color encoding for a metric over the aggregated
// country buckets. An unknown metric is a programmer error and is reported,
// not panicked on.
func DeriveHeatmap(buckets CountryBuckets, metric models.HeatmapMetric) (*HeatmapEncoding, error) {
	enc := &HeatmapEncoding{Metric: metric}

	switch metric {
	case models.HeatmapOrders:
		max := 1.0
		for _, b := range buckets {
			if v := float64(b.Orders); v > max {
				max = v
			}
		}
		enc.Scale = &ColorScale{Min: 0, Max: max}
		enc.Legend = gradientLegend("0", FormatNumber(max))

	case models.HeatmapSales:
		max := 1.0
		for _, b := range buckets {
			if v := b.TotalSales(); v > max {
				max = v
			}
		}
		enc.Scale = &ColorScale{Min: 0, Max: max}
		enc.Legend = gradientLegend("$0", "$"+FormatNumber(max))

	case models.HeatmapDiscounts:
		max := 0.01
		for _, b := range buckets {
			if v := b.AvgDiscount(); v > max {
				max = v
			}
		}
		enc.Scale = &ColorScale{Min: 0, Max: max}
		enc.Legend = gradientLegend("0%", FormatPercent(max))

	case models.HeatmapProfit:
		max, min := 1.0, 0.0
		for _, b := range buckets {
			v := b.TotalProfit()
			if v > max {
				max = v
			}
			if v < min {
				min = v
			}
		}
		enc.Scale = &ColorScale{Min: min, Max: max}
		enc.Legend = gradientLegend(FormatCurrency(math.Round(min)), "$"+FormatNumber(max))

	case models.HeatmapShippingCost:
		max := 1.0
		for _, b := range buckets {
			if v := b.AvgShipping(); v > max {
				max = v
			}
		}
		enc.Scale = &ColorScale{Min: 0, Max: max}
		enc.Legend = gradientLegend("$0", fmt.Sprintf("$%.2f", max))

	case models.HeatmapQuantity:
		max := 1.0
		for _, b := range buckets {
			if v := float64(b.Quantity); v > max {
				max = v
			}
		}
		enc.Scale = &ColorScale{Min: 0, Max: max}
		enc.Legend = gradientLegend("0", FormatNumber(max))

	case models.HeatmapShipMode:
		enc.Legend = categoricalLegend(models.ShipModeLabels)
	case models.HeatmapSegment:
		enc.Legend = categoricalLegend(models.SegmentLabels)
	case models.HeatmapCategory:
		enc.Legend = categoricalLegend(models.CategoryLabels)
	case models.HeatmapPriority:
		enc.Legend = categoricalLegend(models.PriorityLabels)

	default:
		return nil, fmt.Errorf("unknown heatmap metric %q", metric)
	}

	return enc, nil
}

// CountryColor returns the fill for one country's bucket under this encoding.
// A nil bucket gets the neutral fill.
func (h *HeatmapEncoding) CountryColor(b *models.CountryBucket) string {
	if b == nil {
		return neutralFill
	}

	switch h.Metric {
	case models.HeatmapShipMode:
		return paletteColor(b.ShipModes.Top())
	case models.HeatmapSegment:
		return paletteColor(b.Segments.Top())
	case models.HeatmapCategory:
		return paletteColor(b.Category.Top())
	case models.HeatmapPriority:
		return paletteColor(b.Priority.Top())
	case models.HeatmapOrders:
		return h.Scale.Color(float64(b.Orders))
	case models.HeatmapSales:
		return h.Scale.Color(b.TotalSales())
	case models.HeatmapDiscounts:
		return h.Scale.Color(b.AvgDiscount())
	case models.HeatmapProfit:
		return h.Scale.Color(b.TotalProfit())
	case models.HeatmapShippingCost:
		return h.Scale.Color(b.AvgShipping())
	case models.HeatmapQuantity:
		return h.Scale.Color(float64(b.Quantity))
	default:
		return neutralFill
	}
}

func paletteColor(label string) string {
	if color, ok := categoricalColors[label]; ok {
		return color
	}
	return neutralFill
}

func gradientLegend(min, max string) models.Legend {
	return models.Legend{
		Type:     "gradient",
		Gradient: &models.GradientLegend{Min: min, Max: max},
	}
}

func categoricalLegend(labels []string) models.Legend {
	items := make([]models.LegendItem, 0, len(labels))
	for _, label := range labels {
		items = append(items, models.LegendItem{Color: paletteColor(label), Label: label})
	}
	return models.Legend{Type: "categorical", Items: items}
}
