package models

// Known category labels. Tallies are pre-seeded with these so the legend
// stays stable even when a country has zero orders in a category.
var (
	ShipModeLabels = []string{"Standard Class", "First Class", "Second Class", "Same Day"}
	SegmentLabels  = []string{"Consumer", "Corporate", "Home Office"}
	CategoryLabels = []string{"Technology", "Office Supplies", "Furniture"}
	PriorityLabels = []string{"Medium", "High", "Low", "Critical"}
)

// CategoryTally counts categorical values while preserving first-seen label
// order. Legend ordering relies on this, so it is a contract, not an accident.
type CategoryTally struct {
	labels []string
	counts map[string]int
}

func NewCategoryTally(seed ...string) *CategoryTally {
	t := &CategoryTally{counts: make(map[string]int, len(seed))}
	for _, label := range seed {
		t.labels = append(t.labels, label)
		t.counts[label] = 0
	}
	return t
}

func (t *CategoryTally) Add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.labels = append(t.labels, label)
	}
	t.counts[label]++
}

func (t *CategoryTally) Count(label string) int {
	return t.counts[label]
}

// Labels returns the tally's labels in first-seen order.
func (t *CategoryTally) Labels() []string {
	return t.labels
}

// Top returns the modal label. Ties break toward the earlier label.
func (t *CategoryTally) Top() string {
	top, max := "", 0
	for _, label := range t.labels {
		if t.counts[label] > max {
			top, max = label, t.counts[label]
		}
	}
	return top
}

// Counts returns a label→count copy for serialization.
func (t *CategoryTally) Counts() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// CountryBucket is the heatmap aggregate for one (normalized) country. Unlike
// CityMetrics it retains the full per-order value lists, because several
// heatmap metrics are means over the list rather than sums.
type CountryBucket struct {
	Orders    int
	Quantity  int
	Sales     []float64
	Profit    []float64
	Discount  []float64
	Shipping  []float64
	ShipModes *CategoryTally
	Segments  *CategoryTally
	Category  *CategoryTally
	Priority  *CategoryTally
}

func NewCountryBucket() *CountryBucket {
	return &CountryBucket{
		ShipModes: NewCategoryTally(ShipModeLabels...),
		Segments:  NewCategoryTally(SegmentLabels...),
		Category:  NewCategoryTally(CategoryLabels...),
		Priority:  NewCategoryTally(PriorityLabels...),
	}
}

func (b *CountryBucket) TotalSales() float64    { return sum(b.Sales) }
func (b *CountryBucket) TotalProfit() float64   { return sum(b.Profit) }
func (b *CountryBucket) AvgDiscount() float64   { return mean(b.Discount) }
func (b *CountryBucket) AvgShipping() float64   { return mean(b.Shipping) }

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// CountryStats is the comparison aggregate for one country, or the global
// variant with blank categorical fields (a global mode is not meaningful).
type CountryStats struct {
	Country         string  `json:"country"`
	Orders          int     `json:"orders"`
	TotalSales      float64 `json:"total_sales"`
	AvgSales        float64 `json:"avg_sales"`
	TotalProfit     float64 `json:"total_profit"`
	AvgProfit       float64 `json:"avg_profit"`
	AvgDiscount     float64 `json:"avg_discount"`
	TotalQuantity   int     `json:"total_quantity"`
	AvgShippingCost float64 `json:"avg_shipping_cost"`
	TopShipMode     string  `json:"top_ship_mode"`
	TopSegment      string  `json:"top_segment"`
	TopCategory     string  `json:"top_category"`
	TopPriority     string  `json:"top_priority"`
}

// ComparisonSummary pairs two countries' stats with the global baseline and
// the ordered narrative sentences.
type ComparisonSummary struct {
	Country1  string        `json:"country1"`
	Country2  string        `json:"country2"`
	Sentences []string      `json:"sentences"`
	Stats1    *CountryStats `json:"stats1"`
	Stats2    *CountryStats `json:"stats2"`
	GlobalAvg *CountryStats `json:"global_avg"`
}

// Legend describes the color encoding for the active heatmap metric.
type Legend struct {
	Type     string          `json:"type"` // "gradient" or "categorical"
	Gradient *GradientLegend `json:"gradient,omitempty"`
	Items    []LegendItem    `json:"items,omitempty"`
}

type GradientLegend struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type LegendItem struct {
	Color string `json:"color"`
	Label string `json:"label"`
}
