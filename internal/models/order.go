package models

import "time"

// Order is one row of the superstore dataset. Orders are immutable once
// loaded; the store owns the backing slice for the process lifetime.
type Order struct {
	OrderID       string
	OrderDate     time.Time
	ShipDate      time.Time
	ShipMode      string
	Segment       string
	City          string
	Country       string
	Market        string
	ProductName   string
	Category      string
	SubCategory   string
	Sales         float64
	Quantity      int
	Discount      float64
	Profit        float64
	ShippingCost  float64
	OrderPriority string
}

// DateWindow filters orders by order date. A zero endpoint leaves that side
// of the window open.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

func (w DateWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// CircleMetric selects the per-city value encoded as circle area.
type CircleMetric string

const (
	CircleOrders   CircleMetric = "orders"
	CircleSales    CircleMetric = "sales"
	CircleProfit   CircleMetric = "profit"
	CircleQuantity CircleMetric = "quantity"
	CircleShipping CircleMetric = "shipping"
	CircleDiscount CircleMetric = "discount"
)

func (m CircleMetric) Valid() bool {
	switch m {
	case CircleOrders, CircleSales, CircleProfit, CircleQuantity, CircleShipping, CircleDiscount:
		return true
	}
	return false
}

// HeatmapMetric selects the per-country value encoded as country fill.
type HeatmapMetric string

const (
	HeatmapOrders       HeatmapMetric = "orders"
	HeatmapSales        HeatmapMetric = "sales"
	HeatmapProfit       HeatmapMetric = "profit"
	HeatmapDiscounts    HeatmapMetric = "discounts"
	HeatmapShippingCost HeatmapMetric = "shipping_cost"
	HeatmapQuantity     HeatmapMetric = "quantity"
	HeatmapShipMode     HeatmapMetric = "shipping_mode"
	HeatmapSegment      HeatmapMetric = "segment"
	HeatmapCategory     HeatmapMetric = "category"
	HeatmapPriority     HeatmapMetric = "priority"
)

func (m HeatmapMetric) Valid() bool {
	switch m {
	case HeatmapOrders, HeatmapSales, HeatmapProfit, HeatmapDiscounts,
		HeatmapShippingCost, HeatmapQuantity,
		HeatmapShipMode, HeatmapSegment, HeatmapCategory, HeatmapPriority:
		return true
	}
	return false
}

// Categorical reports whether the metric maps countries to modal-category
// colors instead of a numeric gradient.
func (m HeatmapMetric) Categorical() bool {
	switch m {
	case HeatmapShipMode, HeatmapSegment, HeatmapCategory, HeatmapPriority:
		return true
	}
	return false
}

// CityMetrics accumulates one (country, city) bucket under the active window.
// Buckets are always rebuilt wholesale, never patched.
type CityMetrics struct {
	Orders      int     `json:"orders"`
	Sales       float64 `json:"sales"`
	Profit      float64 `json:"profit"`
	Quantity    int     `json:"quantity"`
	Shipping    float64 `json:"shipping"`
	Discount    float64 `json:"discount"`
	MaxDiscount float64 `json:"max_discount"`
}

// Value returns the raw accumulated field for a metric. Discount is the
// running sum here; averages are a display concern.
func (c *CityMetrics) Value(m CircleMetric) float64 {
	switch m {
	case CircleSales:
		return c.Sales
	case CircleProfit:
		return c.Profit
	case CircleQuantity:
		return float64(c.Quantity)
	case CircleShipping:
		return c.Shipping
	case CircleDiscount:
		return c.Discount
	default:
		return float64(c.Orders)
	}
}

// AvgDiscount is the mean discount across the bucket's orders.
func (c *CityMetrics) AvgDiscount() float64 {
	if c.Orders == 0 {
		return 0
	}
	return c.Discount / float64(c.Orders)
}

// LatLng is a city position from the worldcities index.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Rotation is the current globe orientation in degrees.
type Rotation struct {
	Lambda float64 `json:"lambda"`
	Phi    float64 `json:"phi"`
	Gamma  float64 `json:"gamma"`
}
