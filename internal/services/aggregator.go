package services

import (
	"superstore-map/internal/models"
)

// CityBuckets maps country → city → accumulated metrics for the circle layer.
type CityBuckets map[string]map[string]*models.CityMetrics

// AggregateCities buckets orders into per-city metric accumulators in a single
// pass. Orders outside the window are skipped. The result replaces any previous
// bucket set wholesale; callers holding the old map keep a consistent snapshot.
func AggregateCities(orders []models.Order, window models.DateWindow) CityBuckets {
	out := make(CityBuckets)

	for i := range orders {
		order := &orders[i]
		if !window.Contains(order.OrderDate) {
			continue
		}

		cities := out[order.Country]
		if cities == nil {
			cities = make(map[string]*models.CityMetrics)
			out[order.Country] = cities
		}
		metrics := cities[order.City]
		if metrics == nil {
			metrics = &models.CityMetrics{}
			cities[order.City] = metrics
		}

		metrics.Orders++
		metrics.Sales += order.Sales
		metrics.Profit += order.Profit
		metrics.Quantity += order.Quantity
		metrics.Shipping += order.ShippingCost
		metrics.Discount += order.Discount
		if order.Discount > metrics.MaxDiscount {
			metrics.MaxDiscount = order.Discount
		}
	}

	return out
}

// TotalOrders sums the order counts across every city bucket.
func (b CityBuckets) TotalOrders() int {
	total := 0
	for _, cities := range b {
		for _, m := range cities {
			total += m.Orders
		}
	}
	return total
}

// Values collects the metric's raw value from every city bucket.
func (b CityBuckets) Values(metric models.CircleMetric) []float64 {
	values := make([]float64, 0, 256)
	for _, cities := range b {
		for _, m := range cities {
			values = append(values, m.Value(metric))
		}
	}
	return values
}

// Lookup returns the bucket for a (country, city) pair, or nil.
func (b CityBuckets) Lookup(country, city string) *models.CityMetrics {
	cities := b[country]
	if cities == nil {
		return nil
	}
	return cities[city]
}

// CountryBuckets maps normalized country names to heatmap aggregates.
type CountryBuckets map[string]*models.CountryBucket

// AggregateCountries buckets orders into per-country heatmap aggregates.
// Country names are normalized to the map feature names so the fill join
// works. Value lists are retained because the discount and shipping metrics
// need means, not sums.
func AggregateCountries(orders []models.Order, window models.DateWindow) CountryBuckets {
	out := make(CountryBuckets)

	for i := range orders {
		order := &orders[i]
		if !window.Contains(order.OrderDate) {
			continue
		}

		name := NormalizeCountryName(order.Country)
		bucket := out[name]
		if bucket == nil {
			bucket = models.NewCountryBucket()
			out[name] = bucket
		}

		bucket.Orders++
		bucket.Quantity += order.Quantity
		bucket.Sales = append(bucket.Sales, order.Sales)
		bucket.Profit = append(bucket.Profit, order.Profit)
		bucket.Discount = append(bucket.Discount, order.Discount)
		bucket.Shipping = append(bucket.Shipping, order.ShippingCost)

		bucket.ShipModes.Add(order.ShipMode)
		bucket.Segments.Add(order.Segment)
		bucket.Category.Add(order.Category)
		bucket.Priority.Add(order.OrderPriority)
	}

	return out
}
