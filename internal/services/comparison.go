package services

import (
	"fmt"
	"math"

	"superstore-map/internal/models"
)

// Comparison thresholds. Every threshold is a relative percentage except the
// discount one, which is an absolute percentage-point difference.
const (
	orderCountThreshold    = 10.0
	avgSalesThreshold      = 15.0
	avgProfitThreshold     = 20.0
	avgShippingThreshold   = 10.0
	discountThreshold      = 5.0
	salesVsGlobalThreshold = 20.0
)

// CalculateCountryStats aggregates every order whose normalized country name
// matches. Returns nil when nothing matches; a country with no data cannot be
// compared, and the caller must handle absence.
func CalculateCountryStats(orders []models.Order, countryName string) *models.CountryStats {
	shipModes := models.NewCategoryTally()
	segments := models.NewCategoryTally()
	categories := models.NewCategoryTally()
	priorities := models.NewCategoryTally()

	var count, totalQuantity int
	var totalSales, totalProfit, totalDiscount, totalShipping float64

	for i := range orders {
		order := &orders[i]
		if NormalizeCountryName(order.Country) != countryName {
			continue
		}

		count++
		totalSales += order.Sales
		totalProfit += order.Profit
		totalDiscount += order.Discount
		totalShipping += order.ShippingCost
		totalQuantity += order.Quantity

		shipModes.Add(order.ShipMode)
		segments.Add(order.Segment)
		categories.Add(order.Category)
		priorities.Add(order.OrderPriority)
	}

	if count == 0 {
		return nil
	}

	n := float64(count)
	return &models.CountryStats{
		Country:         countryName,
		Orders:          count,
		TotalSales:      totalSales,
		AvgSales:        totalSales / n,
		TotalProfit:     totalProfit,
		AvgProfit:       totalProfit / n,
		AvgDiscount:     totalDiscount / n,
		TotalQuantity:   totalQuantity,
		AvgShippingCost: totalShipping / n,
		TopShipMode:     shipModes.Top(),
		TopSegment:      segments.Top(),
		TopCategory:     categories.Top(),
		TopPriority:     priorities.Top(),
	}
}

// CalculateGlobalStats aggregates the full order set. Categorical fields stay
// blank: a modal value over the whole dataset is not meaningful for the
// narrative generator.
func CalculateGlobalStats(orders []models.Order) *models.CountryStats {
	var totalQuantity int
	var totalSales, totalProfit, totalDiscount, totalShipping float64

	for i := range orders {
		order := &orders[i]
		totalSales += order.Sales
		totalProfit += order.Profit
		totalDiscount += order.Discount
		totalShipping += order.ShippingCost
		totalQuantity += order.Quantity
	}

	stats := &models.CountryStats{
		Country:       "Global Average",
		Orders:        len(orders),
		TotalSales:    totalSales,
		TotalProfit:   totalProfit,
		TotalQuantity: totalQuantity,
	}
	if len(orders) > 0 {
		n := float64(len(orders))
		stats.AvgSales = totalSales / n
		stats.AvgProfit = totalProfit / n
		stats.AvgDiscount = totalDiscount / n
		stats.AvgShippingCost = totalShipping / n
	}
	return stats
}

// Compare builds the full comparison between two (unnormalized) country
// names. Returns nil if either country has no matching orders.
func Compare(orders []models.Order, country1, country2 string) *models.ComparisonSummary {
	name1 := NormalizeCountryName(country1)
	name2 := NormalizeCountryName(country2)

	stats1 := CalculateCountryStats(orders, name1)
	stats2 := CalculateCountryStats(orders, name2)
	if stats1 == nil || stats2 == nil {
		return nil
	}

	global := CalculateGlobalStats(orders)

	return &models.ComparisonSummary{
		Country1:  name1,
		Country2:  name2,
		Sentences: GenerateComparisonSentences(stats1, stats2, global),
		Stats1:    stats1,
		Stats2:    stats2,
		GlobalAvg: global,
	}
}

// GenerateComparisonSentences produces the ordered narrative. Each candidate
// sentence is gated by its own threshold; if none trigger, exactly one
// similarity fallback sentence is emitted so the list is never empty.
func GenerateComparisonSentences(stats1, stats2, globalAvg *models.CountryStats) []string {
	var sentences []string

	orderDiff := relativeDiff(float64(stats1.Orders), float64(stats2.Orders))
	if math.Abs(orderDiff) > orderCountThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"%s has %.0f%% %s orders than %s (%s vs %s).",
			stats1.Country, math.Abs(orderDiff), moreOrFewer(orderDiff), stats2.Country,
			FormatNumber(float64(stats1.Orders)), FormatNumber(float64(stats2.Orders)),
		))
	}

	salesDiff := relativeDiff(stats1.AvgSales, stats2.AvgSales)
	if math.Abs(salesDiff) > avgSalesThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"%s's average order value is %.0f%% %s than %s (%s vs %s).",
			stats1.Country, math.Abs(salesDiff), higherOrLower(salesDiff), stats2.Country,
			FormatCurrency(stats1.AvgSales), FormatCurrency(stats2.AvgSales),
		))
	}

	profitDiff := relativeDiff(stats1.AvgProfit, stats2.AvgProfit)
	if math.Abs(profitDiff) > avgProfitThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"%s generates %.0f%% %s profit per order compared to %s.",
			stats1.Country, math.Abs(profitDiff), moreOrLess(profitDiff), stats2.Country,
		))
	}

	shippingDiff := relativeDiff(stats1.AvgShippingCost, stats2.AvgShippingCost)
	if math.Abs(shippingDiff) > avgShippingThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"Shipping costs in %s are %.0f%% %s than %s (%s vs %s).",
			stats1.Country, math.Abs(shippingDiff), higherOrLower(shippingDiff), stats2.Country,
			FormatCurrency(stats1.AvgShippingCost), FormatCurrency(stats2.AvgShippingCost),
		))
	}

	// absolute percentage-point difference, unlike the relative gates above
	discountDiff := (stats1.AvgDiscount - stats2.AvgDiscount) * 100
	if math.Abs(discountDiff) > discountThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"%s offers %.1f%% %s average discounts than %s.",
			stats1.Country, math.Abs(discountDiff), higherOrLower(discountDiff), stats2.Country,
		))
	}

	salesVsGlobal := relativeDiff(stats1.AvgSales, globalAvg.AvgSales)
	if math.Abs(salesVsGlobal) > salesVsGlobalThreshold {
		sentences = append(sentences, fmt.Sprintf(
			"Compared to the global average, %s has %.0f%% %s average sales per order.",
			stats1.Country, math.Abs(salesVsGlobal), higherOrLower(salesVsGlobal),
		))
	}

	if stats1.TopCategory != stats2.TopCategory {
		sentences = append(sentences, fmt.Sprintf(
			"%s primarily orders %s, while %s prefers %s.",
			stats1.Country, stats1.TopCategory, stats2.Country, stats2.TopCategory,
		))
	}

	if stats1.TopShipMode != stats2.TopShipMode {
		sentences = append(sentences, fmt.Sprintf(
			"The most common shipping method in %s is %s, compared to %s in %s.",
			stats1.Country, stats1.TopShipMode, stats2.TopShipMode, stats2.Country,
		))
	}

	if len(sentences) == 0 {
		sentences = append(sentences, fmt.Sprintf(
			"%s and %s have relatively similar performance metrics across most categories.",
			stats1.Country, stats2.Country,
		))
	}

	return sentences
}

func relativeDiff(a, b float64) float64 {
	return (a - b) / b * 100
}

func moreOrFewer(diff float64) string {
	if diff > 0 {
		return "more"
	}
	return "fewer"
}

func moreOrLess(diff float64) string {
	if diff > 0 {
		return "more"
	}
	return "less"
}

func higherOrLower(diff float64) string {
	if diff > 0 {
		return "higher"
	}
	return "lower"
}
