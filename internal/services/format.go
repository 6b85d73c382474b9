package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency renders a dollar amount with thousands grouping and two
// decimals, keeping the sign outside the dollar sign (-$12.34).
func FormatCurrency(value float64) string {
	abs := math.Abs(value)
	formatted := groupThousands(fmt.Sprintf("%.2f", abs))
	if value < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// FormatNumber renders a count rounded to the nearest integer with thousands
// grouping.
func FormatNumber(value float64) string {
	return groupThousands(strconv.FormatInt(int64(math.Round(value)), 10))
}

// FormatPercent renders a 0..1 fraction as a percentage with one decimal.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// groupThousands inserts commas into the integer part of a plain decimal
// string.
func groupThousands(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	n := len(intPart)
	if n <= 3 {
		if hasFrac {
			return intPart + "." + fracPart
		}
		return intPart
	}

	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(intPart[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
