package measure

import (
	"fmt"
	"math"
)

// fractionTolerance is how close the fractional part must be to a
// culinary fraction to snap to it.
const fractionTolerance = 0.05

// culinary fractions in ascending order.
var fractions = []struct {
	value float64
	glyph string
}{
	{0.25, "1/4"},
	{1.0 / 3.0, "1/3"},
	{0.5, "1/2"},
	{2.0 / 3.0, "2/3"},
	{0.75, "3/4"},
}

// FormatAmount renders an amount the way a recipe card would: whole
// numbers plain, common fractions as fractions ("1/4 cup", "1 1/3 cup"),
// everything else with one decimal. Countables (empty unit) come out
// as the bare number.
func FormatAmount(amount float64, unit string) string {
	n := numberString(amount)
	if unit == "" {
		return n
	}
	return n + " " + unit
}

func numberString(amount float64) string {
	rounded := math.Round(amount)
	if rounded >= 1 && math.Abs(amount-rounded) < fractionTolerance {
		return fmt.Sprintf("%d", int(rounded))
	}

	whole := int(math.Floor(amount))
	frac := amount - math.Floor(amount)
	for _, f := range fractions {
		if math.Abs(frac-f.value) < fractionTolerance {
			if whole == 0 {
				return f.glyph
			}
			return fmt.Sprintf("%d %s", whole, f.glyph)
		}
	}

	return fmt.Sprintf("%.1f", amount)
}
