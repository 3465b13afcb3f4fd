// Package measure implements kitchen measurement conversions: unit and
// density math, temperature formulas, recipe scaling, and display
// formatting for amounts.
package measure

import "strings"

// unitCategory classifies a unit for compatibility checks.
type unitCategory int

const (
	categoryUnknown unitCategory = iota
	categoryVolume
	categoryWeight
	categoryTemperature
)

// String returns a human-readable category name for error messages.
func (c unitCategory) String() string {
	switch c {
	case categoryVolume:
		return "volume"
	case categoryWeight:
		return "weight"
	case categoryTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// volumeToML maps canonical volume units to milliliters.
var volumeToML = map[string]float64{
	"ml":         1,
	"l":          1000,
	"teaspoon":   4.92892,
	"tablespoon": 14.7868,
	"fl oz":      29.5735,
	"cup":        236.588,
	"pint":       473.176,
	"quart":      946.353,
	"gallon":     3785.41,
}

// weightToG maps canonical weight units to grams.
var weightToG = map[string]float64{
	"mg": 0.001,
	"g":  1,
	"kg": 1000,
	"oz": 28.3495,
	"lb": 453.592,
}

// temperatureUnits holds the canonical temperature unit names.
var temperatureUnits = map[string]bool{
	"celsius":    true,
	"fahrenheit": true,
	"kelvin":     true,
}

// unitAliases maps accepted spellings to their canonical unit.
// Canonical names resolve through the tables directly, so only
// alternates need an entry.
var unitAliases = map[string]string{}

func init() {
	alias := func(canon string, names ...string) {
		for _, n := range names {
			unitAliases[n] = canon
		}
	}

	alias("ml", "milliliter", "milliliters", "millilitre", "millilitres")
	alias("l", "liter", "liters", "litre", "litres")
	alias("teaspoon", "tsp", "teaspoons")
	alias("tablespoon", "tbsp", "tbs", "tablespoons")
	alias("fl oz", "floz", "fluid ounce", "fluid ounces")
	alias("cup", "cups")
	alias("pint", "pints", "pt")
	alias("quart", "quarts", "qt")
	alias("gallon", "gallons", "gal")

	alias("mg", "milligram", "milligrams")
	alias("g", "gram", "grams")
	alias("kg", "kilogram", "kilograms", "kilo", "kilos")
	alias("oz", "ounce", "ounces")
	alias("lb", "lbs", "pound", "pounds")

	alias("celsius", "c", "°c", "centigrade", "deg c", "degrees c", "degrees celsius")
	alias("fahrenheit", "f", "°f", "deg f", "degrees f", "degrees fahrenheit")
	alias("kelvin", "k", "degrees kelvin")
}

// normalizeUnit lowercases, trims, collapses inner whitespace, and
// resolves aliases to the canonical unit name. Unknown units come back
// normalized but unresolved.
func normalizeUnit(unit string) string {
	key := strings.Join(strings.Fields(strings.ToLower(unit)), " ")
	if canon, ok := unitAliases[key]; ok {
		return canon
	}
	return key
}

// categoryOf reports the category of a canonical unit name.
func categoryOf(canon string) unitCategory {
	if _, ok := volumeToML[canon]; ok {
		return categoryVolume
	}
	if _, ok := weightToG[canon]; ok {
		return categoryWeight
	}
	if temperatureUnits[canon] {
		return categoryTemperature
	}
	return categoryUnknown
}

// IsVolumeUnit reports whether the unit names a known volume.
func IsVolumeUnit(unit string) bool {
	return categoryOf(normalizeUnit(unit)) == categoryVolume
}

// IsWeightUnit reports whether the unit names a known weight.
func IsWeightUnit(unit string) bool {
	return categoryOf(normalizeUnit(unit)) == categoryWeight
}

// IsTemperatureUnit reports whether the unit names a temperature scale.
func IsTemperatureUnit(unit string) bool {
	return categoryOf(normalizeUnit(unit)) == categoryTemperature
}
