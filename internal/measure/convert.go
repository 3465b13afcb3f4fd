package measure

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Converter performs unit and density conversions. Results are
// memoized; the zero-configuration converter from New is ready to use.
// Safe for concurrent use.
type Converter struct {
	log       *logger.Logger
	densities map[string]float64
	cache     *conversionCache
}

// Option configures the Converter.
type Option func(*Converter)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Converter) { c.log = log.Named("measure") }
}

// WithDensity adds or overrides an ingredient density (g/ml). Names are
// matched case-insensitively, with substring fallback.
func WithDensity(ingredient string, gramsPerML float64) Option {
	return func(c *Converter) {
		name := strings.TrimSpace(strings.ToLower(ingredient))
		if name != "" && gramsPerML > 0 {
			c.densities[name] = gramsPerML
		}
	}
}

// WithCacheLimit caps the number of memoized conversions. Zero means
// unbounded.
func WithCacheLimit(n int) Option {
	return func(c *Converter) { c.cache = newConversionCache(n) }
}

// New creates a Converter with the default density table.
func New(opts ...Option) *Converter {
	c := &Converter{
		log:       logger.New(logger.LevelOff, nil),
		densities: make(map[string]float64, len(defaultDensities)),
		cache:     newConversionCache(256),
	}
	for name, d := range defaultDensities {
		c.densities[name] = d
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert converts an amount between units. Identical units return the
// amount unchanged with factor 1. Volume-weight crossings use the
// ingredient's density, defaulting to water. Temperature units are
// rejected here because they convert affinely, not by factor; use
// ConvertTemperature.
func (c *Converter) Convert(amount float64, fromUnit, toUnit, ingredient string) (domain.MeasurementConversion, error) {
	from := normalizeUnit(fromUnit)
	to := normalizeUnit(toUnit)
	ing := strings.TrimSpace(strings.ToLower(ingredient))

	if from == to {
		return domain.MeasurementConversion{
			Amount:     amount,
			FromUnit:   from,
			ToUnit:     to,
			Result:     amount,
			Factor:     1,
			Ingredient: ing,
		}, nil
	}

	key := cacheKey(amount, from, to, ing)
	if conv, ok := c.cache.get(key); ok {
		c.log.Debug("cache hit: %s", key)
		return conv, nil
	}

	fromCat := categoryOf(from)
	toCat := categoryOf(to)

	if fromCat == categoryUnknown {
		return domain.MeasurementConversion{}, &domain.ConversionError{
			Amount: amount, FromUnit: fromUnit, ToUnit: toUnit,
			Reason: fmt.Sprintf("unknown unit %q", fromUnit),
		}
	}
	if toCat == categoryUnknown {
		return domain.MeasurementConversion{}, &domain.ConversionError{
			Amount: amount, FromUnit: fromUnit, ToUnit: toUnit,
			Reason: fmt.Sprintf("unknown unit %q", toUnit),
		}
	}
	if fromCat == categoryTemperature || toCat == categoryTemperature {
		reason := fmt.Sprintf("incompatible categories %s and %s", fromCat, toCat)
		if fromCat == toCat {
			reason = "temperatures convert affinely, use ConvertTemperature"
		}
		return domain.MeasurementConversion{}, &domain.ConversionError{
			Amount: amount, FromUnit: fromUnit, ToUnit: toUnit, Reason: reason,
		}
	}

	conv := domain.MeasurementConversion{
		Amount:     amount,
		FromUnit:   from,
		ToUnit:     to,
		Ingredient: ing,
	}

	switch {
	case fromCat == categoryVolume && toCat == categoryVolume:
		conv.Factor = volumeToML[from] / volumeToML[to]
	case fromCat == categoryWeight && toCat == categoryWeight:
		conv.Factor = weightToG[from] / weightToG[to]
	case fromCat == categoryVolume && toCat == categoryWeight:
		conv.Density = c.density(ing)
		conv.Factor = volumeToML[from] * conv.Density / weightToG[to]
	default: // weight -> volume
		conv.Density = c.density(ing)
		conv.Factor = weightToG[from] / (conv.Density * volumeToML[to])
	}
	conv.Result = amount * conv.Factor

	c.cache.put(key, conv)
	c.log.Debug("convert: %g %s -> %g %s (factor %g, density %g)",
		amount, from, conv.Result, to, conv.Factor, conv.Density)
	return conv, nil
}

// ConvertTemperature converts between celsius, fahrenheit, and kelvin
// using the exact affine formulas. Identical units return the value
// unchanged.
func (c *Converter) ConvertTemperature(value float64, fromUnit, toUnit string) (float64, error) {
	from := normalizeUnit(fromUnit)
	to := normalizeUnit(toUnit)

	if !temperatureUnits[from] {
		return 0, &domain.ConversionError{
			Amount: value, FromUnit: fromUnit, ToUnit: toUnit,
			Reason: fmt.Sprintf("%q is not a temperature unit", fromUnit),
		}
	}
	if !temperatureUnits[to] {
		return 0, &domain.ConversionError{
			Amount: value, FromUnit: fromUnit, ToUnit: toUnit,
			Reason: fmt.Sprintf("%q is not a temperature unit", toUnit),
		}
	}

	if from == to {
		return value, nil
	}

	// Pivot through celsius.
	celsius := value
	switch from {
	case "fahrenheit":
		celsius = (value - 32) * 5 / 9
	case "kelvin":
		celsius = value - 273.15
	}

	switch to {
	case "fahrenheit":
		return celsius*9/5 + 32, nil
	case "kelvin":
		return celsius + 273.15, nil
	default:
		return celsius, nil
	}
}

// ScaleRecipe multiplies every ingredient quantity by
// newServings/originalServings. The math runs on decimals so a doubled
// recipe shows 4, not 4.000000000000001. The input slice is untouched.
func (c *Converter) ScaleRecipe(originalServings, newServings int, ingredients []domain.Ingredient) ([]domain.Ingredient, error) {
	if originalServings <= 0 || newServings <= 0 {
		return nil, fmt.Errorf("scale recipe %d -> %d: %w", originalServings, newServings, domain.ErrBadServings)
	}

	ratio := decimal.NewFromInt(int64(newServings)).Div(decimal.NewFromInt(int64(originalServings)))

	scaled := make([]domain.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		scaled[i] = ing
		q, _ := decimal.NewFromFloat(ing.Quantity).Mul(ratio).Float64()
		scaled[i].Quantity = q
	}

	c.log.Debug("scaled %d ingredients %d -> %d servings", len(ingredients), originalServings, newServings)
	return scaled, nil
}

// Unit suggestion thresholds, in base units.
const (
	tablespoonCutoverML = 4 * 14.7868 // a quarter cup; below this, spoons read better
	literCutoverML      = 1000
	kilogramCutoverG    = 1000
	gramCutoverMG       = 1000
)

// SuggestBetterUnit recommends a more readable unit for an amount, or
// reports false when the unit is unknown or already the best fit.
func SuggestBetterUnit(amount float64, unit string) (string, bool) {
	u := normalizeUnit(unit)
	if amount <= 0 {
		return "", false
	}

	var best string
	switch categoryOf(u) {
	case categoryVolume:
		switch ml := amount * volumeToML[u]; {
		case ml < volumeToML["teaspoon"]:
			best = "teaspoon"
		case ml < tablespoonCutoverML:
			best = "tablespoon"
		case ml < literCutoverML:
			best = "cup"
		default:
			best = "liter"
		}
	case categoryWeight:
		switch g := amount * weightToG[u]; {
		case g*1000 < gramCutoverMG:
			best = "milligram"
		case g < kilogramCutoverG:
			best = "gram"
		default:
			best = "kilogram"
		}
	default:
		return "", false
	}

	if normalizeUnit(best) == u {
		return "", false
	}
	return best, true
}

// ClearCache empties the conversion memo.
func (c *Converter) ClearCache() {
	c.cache.clear()
	c.log.Debug("conversion cache cleared")
}

// CacheLen returns the number of memoized conversions.
func (c *Converter) CacheLen() int {
	return c.cache.len()
}

// CacheStats returns cache hit and miss counts.
func (c *Converter) CacheStats() (hits, misses int64) {
	return c.cache.stats()
}
