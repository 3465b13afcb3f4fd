package measure

import (
	"sort"
	"strings"
)

// waterDensity is the fallback when an ingredient is unknown.
const waterDensity = 1.0

// defaultDensities lists approximate culinary densities in g/ml. The
// table is intentionally coarse: cup-to-gram answers in a kitchen are
// good to a few percent at best.
var defaultDensities = map[string]float64{
	"water":          1.0,
	"milk":           1.03,
	"heavy cream":    1.01,
	"yogurt":         1.04,
	"flour":          0.53,
	"bread flour":    0.55,
	"cornstarch":     0.64,
	"cocoa powder":   0.52,
	"sugar":          0.85,
	"brown sugar":    0.93,
	"powdered sugar": 0.56,
	"honey":          1.42,
	"maple syrup":    1.32,
	"butter":         0.91,
	"vegetable oil":  0.92,
	"olive oil":      0.92,
	"peanut butter":  1.09,
	"salt":           1.22,
	"rice":           0.85,
	"oats":           0.41,
}

// density resolves an ingredient name to a g/ml density. Exact matches
// win; otherwise the longest table key contained in the name does
// (ties break alphabetically, so lookups are deterministic). Unknown
// or empty ingredients fall back to water.
func (c *Converter) density(ingredient string) float64 {
	name := strings.TrimSpace(strings.ToLower(ingredient))
	if name == "" {
		return waterDensity
	}

	if d, ok := c.densities[name]; ok {
		return d
	}

	best := ""
	for key := range c.densities {
		if !strings.Contains(name, key) {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	if best != "" {
		return c.densities[best]
	}
	return waterDensity
}

// Densities returns the ingredient names the converter knows, sorted.
// Useful for substitution suggestions and help output.
func (c *Converter) Densities() []string {
	names := make([]string, 0, len(c.densities))
	for name := range c.densities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
