package domain

// MeasurementConversion is the result of one unit conversion. Factor is
// the multiplier that maps Amount to Result and is always positive;
// Density is the g/ml value used for volume-weight conversions, 0 when
// no density was involved.
type MeasurementConversion struct {
	Amount     float64
	FromUnit   string
	ToUnit     string
	Result     float64
	Factor     float64
	Ingredient string
	Density    float64
}
