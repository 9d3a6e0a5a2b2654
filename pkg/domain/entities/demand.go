package entities

import "fmt"

// DemandDistribution parameterizes a normal demand distribution truncated at zero
type DemandDistribution struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Validate rejects a negative standard deviation. A zero deviation degenerates to a constant.
func (d DemandDistribution) Validate() error {
	if d.StdDev < 0 {
		return fmt.Errorf("%w: demand std dev cannot be negative, got %g", ErrConfiguration, d.StdDev)
	}
	return nil
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is not positive
func (d DemandDistribution) CoefficientOfVariation() float64 {
	if d.Mean <= 0 {
		return 0
	}
	return d.StdDev / d.Mean
}
