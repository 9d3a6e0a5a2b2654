package entities

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ProfitDistribution summarizes the profit samples of one Monte Carlo pass
type ProfitDistribution struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	SampleCount int     `json:"sample_count"`

	sorted []float64
}

// PercentileSummary holds the percentiles reported for every pair
type PercentileSummary struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// NewProfitDistribution builds the distribution from profit samples.
// The slice is sorted in place and retained.
func NewProfitDistribution(profits []float64) ProfitDistribution {
	if len(profits) == 0 {
		return ProfitDistribution{}
	}
	sort.Float64s(profits)
	mean, variance := stat.PopMeanVariance(profits, nil)
	return ProfitDistribution{
		Mean:        mean,
		StdDev:      math.Sqrt(math.Max(variance, 0)),
		Min:         profits[0],
		Max:         profits[len(profits)-1],
		SampleCount: len(profits),
		sorted:      profits,
	}
}

// Percentile returns the nearest-rank sample at p in [0,100]. p outside the
// range is clamped; NaN yields NaN.
func (d ProfitDistribution) Percentile(p float64) float64 {
	n := len(d.sorted)
	if n == 0 {
		return 0
	}
	if math.IsNaN(p) {
		return math.NaN()
	}
	p = math.Max(0, math.Min(100, p))
	index := int(math.Round(p / 100 * float64(n-1)))
	if index > n-1 {
		index = n - 1
	}
	return d.sorted[index]
}

// Summary returns the standard reporting percentiles
func (d ProfitDistribution) Summary() PercentileSummary {
	return PercentileSummary{
		P10: d.Percentile(10),
		P25: d.Percentile(25),
		P50: d.Percentile(50),
		P75: d.Percentile(75),
		P90: d.Percentile(90),
	}
}

// Samples returns a copy of the sorted profit samples
func (d ProfitDistribution) Samples() []float64 {
	samples := make([]float64, len(d.sorted))
	copy(samples, d.sorted)
	return samples
}
