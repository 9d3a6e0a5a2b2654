package entities

import (
	"math"
	"testing"
)

func TestProfitDistribution_Statistics(t *testing.T) {
	dist := NewProfitDistribution([]float64{5, 1, 4, 2, 3})

	if dist.SampleCount != 5 {
		t.Fatalf("Expected 5 samples, got %d", dist.SampleCount)
	}
	if dist.Mean != 3 {
		t.Errorf("Expected mean 3, got %g", dist.Mean)
	}
	if math.Abs(dist.StdDev-math.Sqrt2) > 1e-12 {
		t.Errorf("Expected population std dev sqrt(2), got %g", dist.StdDev)
	}
	if dist.Min != 1 || dist.Max != 5 {
		t.Errorf("Expected range [1,5], got [%g,%g]", dist.Min, dist.Max)
	}

	percentiles := []struct {
		p        float64
		expected float64
	}{
		{0, 1},
		{10, 1},
		{25, 2},
		{50, 3},
		{90, 5},
		{100, 5},
		{150, 5},
		{-10, 1},
	}
	for _, tc := range percentiles {
		if got := dist.Percentile(tc.p); got != tc.expected {
			t.Errorf("Percentile(%g): expected %g, got %g", tc.p, tc.expected, got)
		}
	}

	summary := dist.Summary()
	if summary.P50 != 3 || summary.P25 != 2 || summary.P75 != 4 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestProfitDistribution_ConstantSamples(t *testing.T) {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = 6890000
	}
	dist := NewProfitDistribution(samples)
	if dist.StdDev != 0 {
		t.Errorf("Expected zero std dev for constant samples, got %g", dist.StdDev)
	}
	if dist.Mean != 6890000 {
		t.Errorf("Expected mean 6890000, got %g", dist.Mean)
	}
}

func TestProfitDistribution_Empty(t *testing.T) {
	dist := NewProfitDistribution(nil)
	if dist.SampleCount != 0 || dist.Percentile(50) != 0 {
		t.Errorf("Expected zero-valued distribution, got %+v", dist)
	}
}

func TestProfitDistribution_SamplesAreCopied(t *testing.T) {
	dist := NewProfitDistribution([]float64{3, 1, 2})

	samples := dist.Samples()
	if len(samples) != 3 || samples[0] != 1 || samples[2] != 3 {
		t.Fatalf("Expected sorted samples [1 2 3], got %v", samples)
	}
	samples[0] = 100
	if dist.Percentile(0) != 1 {
		t.Errorf("Expected distribution to be unaffected by caller mutation")
	}
}

func TestProfitDistribution_PercentileNaN(t *testing.T) {
	dist := NewProfitDistribution([]float64{5, 1, 4, 2, 3})
	if got := dist.Percentile(math.NaN()); !math.IsNaN(got) {
		t.Errorf("Percentile(NaN): expected NaN, got %g", got)
	}
	if got := dist.Percentile(math.Inf(1)); got != 5 {
		t.Errorf("Percentile(+Inf): expected 5, got %g", got)
	}
	if got := dist.Percentile(math.Inf(-1)); got != 1 {
		t.Errorf("Percentile(-Inf): expected 1, got %g", got)
	}
}
