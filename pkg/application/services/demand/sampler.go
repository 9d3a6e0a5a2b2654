// Package demand draws planning-time and realized demand for the season.
package demand

import (
	"math"
	"math/rand"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// Sampler draws non-negative demand from two independent normal distributions.
// A Sampler owns its random source and must not be shared between goroutines.
type Sampler struct {
	planning  entities.DemandDistribution
	realized  entities.DemandDistribution
	rng       *rand.Rand
	capSigmas float64
}

// Option configures a Sampler
type Option func(*Sampler)

// WithOutlierCap caps each draw at mean + sigmas*std. Zero or negative disables the cap.
func WithOutlierCap(sigmas float64) Option {
	return func(s *Sampler) {
		s.capSigmas = sigmas
	}
}

// NewSampler creates a sampler whose draw sequence is fully determined by seed
func NewSampler(planning, realized entities.DemandDistribution, seed int64, opts ...Option) *Sampler {
	s := &Sampler{
		planning: planning,
		realized: realized,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DrawPlanning returns one sample from the planning distribution
func (s *Sampler) DrawPlanning() float64 {
	return s.draw(s.planning)
}

// DrawActual returns one sample from the realized distribution
func (s *Sampler) DrawActual() float64 {
	return s.draw(s.realized)
}

func (s *Sampler) draw(d entities.DemandDistribution) float64 {
	if d.StdDev == 0 {
		return math.Max(d.Mean, 0)
	}
	value := d.Mean + d.StdDev*s.rng.NormFloat64()
	if s.capSigmas > 0 {
		value = math.Min(value, d.Mean+s.capSigmas*d.StdDev)
	}
	return math.Max(value, 0)
}
