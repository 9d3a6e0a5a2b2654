// Package screening filters out supplier pairs that are not worth a full optimization.
package screening

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/vsinha/dualsource/pkg/application/services/demand"
	"github.com/vsinha/dualsource/pkg/application/services/evaluation"
	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/services"
)

// Config holds the screening thresholds
type Config struct {
	MinProfit        float64
	MinCapacityRatio float64
	Draws            int
	Seed             int64
	// OutlierCapSigma caps planning draws the way the estimator does. Zero disables the cap.
	OutlierCapSigma float64
}

// DefaultConfig requires capacity for 70% of planning mean demand and a non-negative quick estimate
func DefaultConfig() Config {
	return Config{
		MinProfit:        0,
		MinCapacityRatio: 0.7,
		Draws:            200,
		Seed:             42,
	}
}

// Verdict is the screening outcome for one pair
type Verdict struct {
	Pair            entities.SupplierPair
	Promising       bool
	EstimatedProfit float64
	CapacityRatio   float64
	Reason          string
}

// Screener gives a quick estimate of a pair's profit potential from planning-time demand.
// It is stateless and safe for concurrent use.
type Screener struct {
	evaluator *evaluation.Evaluator
	planning  entities.DemandDistribution
	config    Config
	logger    *zap.Logger
}

// NewScreener creates a screener over the planning demand distribution
func NewScreener(evaluator *evaluation.Evaluator, planning entities.DemandDistribution, config Config, logger *zap.Logger) (*Screener, error) {
	if config.Draws <= 0 {
		return nil, fmt.Errorf("%w: screening draws must be positive, got %d", entities.ErrConfiguration, config.Draws)
	}
	if config.MinCapacityRatio < 0 {
		return nil, fmt.Errorf("%w: min capacity ratio cannot be negative, got %g", entities.ErrConfiguration, config.MinCapacityRatio)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{
		evaluator: evaluator,
		planning:  planning,
		config:    config,
		logger:    logger.Named("screening"),
	}, nil
}

// Screen evaluates the forecast plan for pair against planning-demand draws and
// checks that the pair's combined capacity can cover enough of the planning mean
func (s *Screener) Screen(pair entities.SupplierPair) Verdict {
	verdict := Verdict{Pair: pair, CapacityRatio: math.Inf(1)}

	capacity := float64(pair.Base.Capacity + pair.Surge.Capacity)
	if s.planning.Mean > 0 {
		verdict.CapacityRatio = capacity / s.planning.Mean
	}

	plan := services.ForecastPlan(pair, s.planning)
	sampler := s.newSampler()
	var total float64
	for i := 0; i < s.config.Draws; i++ {
		total += s.evaluator.EvaluateUnchecked(pair, plan, sampler.DrawPlanning()).Profit
	}
	verdict.EstimatedProfit = total / float64(s.config.Draws)

	switch {
	case verdict.CapacityRatio < s.config.MinCapacityRatio:
		verdict.Reason = fmt.Sprintf("combined capacity %.0f covers %.2f of planning mean demand, below %.2f",
			capacity, verdict.CapacityRatio, s.config.MinCapacityRatio)
	case verdict.EstimatedProfit < s.config.MinProfit:
		verdict.Reason = fmt.Sprintf("estimated profit %.2f below threshold %.2f",
			verdict.EstimatedProfit, s.config.MinProfit)
	default:
		verdict.Promising = true
	}

	s.logger.Debug("screened pair",
		zap.String("pair", pair.Key()),
		zap.Bool("promising", verdict.Promising),
		zap.Float64("estimated_profit", verdict.EstimatedProfit),
		zap.Float64("capacity_ratio", verdict.CapacityRatio),
	)
	return verdict
}

// newSampler draws planning demand with the same cap the estimator applies
func (s *Screener) newSampler() *demand.Sampler {
	return demand.NewSampler(s.planning, s.planning, s.config.Seed, demand.WithOutlierCap(s.config.OutlierCapSigma))
}
