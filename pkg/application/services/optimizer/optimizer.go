// Package optimizer searches order quantities for one supplier pair by projected
// gradient ascent on a noisy expected-profit oracle.
package optimizer

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// Oracle estimates the profit distribution of a plan. Identical (plan, seed)
// must return an identical distribution.
type Oracle interface {
	Estimate(ctx context.Context, plan entities.OrderPlan, seed int64) (entities.ProfitDistribution, error)
}

// Config holds the optimizer tuning
type Config struct {
	LearningRate      float64
	Epsilon           float64
	Tolerance         float64
	MaxIterations     int
	StallIterations   int
	MinImprovement    float64
	StepDecay         float64
	SearchSimulations int
	FinalSimulations  int
	Seed              int64
}

// DefaultConfig returns tuning that suits season-scale quantities (tens of thousands of units)
func DefaultConfig() Config {
	return Config{
		LearningRate:      400,
		Epsilon:           100,
		Tolerance:         1,
		MaxIterations:     200,
		StallIterations:   10,
		MinImprovement:    1,
		StepDecay:         0.5,
		SearchSimulations: 500,
		FinalSimulations:  5000,
		Seed:              42,
	}
}

// Validate checks the tuning values
func (c Config) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive, got %g", entities.ErrConfiguration, c.LearningRate)
	case c.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon must be positive, got %g", entities.ErrConfiguration, c.Epsilon)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance cannot be negative, got %g", entities.ErrConfiguration, c.Tolerance)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", entities.ErrConfiguration, c.MaxIterations)
	case c.StallIterations <= 0:
		return fmt.Errorf("%w: stall iterations must be positive, got %d", entities.ErrConfiguration, c.StallIterations)
	case c.MinImprovement < 0:
		return fmt.Errorf("%w: min improvement cannot be negative, got %g", entities.ErrConfiguration, c.MinImprovement)
	case c.StepDecay <= 0 || c.StepDecay > 1:
		return fmt.Errorf("%w: step decay must be in (0,1], got %g", entities.ErrConfiguration, c.StepDecay)
	case c.SearchSimulations <= 0:
		return fmt.Errorf("%w: search simulations must be positive, got %d", entities.ErrConfiguration, c.SearchSimulations)
	case c.FinalSimulations <= c.SearchSimulations:
		return fmt.Errorf("%w: final simulations (%d) must exceed search simulations (%d)",
			entities.ErrConfiguration, c.FinalSimulations, c.SearchSimulations)
	}
	return nil
}

// Optimizer runs projected gradient ascent. It holds no per-run state and may be
// shared across goroutines.
type Optimizer struct {
	config Config
	logger *zap.Logger
}

// New creates an optimizer with validated tuning
func New(config Config, logger *zap.Logger) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{config: config, logger: logger.Named("optimizer")}, nil
}

// Config returns the tuning in use
func (o *Optimizer) Config() Config {
	return o.config
}

// Optimize climbs expected profit from initial. The search oracle is used for every
// gradient and step estimate; the final oracle runs one high-fidelity pass on the best plan.
func (o *Optimizer) Optimize(
	ctx context.Context,
	pair entities.SupplierPair,
	initial entities.OrderPlan,
	search Oracle,
	final Oracle,
) (*entities.OptimizationResult, error) {
	if err := initial.Validate(pair); err != nil {
		return nil, fmt.Errorf("invalid starting plan: %w", err)
	}
	bounds := entities.Bounds(pair)
	x := initial.Vector()
	logger := o.logger.With(zap.String("pair", pair.Key()))

	result := &entities.OptimizationResult{Pair: pair}

	if bounds == [3]float64{} {
		result.Termination = entities.TerminationDegenerate
		logger.Info("degenerate feasible region, skipping search")
		return o.finish(ctx, result, entities.PlanFromVector(x), math.NaN(), final)
	}

	rate := o.config.LearningRate
	stalls := 0
	searchMean := math.NaN()
	result.Termination = entities.TerminationMaxIterations

	for k := 0; k < o.config.MaxIterations; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seed := o.config.Seed + int64(k)
		result.IterationsRun = k + 1

		baseline, err := search.Estimate(ctx, entities.PlanFromVector(x), seed)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate baseline at iteration %d: %w", k, err)
		}
		searchMean = baseline.Mean

		grad, err := o.gradient(ctx, search, x, bounds, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gradient at iteration %d: %w", k, err)
		}
		norm := floats.Norm(grad[:], 2)
		if norm < o.config.Tolerance {
			result.Termination = entities.TerminationConverged
			break
		}

		var step [3]float64
		for i := range step {
			step[i] = x[i] + rate*grad[i]
		}
		candidate, candidateMean, err := o.bestVariant(ctx, search, entities.PlanFromVector(project(step, bounds)), seed)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate step at iteration %d: %w", k, err)
		}

		improvement := candidateMean - baseline.Mean
		logger.Debug("iteration",
			zap.Int("iteration", k),
			zap.Float64("mean_profit", baseline.Mean),
			zap.Float64("gradient_norm", norm),
			zap.Float64("learning_rate", rate),
			zap.Float64("improvement", improvement),
		)

		if improvement > o.config.MinImprovement {
			x = candidate.Vector()
			searchMean = candidateMean
			stalls = 0
			continue
		}

		rate *= o.config.StepDecay
		stalls++
		if stalls >= o.config.StallIterations {
			result.Termination = entities.TerminationStalled
			break
		}
	}

	logger.Info("search finished",
		zap.String("termination", string(result.Termination)),
		zap.Int("iterations", result.IterationsRun),
	)
	return o.finish(ctx, result, entities.PlanFromVector(x), searchMean, final)
}

// gradient estimates each coordinate by symmetric finite differences under one seed.
// Perturbations are clipped to the feasible range and divided by the actual span.
func (o *Optimizer) gradient(ctx context.Context, search Oracle, x, bounds [3]float64, seed int64) ([3]float64, error) {
	var grad [3]float64
	for i := range x {
		hi := math.Min(x[i]+o.config.Epsilon, bounds[i])
		lo := math.Max(x[i]-o.config.Epsilon, 0)
		span := hi - lo
		if span <= 0 {
			continue
		}

		up, down := x, x
		up[i], down[i] = hi, lo
		upDist, err := search.Estimate(ctx, entities.PlanFromVector(up), seed)
		if err != nil {
			return grad, err
		}
		downDist, err := search.Estimate(ctx, entities.PlanFromVector(down), seed)
		if err != nil {
			return grad, err
		}
		grad[i] = (upDist.Mean - downDist.Mean) / span
	}
	return grad, nil
}

// bestVariant compares a plan that revises its surge order with the hold variant
// that keeps the provisional order, and returns the better of the two.
func (o *Optimizer) bestVariant(ctx context.Context, search Oracle, plan entities.OrderPlan, seed int64) (entities.OrderPlan, float64, error) {
	dist, err := search.Estimate(ctx, plan, seed)
	if err != nil {
		return plan, 0, err
	}
	if !plan.ExercisesChange() {
		return plan, dist.Mean, nil
	}

	hold := plan.WithoutChange()
	holdDist, err := search.Estimate(ctx, hold, seed)
	if err != nil {
		return plan, 0, err
	}
	if holdDist.Mean >= dist.Mean {
		return hold, holdDist.Mean, nil
	}
	return plan, dist.Mean, nil
}

func (o *Optimizer) finish(
	ctx context.Context,
	result *entities.OptimizationResult,
	best entities.OrderPlan,
	searchMean float64,
	final Oracle,
) (*entities.OptimizationResult, error) {
	dist, err := final.Estimate(ctx, best, o.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed final estimate: %w", err)
	}
	result.BestPlan = best
	result.ProfitDistribution = dist
	result.SearchMeanProfit = searchMean
	if math.IsNaN(searchMean) {
		result.SearchMeanProfit = dist.Mean
	}

	if best.SurgeAdjustedQty > 0 || best.SurgeInitialQty > 0 {
		noSurge, err := final.Estimate(ctx, best.WithoutSurge(), o.config.Seed)
		if err != nil {
			return nil, fmt.Errorf("failed no-surge estimate: %w", err)
		}
		result.OptionValue = dist.Mean - noSurge.Mean
	}
	return result, nil
}

func project(v, bounds [3]float64) [3]float64 {
	for i := range v {
		v[i] = math.Max(0, math.Min(v[i], bounds[i]))
	}
	return v
}
