// Package montecarlo estimates the profit distribution of an order plan under demand uncertainty.
package montecarlo

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/dualsource/pkg/application/services/demand"
	"github.com/vsinha/dualsource/pkg/application/services/evaluation"
	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// ChunkSize is the number of scenarios drawn from one seeded sampler.
// Chunk i is seeded with seed+i, so results never depend on the worker count.
const ChunkSize = 128

// Estimator runs Monte Carlo passes over realized demand. It is safe for concurrent use.
type Estimator struct {
	evaluator  *evaluation.Evaluator
	planning   entities.DemandDistribution
	realized   entities.DemandDistribution
	workers    int
	outlierCap float64
	logger     *zap.Logger
}

// Option configures an Estimator
type Option func(*Estimator)

// WithWorkers bounds the goroutines used by one estimation call
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithOutlierCap caps realized demand draws at mean + sigmas*std
func WithOutlierCap(sigmas float64) Option {
	return func(e *Estimator) {
		e.outlierCap = sigmas
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an estimator over the given demand distributions
func New(evaluator *evaluation.Evaluator, planning, realized entities.DemandDistribution, opts ...Option) *Estimator {
	e := &Estimator{
		evaluator: evaluator,
		planning:  planning,
		realized:  realized,
		workers:   runtime.GOMAXPROCS(0),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("montecarlo")
	return e
}

// Evaluator returns the scenario evaluator used for every draw
func (e *Estimator) Evaluator() *evaluation.Evaluator {
	return e.evaluator
}

// Planning returns the planning-time demand distribution
func (e *Estimator) Planning() entities.DemandDistribution {
	return e.planning
}

// Realized returns the realized demand distribution
func (e *Estimator) Realized() entities.DemandDistribution {
	return e.realized
}

// NewSampler returns a demand sampler configured like the estimator's own
func (e *Estimator) NewSampler(seed int64) *demand.Sampler {
	return demand.NewSampler(e.planning, e.realized, seed, demand.WithOutlierCap(e.outlierCap))
}

// Estimate draws numSimulations realized-demand scenarios for the plan and aggregates the profits.
// Identical (pair, plan, numSimulations, seed) always yield an identical distribution.
func (e *Estimator) Estimate(
	ctx context.Context,
	pair entities.SupplierPair,
	plan entities.OrderPlan,
	numSimulations int,
	seed int64,
) (entities.ProfitDistribution, error) {
	if numSimulations <= 0 {
		return entities.ProfitDistribution{}, fmt.Errorf("%w: simulation count must be positive, got %d",
			entities.ErrContractViolation, numSimulations)
	}
	if err := plan.Validate(pair); err != nil {
		return entities.ProfitDistribution{}, err
	}

	profits := make([]float64, numSimulations)
	chunks := (numSimulations + ChunkSize - 1) / ChunkSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < chunks; i++ {
		start := i * ChunkSize
		end := min(start+ChunkSize, numSimulations)
		chunkSeed := seed + int64(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sampler := e.NewSampler(chunkSeed)
			for j := start; j < end; j++ {
				outcome := e.evaluator.EvaluateUnchecked(pair, plan, sampler.DrawActual())
				profits[j] = outcome.Profit
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entities.ProfitDistribution{}, err
	}

	dist := entities.NewProfitDistribution(profits)
	if ce := e.logger.Check(zap.DebugLevel, "estimated plan"); ce != nil {
		ce.Write(
			zap.String("pair", pair.Key()),
			zap.Float64("base_qty", plan.BaseQty),
			zap.Float64("surge_initial_qty", plan.SurgeInitialQty),
			zap.Float64("surge_adjusted_qty", plan.SurgeAdjustedQty),
			zap.Int("simulations", numSimulations),
			zap.Int64("seed", seed),
			zap.Float64("mean_profit", dist.Mean),
		)
	}
	return dist, nil
}

// Oracle binds an estimator to one pair and sample count
type Oracle struct {
	estimator      *Estimator
	pair           entities.SupplierPair
	numSimulations int
}

// OracleFor returns an oracle estimating plans for pair with numSimulations draws
func (e *Estimator) OracleFor(pair entities.SupplierPair, numSimulations int) *Oracle {
	return &Oracle{estimator: e, pair: pair, numSimulations: numSimulations}
}

// Estimate runs one Monte Carlo pass for plan
func (o *Oracle) Estimate(ctx context.Context, plan entities.OrderPlan, seed int64) (entities.ProfitDistribution, error) {
	return o.estimator.Estimate(ctx, o.pair, plan, o.numSimulations, seed)
}

// Simulations returns the sample count used per estimate
func (o *Oracle) Simulations() int {
	return o.numSimulations
}
