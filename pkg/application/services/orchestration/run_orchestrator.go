package orchestration

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/dualsource/pkg/application/dto"
	"github.com/vsinha/dualsource/pkg/application/services/montecarlo"
	"github.com/vsinha/dualsource/pkg/application/services/optimizer"
	"github.com/vsinha/dualsource/pkg/application/services/screening"
	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
	"github.com/vsinha/dualsource/pkg/domain/services"
	"github.com/vsinha/dualsource/pkg/infrastructure/events"
)

// PairOptimizer optimizes one supplier pair from a starting plan
type PairOptimizer interface {
	Optimize(ctx context.Context, pair entities.SupplierPair, initial entities.OrderPlan, search, final optimizer.Oracle) (*entities.OptimizationResult, error)
}

// RunConfig holds the run-level settings
type RunConfig struct {
	LeadTimeThreshold int
	StartStrategy     services.StartStrategy
	Workers           int
	Optimizer         optimizer.Config
}

// RunOrchestrator fans supplier pairs out to the optimizer and gathers the ranked results
type RunOrchestrator struct {
	estimator  *montecarlo.Estimator
	optimizer  PairOptimizer
	config     RunConfig
	validator  *services.SupplierValidator
	screener   *screening.Screener
	eventStore events.EventStore
	runRepo    repositories.RunRepository
	logger     *zap.Logger
}

// Option configures a RunOrchestrator
type Option func(*RunOrchestrator)

// WithEventStore records run events in store
func WithEventStore(store events.EventStore) Option {
	return func(o *RunOrchestrator) {
		o.eventStore = store
	}
}

// WithRunRepository saves every finished run to repo
func WithRunRepository(repo repositories.RunRepository) Option {
	return func(o *RunOrchestrator) {
		o.runRepo = repo
	}
}

// WithScreener skips pairs the screener does not find promising
func WithScreener(screener *screening.Screener) Option {
	return func(o *RunOrchestrator) {
		o.screener = screener
	}
}

// WithPairOptimizer replaces the gradient optimizer built from RunConfig
func WithPairOptimizer(opt PairOptimizer) Option {
	return func(o *RunOrchestrator) {
		o.optimizer = opt
	}
}

// NewRunOrchestrator creates an orchestrator over estimator with validated settings
func NewRunOrchestrator(estimator *montecarlo.Estimator, config RunConfig, logger *zap.Logger, opts ...Option) (*RunOrchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	strategy, err := services.ParseStartStrategy(string(config.StartStrategy))
	if err != nil {
		return nil, err
	}
	config.StartStrategy = strategy
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}

	opt, err := optimizer.New(config.Optimizer, logger)
	if err != nil {
		return nil, err
	}

	o := &RunOrchestrator{
		estimator: estimator,
		optimizer: opt,
		config:    config,
		validator: services.NewSupplierValidator(config.LeadTimeThreshold),
		logger:    logger.Named("orchestrator"),
	}
	for _, option := range opts {
		option(o)
	}
	return o, nil
}

type pairOutcome struct {
	result  *entities.OptimizationResult
	failure *entities.PairFailure
}

// Run validates the suppliers, optimizes every base/surge pair concurrently and
// returns the results ordered by descending mean profit. A pair that fails is
// recorded as infeasible; only configuration errors and cancellation abort the run.
func (o *RunOrchestrator) Run(ctx context.Context, suppliers []entities.Supplier) (*dto.RunResult, error) {
	if err := o.validator.ValidateSuppliers(suppliers).Err(); err != nil {
		return nil, err
	}
	pairs := services.GeneratePairs(suppliers, o.config.LeadTimeThreshold)
	if len(pairs) == 0 {
		return nil, entities.ErrNoFeasiblePairs
	}

	record := &entities.RunRecord{
		ID:         uuid.New(),
		StartedAt:  time.Now(),
		Results:    make([]entities.OptimizationResult, 0, len(pairs)),
		Infeasible: make([]entities.PairFailure, 0),
		Skipped:    make([]entities.PairFailure, 0),
	}
	logger := o.logger.With(zap.String("run_id", record.ID.String()))
	logger.Info("run started", zap.Int("suppliers", len(suppliers)), zap.Int("pairs", len(pairs)))
	o.emit(logger, record.ID, events.NewRunStartedEvent(record.ID, len(suppliers), len(pairs)))

	candidates := make([]entities.SupplierPair, 0, len(pairs))
	for _, pair := range pairs {
		if o.screener != nil {
			if verdict := o.screener.Screen(pair); !verdict.Promising {
				skipped := entities.PairFailure{Pair: pair, Reason: verdict.Reason}
				record.Skipped = append(record.Skipped, skipped)
				logger.Info("pair skipped", zap.String("pair", pair.Key()), zap.String("reason", verdict.Reason))
				o.emit(logger, record.ID, events.NewPairSkippedEvent(record.ID, skipped))
				continue
			}
		}
		candidates = append(candidates, pair)
	}

	outcomes := make([]pairOutcome, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, pair := range candidates {
		i, pair := i, pair
		g.Go(func() error {
			result, err := o.optimizePair(gctx, pair)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failure := entities.PairFailure{Pair: pair, Reason: err.Error()}
				outcomes[i].failure = &failure
				logger.Warn("pair infeasible", zap.String("pair", pair.Key()), zap.Error(err))
				o.emit(logger, record.ID, events.NewPairInfeasibleEvent(record.ID, failure))
				return nil
			}
			outcomes[i].result = result
			o.emit(logger, record.ID, events.NewPairOptimizedEvent(record.ID, result))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run %s aborted: %w", record.ID, err)
	}

	for _, outcome := range outcomes {
		switch {
		case outcome.result != nil:
			record.Results = append(record.Results, *outcome.result)
		case outcome.failure != nil:
			record.Infeasible = append(record.Infeasible, *outcome.failure)
		}
	}
	RankResults(record.Results)
	record.CompletedAt = time.Now()

	logger.Info("run completed",
		zap.Int("results", len(record.Results)),
		zap.Int("infeasible", len(record.Infeasible)),
		zap.Int("skipped", len(record.Skipped)),
		zap.Duration("duration", record.CompletedAt.Sub(record.StartedAt)),
	)
	o.emit(logger, record.ID, events.NewRunCompletedEvent(record))

	if o.runRepo != nil {
		if err := o.runRepo.SaveRun(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save run %s: %w", record.ID, err)
		}
	}

	return &dto.RunResult{
		Record:    record,
		Settings:  o.settings(),
		Suppliers: suppliers,
		PairCount: len(pairs),
	}, nil
}

func (o *RunOrchestrator) settings() dto.RunSettings {
	return dto.RunSettings{
		Financial:         o.estimator.Evaluator().Params(),
		PlanningDemand:    o.estimator.Planning(),
		RealizedDemand:    o.estimator.Realized(),
		LeadTimeThreshold: o.config.LeadTimeThreshold,
		SearchSimulations: o.config.Optimizer.SearchSimulations,
		FinalSimulations:  o.config.Optimizer.FinalSimulations,
		Seed:              o.config.Optimizer.Seed,
		StartStrategy:     string(o.config.StartStrategy),
	}
}

func (o *RunOrchestrator) optimizePair(ctx context.Context, pair entities.SupplierPair) (*entities.OptimizationResult, error) {
	start := services.StartingPlan(o.config.StartStrategy, pair, o.estimator.Planning())
	search := o.estimator.OracleFor(pair, o.config.Optimizer.SearchSimulations)
	final := o.estimator.OracleFor(pair, o.config.Optimizer.FinalSimulations)
	return o.optimizer.Optimize(ctx, pair, start, search, final)
}

func (o *RunOrchestrator) emit(logger *zap.Logger, runID uuid.UUID, event events.Event) {
	if o.eventStore == nil {
		return
	}
	if err := o.eventStore.AppendEvent(runID.String(), event); err != nil {
		logger.Warn("failed to record event", zap.String("type", event.Type()), zap.Error(err))
	}
}

// RankResults orders results by descending mean profit, breaking ties by pair key
func RankResults(results []entities.OptimizationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		mi, mj := results[i].ProfitDistribution.Mean, results[j].ProfitDistribution.Mean
		if mi != mj {
			return mi > mj
		}
		return results[i].Pair.Key() < results[j].Pair.Key()
	})
}
