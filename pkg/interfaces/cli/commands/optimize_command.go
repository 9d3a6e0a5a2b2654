package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vsinha/dualsource/pkg/application/services/evaluation"
	"github.com/vsinha/dualsource/pkg/application/services/montecarlo"
	"github.com/vsinha/dualsource/pkg/application/services/optimizer"
	"github.com/vsinha/dualsource/pkg/application/services/orchestration"
	"github.com/vsinha/dualsource/pkg/application/services/screening"
	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
	"github.com/vsinha/dualsource/pkg/domain/services"
	"github.com/vsinha/dualsource/pkg/infrastructure/config"
	"github.com/vsinha/dualsource/pkg/infrastructure/events"
	"github.com/vsinha/dualsource/pkg/infrastructure/logging"
	"github.com/vsinha/dualsource/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/dualsource/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/dualsource/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/dualsource/pkg/interfaces/cli/output"
)

// Config holds configuration for the optimize command
type Config struct {
	ConfigFile    string
	SuppliersFile string
	OutputDir     string
	Format        string
	// Simulations, Seed and Workers override the scenario when set
	Simulations int
	Seed        *int64
	Workers     int
	LogFormat   string
	Verbose     bool
	Debug       bool
	Help        bool
	// Stdout receives the report; defaults to os.Stdout
	Stdout io.Writer
}

// OptimizeCommand runs the dual-source optimization over every supplier pair
type OptimizeCommand struct {
	config Config
	stdout io.Writer
	// mu serializes progress lines from concurrent event handlers
	mu sync.Mutex
}

// NewOptimizeCommand creates a new optimize command with the given configuration
func NewOptimizeCommand(cfg Config) *OptimizeCommand {
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &OptimizeCommand{
		config: cfg,
		stdout: stdout,
	}
}

// Execute runs the optimize command. It returns an error wrapping
// entities.ErrNoFeasiblePairs when no strategy could be produced.
func (c *OptimizeCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	logger, err := logging.New(logging.LevelFor(c.config.Verbose, c.config.Debug), c.config.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	suppliers, err := c.loadSuppliers(cfg)
	if err != nil {
		return err
	}
	logger.Info("scenario loaded",
		zap.String("config", c.config.ConfigFile),
		zap.Int("suppliers", len(suppliers)),
		zap.Int("num_simulations", cfg.Simulation.NumSimulations),
		zap.Int64("seed", cfg.Simulation.Seed),
	)

	runRepo, closeRepo, err := openRunRepository(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	estimator := montecarlo.New(
		evaluation.New(cfg.FinancialParams()),
		cfg.PlanningDemand(),
		cfg.RealizedDemand(),
		montecarlo.WithWorkers(cfg.Simulation.Workers),
		montecarlo.WithOutlierCap(cfg.Demand.OutlierCapSigma),
		montecarlo.WithLogger(logger),
	)

	eventStore := events.NewInMemoryEventStore(logger)
	if c.config.Verbose {
		if err := eventStore.Subscribe(events.RunEventTypes, c.progressHandler()); err != nil {
			return fmt.Errorf("failed to subscribe to run events: %w", err)
		}
	}

	opts := []orchestration.Option{
		orchestration.WithEventStore(eventStore),
		orchestration.WithRunRepository(runRepo),
	}
	if cfg.Screening.Enabled {
		screener, err := screening.NewScreener(estimator.Evaluator(), cfg.PlanningDemand(), screening.Config{
			MinProfit:        cfg.Screening.MinProfit,
			MinCapacityRatio: cfg.Screening.MinCapacityRatio,
			Draws:            cfg.Screening.Draws,
			Seed:             cfg.Simulation.Seed,
			OutlierCapSigma:  cfg.Demand.OutlierCapSigma,
		}, logger)
		if err != nil {
			return err
		}
		opts = append(opts, orchestration.WithScreener(screener))
	}

	orchestrator, err := orchestration.NewRunOrchestrator(estimator, runConfig(cfg), logger, opts...)
	if err != nil {
		return err
	}

	result, err := orchestrator.Run(ctx, suppliers)
	eventStore.Wait()
	if err != nil {
		return err
	}

	err = output.Generate(result, output.Config{
		Format:         c.config.Format,
		OutputDir:      c.config.OutputDir,
		Verbose:        c.config.Verbose,
		Writer:         c.stdout,
		ResolvedConfig: cfg,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if len(result.Results()) == 0 {
		return fmt.Errorf("%w: all %d pairs were skipped or infeasible", entities.ErrNoFeasiblePairs, result.PairCount)
	}
	return nil
}

// loadConfig reads the scenario and applies command line overrides
func (c *OptimizeCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return nil, err
	}

	if c.config.SuppliersFile != "" {
		cfg.SuppliersCSV = c.config.SuppliersFile
		cfg.Suppliers = nil
	}
	if c.config.Simulations > 0 {
		cfg.Simulation.NumSimulations = c.config.Simulations
	}
	if c.config.Seed != nil {
		cfg.Simulation.Seed = *c.config.Seed
	}
	if c.config.Workers > 0 {
		cfg.Simulation.Workers = c.config.Workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSuppliers reads the CSV file when one is configured, otherwise the
// inline list, and returns them in load order
func (c *OptimizeCommand) loadSuppliers(cfg *config.Config) ([]entities.Supplier, error) {
	var (
		loaded []*entities.Supplier
		err    error
	)
	if cfg.SuppliersCSV != "" {
		loaded, err = csv.NewLoader().LoadSuppliers(cfg.SuppliersCSV)
		if err != nil {
			return nil, fmt.Errorf("error loading suppliers: %w", err)
		}
	} else {
		loaded, err = cfg.SupplierEntities()
		if err != nil {
			return nil, err
		}
	}

	supplierRepo := memory.NewSupplierRepository(len(loaded))
	if err := supplierRepo.LoadSuppliers(loaded); err != nil {
		return nil, fmt.Errorf("failed to load suppliers into repository: %w", err)
	}
	return supplierRepo.GetAllSuppliers()
}

// progressHandler prints one line per pair as the run advances
func (c *OptimizeCommand) progressHandler() events.EventHandler {
	return &events.HandlerFunc{
		Types: []string{events.PairOptimizedEvent, events.PairInfeasibleEvent, events.PairSkippedEvent},
		Fn: func(event events.Event) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			switch data := event.Data().(type) {
			case events.PairOptimized:
				fmt.Fprintf(c.stdout, "Optimized %s: base %.0f, surge %.0f -> %.0f, mean %s (%s after %d iterations)\n",
					data.Pair, data.Plan.BaseQty, data.Plan.SurgeInitialQty, data.Plan.SurgeAdjustedQty,
					output.FormatMoney(data.MeanProfit), data.Termination, data.Iterations)
			case events.PairInfeasible:
				fmt.Fprintf(c.stdout, "Infeasible %s: %s\n", data.Pair, data.Reason)
			case events.PairSkipped:
				fmt.Fprintf(c.stdout, "Skipped %s: %s\n", data.Pair, data.Reason)
			}
			return nil
		},
	}
}

func runConfig(cfg *config.Config) orchestration.RunConfig {
	return orchestration.RunConfig{
		LeadTimeThreshold: cfg.Pairing.LeadTimeThreshold,
		StartStrategy:     services.StartStrategy(cfg.Optimizer.StartStrategy),
		Workers:           cfg.Simulation.Workers,
		Optimizer: optimizer.Config{
			LearningRate:      cfg.Optimizer.LearningRate,
			Epsilon:           cfg.Optimizer.Epsilon,
			Tolerance:         cfg.Optimizer.Tolerance,
			MaxIterations:     cfg.Optimizer.MaxIterations,
			StallIterations:   cfg.Optimizer.StallIterations,
			MinImprovement:    cfg.Optimizer.MinImprovement,
			StepDecay:         cfg.Optimizer.StepDecay,
			SearchSimulations: cfg.Simulation.SearchSimulations,
			FinalSimulations:  cfg.Simulation.NumSimulations,
			Seed:              cfg.Simulation.Seed,
		},
	}
}

// openRunRepository returns the postgres repository when a database URL is
// configured and an in-memory one otherwise
func openRunRepository(ctx context.Context, db config.DatabaseConfig, logger *zap.Logger) (repositories.RunRepository, func(), error) {
	if !db.Enabled() {
		return memory.NewRunRepository(), func() {}, nil
	}

	pool, err := postgres.Connect(ctx, db.URL)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewRunRepository(pool, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("run history stored in postgres")
	return repo, pool.Close, nil
}

// showHelp displays the help message
func (c *OptimizeCommand) showHelp() {
	fmt.Fprintf(c.stdout, `dualsource - dual-source procurement optimizer

USAGE:
    dualsource [optimize] -config <scenario.yaml> [options]
    dualsource generate -output <dir> [options]
    dualsource history [-run <id>] [-limit <n>]

OPTIONS:
    -config <file>       Scenario YAML (defaults and DUALSOURCE_* environment when omitted)
    -suppliers <file>    Suppliers CSV, overrides the scenario's supplier list
    -format <fmt>        Output format: text, json, csv (default: text)
    -output <dir>        Output directory for results and resolved_config.yaml (optional)
    -simulations <n>     Final-pass simulation count, overrides num_simulations
    -seed <n>            Random seed, overrides simulation.seed
    -workers <n>         Concurrency bound (default: GOMAXPROCS)
    -log-format <fmt>    Log format: console or json (default: console)
    -verbose             Print per-pair progress and info logs
    -debug               Enable debug logs
    -help                Show this help message

SUPPLIERS CSV FORMAT:
    %s
    FarFarAway,60000,4,160,1000000
    VeryClose,40000,0,170,2000000

ENVIRONMENT:
    DATABASE_URL         Store run history in PostgreSQL
    DUALSOURCE_*         Override any scenario value, e.g. DUALSOURCE_SEED=7

EXIT CODES:
    0  success
    1  error
    2  no feasible strategy

EXAMPLES:
    # Run the built-in four-supplier season
    dualsource -verbose

    # Run a scenario and save JSON results
    dualsource -config scenarios/season.yaml -format json -output results/
`, strings.Join(csv.SupplierHeader, ","))
}
