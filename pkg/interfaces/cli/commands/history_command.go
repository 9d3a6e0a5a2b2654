package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
	"github.com/vsinha/dualsource/pkg/infrastructure/config"
	"github.com/vsinha/dualsource/pkg/infrastructure/logging"
	"github.com/vsinha/dualsource/pkg/interfaces/cli/output"
)

// HistoryConfig holds configuration for the history command
type HistoryConfig struct {
	RunID string
	Limit int
	Help  bool
	// Repository is used instead of the DATABASE_URL connection when set
	Repository repositories.RunRepository
	Stdout     io.Writer
}

// HistoryCommand lists stored runs or shows one run in detail
type HistoryCommand struct {
	config HistoryConfig
	stdout io.Writer
}

// NewHistoryCommand creates a new history command with the given configuration
func NewHistoryCommand(cfg HistoryConfig) *HistoryCommand {
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &HistoryCommand{
		config: cfg,
		stdout: stdout,
	}
}

// Execute runs the history command
func (c *HistoryCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.printHelp()
		return nil
	}

	repo := c.config.Repository
	if repo == nil {
		db, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		if !db.Enabled() {
			return fmt.Errorf("run history requires DATABASE_URL")
		}
		logger, err := logging.New("warn", "")
		if err != nil {
			return err
		}
		opened, closeRepo, err := openRunRepository(ctx, db, logger)
		if err != nil {
			return err
		}
		defer closeRepo()
		repo = opened
	}

	if c.config.RunID != "" {
		return c.showRun(ctx, repo)
	}
	return c.listRuns(ctx, repo)
}

func (c *HistoryCommand) listRuns(ctx context.Context, repo repositories.RunRepository) error {
	runs, err := repo.ListRuns(ctx, c.config.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.stdout, "No runs recorded")
		return nil
	}

	fmt.Fprintf(c.stdout, "=== Recent Runs (last %d) ===\n", c.config.Limit)
	fmt.Fprintf(c.stdout, "%-36s  %-19s  %-8s  %-7s  %-30s  %s\n",
		"Run ID", "Started", "Duration", "Results", "Best Pair", "Best Mean")
	for _, run := range runs {
		bestPair, bestMean := "-", "-"
		if len(run.Results) > 0 {
			bestPair = run.Results[0].Pair.Key()
			bestMean = output.FormatMoney(run.Results[0].ProfitDistribution.Mean)
		}
		fmt.Fprintf(c.stdout, "%-36s  %-19s  %-8s  %-7d  %-30s  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond),
			len(run.Results),
			bestPair,
			bestMean)
	}
	return nil
}

func (c *HistoryCommand) showRun(ctx context.Context, repo repositories.RunRepository) error {
	id, err := uuid.Parse(c.config.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", c.config.RunID, err)
	}
	run, err := repo.GetRun(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", id, err)
	}

	fmt.Fprintf(c.stdout, "=== Run %s ===\n", run.ID)
	fmt.Fprintf(c.stdout, "Started: %s | Duration: %v\n\n",
		run.StartedAt.Local().Format(time.RFC3339), run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	for rank, r := range run.Results {
		summary := r.ProfitDistribution.Summary()
		fmt.Fprintf(c.stdout, "%d. %s: base %.0f, surge %.0f -> %.0f\n",
			rank+1, r.Pair.Key(), r.BestPlan.BaseQty, r.BestPlan.SurgeInitialQty, r.BestPlan.SurgeAdjustedQty)
		fmt.Fprintf(c.stdout, "   Mean: %s ± %s | 10th-90th: [%s, %s] | %s after %d iterations\n",
			output.FormatMoney(r.ProfitDistribution.Mean), output.FormatMoney(r.ProfitDistribution.StdDev),
			output.FormatMoney(summary.P10), output.FormatMoney(summary.P90), r.Termination, r.IterationsRun)
	}
	printFailures(c.stdout, "Skipped", run.Skipped)
	printFailures(c.stdout, "Infeasible", run.Infeasible)
	return nil
}

func printFailures(w io.Writer, label string, failures []entities.PairFailure) {
	for _, f := range failures {
		fmt.Fprintf(w, "%s %s: %s\n", label, f.Pair.Key(), f.Reason)
	}
}

func (c *HistoryCommand) printHelp() {
	fmt.Fprintln(c.stdout, `Dual-Source Run History

USAGE:
    dualsource history [OPTIONS]

OPTIONS:
    -run <id>       Show one run in detail
    -limit <n>      Number of recent runs to list (default: 10)
    -help           Show this help message

Runs are read from the PostgreSQL database named by DATABASE_URL.`)
}
