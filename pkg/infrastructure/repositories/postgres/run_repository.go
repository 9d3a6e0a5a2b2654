// Package postgres persists optimization runs in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
)

const (
	failureInfeasible = "infeasible"
	failureSkipped    = "skipped"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dualsource_runs (
		id           UUID PRIMARY KEY,
		started_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dualsource_pair_results (
		run_id             UUID NOT NULL REFERENCES dualsource_runs(id) ON DELETE CASCADE,
		rank               INTEGER NOT NULL,
		pair_key           TEXT NOT NULL,
		pair               JSONB NOT NULL,
		base_qty           DOUBLE PRECISION NOT NULL,
		surge_initial_qty  DOUBLE PRECISION NOT NULL,
		surge_adjusted_qty DOUBLE PRECISION NOT NULL,
		mean_profit        DOUBLE PRECISION NOT NULL,
		profits            DOUBLE PRECISION[] NOT NULL,
		iterations         INTEGER NOT NULL,
		termination        TEXT NOT NULL,
		search_mean_profit DOUBLE PRECISION NOT NULL,
		option_value       DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE TABLE IF NOT EXISTS dualsource_pair_failures (
		run_id   UUID NOT NULL REFERENCES dualsource_runs(id) ON DELETE CASCADE,
		kind     TEXT NOT NULL,
		position INTEGER NOT NULL,
		pair     JSONB NOT NULL,
		reason   TEXT NOT NULL,
		PRIMARY KEY (run_id, kind, position)
	)`,
	`CREATE INDEX IF NOT EXISTS dualsource_runs_started_at_idx ON dualsource_runs (started_at DESC)`,
}

// Connect opens and verifies a connection pool.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// RunRepository stores runs with one row per pair result.
type RunRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ repositories.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a repository on an open pool.
func NewRunRepository(pool *pgxpool.Pool, logger *zap.Logger) *RunRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunRepository{pool: pool, logger: logger.Named("postgres")}
}

// EnsureSchema creates the run tables if they do not exist.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes the run in one transaction, replacing a previous copy with the same ID.
func (r *RunRepository) SaveRun(ctx context.Context, run *entities.RunRecord) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("cannot save run without an ID")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Warn("rollback failed", zap.Error(err))
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM dualsource_runs WHERE id = $1`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO dualsource_runs (id, started_at, completed_at)
		VALUES ($1, $2, $3)`, run.ID, run.StartedAt, run.CompletedAt); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for rank, result := range run.Results {
		batch.Queue(`
			INSERT INTO dualsource_pair_results (
				run_id, rank, pair_key, pair, base_qty, surge_initial_qty, surge_adjusted_qty,
				mean_profit, profits, iterations, termination, search_mean_profit, option_value
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			run.ID, rank, result.Pair.Key(), result.Pair,
			result.BestPlan.BaseQty, result.BestPlan.SurgeInitialQty, result.BestPlan.SurgeAdjustedQty,
			result.ProfitDistribution.Mean, result.ProfitDistribution.Samples(),
			result.IterationsRun, string(result.Termination), result.SearchMeanProfit, result.OptionValue,
		)
	}
	queueFailures(batch, run.ID, failureInfeasible, run.Infeasible)
	queueFailures(batch, run.ID, failureSkipped, run.Skipped)

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert pair rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	r.logger.Debug("saved run", zap.String("run_id", run.ID.String()), zap.Int("results", len(run.Results)))
	return nil
}

func queueFailures(batch *pgx.Batch, runID uuid.UUID, kind string, failures []entities.PairFailure) {
	for i, failure := range failures {
		batch.Queue(`
			INSERT INTO dualsource_pair_failures (run_id, kind, position, pair, reason)
			VALUES ($1, $2, $3, $4, $5)`, runID, kind, i, failure.Pair, failure.Reason)
	}
}

// GetRun loads a run and all of its pair rows.
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*entities.RunRecord, error) {
	run := &entities.RunRecord{
		ID:         id,
		Results:    make([]entities.OptimizationResult, 0),
		Infeasible: make([]entities.PairFailure, 0),
		Skipped:    make([]entities.PairFailure, 0),
	}
	err := r.pool.QueryRow(ctx, `
		SELECT started_at, completed_at FROM dualsource_runs WHERE id = $1`, id,
	).Scan(&run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT pair, base_qty, surge_initial_qty, surge_adjusted_qty, profits,
		       iterations, termination, search_mean_profit, option_value
		FROM dualsource_pair_results
		WHERE run_id = $1
		ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list pair results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result entities.OptimizationResult
		var profits []float64
		var termination string
		if err := rows.Scan(
			&result.Pair, &result.BestPlan.BaseQty, &result.BestPlan.SurgeInitialQty, &result.BestPlan.SurgeAdjustedQty,
			&profits, &result.IterationsRun, &termination, &result.SearchMeanProfit, &result.OptionValue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pair result: %w", err)
		}
		result.ProfitDistribution = entities.NewProfitDistribution(profits)
		result.Termination = entities.TerminationReason(termination)
		run.Results = append(run.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pair results: %w", err)
	}

	failures, err := r.pool.Query(ctx, `
		SELECT kind, pair, reason
		FROM dualsource_pair_failures
		WHERE run_id = $1
		ORDER BY kind, position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list pair failures: %w", err)
	}
	defer failures.Close()

	for failures.Next() {
		var kind string
		var failure entities.PairFailure
		if err := failures.Scan(&kind, &failure.Pair, &failure.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan pair failure: %w", err)
		}
		if kind == failureSkipped {
			run.Skipped = append(run.Skipped, failure)
		} else {
			run.Infeasible = append(run.Infeasible, failure)
		}
	}
	if err := failures.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pair failures: %w", err)
	}

	return run, nil
}

// ListRuns returns up to limit runs, most recently started first. limit <= 0 returns all.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*entities.RunRecord, error) {
	query := `SELECT id FROM dualsource_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan run ids: %w", err)
	}

	runs := make([]*entities.RunRecord, 0, len(ids))
	for _, id := range ids {
		run, err := r.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
