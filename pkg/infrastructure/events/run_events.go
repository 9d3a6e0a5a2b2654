package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

const (
	RunStartedEvent     = "run.started"
	RunCompletedEvent   = "run.completed"
	PairSkippedEvent    = "pair.skipped"
	PairOptimizedEvent  = "pair.optimized"
	PairInfeasibleEvent = "pair.infeasible"
)

// RunEventTypes lists every event type emitted by a run
var RunEventTypes = []string{
	RunStartedEvent,
	RunCompletedEvent,
	PairSkippedEvent,
	PairOptimizedEvent,
	PairInfeasibleEvent,
}

type RunStarted struct {
	RunID         uuid.UUID `json:"run_id"`
	SupplierCount int       `json:"supplier_count"`
	PairCount     int       `json:"pair_count"`
}

type RunCompleted struct {
	RunID      uuid.UUID     `json:"run_id"`
	Results    int           `json:"results"`
	Infeasible int           `json:"infeasible"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

type PairSkipped struct {
	Pair   string `json:"pair"`
	Reason string `json:"reason"`
}

type PairOptimized struct {
	Pair        string                     `json:"pair"`
	Plan        entities.OrderPlan         `json:"plan"`
	MeanProfit  float64                    `json:"mean_profit"`
	Iterations  int                        `json:"iterations"`
	Termination entities.TerminationReason `json:"termination"`
}

type PairInfeasible struct {
	Pair   string `json:"pair"`
	Reason string `json:"reason"`
}

func NewRunStartedEvent(runID uuid.UUID, supplierCount, pairCount int) Event {
	return NewEvent(RunStartedEvent, runID.String(), RunStarted{
		RunID:         runID,
		SupplierCount: supplierCount,
		PairCount:     pairCount,
	})
}

func NewRunCompletedEvent(record *entities.RunRecord) Event {
	return NewEvent(RunCompletedEvent, record.ID.String(), RunCompleted{
		RunID:      record.ID,
		Results:    len(record.Results),
		Infeasible: len(record.Infeasible),
		Skipped:    len(record.Skipped),
		Duration:   record.CompletedAt.Sub(record.StartedAt),
	})
}

func NewPairSkippedEvent(runID uuid.UUID, failure entities.PairFailure) Event {
	return NewEvent(PairSkippedEvent, runID.String(), PairSkipped{
		Pair:   failure.Pair.Key(),
		Reason: failure.Reason,
	})
}

func NewPairInfeasibleEvent(runID uuid.UUID, failure entities.PairFailure) Event {
	return NewEvent(PairInfeasibleEvent, runID.String(), PairInfeasible{
		Pair:   failure.Pair.Key(),
		Reason: failure.Reason,
	})
}

func NewPairOptimizedEvent(runID uuid.UUID, result *entities.OptimizationResult) Event {
	return NewEvent(PairOptimizedEvent, runID.String(), PairOptimized{
		Pair:        result.Pair.Key(),
		Plan:        result.BestPlan,
		MeanProfit:  result.ProfitDistribution.Mean,
		Iterations:  result.IterationsRun,
		Termination: result.Termination,
	})
}
