package entities

import (
	"time"

	"github.com/google/uuid"
)

// PairFailure records a pair that produced no optimization result
type PairFailure struct {
	Pair   SupplierPair
	Reason string
}

// RunRecord is everything a single orchestrator run produced
type RunRecord struct {
	ID          uuid.UUID
	StartedAt   time.Time
	CompletedAt time.Time
	// Results are ordered by descending mean profit
	Results    []OptimizationResult
	Infeasible []PairFailure
	Skipped    []PairFailure
}
