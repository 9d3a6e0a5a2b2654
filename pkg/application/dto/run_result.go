package dto

import (
	"time"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// RunSettings echoes the inputs a run was executed with, for reporting
type RunSettings struct {
	Financial         entities.FinancialParams
	PlanningDemand    entities.DemandDistribution
	RealizedDemand    entities.DemandDistribution
	LeadTimeThreshold int
	SearchSimulations int
	FinalSimulations  int
	Seed              int64
	StartStrategy     string
}

// RunResult contains the complete output of an optimization run
type RunResult struct {
	Record    *entities.RunRecord
	Settings  RunSettings
	Suppliers []entities.Supplier
	PairCount int
}

// Results returns the per-pair results ordered by descending mean profit
func (r *RunResult) Results() []entities.OptimizationResult {
	if r == nil || r.Record == nil {
		return nil
	}
	return r.Record.Results
}

// Best returns the highest-ranked result, or false when no pair produced one
func (r *RunResult) Best() (entities.OptimizationResult, bool) {
	results := r.Results()
	if len(results) == 0 {
		return entities.OptimizationResult{}, false
	}
	return results[0], true
}

// Duration is the wall-clock time of the run
func (r *RunResult) Duration() time.Duration {
	if r == nil || r.Record == nil {
		return 0
	}
	return r.Record.CompletedAt.Sub(r.Record.StartedAt)
}
