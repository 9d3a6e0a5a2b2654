package entities

// ScenarioOutcome is the result of one realized-demand scenario for one plan
type ScenarioOutcome struct {
	RealizedDemand   float64
	UnitsSold        float64
	LeftoverUnits    float64
	Revenue          float64
	HoldingCost      float64
	LiquidationValue float64
	ProcurementCost  float64
	ChangeFee        float64
	ChangeFeeApplied bool
	// SurgeStage is StageProvisionalSurge when the provisional order stands,
	// StageAdjustedSurge when it was revised
	SurgeStage DecisionStage
	// Stages is every stage the scenario went through, ending at StageRealized
	Stages StageTrail
	Profit float64
}

// TerminationReason explains why the optimizer stopped
type TerminationReason string

const (
	TerminationConverged     TerminationReason = "converged"
	TerminationMaxIterations TerminationReason = "max_iterations"
	TerminationStalled       TerminationReason = "stalled"
	TerminationDegenerate    TerminationReason = "degenerate"
)

// OptimizationResult is the per-pair artifact surfaced to reporting
type OptimizationResult struct {
	Pair               SupplierPair
	BestPlan           OrderPlan
	ProfitDistribution ProfitDistribution
	IterationsRun      int
	Termination        TerminationReason
	// SearchMeanProfit is the noisy estimate for BestPlan seen during search
	SearchMeanProfit float64
	// OptionValue is the final mean profit minus that of the same plan without the surge leg
	OptionValue float64
}
