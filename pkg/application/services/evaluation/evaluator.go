// Package evaluation computes the realized profit of one order plan in one demand scenario.
package evaluation

import (
	"math"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// Evaluator applies the two-stage commit/adjust rule. It holds only immutable
// parameters and is safe for concurrent use.
type Evaluator struct {
	params entities.FinancialParams
}

// New creates an evaluator for the season's financial constants
func New(params entities.FinancialParams) *Evaluator {
	return &Evaluator{params: params}
}

// Params returns the financial constants the evaluator was built with
func (e *Evaluator) Params() entities.FinancialParams {
	return e.params
}

// Evaluate validates the plan against the pair's capacities and computes the outcome.
// Quantities outside capacity are a contract violation and are never clamped.
func (e *Evaluator) Evaluate(pair entities.SupplierPair, plan entities.OrderPlan, realizedDemand float64) (entities.ScenarioOutcome, error) {
	if err := plan.Validate(pair); err != nil {
		return entities.ScenarioOutcome{}, err
	}
	return e.EvaluateUnchecked(pair, plan, realizedDemand), nil
}

// EvaluateUnchecked computes the outcome for a plan already validated against pair
func (e *Evaluator) EvaluateUnchecked(pair entities.SupplierPair, plan entities.OrderPlan, realizedDemand float64) entities.ScenarioOutcome {
	var out entities.ScenarioOutcome
	out.RealizedDemand = realizedDemand

	// Base is committed at time zero, before any demand signal.
	out.Stages = out.Stages.With(entities.StageCommittedBase)
	procurement := plan.BaseQty * pair.Base.UnitCost
	if plan.BaseQty > 0 {
		procurement += pair.Base.SetupCost
	}

	// Provisional surge order, revised at the surge decision point.
	out.SurgeStage = entities.StageProvisionalSurge
	out.Stages = out.Stages.With(entities.StageProvisionalSurge)
	if plan.ExercisesChange() {
		out.SurgeStage = entities.StageAdjustedSurge
		out.Stages = out.Stages.With(entities.StageAdjustedSurge)
		out.ChangeFeeApplied = true
		out.ChangeFee = e.params.OrderChangeFee
	}
	procurement += plan.SurgeAdjustedQty * pair.Surge.UnitCost
	if plan.SurgeAdjustedQty > 0 {
		procurement += pair.Surge.SetupCost
	}
	out.ProcurementCost = procurement

	// Demand is realized against the total delivered supply.
	out.Stages = out.Stages.With(entities.StageRealized)
	supply := plan.TotalSupply()
	out.UnitsSold = math.Min(supply, math.Max(realizedDemand, 0))
	out.LeftoverUnits = supply - out.UnitsSold
	out.Revenue = out.UnitsSold * e.params.SellingPrice
	out.HoldingCost = out.LeftoverUnits * e.params.MonthlyHoldingCost * e.params.HoldingMonths
	out.LiquidationValue = out.LeftoverUnits * e.params.LiquidationPrice

	out.Profit = out.Revenue + out.LiquidationValue - out.HoldingCost - out.ProcurementCost - out.ChangeFee
	return out
}
