package evaluation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

func seasonParams() entities.FinancialParams {
	return entities.FinancialParams{
		SellingPrice:       230,
		MonthlyHoldingCost: 4.6,
		LiquidationPrice:   144,
		OrderChangeFee:     2000000,
		HoldingMonths:      1,
	}
}

func seasonPair() entities.SupplierPair {
	return entities.SupplierPair{
		Base:  entities.Supplier{Name: "FarAway", Capacity: 60000, LeadTimeMonths: 3, UnitCost: 160, SetupCost: 2000000},
		Surge: entities.Supplier{Name: "VeryClose", Capacity: 40000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 2000000},
	}
}

func singleSupplierPair() entities.SupplierPair {
	return entities.SupplierPair{
		Base:  entities.Supplier{Name: "Solo", Capacity: 100000, LeadTimeMonths: 0, UnitCost: 100, SetupCost: 0},
		Surge: entities.Supplier{Name: "Unused", Capacity: 0, LeadTimeMonths: 0, UnitCost: 1, SetupCost: 0},
	}
}

// expectedSingleSupplierProfit is the closed form for a base-only plan, in exact decimal arithmetic
func expectedSingleSupplierProfit(plan, demand, horizon decimal.Decimal) decimal.Decimal {
	sold := decimal.Min(plan, demand)
	leftover := decimal.Max(plan.Sub(demand), decimal.Zero)
	return sold.Mul(decimal.NewFromInt(230)).
		Add(leftover.Mul(decimal.NewFromInt(144))).
		Sub(leftover.Mul(decimal.RequireFromString("4.6")).Mul(horizon)).
		Sub(plan.Mul(decimal.NewFromInt(100)))
}

func TestEvaluator_SingleSupplierArithmetic(t *testing.T) {
	testCases := []struct {
		name     string
		plan     float64
		horizon  float64
		expected float64
	}{
		{"exact match", 53000, 1, 6890000},
		{"oversupply one month", 60000, 1, 7165800},
		{"oversupply two months", 60000, 2, 7133600},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := seasonParams()
			params.HoldingMonths = tc.horizon
			e := New(params)

			out, err := e.Evaluate(singleSupplierPair(), entities.OrderPlan{BaseQty: tc.plan}, 53000)
			require.NoError(t, err)

			closedForm := expectedSingleSupplierProfit(
				decimal.NewFromFloat(tc.plan), decimal.NewFromInt(53000), decimal.NewFromFloat(tc.horizon))
			assert.True(t, closedForm.Equal(decimal.NewFromFloat(tc.expected)), "closed form %s", closedForm)
			assert.InDelta(t, tc.expected, out.Profit, 1e-6)
			assert.False(t, out.ChangeFeeApplied)
			assert.Equal(t, entities.StageProvisionalSurge, out.SurgeStage)
		})
	}
}

func TestEvaluator_OutcomeFields(t *testing.T) {
	e := New(seasonParams())

	out, err := e.Evaluate(seasonPair(), entities.OrderPlan{BaseQty: 50000, SurgeInitialQty: 10000, SurgeAdjustedQty: 10000}, 53000)
	require.NoError(t, err)

	assert.Equal(t, 53000.0, out.UnitsSold)
	assert.Equal(t, 7000.0, out.LeftoverUnits)
	assert.Equal(t, 53000.0*230, out.Revenue)
	assert.InDelta(t, 7000*4.6, out.HoldingCost, 1e-9)
	assert.Equal(t, 7000.0*144, out.LiquidationValue)
	assert.Equal(t, 50000.0*160+2000000+10000.0*170+2000000, out.ProcurementCost)
	assert.InDelta(t, out.Revenue+out.LiquidationValue-out.HoldingCost-out.ProcurementCost, out.Profit, 1e-6)
}

func TestEvaluator_Deterministic(t *testing.T) {
	e := New(seasonParams())
	plan := entities.OrderPlan{BaseQty: 41234.5, SurgeInitialQty: 1000, SurgeAdjustedQty: 12345.25}

	first, err := e.Evaluate(seasonPair(), plan, 57321.125)
	require.NoError(t, err)
	second, err := e.Evaluate(seasonPair(), plan, 57321.125)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluator_ChangeFee(t *testing.T) {
	e := New(seasonParams())
	pair := seasonPair()

	hold := entities.OrderPlan{BaseQty: 40000, SurgeInitialQty: 15000, SurgeAdjustedQty: 15000}
	change := entities.OrderPlan{BaseQty: 40000, SurgeInitialQty: 10000, SurgeAdjustedQty: 15000}

	holdOut, err := e.Evaluate(pair, hold, 60000)
	require.NoError(t, err)
	changeOut, err := e.Evaluate(pair, change, 60000)
	require.NoError(t, err)

	assert.False(t, holdOut.ChangeFeeApplied)
	assert.Zero(t, holdOut.ChangeFee)
	assert.True(t, changeOut.ChangeFeeApplied)
	assert.Equal(t, entities.StageAdjustedSurge, changeOut.SurgeStage)
	assert.Equal(t, 2000000.0, changeOut.ChangeFee)

	assert.Equal(t, []entities.DecisionStage{
		entities.StageCommittedBase, entities.StageProvisionalSurge, entities.StageRealized,
	}, holdOut.Stages.Stages())
	assert.Equal(t, []entities.DecisionStage{
		entities.StageCommittedBase, entities.StageProvisionalSurge, entities.StageAdjustedSurge, entities.StageRealized,
	}, changeOut.Stages.Stages())

	// Fee is charged once and does not depend on the size of the revision
	assert.Equal(t, holdOut.Profit-changeOut.Profit, 2000000.0)
	bigChange := change
	bigChange.SurgeInitialQty = 0
	bigOut, err := e.Evaluate(pair, bigChange, 60000)
	require.NoError(t, err)
	assert.Equal(t, changeOut.Profit, bigOut.Profit)
}

func TestEvaluator_OversupplyNeverIncreasesProfit(t *testing.T) {
	e := New(seasonParams())
	pair := seasonPair()
	const demand = 53000.0

	previous, err := e.Evaluate(pair, entities.OrderPlan{BaseQty: 53000}, demand)
	require.NoError(t, err)

	for base := 53000.0; base <= 60000; base += 500 {
		for surge := 0.0; surge <= 40000; surge += 5000 {
			plan := entities.OrderPlan{BaseQty: base, SurgeInitialQty: surge, SurgeAdjustedQty: surge}
			if plan.TotalSupply() <= demand {
				continue
			}
			out, err := e.Evaluate(pair, plan, demand)
			require.NoError(t, err)

			more := plan
			more.BaseQty = base + 250
			if more.BaseQty <= 60000 {
				moreOut, err := e.Evaluate(pair, more, demand)
				require.NoError(t, err)
				assert.Greater(t, moreOut.LeftoverUnits, out.LeftoverUnits)
				assert.LessOrEqual(t, moreOut.Profit, out.Profit)
			}
		}
		out, err := e.Evaluate(pair, entities.OrderPlan{BaseQty: base}, demand)
		require.NoError(t, err)
		assert.LessOrEqual(t, out.Profit, previous.Profit)
		previous = out
	}
}

func TestEvaluator_CapacityViolation(t *testing.T) {
	e := New(seasonParams())

	_, err := e.Evaluate(seasonPair(), entities.OrderPlan{BaseQty: 70000}, 53000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrContractViolation))

	var capErr *entities.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "FarAway", capErr.Supplier)
	assert.Equal(t, entities.BaseRole, capErr.Role)
	assert.Equal(t, 70000.0, capErr.Requested)
}

func TestEvaluator_NoSupply(t *testing.T) {
	e := New(seasonParams())

	out, err := e.Evaluate(seasonPair(), entities.OrderPlan{}, 53000)
	require.NoError(t, err)
	assert.Zero(t, out.Profit)
	assert.Zero(t, out.ProcurementCost)
}
