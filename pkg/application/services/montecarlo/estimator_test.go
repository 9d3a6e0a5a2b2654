package montecarlo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/dualsource/pkg/application/services/evaluation"
	"github.com/vsinha/dualsource/pkg/domain/entities"
)

func testParams() entities.FinancialParams {
	return entities.FinancialParams{
		SellingPrice:       230,
		MonthlyHoldingCost: 4.6,
		LiquidationPrice:   144,
		OrderChangeFee:     2000000,
		HoldingMonths:      1,
	}
}

func testPair() entities.SupplierPair {
	return entities.SupplierPair{
		Base:  entities.Supplier{Name: "FarAway", Capacity: 60000, LeadTimeMonths: 3, UnitCost: 160, SetupCost: 2000000},
		Surge: entities.Supplier{Name: "PrettyClose", Capacity: 35000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 1000000},
	}
}

func newTestEstimator(realized entities.DemandDistribution, opts ...Option) *Estimator {
	planning := entities.DemandDistribution{Mean: 60000, StdDev: 12000}
	return New(evaluation.New(testParams()), planning, realized, opts...)
}

func TestEstimate_ZeroVarianceMatchesSingleScenario(t *testing.T) {
	demand := entities.DemandDistribution{Mean: 60000, StdDev: 0}
	est := New(evaluation.New(testParams()), demand, demand)
	plan := entities.OrderPlan{BaseQty: 45000, SurgeInitialQty: 10000, SurgeAdjustedQty: 20000}

	single, err := est.Evaluator().Evaluate(testPair(), plan, 60000)
	require.NoError(t, err)

	dist, err := est.Estimate(context.Background(), testPair(), plan, 1000, 42)
	require.NoError(t, err)

	assert.InDelta(t, single.Profit, dist.Mean, 1e-6)
	assert.InDelta(t, 0, dist.StdDev, 1e-6)
	assert.Equal(t, single.Profit, dist.Min)
	assert.Equal(t, single.Profit, dist.Max)
	assert.Equal(t, 1000, dist.SampleCount)
}

func TestEstimate_DeterministicForSeed(t *testing.T) {
	realized := entities.DemandDistribution{Mean: 53000, StdDev: 12000}
	plan := entities.OrderPlan{BaseQty: 40000, SurgeInitialQty: 15000, SurgeAdjustedQty: 15000}

	first, err := newTestEstimator(realized, WithWorkers(1)).Estimate(context.Background(), testPair(), plan, 1000, 7)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		again, err := newTestEstimator(realized, WithWorkers(workers)).Estimate(context.Background(), testPair(), plan, 1000, 7)
		require.NoError(t, err)
		assert.Equal(t, first.Mean, again.Mean, "workers=%d", workers)
		assert.Equal(t, first.StdDev, again.StdDev, "workers=%d", workers)
		assert.Equal(t, first.Summary(), again.Summary(), "workers=%d", workers)
	}

	other, err := newTestEstimator(realized).Estimate(context.Background(), testPair(), plan, 1000, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first.Mean, other.Mean)
}

func TestEstimate_CommonRandomNumbers(t *testing.T) {
	realized := entities.DemandDistribution{Mean: 53000, StdDev: 12000}
	est := newTestEstimator(realized)
	pair := testPair()

	low := entities.OrderPlan{BaseQty: 30000}
	high := entities.OrderPlan{BaseQty: 31000}
	lowDist, err := est.Estimate(context.Background(), pair, low, 500, 3)
	require.NoError(t, err)
	highDist, err := est.Estimate(context.Background(), pair, high, 500, 3)
	require.NoError(t, err)

	// Both passes see the same demand draws, so each extra unit moves a sample by
	// either the sale margin or the leftover loss
	assert.LessOrEqual(t, highDist.Mean-lowDist.Mean, 1000*(230.0-160)+1e-6)
	assert.GreaterOrEqual(t, highDist.Mean-lowDist.Mean, -1000*(160+4.6-144)-1e-6)
}

func TestEstimate_ContractViolations(t *testing.T) {
	est := newTestEstimator(entities.DemandDistribution{Mean: 53000, StdDev: 12000})

	for _, n := range []int{0, -5} {
		_, err := est.Estimate(context.Background(), testPair(), entities.OrderPlan{}, n, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrContractViolation))
	}

	_, err := est.Estimate(context.Background(), testPair(), entities.OrderPlan{SurgeAdjustedQty: 35001}, 10, 1)
	var capErr *entities.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "surge_adjusted_qty", capErr.Field)
}

func TestEstimate_CancelledContext(t *testing.T) {
	est := newTestEstimator(entities.DemandDistribution{Mean: 53000, StdDev: 12000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := est.Estimate(ctx, testPair(), entities.OrderPlan{BaseQty: 1000}, 1000, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOracle_DelegatesToEstimator(t *testing.T) {
	est := newTestEstimator(entities.DemandDistribution{Mean: 53000, StdDev: 12000})
	oracle := est.OracleFor(testPair(), 300)
	plan := entities.OrderPlan{BaseQty: 50000}

	viaOracle, err := oracle.Estimate(context.Background(), plan, 11)
	require.NoError(t, err)
	direct, err := est.Estimate(context.Background(), testPair(), plan, 300, 11)
	require.NoError(t, err)

	assert.Equal(t, direct.Mean, viaOracle.Mean)
	assert.Equal(t, 300, oracle.Simulations())
	assert.Equal(t, 300, viaOracle.SampleCount)
}

func BenchmarkEstimate(b *testing.B) {
	est := newTestEstimator(entities.DemandDistribution{Mean: 53000, StdDev: 12000})
	plan := entities.OrderPlan{BaseQty: 40000, SurgeInitialQty: 15000, SurgeAdjustedQty: 20000}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := est.Estimate(ctx, testPair(), plan, 5000, int64(i)); err != nil {
			b.Fatal(err)
		}
	}
}
