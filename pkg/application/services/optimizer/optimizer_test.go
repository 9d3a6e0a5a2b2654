package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// funcOracle evaluates a closed-form profit and records every plan it is asked about
type funcOracle struct {
	profit func(plan entities.OrderPlan, seed int64) float64
	err    error
	plans  []entities.OrderPlan
}

func (f *funcOracle) Estimate(_ context.Context, plan entities.OrderPlan, seed int64) (entities.ProfitDistribution, error) {
	f.plans = append(f.plans, plan)
	if f.err != nil {
		return entities.ProfitDistribution{}, f.err
	}
	return entities.NewProfitDistribution([]float64{f.profit(plan, seed)}), nil
}

func testPair(baseCap, surgeCap entities.Quantity) entities.SupplierPair {
	return entities.SupplierPair{
		Base:  entities.Supplier{Name: "Slow", Capacity: baseCap, LeadTimeMonths: 3, UnitCost: 1},
		Surge: entities.Supplier{Name: "Fast", Capacity: surgeCap, LeadTimeMonths: 0, UnitCost: 1},
	}
}

func testConfig() Config {
	return Config{
		LearningRate:      0.25,
		Epsilon:           1,
		Tolerance:         1e-3,
		MaxIterations:     200,
		StallIterations:   5,
		MinImprovement:    0,
		StepDecay:         0.5,
		SearchSimulations: 10,
		FinalSimulations:  100,
		Seed:              1,
	}
}

func newTestOptimizer(t *testing.T, cfg Config) *Optimizer {
	t.Helper()
	opt, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return opt
}

// concaveProfit peaks at base=30, surge=20 and charges a fee for revising the surge order
func concaveProfit(plan entities.OrderPlan, _ int64) float64 {
	profit := -math.Pow(plan.BaseQty-30, 2) - math.Pow(plan.SurgeAdjustedQty-20, 2)
	if plan.ExercisesChange() {
		profit -= 5
	}
	return profit
}

func TestOptimize_ConvergesOnConcaveObjective(t *testing.T) {
	opt := newTestOptimizer(t, testConfig())
	pair := testPair(100, 50)
	oracle := &funcOracle{profit: concaveProfit}

	result, err := opt.Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 50, SurgeInitialQty: 25, SurgeAdjustedQty: 25}, oracle, oracle)
	require.NoError(t, err)

	assert.Equal(t, entities.TerminationConverged, result.Termination)
	assert.InDelta(t, 30, result.BestPlan.BaseQty, 1e-3)
	assert.InDelta(t, 20, result.BestPlan.SurgeAdjustedQty, 1e-3)
	assert.Equal(t, result.BestPlan.SurgeAdjustedQty, result.BestPlan.SurgeInitialQty, "hold variant should be kept when revising only costs the fee")
	assert.InDelta(t, 0, result.ProfitDistribution.Mean, 1e-5)
	assert.InDelta(t, 400, result.OptionValue, 1e-2)
	assert.Less(t, result.IterationsRun, 200)
}

func TestOptimize_StaysWithinCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.LearningRate = 1000
	cfg.MaxIterations = 50
	opt := newTestOptimizer(t, cfg)
	pair := testPair(80, 30)

	oracle := &funcOracle{profit: func(plan entities.OrderPlan, seed int64) float64 {
		return 1000*math.Sin(plan.BaseQty*0.37+float64(seed)) + 50*plan.SurgeAdjustedQty - 30*plan.SurgeInitialQty
	}}

	result, err := opt.Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 40, SurgeInitialQty: 15, SurgeAdjustedQty: 15}, oracle, oracle)
	require.NoError(t, err)

	require.NotEmpty(t, oracle.plans)
	for _, plan := range oracle.plans {
		require.NoError(t, plan.Validate(pair), "oracle saw infeasible plan %+v", plan)
	}
	assert.NoError(t, result.BestPlan.Validate(pair))
}

func TestOptimize_Deterministic(t *testing.T) {
	cfg := testConfig()
	cfg.LearningRate = 10
	cfg.MaxIterations = 40
	pair := testPair(80, 30)
	noisy := func(plan entities.OrderPlan, seed int64) float64 {
		return concaveProfit(plan, seed) + 10*math.Sin(float64(seed)*1.7)
	}

	first, err := newTestOptimizer(t, cfg).Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 40, SurgeInitialQty: 15, SurgeAdjustedQty: 15},
		&funcOracle{profit: noisy}, &funcOracle{profit: noisy})
	require.NoError(t, err)
	second, err := newTestOptimizer(t, cfg).Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 40, SurgeInitialQty: 15, SurgeAdjustedQty: 15},
		&funcOracle{profit: noisy}, &funcOracle{profit: noisy})
	require.NoError(t, err)

	assert.Equal(t, first.BestPlan, second.BestPlan)
	assert.Equal(t, first.IterationsRun, second.IterationsRun)
	assert.Equal(t, first.Termination, second.Termination)
}

func TestOptimize_StallsAtCapacityCorner(t *testing.T) {
	cfg := testConfig()
	cfg.StallIterations = 3
	opt := newTestOptimizer(t, cfg)
	pair := testPair(10, 10)

	increasing := &funcOracle{profit: func(plan entities.OrderPlan, _ int64) float64 {
		profit := plan.BaseQty + plan.SurgeAdjustedQty
		if plan.ExercisesChange() {
			profit -= 1000
		}
		return profit
	}}

	result, err := opt.Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 10, SurgeInitialQty: 10, SurgeAdjustedQty: 10}, increasing, increasing)
	require.NoError(t, err)

	assert.Equal(t, entities.TerminationStalled, result.Termination)
	assert.Equal(t, 3, result.IterationsRun)
	assert.Equal(t, entities.OrderPlan{BaseQty: 10, SurgeInitialQty: 10, SurgeAdjustedQty: 10}, result.BestPlan)
}

func TestOptimize_MaxIterations(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 2
	opt := newTestOptimizer(t, cfg)
	oracle := &funcOracle{profit: concaveProfit}

	result, err := opt.Optimize(context.Background(), testPair(100, 50), entities.OrderPlan{BaseQty: 50, SurgeInitialQty: 25, SurgeAdjustedQty: 25}, oracle, oracle)
	require.NoError(t, err)

	assert.Equal(t, entities.TerminationMaxIterations, result.Termination)
	assert.Equal(t, 2, result.IterationsRun)
}

// seasonProfit has the season's shape: a base optimum at 50000 units, a surge leg
// that loses $7 per unit, and setup and change fees in the millions
func seasonProfit(plan entities.OrderPlan, _ int64) float64 {
	profit := -1e-4*math.Pow(plan.BaseQty-50000, 2) - 7*plan.SurgeAdjustedQty
	if plan.SurgeAdjustedQty > 0 {
		profit -= 1000000
	}
	if plan.ExercisesChange() {
		profit -= 2000000
	}
	return profit
}

func TestOptimize_DefaultsFinishSeasonWithinBudget(t *testing.T) {
	cfg := DefaultConfig()
	opt := newTestOptimizer(t, cfg)
	oracle := &funcOracle{profit: seasonProfit}

	start := entities.OrderPlan{BaseQty: 30000, SurgeInitialQty: 20000, SurgeAdjustedQty: 20000}
	result, err := opt.Optimize(context.Background(), testPair(60000, 40000), start, oracle, oracle)
	require.NoError(t, err)

	assert.NotEqual(t, entities.TerminationMaxIterations, result.Termination)
	assert.Less(t, result.IterationsRun, cfg.MaxIterations/2)
	assert.Zero(t, result.BestPlan.SurgeAdjustedQty, "surge leg should be dropped to save its setup cost")
	assert.Zero(t, result.BestPlan.SurgeInitialQty)
	assert.InDelta(t, 50000, result.BestPlan.BaseQty, 500)
}

func TestOptimize_DegenerateCapacity(t *testing.T) {
	opt := newTestOptimizer(t, testConfig())
	search := &funcOracle{profit: concaveProfit}
	final := &funcOracle{profit: concaveProfit}

	result, err := opt.Optimize(context.Background(), testPair(0, 0), entities.OrderPlan{}, search, final)
	require.NoError(t, err)

	assert.Equal(t, entities.TerminationDegenerate, result.Termination)
	assert.Zero(t, result.IterationsRun)
	assert.Equal(t, entities.OrderPlan{}, result.BestPlan)
	assert.Empty(t, search.plans)
	assert.Len(t, final.plans, 1)
	assert.Equal(t, result.ProfitDistribution.Mean, result.SearchMeanProfit)
}

func TestOptimize_Errors(t *testing.T) {
	opt := newTestOptimizer(t, testConfig())
	pair := testPair(100, 50)

	t.Run("infeasible start", func(t *testing.T) {
		oracle := &funcOracle{profit: concaveProfit}
		_, err := opt.Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 101}, oracle, oracle)
		assert.True(t, errors.Is(err, entities.ErrContractViolation))
		assert.Empty(t, oracle.plans)
	})

	t.Run("oracle failure", func(t *testing.T) {
		boom := errors.New("boom")
		oracle := &funcOracle{err: boom}
		_, err := opt.Optimize(context.Background(), pair, entities.OrderPlan{BaseQty: 50}, oracle, oracle)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		oracle := &funcOracle{profit: concaveProfit}
		_, err := opt.Optimize(ctx, pair, entities.OrderPlan{BaseQty: 50}, oracle, oracle)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }, "configuration error: learning rate must be positive, got 0"},
		{"zero epsilon", func(c *Config) { c.Epsilon = 0 }, "configuration error: epsilon must be positive, got 0"},
		{"no iterations", func(c *Config) { c.MaxIterations = 0 }, "configuration error: max iterations must be positive, got 0"},
		{"decay above one", func(c *Config) { c.StepDecay = 1.5 }, "configuration error: step decay must be in (0,1], got 1.5"},
		{"final not larger", func(c *Config) { c.FinalSimulations = c.SearchSimulations }, "configuration error: final simulations (500) must exceed search simulations (500)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.errMsg, err.Error())
			assert.ErrorIs(t, err, entities.ErrConfiguration)
		})
	}
}
