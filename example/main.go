package main

import (
	"context"
	"fmt"

	"github.com/vsinha/dualsource/pkg/application/services/evaluation"
	"github.com/vsinha/dualsource/pkg/application/services/montecarlo"
	"github.com/vsinha/dualsource/pkg/application/services/optimizer"
	"github.com/vsinha/dualsource/pkg/application/services/orchestration"
	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/services"
	"github.com/vsinha/dualsource/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	// One slow offshore supplier and two fast nearshore ones
	suppliers := []entities.Supplier{
		{Name: "Shenzhen", Capacity: 70000, LeadTimeMonths: 3, UnitCost: 150, SetupCost: 1500000},
		{Name: "Monterrey", Capacity: 30000, LeadTimeMonths: 0, UnitCost: 175, SetupCost: 500000},
		{Name: "Toronto", Capacity: 45000, LeadTimeMonths: 0, UnitCost: 182, SetupCost: 1000000},
	}

	params := entities.FinancialParams{
		SellingPrice:       230,
		MonthlyHoldingCost: 4.6,
		LiquidationPrice:   144,
		OrderChangeFee:     1500000,
		HoldingMonths:      1,
	}
	planning := entities.DemandDistribution{Mean: 65000, StdDev: 15000}
	realized := entities.DemandDistribution{Mean: 58000, StdDev: 10000}

	estimator := montecarlo.New(evaluation.New(params), planning, realized)

	cfg := optimizer.DefaultConfig()
	cfg.SearchSimulations = 300
	cfg.FinalSimulations = 3000
	orchestrator, err := orchestration.NewRunOrchestrator(estimator, orchestration.RunConfig{
		LeadTimeThreshold: services.DefaultLeadTimeThreshold,
		StartStrategy:     services.StartForecast,
		Optimizer:         cfg,
	}, nil)
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		return
	}

	fmt.Println("Optimizing base/surge orders for the season...")
	result, err := orchestrator.Run(ctx, suppliers)
	if err != nil {
		fmt.Printf("Optimization failed: %v\n", err)
		return
	}

	best, ok := result.Best()
	if !ok {
		fmt.Println("No feasible strategy")
		return
	}
	fmt.Printf("Best pair: %s, commit %.0f base units and %.0f surge units, adjust surge to %.0f\n",
		best.Pair.Key(), best.BestPlan.BaseQty, best.BestPlan.SurgeInitialQty, best.BestPlan.SurgeAdjustedQty)
	fmt.Printf("Expected profit %s, of which the surge option is worth %s\n\n",
		output.FormatMoney(best.ProfitDistribution.Mean), output.FormatMoney(best.OptionValue))

	if err := output.Generate(result, output.Config{Format: "text"}); err != nil {
		fmt.Printf("Report failed: %v\n", err)
	}
}
