package services

import (
	"fmt"
	"math"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// StartStrategy selects how the optimizer's starting plan is built
type StartStrategy string

const (
	// StartMidpoint starts every coordinate at half its capacity
	StartMidpoint StartStrategy = "midpoint"
	// StartForecast splits the planning mean between base and surge by demand variability
	StartForecast StartStrategy = "forecast"
)

// ParseStartStrategy validates a strategy name; empty selects midpoint
func ParseStartStrategy(name string) (StartStrategy, error) {
	switch StartStrategy(name) {
	case "", StartMidpoint:
		return StartMidpoint, nil
	case StartForecast:
		return StartForecast, nil
	default:
		return "", fmt.Errorf("%w: unknown start strategy %q (want midpoint or forecast)", entities.ErrConfiguration, name)
	}
}

// StartingPlan builds the starting plan for pair with the given strategy
func StartingPlan(strategy StartStrategy, pair entities.SupplierPair, planning entities.DemandDistribution) entities.OrderPlan {
	if strategy == StartForecast {
		return ForecastPlan(pair, planning)
	}
	return MidpointPlan(pair)
}

// MidpointPlan places each quantity at the middle of its feasible range, with the
// provisional surge order held unchanged
func MidpointPlan(pair entities.SupplierPair) entities.OrderPlan {
	surge := float64(pair.Surge.Capacity) / 2
	return entities.OrderPlan{
		BaseQty:          float64(pair.Base.Capacity) / 2,
		SurgeInitialQty:  surge,
		SurgeAdjustedQty: surge,
	}
}

// ForecastPlan orders the planning mean, weighting base by 1/(1+CV) so that
// more variable demand shifts volume to the flexible surge supplier. Quantities
// are whole units within capacity; a surge shortfall is moved back to base.
func ForecastPlan(pair entities.SupplierPair, planning entities.DemandDistribution) entities.OrderPlan {
	total := math.Floor(math.Max(planning.Mean, 0))
	baseCap := float64(pair.Base.Capacity)
	surgeCap := float64(pair.Surge.Capacity)

	base := math.Min(math.Floor(total/(1+planning.CoefficientOfVariation())), baseCap)
	surge := math.Min(total-base, surgeCap)
	if shortfall := total - base - surge; shortfall > 0 {
		base += math.Min(shortfall, baseCap-base)
	}

	return entities.OrderPlan{
		BaseQty:          base,
		SurgeInitialQty:  surge,
		SurgeAdjustedQty: surge,
	}
}
