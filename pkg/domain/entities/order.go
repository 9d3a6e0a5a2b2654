package entities

import "math"

// DecisionStage is a step of the two-stage commit/adjust cycle for one scenario
type DecisionStage int

const (
	StageCommittedBase DecisionStage = iota
	StageProvisionalSurge
	StageAdjustedSurge
	StageRealized
)

// String method for DecisionStage enum
func (s DecisionStage) String() string {
	switch s {
	case StageCommittedBase:
		return "CommittedBase"
	case StageProvisionalSurge:
		return "ProvisionalSurge"
	case StageAdjustedSurge:
		return "AdjustedSurge"
	case StageRealized:
		return "Realized"
	default:
		return "Unknown"
	}
}

// StageTrail records the decision stages one scenario passed through
type StageTrail uint8

// With returns the trail with stage s added
func (t StageTrail) With(s DecisionStage) StageTrail {
	return t | 1<<uint(s)
}

// Has reports whether stage s was reached
func (t StageTrail) Has(s DecisionStage) bool {
	return t&(1<<uint(s)) != 0
}

// Stages returns the reached stages in decision order
func (t StageTrail) Stages() []DecisionStage {
	var stages []DecisionStage
	for s := StageCommittedBase; s <= StageRealized; s++ {
		if t.Has(s) {
			stages = append(stages, s)
		}
	}
	return stages
}

// OrderPlan is the three free quantities the optimizer searches over
type OrderPlan struct {
	BaseQty          float64 `json:"base_qty"`
	SurgeInitialQty  float64 `json:"surge_initial_qty"`
	SurgeAdjustedQty float64 `json:"surge_adjusted_qty"`
}

// NewOrderPlan creates an OrderPlan validated against the pair's capacities
func NewOrderPlan(pair SupplierPair, baseQty, surgeInitialQty, surgeAdjustedQty float64) (*OrderPlan, error) {
	plan := &OrderPlan{
		BaseQty:          baseQty,
		SurgeInitialQty:  surgeInitialQty,
		SurgeAdjustedQty: surgeAdjustedQty,
	}
	if err := plan.Validate(pair); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate returns a *CapacityError for the first quantity outside [0, capacity]
func (p OrderPlan) Validate(pair SupplierPair) error {
	fields := []struct {
		name     string
		value    float64
		supplier Supplier
		role     SupplierRole
	}{
		{"base_qty", p.BaseQty, pair.Base, BaseRole},
		{"surge_initial_qty", p.SurgeInitialQty, pair.Surge, SurgeRole},
		{"surge_adjusted_qty", p.SurgeAdjustedQty, pair.Surge, SurgeRole},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || f.value < 0 || f.value > float64(f.supplier.Capacity) {
			return &CapacityError{
				Supplier:  f.supplier.Name,
				Role:      f.role,
				Field:     f.name,
				Capacity:  f.supplier.Capacity,
				Requested: f.value,
			}
		}
	}
	return nil
}

// ExercisesChange reports whether the surge order is revised, which costs the change fee
func (p OrderPlan) ExercisesChange() bool {
	return p.SurgeAdjustedQty != p.SurgeInitialQty
}

// TotalSupply is the quantity delivered by both suppliers
func (p OrderPlan) TotalSupply() float64 {
	return p.BaseQty + p.SurgeAdjustedQty
}

// Vector returns the plan as optimizer coordinates
func (p OrderPlan) Vector() [3]float64 {
	return [3]float64{p.BaseQty, p.SurgeInitialQty, p.SurgeAdjustedQty}
}

// PlanFromVector is the inverse of Vector
func PlanFromVector(v [3]float64) OrderPlan {
	return OrderPlan{BaseQty: v[0], SurgeInitialQty: v[1], SurgeAdjustedQty: v[2]}
}

// Bounds returns the upper bound of each coordinate in Vector order
func Bounds(pair SupplierPair) [3]float64 {
	return [3]float64{
		float64(pair.Base.Capacity),
		float64(pair.Surge.Capacity),
		float64(pair.Surge.Capacity),
	}
}

// WithoutChange returns the hold variant where the provisional surge order is kept as adjusted
func (p OrderPlan) WithoutChange() OrderPlan {
	p.SurgeInitialQty = p.SurgeAdjustedQty
	return p
}

// WithoutSurge returns the plan with the surge leg removed
func (p OrderPlan) WithoutSurge() OrderPlan {
	p.SurgeInitialQty = 0
	p.SurgeAdjustedQty = 0
	return p
}
