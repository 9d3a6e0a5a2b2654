package entities

import "fmt"

// Quantity represents a whole number of units, used for supplier capacity
type Quantity int64

// MaxLeadTimeMonths is the longest lead time a supplier may declare
const MaxLeadTimeMonths = 4

// Supplier describes one source of supply for the season
type Supplier struct {
	Name           string
	Capacity       Quantity
	LeadTimeMonths int
	UnitCost       float64
	SetupCost      float64
}

// NewSupplier creates a validated Supplier
func NewSupplier(name string, capacity Quantity, leadTimeMonths int, unitCost, setupCost float64) (*Supplier, error) {
	s := &Supplier{
		Name:           name,
		Capacity:       capacity,
		LeadTimeMonths: leadTimeMonths,
		UnitCost:       unitCost,
		SetupCost:      setupCost,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the supplier fields. Zero capacity is allowed.
func (s Supplier) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: supplier name cannot be empty", ErrConfiguration)
	}
	if s.Capacity < 0 {
		return fmt.Errorf("%w: supplier %s capacity cannot be negative, got %d", ErrConfiguration, s.Name, s.Capacity)
	}
	if s.LeadTimeMonths < 0 || s.LeadTimeMonths > MaxLeadTimeMonths {
		return fmt.Errorf("%w: supplier %s lead time must be in [0,%d] months, got %d",
			ErrConfiguration, s.Name, MaxLeadTimeMonths, s.LeadTimeMonths)
	}
	if s.UnitCost <= 0 {
		return fmt.Errorf("%w: supplier %s unit cost must be positive, got %g", ErrConfiguration, s.Name, s.UnitCost)
	}
	if s.SetupCost < 0 {
		return fmt.Errorf("%w: supplier %s setup cost cannot be negative, got %g", ErrConfiguration, s.Name, s.SetupCost)
	}
	return nil
}

// SupplierPair combines a slow base supplier with a fast surge supplier.
// Base commits at time zero; surge can be revised later.
type SupplierPair struct {
	Base  Supplier
	Surge Supplier
}

// Key returns the identity of the pair used in reports and event streams
func (p SupplierPair) Key() string {
	return p.Base.Name + "+" + p.Surge.Name
}

// Capacity returns the capacity of the supplier serving the given role
func (p SupplierPair) Capacity(role SupplierRole) Quantity {
	if role == BaseRole {
		return p.Base.Capacity
	}
	return p.Surge.Capacity
}
