package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks input that makes a run impossible before any simulation starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrContractViolation marks a caller bug such as an out-of-capacity plan.
	ErrContractViolation = errors.New("contract violation")
	// ErrNoFeasiblePairs is returned when the supplier list yields no base/surge pairing.
	ErrNoFeasiblePairs = fmt.Errorf("%w: no feasible base/surge supplier pairing", ErrConfiguration)
)

// SupplierRole identifies which leg of a pair a supplier serves
type SupplierRole int

const (
	BaseRole SupplierRole = iota
	SurgeRole
)

// String method for SupplierRole enum
func (r SupplierRole) String() string {
	switch r {
	case BaseRole:
		return "base"
	case SurgeRole:
		return "surge"
	default:
		return "unknown"
	}
}

// CapacityError reports an order quantity outside [0, capacity] for one supplier
type CapacityError struct {
	Supplier  string
	Role      SupplierRole
	Field     string
	Capacity  Quantity
	Requested float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s supplier %s: %s %.2f outside [0, %d]",
		e.Role, e.Supplier, e.Field, e.Requested, e.Capacity)
}

// Unwrap lets errors.Is match ErrContractViolation
func (e *CapacityError) Unwrap() error {
	return ErrContractViolation
}
