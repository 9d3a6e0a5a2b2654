package services

import (
	"fmt"
	"strings"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

// SupplierValidator checks a supplier list before any simulation runs
type SupplierValidator struct {
	leadTimeThreshold int
}

// NewSupplierValidator creates a validator for the given base/surge lead time threshold
func NewSupplierValidator(leadTimeThreshold int) *SupplierValidator {
	return &SupplierValidator{leadTimeThreshold: leadTimeThreshold}
}

// ValidationResult contains the results of supplier validation
type ValidationResult struct {
	DuplicateNames []string
	BaseEligible   int
	SurgeEligible  int
	Errors         []string
}

// IsValid reports whether no validation errors were found
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// HasPartition reports whether both a base-eligible and a surge-eligible supplier exist
func (r *ValidationResult) HasPartition() bool {
	return r.BaseEligible > 0 && r.SurgeEligible > 0
}

// Err folds the validation errors into one ConfigurationError, or nil.
// A non-empty list without a base/surge partition wraps ErrNoFeasiblePairs.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	if r.BaseEligible+r.SurgeEligible > 0 && !r.HasPartition() {
		return fmt.Errorf("%w: %s", entities.ErrNoFeasiblePairs, strings.Join(r.Errors, "; "))
	}
	return fmt.Errorf("%w: %s", entities.ErrConfiguration, strings.Join(r.Errors, "; "))
}

// ValidateSuppliers checks field validity, duplicate names, and that a base/surge partition exists
func (v *SupplierValidator) ValidateSuppliers(suppliers []entities.Supplier) *ValidationResult {
	result := &ValidationResult{
		DuplicateNames: make([]string, 0),
		Errors:         make([]string, 0),
	}

	if len(suppliers) == 0 {
		result.Errors = append(result.Errors, "supplier list is empty")
		return result
	}

	seen := make(map[string]bool, len(suppliers))
	for _, s := range suppliers {
		if err := s.Validate(); err != nil {
			result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), entities.ErrConfiguration.Error()+": "))
		}
		if seen[s.Name] {
			result.DuplicateNames = append(result.DuplicateNames, s.Name)
		}
		seen[s.Name] = true
	}

	if len(result.DuplicateNames) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate supplier names: %v", result.DuplicateNames))
	}

	base, surge := PartitionSuppliers(suppliers, v.leadTimeThreshold)
	result.BaseEligible = len(base)
	result.SurgeEligible = len(surge)
	if len(base) == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("no base-eligible supplier (lead time >= %d months)", v.leadTimeThreshold))
	}
	if len(surge) == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("no surge-eligible supplier (lead time < %d months)", v.leadTimeThreshold))
	}

	return result
}
