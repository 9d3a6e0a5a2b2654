package memory

import (
	"fmt"

	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/domain/repositories"
)

// SupplierRepository provides in-memory supplier storage, preserving load order
type SupplierRepository struct {
	suppliers    []entities.Supplier
	suppliersMap map[string]int
}

// NewSupplierRepository creates a new in-memory supplier repository
func NewSupplierRepository(expectedSuppliers int) *SupplierRepository {
	return &SupplierRepository{
		suppliers:    make([]entities.Supplier, 0, expectedSuppliers),
		suppliersMap: make(map[string]int, expectedSuppliers),
	}
}

// Verify interface compliance
var _ repositories.SupplierRepository = (*SupplierRepository)(nil)

// LoadSuppliers validates and loads suppliers into the repository
func (r *SupplierRepository) LoadSuppliers(suppliers []*entities.Supplier) error {
	for _, supplier := range suppliers {
		if err := r.AddSupplier(*supplier); err != nil {
			return err
		}
	}
	return nil
}

// AddSupplier adds a supplier, rejecting invalid fields and duplicate names
func (r *SupplierRepository) AddSupplier(supplier entities.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return err
	}
	if _, exists := r.suppliersMap[supplier.Name]; exists {
		return fmt.Errorf("%w: duplicate supplier name %s", entities.ErrConfiguration, supplier.Name)
	}
	r.suppliersMap[supplier.Name] = len(r.suppliers)
	r.suppliers = append(r.suppliers, supplier)
	return nil
}

// GetSupplier returns a supplier by name
func (r *SupplierRepository) GetSupplier(name string) (*entities.Supplier, error) {
	index, exists := r.suppliersMap[name]
	if !exists {
		return nil, fmt.Errorf("supplier %s: %w", name, repositories.ErrNotFound)
	}
	supplier := r.suppliers[index]
	return &supplier, nil
}

// GetAllSuppliers returns a copy of all suppliers in load order
func (r *SupplierRepository) GetAllSuppliers() ([]entities.Supplier, error) {
	suppliers := make([]entities.Supplier, len(r.suppliers))
	copy(suppliers, r.suppliers)
	return suppliers, nil
}
