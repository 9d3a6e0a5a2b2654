package repositories

import "github.com/vsinha/dualsource/pkg/domain/entities"

// SupplierRepository provides read access to the supplier registry for a run
type SupplierRepository interface {
	GetSupplier(name string) (*entities.Supplier, error)
	GetAllSuppliers() ([]entities.Supplier, error)
	LoadSuppliers(suppliers []*entities.Supplier) error
}
