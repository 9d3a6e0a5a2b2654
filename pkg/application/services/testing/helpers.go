package testing

import (
	"github.com/vsinha/dualsource/pkg/domain/entities"
	"github.com/vsinha/dualsource/pkg/infrastructure/repositories/memory"
)

// mustCreateSupplier is a helper for tests - panics on validation error
func mustCreateSupplier(name string, capacity entities.Quantity, leadTime int, unitCost, setupCost float64) *entities.Supplier {
	supplier, err := entities.NewSupplier(name, capacity, leadTime, unitCost, setupCost)
	if err != nil {
		panic(err)
	}
	return supplier
}

// SeasonData is a complete single-season scenario
type SeasonData struct {
	Suppliers *memory.SupplierRepository
	Params    entities.FinancialParams
	Planning  entities.DemandDistribution
	Realized  entities.DemandDistribution
}

// SupplierList returns the scenario's suppliers in load order
func (d SeasonData) SupplierList() []entities.Supplier {
	suppliers, _ := d.Suppliers.GetAllSuppliers()
	return suppliers
}

// BuildSeasonTestData creates the four-supplier apparel season: two slow
// offshore suppliers and two fast nearshore ones
func BuildSeasonTestData() SeasonData {
	repo := memory.NewSupplierRepository(4)
	err := repo.LoadSuppliers([]*entities.Supplier{
		mustCreateSupplier("FarFarAway", 60000, 4, 160, 1000000),
		mustCreateSupplier("FarAway", 60000, 3, 160, 2000000),
		mustCreateSupplier("PrettyClose", 35000, 0, 170, 1000000),
		mustCreateSupplier("VeryClose", 40000, 0, 170, 2000000),
	})
	if err != nil {
		panic(err)
	}

	return SeasonData{
		Suppliers: repo,
		Params: entities.FinancialParams{
			SellingPrice:       230,
			MonthlyHoldingCost: 4.6,
			LiquidationPrice:   144,
			OrderChangeFee:     2000000,
			HoldingMonths:      1,
		},
		Planning: entities.DemandDistribution{Mean: 60000, StdDev: 12000},
		Realized: entities.DemandDistribution{Mean: 53000, StdDev: 12000},
	}
}

// BuildSimpleTestData creates a single base/surge pair with deterministic demand
func BuildSimpleTestData() SeasonData {
	repo := memory.NewSupplierRepository(2)
	err := repo.LoadSuppliers([]*entities.Supplier{
		mustCreateSupplier("Offshore", 50000, 3, 100, 0),
		mustCreateSupplier("Local", 20000, 0, 120, 0),
	})
	if err != nil {
		panic(err)
	}

	return SeasonData{
		Suppliers: repo,
		Params: entities.FinancialParams{
			SellingPrice:       230,
			MonthlyHoldingCost: 4.6,
			LiquidationPrice:   144,
			OrderChangeFee:     2000000,
			HoldingMonths:      1,
		},
		Planning: entities.DemandDistribution{Mean: 53000, StdDev: 0},
		Realized: entities.DemandDistribution{Mean: 53000, StdDev: 0},
	}
}
