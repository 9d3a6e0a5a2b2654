package services

import (
	"testing"

	"github.com/vsinha/dualsource/pkg/domain/entities"
)

func seasonSuppliers() []entities.Supplier {
	return []entities.Supplier{
		{Name: "FarFarAway", Capacity: 60000, LeadTimeMonths: 4, UnitCost: 160, SetupCost: 1000000},
		{Name: "FarAway", Capacity: 60000, LeadTimeMonths: 3, UnitCost: 160, SetupCost: 2000000},
		{Name: "PrettyClose", Capacity: 35000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 1000000},
		{Name: "VeryClose", Capacity: 40000, LeadTimeMonths: 0, UnitCost: 170, SetupCost: 2000000},
	}
}

func TestGeneratePairs_CrossProduct(t *testing.T) {
	pairs := GeneratePairs(seasonSuppliers(), DefaultLeadTimeThreshold)

	expected := []string{
		"FarFarAway+PrettyClose",
		"FarFarAway+VeryClose",
		"FarAway+PrettyClose",
		"FarAway+VeryClose",
	}
	if len(pairs) != len(expected) {
		t.Fatalf("Expected %d pairs, got %d", len(expected), len(pairs))
	}
	for i, pair := range pairs {
		if pair.Key() != expected[i] {
			t.Errorf("Pair %d: expected %s, got %s", i, expected[i], pair.Key())
		}
		if pair.Base.LeadTimeMonths <= pair.Surge.LeadTimeMonths {
			t.Errorf("Pair %s: base lead time must exceed surge lead time", pair.Key())
		}
	}
}

func TestGeneratePairs_SlowSupplierNeverSurge(t *testing.T) {
	pairs := GeneratePairs(seasonSuppliers(), 3)

	// FarAway (3mo) is base-eligible at threshold 3 and must never show up as surge
	for _, pair := range pairs {
		if pair.Surge.LeadTimeMonths >= 3 {
			t.Errorf("Supplier %s with lead time %d used as surge", pair.Surge.Name, pair.Surge.LeadTimeMonths)
		}
	}
	if len(pairs) != 4 {
		t.Errorf("Expected 4 pairs at threshold 3, got %d", len(pairs))
	}
}

func TestGeneratePairs_EmptyPartitions(t *testing.T) {
	testCases := []struct {
		name      string
		suppliers []entities.Supplier
	}{
		{"only base eligible", seasonSuppliers()[:2]},
		{"only surge eligible", seasonSuppliers()[2:]},
		{"no suppliers", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := GeneratePairs(tc.suppliers, DefaultLeadTimeThreshold)
			if pairs == nil {
				t.Fatal("Expected empty slice, got nil")
			}
			if len(pairs) != 0 {
				t.Errorf("Expected no pairs, got %d", len(pairs))
			}
		})
	}
}
