package services

import "github.com/vsinha/dualsource/pkg/domain/entities"

// DefaultLeadTimeThreshold separates slow base suppliers from fast surge suppliers
const DefaultLeadTimeThreshold = 1

// PartitionSuppliers splits suppliers into base-eligible (lead time >= threshold)
// and surge-eligible (lead time < threshold) sets, preserving input order
func PartitionSuppliers(suppliers []entities.Supplier, leadTimeThreshold int) (base, surge []entities.Supplier) {
	for _, s := range suppliers {
		if s.LeadTimeMonths >= leadTimeThreshold {
			base = append(base, s)
		} else {
			surge = append(surge, s)
		}
	}
	return base, surge
}

// GeneratePairs returns the cross product of base-eligible and surge-eligible suppliers.
// A slow supplier is never used for surge even if its capacity would fit.
// The result is empty, not an error, when either set is empty.
func GeneratePairs(suppliers []entities.Supplier, leadTimeThreshold int) []entities.SupplierPair {
	base, surge := PartitionSuppliers(suppliers, leadTimeThreshold)
	if len(base) == 0 || len(surge) == 0 {
		return []entities.SupplierPair{}
	}

	pairs := make([]entities.SupplierPair, 0, len(base)*len(surge))
	for _, b := range base {
		for _, s := range surge {
			pairs = append(pairs, entities.SupplierPair{Base: b, Surge: s})
		}
	}
	return pairs
}
