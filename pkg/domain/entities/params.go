package entities

import "fmt"

// FinancialParams holds the season-level money constants
type FinancialParams struct {
	SellingPrice       float64 `json:"selling_price"`
	MonthlyHoldingCost float64 `json:"monthly_holding_cost"`
	LiquidationPrice   float64 `json:"liquidation_price"`
	OrderChangeFee     float64 `json:"order_change_fee"`
	// HoldingMonths is how long leftover units are held before liquidation
	HoldingMonths float64 `json:"holding_months"`
}

// Validate rejects negative prices, costs and horizons
func (p FinancialParams) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"selling price", p.SellingPrice},
		{"monthly holding cost", p.MonthlyHoldingCost},
		{"liquidation price", p.LiquidationPrice},
		{"order change fee", p.OrderChangeFee},
		{"holding months", p.HoldingMonths},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("%w: %s cannot be negative, got %g", ErrConfiguration, c.name, c.value)
		}
	}
	return nil
}
