package domain

import (
	"github.com/shopspring/decimal"
)

// SellingPrice derives the retail price for a supplier price under the
// mapping's markup rule. Prices are minor currency units; percentage
// markups are rounded half-up to the nearest unit.
func (m *ProductSupplierMapping) SellingPrice(supplierPrice int64) int64 {
	return ComputeSellingPrice(supplierPrice, m.MarkupType, m.MarkupPercentage, m.FixedMarkup)
}

// ComputeSellingPrice applies a markup rule to a supplier price:
//
//	percentage: supplierPrice * (1 + pct/100), rounded to nearest unit
//	fixed:      supplierPrice + fixedMarkup
func ComputeSellingPrice(supplierPrice int64, markupType MarkupType, markupPercentage float64, fixedMarkup int64) int64 {
	if markupType == MarkupTypeFixed {
		return supplierPrice + fixedMarkup
	}

	price := decimal.NewFromInt(supplierPrice)
	factor := decimal.NewFromInt(1).Add(
		decimal.NewFromFloat(markupPercentage).Div(decimal.NewFromInt(100)),
	)
	return price.Mul(factor).Round(0).IntPart()
}
