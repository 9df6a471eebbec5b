package cart

import "github.com/shopspring/decimal"

const (
	ShippingFree      = "free"
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
)

var (
	freeShippingThreshold = decimal.RequireFromString("50")
	standardRate          = decimal.RequireFromString("9.99")
	expressRate           = decimal.RequireFromString("19.99")
	overnightRate         = decimal.RequireFromString("39.99")
	bulkSurcharge         = decimal.RequireFromString("5.00")
	bulkThreshold         = 10
)

// EstimateShipping quotes shipping for the current cart. Orders at or above
// the free threshold ship for nothing and quote as "free" regardless of the
// requested method; carts with more than ten units pay a flat bulk
// surcharge. Unknown methods are priced at the standard rate but the quote
// echoes the caller's method name.
func (s *Store) EstimateShipping(method string) ShippingQuote {
	s.mu.Lock()
	total := s.totalLocked()
	count := s.itemCountLocked()
	s.mu.Unlock()

	if method == "" {
		method = ShippingStandard
	}

	if total.GreaterThanOrEqual(freeShippingThreshold) {
		return ShippingQuote{Method: ShippingFree, Cost: decimal.Zero, EstimatedDays: "3-5"}
	}

	quote := ShippingQuote{Method: method}
	switch method {
	case ShippingExpress:
		quote.Cost = expressRate
		quote.EstimatedDays = "2-3"
	case ShippingOvernight:
		quote.Cost = overnightRate
		quote.EstimatedDays = "1"
	default:
		quote.Cost = standardRate
		quote.EstimatedDays = "5-7"
	}
	if count > bulkThreshold {
		quote.Cost = quote.Cost.Add(bulkSurcharge)
	}
	return quote
}
