package cart

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart: a materialized copy of the
// product's display fields at add time plus cart-local bookkeeping. At most
// one line item exists per product id.
type LineItem struct {
	CartItemID  string           `json:"cartItemId"`
	ProductID   int64            `json:"id"`
	Title       string           `json:"title"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Category    catalog.Category `json:"category"`
	Quantity    int              `json:"quantity"`
	AddedAt     time.Time        `json:"addedAt"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// Metadata is the informational record persisted alongside the cart. It is
// rewritten on every mutation and never read back to reconstruct the cart.
type Metadata struct {
	ItemCount   int       `json:"itemCount"`
	LastUpdated time.Time `json:"lastUpdated"`
	CartID      string    `json:"cartId"`
}

// Stats is the derived snapshot recomputed from current state on demand.
type Stats struct {
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"itemCount"`
	UniqueItems  int             `json:"uniqueItems"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	MaxPrice     decimal.Decimal `json:"maxPrice"`
	MinPrice     decimal.Decimal `json:"minPrice"`
	IsEmpty      bool            `json:"isEmpty"`
}

// DiscountQuote is the result of a pure discount computation; the cart is
// not mutated.
type DiscountQuote struct {
	OriginalTotal   decimal.Decimal `json:"originalTotal"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	FinalTotal      decimal.Decimal `json:"finalTotal"`
}

// ShippingQuote is the result of a pure shipping estimate.
type ShippingQuote struct {
	Method        string          `json:"method"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays string          `json:"estimatedDays"`
}

// ValidationReport partitions the cart into items that still exist remotely
// and items that no longer resolve.
type ValidationReport struct {
	Valid   []LineItem `json:"validItems"`
	Invalid []LineItem `json:"invalidItems"`
}

// Export is the diagnostics/migration snapshot of the persisted cart.
type Export struct {
	Items      []LineItem `json:"items"`
	Metadata   *Metadata  `json:"metadata,omitempty"`
	ExportedAt time.Time  `json:"exportedAt"`
}

func newLineItem(product catalog.Product, quantity int, id string, now time.Time) LineItem {
	return LineItem{
		CartItemID:  id,
		ProductID:   product.ID,
		Title:       product.Title,
		Price:       product.Price,
		Description: product.Description,
		Images:      product.Images,
		Category:    product.Category,
		Quantity:    quantity,
		AddedAt:     now,
		LastUpdated: now,
	}
}
