package checkout

import (
	"context"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatusSimulated marks every confirmation: no gateway is wired and
// no charge ever happens.
const PaymentStatusSimulated = "simulated"

type cartSource interface {
	CartID() string
	Items() []cart.LineItem
	Total() decimal.Decimal
	ItemCount() int
	EstimateShipping(method string) cart.ShippingQuote
	ApplyDiscount(percent decimal.Decimal) (cart.DiscountQuote, error)
	Clear(ctx context.Context)
}

// Service executes the simulated checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*Confirmation, error)
}

// Input captures the order options chosen at checkout.
type Input struct {
	ShippingMethod  string
	DiscountPercent *decimal.Decimal
}

// Confirmation is the priced, completed order record.
type Confirmation struct {
	OrderID        string             `json:"orderId"`
	CartID         string             `json:"cartId"`
	PlacedAt       time.Time          `json:"placedAt"`
	Items          []cart.LineItem    `json:"items"`
	ItemCount      int                `json:"itemCount"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Shipping       cart.ShippingQuote `json:"shipping"`
	Total          decimal.Decimal    `json:"total"`
	PaymentStatus  string             `json:"paymentStatus"`
	ShippingMethod string             `json:"shippingMethod"`
}

type service struct {
	cart   cartSource
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

type Params struct {
	Cart   cartSource
	Logger *logger.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewService(p Params) (Service, error) {
	if p.Cart == nil {
		return nil, errors.New(errors.CodeInternal, "checkout service requires a cart store")
	}
	if p.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "checkout service requires a logger")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}
	return &service{cart: p.Cart, logger: p.Logger, now: p.Now, newID: p.NewID}, nil
}

// Execute prices the current cart, produces a confirmation, and clears the
// cart. The order of those steps matters: the confirmation snapshots the
// cart before Clear empties it.
func (s *service) Execute(ctx context.Context, input Input) (*Confirmation, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return nil, errors.New(errors.CodeValidation, "cannot check out an empty cart")
	}

	subtotal := s.cart.Total()
	discount := decimal.Zero
	discounted := subtotal
	if input.DiscountPercent != nil {
		quote, err := s.cart.ApplyDiscount(*input.DiscountPercent)
		if err != nil {
			return nil, err
		}
		discount = quote.DiscountAmount
		discounted = quote.FinalTotal
	}

	shipping := s.cart.EstimateShipping(input.ShippingMethod)

	confirmation := &Confirmation{
		OrderID:        s.newID(),
		CartID:         s.cart.CartID(),
		PlacedAt:       s.now().UTC(),
		Items:          items,
		ItemCount:      s.cart.ItemCount(),
		Subtotal:       subtotal,
		Discount:       discount,
		Shipping:       shipping,
		Total:          discounted.Add(shipping.Cost),
		PaymentStatus:  PaymentStatusSimulated,
		ShippingMethod: shipping.Method,
	}

	s.cart.Clear(ctx)

	s.logger.Info(
		s.logger.WithFields(ctx, map[string]any{
			"order_id": confirmation.OrderID,
			"total":    confirmation.Total.String(),
			"items":    confirmation.ItemCount,
		}),
		"order placed",
	)
	return confirmation, nil
}
