package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Persister is the slice of the repository the store needs.
type Persister interface {
	Load(ctx context.Context) ([]LineItem, error)
	CartID(ctx context.Context) (string, error)
	Save(ctx context.Context, cartID string, items []LineItem) error
	Clear(ctx context.Context) error
}

// ProductSource resolves products for validation and recommendations.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]catalog.Product, error)
}

// Store holds the in-memory cart and schedules persistence in the
// background. Mutations apply atomically under the lock and return
// immediately; the corresponding write runs on its own goroutine and a
// failure there is recorded and logged, never surfaced to the caller.
// Writes are serialized, each one reads the state current when it runs,
// and a write superseded by a newer mutation before it runs is dropped, so
// the last write to land always carries the latest state.
type Store struct {
	repo    Persister
	catalog ProductSource
	logger  *logger.Logger
	now     func() time.Time
	newID   func() string

	mu           sync.Mutex
	items        []LineItem
	cartID       string
	writeSeq     uint64
	clearPending bool

	wg      sync.WaitGroup
	writeMu sync.Mutex
	saveMu  sync.Mutex
	saveErr error
}

type StoreParams struct {
	Repo    Persister
	Catalog ProductSource
	Logger  *logger.Logger
	Now     func() time.Time
	NewID   func() string
}

func NewStore(ctx context.Context, p StoreParams) (*Store, error) {
	if p.Repo == nil {
		return nil, errors.New(errors.CodeInternal, "cart store requires a repository")
	}
	if p.Catalog == nil {
		return nil, errors.New(errors.CodeInternal, "cart store requires a product source")
	}
	if p.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "cart store requires a logger")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}

	s := &Store{
		repo:    p.Repo,
		catalog: p.Catalog,
		logger:  p.Logger,
		now:     p.Now,
		newID:   p.NewID,
	}

	items, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	cartID, err := s.repo.CartID(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	s.cartID = cartID
	return s, nil
}

// CartID returns the stable identifier for this cart.
func (s *Store) CartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartID
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddItem adds the product to the cart, incrementing the quantity of the
// existing line when the product is already present.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) (LineItem, error) {
	if product.ID == 0 {
		return LineItem{}, errors.New(errors.CodeValidation, "product is required")
	}
	if quantity < 1 {
		return LineItem{}, errors.New(errors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	now := s.now().UTC()
	var line LineItem
	if i := s.indexOfLocked(product.ID); i >= 0 {
		s.items[i].Quantity += quantity
		s.items[i].LastUpdated = now
		line = s.items[i]
	} else {
		line = newLineItem(product, quantity, s.newID(), now)
		s.items = append(s.items, line)
	}
	s.scheduleSaveLocked(ctx)
	s.mu.Unlock()
	return line, nil
}

// RemoveItem drops the line for the product. Removing an absent product is
// a no-op and does not trigger a write.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(productID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.scheduleSaveLocked(ctx)
}

// SetQuantity replaces the quantity for the product's line. A quantity
// below 1 removes the line.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) {
	if quantity < 1 {
		s.RemoveItem(ctx, productID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(productID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = quantity
	s.items[i].LastUpdated = s.now().UTC()
	s.scheduleSaveLocked(ctx)
}

// Clear empties the cart but keeps the cart id.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.scheduleClearLocked(ctx)
}

// Merge folds another cart's contents into this one. Quantities are summed
// for products already present; new lines are appended with fresh item ids
// and quantities clamped to at least 1.
func (s *Store) Merge(ctx context.Context, incoming []LineItem) {
	if len(incoming) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	mutated := false
	for _, in := range incoming {
		if in.ProductID == 0 {
			continue
		}
		qty := in.Quantity
		if qty < 1 {
			qty = 1
		}
		if i := s.indexOfLocked(in.ProductID); i >= 0 {
			s.items[i].Quantity += qty
			s.items[i].LastUpdated = now
		} else {
			line := in
			line.CartItemID = s.newID()
			line.Quantity = qty
			line.AddedAt = now
			line.LastUpdated = now
			s.items = append(s.items, line)
		}
		mutated = true
	}
	if mutated {
		s.scheduleSaveLocked(ctx)
	}
}

// Reload replaces in-memory state with whatever is persisted.
func (s *Store) Reload(ctx context.Context) error {
	items, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Total is the sum of price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// ItemCount is the sum of quantities over all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCountLocked()
}

// UniqueItemCount is the number of distinct product lines.
func (s *Store) UniqueItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsInCart reports whether the product has a line in the cart.
func (s *Store) IsInCart(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(productID) >= 0
}

// Item returns the line for the product, if present.
func (s *Store) Item(productID int64) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOfLocked(productID); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// ItemsByCategory returns the lines whose category matches the name.
func (s *Store) ItemsByCategory(category string) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []LineItem{}
	for _, it := range s.items {
		if it.Category.Name == category {
			matched = append(matched, it)
		}
	}
	return matched
}

// Stats computes the derived snapshot of the current cart.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:        s.totalLocked(),
		ItemCount:    s.itemCountLocked(),
		UniqueItems:  len(s.items),
		AveragePrice: decimal.Zero,
		MaxPrice:     decimal.Zero,
		MinPrice:     decimal.Zero,
		IsEmpty:      len(s.items) == 0,
	}
	if len(s.items) == 0 {
		return stats
	}

	stats.MaxPrice = s.items[0].Price
	stats.MinPrice = s.items[0].Price
	for _, it := range s.items[1:] {
		if it.Price.GreaterThan(stats.MaxPrice) {
			stats.MaxPrice = it.Price
		}
		if it.Price.LessThan(stats.MinPrice) {
			stats.MinPrice = it.Price
		}
	}
	if stats.ItemCount > 0 {
		stats.AveragePrice = stats.Total.Div(decimal.NewFromInt(int64(stats.ItemCount))).Round(2)
	}
	return stats
}

// ApplyDiscount quotes a percentage discount against the current total. The
// cart itself is never mutated.
func (s *Store) ApplyDiscount(percent decimal.Decimal) (DiscountQuote, error) {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return DiscountQuote{}, errors.New(errors.CodeValidation, "discount percent must be between 0 and 100")
	}
	total := s.Total()
	amount := total.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	return DiscountQuote{
		OriginalTotal:   total,
		DiscountPercent: percent,
		DiscountAmount:  amount,
		FinalTotal:      total.Sub(amount),
	}, nil
}

// Validate checks each line against the catalog and partitions the cart
// into lines that still resolve and lines that no longer do. Lookup
// failures mark the line invalid; invalid lines are removed from the cart
// and the shrunken state is persisted.
func (s *Store) Validate(ctx context.Context) ValidationReport {
	items := s.Items()
	report := ValidationReport{Valid: []LineItem{}, Invalid: []LineItem{}}
	var lookupErrs error
	for _, it := range items {
		if _, err := s.catalog.GetProduct(ctx, it.ProductID); err != nil {
			report.Invalid = append(report.Invalid, it)
			lookupErrs = multierr.Append(lookupErrs, err)
			continue
		}
		report.Valid = append(report.Valid, it)
	}
	if len(report.Invalid) > 0 {
		s.dropLines(ctx, report.Invalid)
		s.logger.Warn(
			s.logger.WithFields(ctx, map[string]any{
				"invalid_items": len(report.Invalid),
				"error":         lookupErrs.Error(),
			}),
			"removed unresolved products from cart",
		)
	}
	return report
}

// dropLines removes the given products from the cart in one mutation.
func (s *Store) dropLines(ctx context.Context, lines []LineItem) {
	doomed := make(map[int64]struct{}, len(lines))
	for _, it := range lines {
		doomed[it.ProductID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if _, gone := doomed[it.ProductID]; gone {
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	s.scheduleSaveLocked(ctx)
}

// Recommendations suggests products from the first line's category,
// excluding products already in the cart.
func (s *Store) Recommendations(ctx context.Context, limit int) ([]catalog.Product, error) {
	if limit < 1 {
		limit = 4
	}
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return []catalog.Product{}, nil
	}
	categoryID := s.items[0].Category.ID
	inCart := make(map[int64]struct{}, len(s.items))
	for _, it := range s.items {
		inCart[it.ProductID] = struct{}{}
	}
	s.mu.Unlock()

	candidates, err := s.catalog.ProductsByCategory(ctx, categoryID, limit+len(inCart))
	if err != nil {
		return nil, err
	}
	picks := []catalog.Product{}
	for _, p := range candidates {
		if _, ok := inCart[p.ID]; ok {
			continue
		}
		picks = append(picks, p)
		if len(picks) == limit {
			break
		}
	}
	return picks, nil
}

// Flush blocks until every scheduled write has finished.
func (s *Store) Flush() {
	s.wg.Wait()
}

// LastSaveErr reports the most recent background write failure, if any.
func (s *Store) LastSaveErr() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saveErr
}

func (s *Store) indexOfLocked(productID int64) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s *Store) itemCountLocked() int {
	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

func (s *Store) scheduleSaveLocked(ctx context.Context) {
	s.writeSeq++
	s.clearPending = false
	s.wg.Add(1)
	go s.persist(context.WithoutCancel(ctx), s.writeSeq)
}

func (s *Store) scheduleClearLocked(ctx context.Context) {
	s.writeSeq++
	s.clearPending = true
	s.wg.Add(1)
	go s.persist(context.WithoutCancel(ctx), s.writeSeq)
}

// persist executes one scheduled write. Writes run one at a time under
// writeMu; a write that is no longer the newest scheduled one returns
// without touching storage, leaving the state to the write that superseded
// it. The snapshot is taken when the write runs, not when it was scheduled.
func (s *Store) persist(ctx context.Context, seq uint64) {
	defer s.wg.Done()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if seq != s.writeSeq {
		s.mu.Unlock()
		return
	}
	clearing := s.clearPending
	snapshot := s.snapshotLocked()
	cartID := s.cartID
	s.mu.Unlock()

	var err error
	if clearing {
		err = s.repo.Clear(ctx)
	} else {
		err = s.repo.Save(ctx, cartID, snapshot)
	}
	if err != nil {
		s.recordSaveErr(ctx, err)
	}
}

func (s *Store) recordSaveErr(ctx context.Context, err error) {
	s.saveMu.Lock()
	s.saveErr = err
	s.saveMu.Unlock()
	s.logger.Error(ctx, "cart persistence failed", err)
}
