package browse

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	products   []catalog.Product
	byCategory map[int64][]catalog.Product
	bySearch   map[string][]catalog.Product
	categories []catalog.Category
	err        error

	listCalls     int
	searchCalls   int
	categoryCalls int
}

func (f *fakeCatalog) ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.products) {
		return []catalog.Product{}, nil
	}
	end := offset + limit
	if end > len(f.products) {
		end = len(f.products)
	}
	return f.products[offset:end], nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "product not found")
}

func (f *fakeCatalog) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]catalog.Product, error) {
	f.categoryCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := f.byCategory[categoryID]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalog) SearchProducts(ctx context.Context, title string) ([]catalog.Product, error) {
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bySearch[title], nil
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeCatalog) PageSize() int       { return 20 }
func (f *fakeCatalog) SearchPageSize() int { return 50 }

func testService(t *testing.T, source *fakeCatalog) Service {
	t.Helper()
	svc, err := NewService(source, logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func price(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func prod(id int64, title, priceStr string) catalog.Product {
	return catalog.Product{ID: id, Title: title, Price: price(priceStr)}
}

func TestSearchSelectsRemoteCall(t *testing.T) {
	source := &fakeCatalog{
		products:   []catalog.Product{prod(1, "Default", "1.00")},
		byCategory: map[int64][]catalog.Product{5: {prod(2, "Category", "2.00")}},
		bySearch:   map[string][]catalog.Product{"mug": {prod(3, "Mug", "3.00")}},
	}
	svc := testService(t, source)
	ctx := context.Background()

	got, err := svc.Search(ctx, Query{CategoryID: 5, Term: ""})
	if err != nil {
		t.Fatalf("Search by category: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("category path returned %+v", got)
	}

	got, err = svc.Search(ctx, Query{Term: "  mug  "})
	if err != nil {
		t.Fatalf("Search by term: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("search path returned %+v", got)
	}

	got, err = svc.Search(ctx, Query{})
	if err != nil {
		t.Fatalf("Search default: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("default path returned %+v", got)
	}

	if source.categoryCalls != 1 || source.searchCalls != 1 || source.listCalls != 1 {
		t.Fatalf("each query shape should make exactly one remote call: %+v", source)
	}
}

func TestSearchTermWithinCategory(t *testing.T) {
	source := &fakeCatalog{
		byCategory: map[int64][]catalog.Product{5: {
			{ID: 1, Title: "Ceramic Mug", Price: price("10")},
			{ID: 2, Title: "Lamp", Description: "a mug-shaped lamp", Price: price("20")},
			{ID: 3, Title: "Chair", Price: price("30")},
		}},
	}
	svc := testService(t, source)

	got, err := svc.Search(context.Background(), Query{CategoryID: 5, Term: "MUG"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("local term filter over title+description returned %+v", got)
	}
	if source.searchCalls != 0 {
		t.Fatal("category path must not hit the search endpoint")
	}
}

func TestSearchPriceRange(t *testing.T) {
	source := &fakeCatalog{products: []catalog.Product{
		prod(1, "Cheap", "5.00"),
		prod(2, "Mid", "15.00"),
		prod(3, "Pricey", "50.00"),
	}}
	svc := testService(t, source)
	ctx := context.Background()

	min := price("10")
	max := price("20")
	got, err := svc.Search(ctx, Query{PriceMin: &min, PriceMax: &max})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("price filter returned %+v", got)
	}

	got, err = svc.Search(ctx, Query{PriceMin: &min})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("open-ended max should keep everything above min, got %+v", got)
	}
}

func TestSearchSorting(t *testing.T) {
	base := func() []catalog.Product {
		return []catalog.Product{
			{ID: 1, Title: "banana", Price: price("30"), CreationAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 2, Title: "Apple", Price: price("10"), CreationAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 3, Title: "cherry", Price: price("20"), CreationAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		}
	}
	svc := testService(t, &fakeCatalog{products: base()})
	ctx := context.Background()

	ascending, err := svc.Search(ctx, Query{SortBy: SortPriceLowHigh})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if ascending[0].ID != 2 || ascending[1].ID != 3 || ascending[2].ID != 1 {
		t.Fatalf("price ascending: %+v", ids(ascending))
	}

	svc = testService(t, &fakeCatalog{products: base()})
	descending, _ := svc.Search(ctx, Query{SortBy: SortPriceHighLow})
	if descending[0].ID != 1 || descending[2].ID != 2 {
		t.Fatalf("price descending: %+v", ids(descending))
	}

	svc = testService(t, &fakeCatalog{products: base()})
	byName, _ := svc.Search(ctx, Query{SortBy: SortNameAZ})
	if byName[0].ID != 2 || byName[1].ID != 1 || byName[2].ID != 3 {
		t.Fatalf("locale name sort should be case-insensitive: %+v", ids(byName))
	}

	svc = testService(t, &fakeCatalog{products: base()})
	newest, _ := svc.Search(ctx, Query{SortBy: SortNewest})
	if newest[0].ID != 2 || newest[2].ID != 1 {
		t.Fatalf("newest sort: %+v", ids(newest))
	}

	svc = testService(t, &fakeCatalog{products: base()})
	unknown, _ := svc.Search(ctx, Query{SortBy: "rating"})
	if unknown[0].ID != 1 || unknown[2].ID != 3 {
		t.Fatalf("unknown sort key must keep remote order: %+v", ids(unknown))
	}
}

func TestSearchSortStability(t *testing.T) {
	source := &fakeCatalog{products: []catalog.Product{
		prod(1, "First", "10.00"),
		prod(2, "Second", "10.00"),
		prod(3, "Third", "5.00"),
	}}
	svc := testService(t, source)

	got, err := svc.Search(context.Background(), Query{SortBy: SortPriceLowHigh})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got[0].ID != 3 || got[1].ID != 1 || got[2].ID != 2 {
		t.Fatalf("equal-price items must keep relative order: %+v", ids(got))
	}
}

func TestSearchMinRatingIgnored(t *testing.T) {
	source := &fakeCatalog{products: []catalog.Product{prod(1, "Mug", "10.00")}}
	svc := testService(t, source)

	got, err := svc.Search(context.Background(), Query{MinRating: 4.5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatal("min rating has no remote backing and must not filter anything")
	}
}

func TestSearchAbortsOnRemoteFailure(t *testing.T) {
	source := &fakeCatalog{err: errors.New(errors.CodeTransport, "connection refused")}
	svc := testService(t, source)

	if _, err := svc.Search(context.Background(), Query{Term: "mug"}); err == nil {
		t.Fatal("remote failure must abort the composition")
	}
}

func TestProductsPage(t *testing.T) {
	all := make([]catalog.Product, 0, 25)
	for i := int64(1); i <= 25; i++ {
		all = append(all, prod(i, "P", "1.00"))
	}
	source := &fakeCatalog{
		products:   all,
		byCategory: map[int64][]catalog.Product{5: all[:3]},
	}
	svc := testService(t, source)
	ctx := context.Background()

	first, err := svc.ProductsPage(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("ProductsPage: %v", err)
	}
	if len(first.Items) != 10 || !first.HasMore || first.Items[0].ID != 1 {
		t.Fatalf("unexpected first page: %+v", first)
	}

	last, err := svc.ProductsPage(ctx, 3, 10, 0)
	if err != nil {
		t.Fatalf("ProductsPage: %v", err)
	}
	if len(last.Items) != 5 || last.HasMore {
		t.Fatalf("unexpected last page: %+v", last)
	}

	category, err := svc.ProductsPage(ctx, 4, 10, 5)
	if err != nil {
		t.Fatalf("ProductsPage category: %v", err)
	}
	if len(category.Items) != 3 || category.HasMore || category.Page != 1 {
		t.Fatalf("category pages are single fetches: %+v", category)
	}
}

func TestHomepage(t *testing.T) {
	all := make([]catalog.Product, 0, 12)
	for i := int64(1); i <= 12; i++ {
		all = append(all, prod(i, "P", "1.00"))
	}
	source := &fakeCatalog{
		products:   all,
		categories: []catalog.Category{{ID: 1, Name: "Clothes"}},
	}
	svc := testService(t, source)

	home, err := svc.Homepage(context.Background())
	if err != nil {
		t.Fatalf("Homepage: %v", err)
	}
	if len(home.Featured) != featuredCount {
		t.Fatalf("featured = %d, want %d", len(home.Featured), featuredCount)
	}
	if len(home.Categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(home.Categories))
	}
}

func TestProductWithRelated(t *testing.T) {
	target := catalog.Product{ID: 1, Title: "Mug", Price: price("10"), Category: catalog.Category{ID: 5}}
	source := &fakeCatalog{
		products: []catalog.Product{target},
		byCategory: map[int64][]catalog.Product{5: {
			target,
			prod(2, "Plate", "8.00"),
			prod(3, "Bowl", "6.00"),
		}},
	}
	svc := testService(t, source)

	detail, err := svc.ProductWithRelated(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductWithRelated: %v", err)
	}
	if detail.Product.ID != 1 {
		t.Fatalf("unexpected product: %+v", detail.Product)
	}
	if len(detail.Related) != 2 {
		t.Fatalf("related = %d, want 2", len(detail.Related))
	}
	for _, p := range detail.Related {
		if p.ID == 1 {
			t.Fatal("related products must exclude the product itself")
		}
	}
}

func ids(products []catalog.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
