package browse

import (
	"context"
	"strings"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	featuredCount = 8
	relatedCount  = 4
)

// Service composes catalog calls with local filtering and sorting. The
// remote service cannot combine a text search with a category or price
// constraint, so the missing dimensions are applied locally after one
// remote fetch.
type Service interface {
	Search(ctx context.Context, query Query) ([]catalog.Product, error)
	ProductsPage(ctx context.Context, page, limit int, categoryID int64) (*Page, error)
	Homepage(ctx context.Context) (*Homepage, error)
	ProductWithRelated(ctx context.Context, id int64) (*ProductDetail, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// Query is the transient filter/sort request. A zero CategoryID means no
// category constraint. Nil price bounds default to 0 and +inf. MinRating is
// accepted for interface compatibility but never enforced: the catalog
// service exposes no rating data.
type Query struct {
	Term       string
	CategoryID int64
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	SortBy     string
	MinRating  float64
}

// Page is one slice of the unfiltered product listing.
type Page struct {
	Items   []catalog.Product `json:"items"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	HasMore bool              `json:"hasMore"`
}

// Homepage bundles the storefront landing data.
type Homepage struct {
	Featured   []catalog.Product  `json:"featured"`
	Categories []catalog.Category `json:"categories"`
}

// ProductDetail is a product plus same-category suggestions.
type ProductDetail struct {
	Product catalog.Product   `json:"product"`
	Related []catalog.Product `json:"related"`
}

type catalogReader interface {
	ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]catalog.Product, error)
	SearchProducts(ctx context.Context, title string) ([]catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	PageSize() int
	SearchPageSize() int
}

type service struct {
	catalog catalogReader
	logger  *logger.Logger
}

func NewService(source catalogReader, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, errors.New(errors.CodeInternal, "browse service requires a catalog client")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "browse service requires a logger")
	}
	return &service{catalog: source, logger: logg}, nil
}

// Search runs the composition: one remote fetch selected by the query shape,
// then local narrowing and ordering. Any remote failure aborts the whole
// composition; partial results are never returned.
func (s *service) Search(ctx context.Context, query Query) ([]catalog.Product, error) {
	term := strings.TrimSpace(query.Term)

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case query.CategoryID != 0:
		products, err = s.catalog.ProductsByCategory(ctx, query.CategoryID, s.catalog.SearchPageSize())
	case term != "":
		products, err = s.catalog.SearchProducts(ctx, term)
	default:
		products, err = s.catalog.ListProducts(ctx, s.catalog.SearchPageSize(), 0)
	}
	if err != nil {
		return nil, err
	}

	// The category endpoint has no text parameter, so the term is applied
	// locally when both are present.
	if query.CategoryID != 0 && term != "" {
		products = filterByTerm(products, term)
	}
	products = filterByPrice(products, query.PriceMin, query.PriceMax)
	sortProducts(products, query.SortBy)

	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// ProductsPage serves load-more pagination. Offset arithmetic is only
// meaningful on the unfiltered listing; a category page is a single bounded
// fetch and never reports more.
func (s *service) ProductsPage(ctx context.Context, page, limit int, categoryID int64) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.catalog.PageSize()
	}

	if categoryID != 0 {
		items, err := s.catalog.ProductsByCategory(ctx, categoryID, limit)
		if err != nil {
			return nil, err
		}
		return &Page{Items: items, Page: 1, Limit: limit, HasMore: false}, nil
	}

	items, err := s.catalog.ListProducts(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:   items,
		Page:    page,
		Limit:   limit,
		HasMore: len(items) == limit,
	}, nil
}

// Homepage returns the featured slice of the default listing plus the
// category index.
func (s *service) Homepage(ctx context.Context) (*Homepage, error) {
	featured, err := s.catalog.ListProducts(ctx, featuredCount, 0)
	if err != nil {
		return nil, err
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &Homepage{Featured: featured, Categories: categories}, nil
}

// ProductWithRelated resolves a product and suggests others from the same
// category, excluding the product itself.
func (s *service) ProductWithRelated(ctx context.Context, id int64) (*ProductDetail, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.ProductsByCategory(ctx, product.Category.ID, relatedCount+1)
	if err != nil {
		// Related products are decoration on the detail page; the product
		// itself resolved, so serve it without them.
		s.logger.Warn(
			s.logger.WithField(ctx, "product_id", id),
			"failed to load related products",
		)
		return &ProductDetail{Product: *product, Related: []catalog.Product{}}, nil
	}

	related := []catalog.Product{}
	for _, p := range candidates {
		if p.ID == id {
			continue
		}
		related = append(related, p)
		if len(related) == relatedCount {
			break
		}
	}
	return &ProductDetail{Product: *product, Related: related}, nil
}

func (s *service) Categories(ctx context.Context) ([]catalog.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func filterByTerm(products []catalog.Product, term string) []catalog.Product {
	needle := strings.ToLower(term)
	out := []catalog.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

func filterByPrice(products []catalog.Product, min, max *decimal.Decimal) []catalog.Product {
	if min == nil && max == nil {
		return products
	}
	out := []catalog.Product{}
	for _, p := range products {
		if min != nil && p.Price.LessThan(*min) {
			continue
		}
		if max != nil && p.Price.GreaterThan(*max) {
			continue
		}
		out = append(out, p)
	}
	return out
}
