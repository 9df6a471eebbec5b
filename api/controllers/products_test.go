package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/shopfront-backend/internal/browse"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type fakeBrowseCatalog struct {
	products   []catalog.Product
	categories []catalog.Category
	err        error
}

func (f *fakeBrowseCatalog) ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, error) {
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

func (f *fakeBrowseCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, pkgerrors.FromHTTPStatus(http.StatusNotFound, "product not found")
}

func (f *fakeBrowseCatalog) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []catalog.Product{}
	for _, p := range f.products {
		if p.Category.ID == categoryID {
			out = append(out, p)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBrowseCatalog) SearchProducts(ctx context.Context, title string) ([]catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeBrowseCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeBrowseCatalog) PageSize() int       { return 20 }
func (f *fakeBrowseCatalog) SearchPageSize() int { return 50 }

func newBrowseService(t *testing.T, source *fakeBrowseCatalog) browse.Service {
	t.Helper()
	svc, err := browse.NewService(source, quietLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestProductsList(t *testing.T) {
	source := &fakeBrowseCatalog{products: []catalog.Product{
		testProduct(1, "Mug", "10.00"),
		testProduct(2, "Lamp", "40.00"),
	}}
	handler := ProductsList(newBrowseService(t, source), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/products?page=1&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var page browse.Page
	decodeData(t, rec, &page)
	if len(page.Items) != 2 || page.HasMore {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestProductsListBadQuery(t *testing.T) {
	handler := ProductsList(newBrowseService(t, &fakeBrowseCatalog{}), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/products?page=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProductsSearch(t *testing.T) {
	source := &fakeBrowseCatalog{products: []catalog.Product{
		testProduct(1, "Mug", "10.00"),
		testProduct(2, "Lamp", "40.00"),
	}}
	handler := ProductsSearch(newBrowseService(t, source), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/products/search?term=mug&price_min=5&price_max=20&sort_by=price-low-high", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Items []catalog.Product `json:"items"`
		Count int               `json:"count"`
	}
	decodeData(t, rec, &data)
	if data.Count != 1 || data.Items[0].ID != 1 {
		t.Fatalf("unexpected result: %+v", data)
	}
}

func TestProductsSearchInvalidPriceRange(t *testing.T) {
	handler := ProductsSearch(newBrowseService(t, &fakeBrowseCatalog{}), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/products/search?price_min=20&price_max=5", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProductsSearchRemoteFailure(t *testing.T) {
	source := &fakeBrowseCatalog{err: pkgerrors.New(pkgerrors.CodeTransport, "connection refused")}
	handler := ProductsSearch(newBrowseService(t, source), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/products/search?term=mug", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var envelope struct {
		Error struct {
			UserMessage string `json:"userMessage"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if envelope.Error.UserMessage != "Network error. Please check your internet connection." {
		t.Fatalf("user message = %q", envelope.Error.UserMessage)
	}
}

func TestProductDetail(t *testing.T) {
	source := &fakeBrowseCatalog{products: []catalog.Product{
		testProduct(1, "Mug", "10.00"),
		testProduct(2, "Plate", "8.00"),
	}}
	handler := ProductDetail(newBrowseService(t, source), quietLogger(), nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/products/1", nil), "id", "1")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var detail browse.ProductDetail
	decodeData(t, rec, &detail)
	if detail.Product.ID != 1 || len(detail.Related) != 1 || detail.Related[0].ID != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/products/abc", nil), "id", "abc")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestHomepageHandler(t *testing.T) {
	source := &fakeBrowseCatalog{
		products:   []catalog.Product{testProduct(1, "Mug", "10.00")},
		categories: []catalog.Category{{ID: 1, Name: "Clothes"}},
	}
	handler := Homepage(newBrowseService(t, source), quietLogger(), nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var home browse.Homepage
	decodeData(t, rec, &home)
	if len(home.Featured) != 1 || len(home.Categories) != 1 {
		t.Fatalf("unexpected homepage: %+v", home)
	}
}
