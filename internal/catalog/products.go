package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// ListProducts fetches one unfiltered page of products.
func (c *Client) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = c.pageSize
	}
	if offset < 0 {
		offset = 0
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var products []Product
	if err := c.do(ctx, "list_products", http.MethodGet, "/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var product Product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.do(ctx, "get_product", http.MethodGet, path, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductsByCategory fetches one bounded page of a category's products. The
// endpoint accepts no text parameter; callers needing a term filter apply it
// locally.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = c.searchPageSize
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var products []Product
	path := fmt.Sprintf("/categories/%d/products", categoryID)
	if err := c.do(ctx, "products_by_category", http.MethodGet, path, query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts fetches products whose title contains the given substring.
func (c *Client) SearchProducts(ctx context.Context, title string) ([]Product, error) {
	query := url.Values{}
	query.Set("title", title)

	var products []Product
	if err := c.do(ctx, "search_products", http.MethodGet, "/products/", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductsByPriceRange fetches products priced within [min, max].
func (c *Client) ProductsByPriceRange(ctx context.Context, min, max decimal.Decimal, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = c.searchPageSize
	}
	query := url.Values{}
	query.Set("price_min", min.String())
	query.Set("price_max", max.String())
	query.Set("limit", strconv.Itoa(limit))

	var products []Product
	if err := c.do(ctx, "products_by_price_range", http.MethodGet, "/products/", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
