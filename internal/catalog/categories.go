package catalog

import (
	"context"
	"fmt"
	"net/http"
)

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, "list_categories", http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategory fetches a single category by id.
func (c *Client) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var category Category
	path := fmt.Sprintf("/categories/%d", id)
	if err := c.do(ctx, "get_category", http.MethodGet, path, nil, nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
