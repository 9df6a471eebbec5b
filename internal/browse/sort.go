package browse

import (
	"sort"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortPriceLowHigh = "price-low-high"
	SortPriceHighLow = "price-high-low"
	SortNameAZ       = "name-a-z"
	SortNameZA       = "name-z-a"
	SortNewest       = "newest"
)

// sortProducts orders the slice in place. Sorts are stable so equal keys
// keep their remote order; an unrecognized key leaves the slice untouched.
func sortProducts(products []catalog.Product, sortBy string) {
	switch sortBy {
	case SortPriceLowHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceHighLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNameAZ:
		c := collate.New(language.English)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Title, products[j].Title) < 0
		})
	case SortNameZA:
		c := collate.New(language.English)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Title, products[j].Title) > 0
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreationAt.After(products[j].CreationAt)
		})
	}
}
