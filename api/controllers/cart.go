package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type productGetter interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type addCartItemPayload struct {
	ProductID int64 `json:"id" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type setQuantityPayload struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type mergeCartPayload struct {
	Items []cart.LineItem `json:"items" validate:"required"`
}

type cartView struct {
	CartID string          `json:"cartId"`
	Items  []cart.LineItem `json:"items"`
	Stats  cart.Stats      `json:"stats"`
}

func viewOf(store *cart.Store) cartView {
	return cartView{CartID: store.CartID(), Items: store.Items(), Stats: store.Stats()}
}

// CartGet returns the cart with its derived stats.
func CartGet(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartAddItem resolves the product remotely and adds it to the cart.
func CartAddItem(store *cart.Store, products productGetter, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || products == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := products.GetProduct(ctx, payload.ProductID)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}

		line, err := store.AddItem(ctx, *product, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"item": line,
			"cart": viewOf(store),
		})
	}
}

// CartSetQuantity replaces a line's quantity; zero or less removes it.
func CartSetQuantity(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		productID, err := validators.ParsePathID(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload setQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		store.SetQuantity(ctx, productID, *payload.Quantity)
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		productID, err := validators.ParsePathID(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		store.RemoveItem(ctx, productID)
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartClear empties the cart.
func CartClear(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		store.Clear(ctx)
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartMerge folds a guest cart into the active one.
func CartMerge(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload mergeCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		store.Merge(ctx, payload.Items)
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartStats returns only the derived numbers.
func CartStats(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.Stats())
	}
}

// CartShippingEstimate quotes shipping for the requested method.
func CartShippingEstimate(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		method := strings.TrimSpace(r.URL.Query().Get("method"))
		responses.WriteSuccess(w, store.EstimateShipping(method))
	}
}

// CartDiscountQuote prices a percentage discount without applying it.
func CartDiscountQuote(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		percent, err := validators.ParseQueryDecimal(r, "percent")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if percent == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "percent is required"))
			return
		}

		quote, err := store.ApplyDiscount(*percent)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartValidate checks every line against the catalog, dropping lines that
// no longer resolve.
func CartValidate(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.Validate(ctx))
	}
}

// CartRecommendations suggests products based on cart contents.
func CartRecommendations(store *cart.Store, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 4, 1, 20)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		picks, err := store.Recommendations(ctx, limit)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, picks)
	}
}

// CartExport snapshots the persisted cart.
func CartExport(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		snapshot, err := repo.Export(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// CartImport replaces the cart with a previously exported snapshot.
func CartImport(store *cart.Store, repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var snapshot cart.Export
		if err := validators.DecodeJSONBody(r, &snapshot); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := repo.Import(ctx, &snapshot); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Reload(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(store))
	}
}

// CartStorageSize reports the persisted payload size in bytes.
func CartStorageSize(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		size, err := repo.StorageSize(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"bytes": size})
	}
}
