package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/browse"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// ProductsList serves the load-more product listing.
func ProductsList(svc browse.Service, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryID(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ProductsPage(ctx, page, limit, categoryID)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductsSearch runs the filter/sort composition.
func ProductsSearch(svc browse.Service, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		categoryID, err := validators.ParseQueryID(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		priceMin, err := validators.ParseQueryDecimal(r, "price_min")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		priceMax, err := validators.ParseQueryDecimal(r, "price_max")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if priceMin != nil && priceMax != nil && priceMax.LessThan(*priceMin) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price_max must not be below price_min"))
			return
		}

		query := browse.Query{
			Term:       strings.TrimSpace(r.URL.Query().Get("term")),
			CategoryID: categoryID,
			PriceMin:   priceMin,
			PriceMax:   priceMax,
			SortBy:     strings.TrimSpace(r.URL.Query().Get("sort_by")),
		}

		items, err := svc.Search(ctx, query)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items": items,
			"count": len(items),
		})
	}
}

// ProductDetail serves a product with its related suggestions.
func ProductDetail(svc browse.Service, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.ProductWithRelated(ctx, id)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CategoriesList serves the category index.
func CategoriesList(svc browse.Service, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		categories, err := svc.Categories(ctx)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// Homepage serves the storefront landing payload.
func Homepage(svc browse.Service, logg *logger.Logger, messenger responses.UserMessenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		home, err := svc.Homepage(ctx)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, messenger)
			return
		}
		responses.WriteSuccess(w, home)
	}
}
