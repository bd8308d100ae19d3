package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// maxOffset keeps deep paging from turning into full scans.
const maxOffset = 10000

// SearchProducts serves GET /api/v1/products.
func SearchProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		query, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseCatalogQuery(r *http.Request) (productsvc.Query, error) {
	q := r.URL.Query()
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return productsvc.Query{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxOffset)
	if err != nil {
		return productsvc.Query{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return productsvc.Query{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return productsvc.Query{}, err
	}
	return productsvc.Query{
		Text:      strings.TrimSpace(q.Get("q")),
		Category:  strings.TrimSpace(q.Get("category")),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     limit,
		Offset:    offset,
	}, nil
}

func FeaturedProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		items, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ProductDetails serves GET /api/v1/products/{slug} with reviews and related
// products.
func ProductDetails(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		details, err := svc.GetDetails(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

func ListCategories(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		cats, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cats)
	}
}
