package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type addWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

func GetWishlist(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("wishlist"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddWishlistItem answers 201 for a new entry and 200 with duplicate=true
// when the product was already saved.
func AddWishlistItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("wishlist"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addWishlistRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Add(r.Context(), userID, uuid.MustParse(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func RemoveWishlistItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("wishlist"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
