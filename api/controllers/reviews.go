package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type upsertReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

// UpsertReview serves PUT /api/v1/products/{productId}/review. A buyer has at
// most one review per product; resubmitting replaces it.
func UpsertReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reviews"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload upsertReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Upsert(r.Context(), userID, productID, reviews.Input{
			Rating:  payload.Rating,
			Title:   payload.Title,
			Comment: payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if result.Updated {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
