package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress types.Address  `json:"shipping_address"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	PaymentMethod   string         `json:"payment_method,omitempty" validate:"omitempty,oneof=cash_on_delivery bank_transfer"`
}

// Checkout turns the caller's cart into an order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateFromCart(r.Context(), userID, checkout.Input{
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			PaymentMethod:   payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"order_id":     result.OrderID.String(),
				"order_number": result.OrderNumber,
			}), "checkout.order_created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
