package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderDTO is the buyer-facing view of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	Subtotal        string              `json:"subtotal"`
	Tax             string              `json:"tax"`
	Shipping        string              `json:"shipping"`
	Discount        string              `json:"discount"`
	Total           string              `json:"total"`
	ShippingAddress types.Address       `json:"shipping_address"`
	BillingAddress  *types.Address      `json:"billing_address,omitempty"`
	TrackingNumber  *string             `json:"tracking_number,omitempty"`
	Items           []ItemDTO           `json:"items"`
	ItemCount       int                 `json:"item_count"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ItemDTO is a purchased line as it was priced at checkout.
type ItemDTO struct {
	ID        uuid.UUID             `json:"id"`
	ProductID uuid.UUID             `json:"product_id"`
	Quantity  int                   `json:"quantity"`
	UnitPrice string                `json:"unit_price"`
	Total     string                `json:"total"`
	Product   types.ProductSnapshot `json:"product"`
}

// FromModel maps an order row and its items.
func FromModel(m *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		Status:          m.Status,
		PaymentMethod:   m.PaymentMethod,
		PaymentStatus:   m.PaymentStatus,
		Subtotal:        pricing.Format(m.Subtotal),
		Tax:             pricing.Format(m.TaxAmount),
		Shipping:        pricing.Format(m.ShippingAmount),
		Discount:        pricing.Format(m.DiscountAmount),
		Total:           pricing.Format(m.TotalAmount),
		ShippingAddress: m.ShippingAddress,
		BillingAddress:  m.BillingAddress,
		TrackingNumber:  m.TrackingNumber,
		Items:           make([]ItemDTO, 0, len(m.Items)),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, item := range m.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: pricing.Format(item.UnitPrice),
			Total:     pricing.Format(item.TotalPrice),
			Product:   item.ProductSnapshot,
		})
		dto.ItemCount += item.Quantity
	}
	return dto
}
