package payloads

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	Total         string              `json:"total"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderStatusChangedEvent is emitted on every accepted state transition.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	From          enums.OrderStatus   `json:"from"`
	To            enums.OrderStatus   `json:"to"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// ReviewSubmittedEvent carries the recomputed product rating.
type ReviewSubmittedEvent struct {
	ReviewID    uuid.UUID `json:"review_id"`
	ProductID   uuid.UUID `json:"product_id"`
	UserID      uuid.UUID `json:"user_id"`
	Rating      int       `json:"rating"`
	Updated     bool      `json:"updated"`
	AvgRating   float64   `json:"avg_rating"`
	ReviewCount int       `json:"review_count"`
}
