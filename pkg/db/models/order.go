package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is created once from a cart. Monetary columns are fixed at creation;
// only status, payment_status and tracking_number move afterwards.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status          enums.OrderStatus   `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingAmount  decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  *types.Address      `gorm:"column:billing_address;type:jsonb"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:varchar(32);not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending'"`
	TrackingNumber  *string             `gorm:"column:tracking_number"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
