package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	orderNumberConstraint = "orders_order_number_key"
	orderNumberColumn     = "orders.order_number"
	maxNumberAttempts     = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberSource interface {
	Next() (string, error)
}

// Service converts a user's cart into an order.
type Service interface {
	CreateFromCart(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// Input is the buyer-supplied part of a checkout.
type Input struct {
	ShippingAddress types.Address
	BillingAddress  *types.Address
	PaymentMethod   string
}

// Result identifies the created order.
type Result struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Total       string            `json:"total"`
	Status      enums.OrderStatus `json:"status"`
}

// ServiceParams groups checkout dependencies. Numbers, Sink and Metrics are
// optional.
type ServiceParams struct {
	TX      txRunner
	Carts   *cart.Repository
	Orders  orders.Repository
	Repo    Repository
	Outbox  outbox.Emitter
	Numbers numberSource
	Sink    notifications.Sink
	Metrics *metrics.Metrics
}

type service struct {
	tx      txRunner
	carts   *cart.Repository
	orders  orders.Repository
	repo    Repository
	outbox  outbox.Emitter
	numbers numberSource
	sink    notifications.Sink
	metrics *metrics.Metrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	numbers := params.Numbers
	if numbers == nil {
		numbers = NewNumberGenerator(nil, nil)
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	return &service{
		tx:      params.TX,
		carts:   params.Carts,
		orders:  params.Orders,
		repo:    params.Repo,
		outbox:  params.Outbox,
		numbers: numbers,
		sink:    sink,
		metrics: params.Metrics,
	}, nil
}

type shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func (s *service) CreateFromCart(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	method, billing, err := validateInput(input)
	if err != nil {
		s.metrics.IncCheckout(metrics.CheckoutError)
		return nil, err
	}

	var (
		order     *models.Order
		itemCount int
	)
	for attempt := 1; ; attempt++ {
		order, itemCount, err = s.placeOrder(ctx, userID, input.ShippingAddress, billing, method)
		if err == nil || attempt >= maxNumberAttempts || !db.IsUniqueViolation(err, orderNumberConstraint, orderNumberColumn) {
			break
		}
	}
	if err != nil {
		s.metrics.IncCheckout(outcomeFor(err))
		return nil, asCheckoutError(err)
	}

	s.metrics.IncCheckout(metrics.CheckoutSuccess)
	total := pricing.Format(order.TotalAmount)
	notifications.Emit(ctx, s.sink, notifications.Notice{
		Kind:    notifications.KindOrderPlaced,
		Level:   notifications.LevelSuccess,
		Message: "Order " + order.OrderNumber + " placed",
		UserID:  userID,
		Data: map[string]any{
			"order_number": order.OrderNumber,
			"total":        total,
			"item_count":   itemCount,
		},
	})
	return &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       total,
		Status:      order.Status,
	}, nil
}

// placeOrder runs one complete checkout transaction.
func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, shipping types.Address, billing *types.Address, method enums.PaymentMethod) (*models.Order, int, error) {
	var (
		order     *models.Order
		itemCount int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		repo := s.repo.WithTx(tx)

		rows, err := carts.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ProductID)
		}
		products, err := repo.LockProducts(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}

		var short []shortage
		lines := make([]pricing.Line, 0, len(rows))
		items := make([]models.OrderItem, 0, len(rows))
		for _, row := range rows {
			product := products[row.ProductID]
			available := 0
			name := ""
			if product != nil {
				name = product.Name
				if product.IsActive {
					available = product.StockQuantity
				}
			}
			if available < row.Quantity {
				short = append(short, shortage{
					ProductID: row.ProductID,
					Name:      name,
					Requested: row.Quantity,
					Available: available,
				})
				continue
			}
			lines = append(lines, pricing.Line{UnitPrice: product.Price, Quantity: row.Quantity})
			items = append(items, models.OrderItem{
				ProductID:       product.ID,
				Quantity:        row.Quantity,
				UnitPrice:       product.Price,
				TotalPrice:      pricing.LineTotal(product.Price, row.Quantity).Round(2),
				ProductSnapshot: snapshotOf(product),
			})
			itemCount += row.Quantity
		}
		if len(short) > 0 {
			return stockConflict(short)
		}

		totals := pricing.ComputeTotals(lines).Rounded()
		number, err := s.numbers.Next()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order = &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			Subtotal:        totals.Subtotal,
			TaxAmount:       totals.Tax,
			ShippingAmount:  totals.Shipping,
			DiscountAmount:  totals.Discount,
			TotalAmount:     totals.Total,
			ShippingAddress: shipping,
			BillingAddress:  billing,
			PaymentMethod:   method,
			PaymentStatus:   enums.PaymentStatusPending,
			Items:           items,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			// left unwrapped so the caller can recognise a number collision
			if db.IsUniqueViolation(err, orderNumberConstraint, orderNumberColumn) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, item := range items {
			affected, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if affected == 0 {
				product := products[item.ProductID]
				return stockConflict([]shortage{{
					ProductID: item.ProductID,
					Name:      product.Name,
					Requested: item.Quantity,
					Available: product.StockQuantity,
				}})
			}
		}

		if _, err := carts.ClearForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        userID,
				Total:         pricing.Format(order.TotalAmount),
				ItemCount:     itemCount,
				PaymentMethod: method,
			},
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return order, itemCount, nil
}

func validateInput(input Input) (enums.PaymentMethod, *types.Address, error) {
	if missing := input.ShippingAddress.Missing(); len(missing) > 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod})
	}
	billing := input.BillingAddress
	if billing == nil {
		copied := input.ShippingAddress
		billing = &copied
	} else if missing := billing.Missing(); len(missing) > 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "billing address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return method, billing, nil
}

func snapshotOf(p *models.Product) types.ProductSnapshot {
	snap := types.ProductSnapshot{Name: p.Name, Slug: p.Slug}
	if p.SKU != nil {
		snap.SKU = *p.SKU
	}
	if len(p.Images) > 0 {
		snap.ImageURL = p.Images[0]
	}
	return snap
}

func stockConflict(short []shortage) *pkgerrors.Error {
	sort.Slice(short, func(i, j int) bool {
		return short[i].ProductID.String() < short[j].ProductID.String()
	})
	msg := "some items are no longer available in the requested quantity"
	if len(short) == 1 && short[0].Name != "" {
		msg = "not enough stock for " + short[0].Name
	}
	return pkgerrors.New(pkgerrors.CodeStockConflict, msg).
		WithDetails(map[string]any{"products": short})
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart):
		return metrics.CheckoutEmptyCart
	case pkgerrors.IsCode(err, pkgerrors.CodeStockConflict):
		return metrics.CheckoutStockConflict
	}
	return metrics.CheckoutError
}

// asCheckoutError guarantees a typed error leaves the service.
func asCheckoutError(err error) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	if db.IsUniqueViolation(err, orderNumberConstraint, orderNumberColumn) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not allocate an order number")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout failed")
}
