package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads for buyers and the guarded status machine.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error)
	Cancel(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error)
	Transition(ctx context.Context, number string, to enums.OrderStatus) (*OrderDTO, error)
}

type ServiceParams struct {
	TX      txRunner
	Repo    Repository
	Outbox  outbox.Emitter
	Sink    notifications.Sink
	Metrics *metrics.Metrics
}

type service struct {
	tx      txRunner
	repo    Repository
	outbox  outbox.Emitter
	sink    notifications.Sink
	metrics *metrics.Metrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	return &service{
		tx:      params.TX,
		repo:    params.Repo,
		outbox:  params.Outbox,
		sink:    sink,
		metrics: params.Metrics,
	}, nil
}

// buyerCancellable are the states a buyer may still cancel from.
var buyerCancellable = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:   true,
	enums.OrderStatusConfirmed: true,
}

// restockOnCancel are the states where goods have not left the warehouse.
var restockOnCancel = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:    true,
	enums.OrderStatusConfirmed:  true,
	enums.OrderStatusProcessing: true,
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, wrapLookup(err)
	}
	// another user's order is indistinguishable from a missing one
	if order.UserID != userID {
		return nil, orderNotFound(number)
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID, number string) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to cancel orders")
	}
	return s.transition(ctx, number, enums.OrderStatusCancelled, func(current enums.OrderStatus, ownerID uuid.UUID) error {
		if ownerID != userID {
			return orderNotFound(number)
		}
		if !buyerCancellable[current] {
			return stateConflict(current, enums.OrderStatusCancelled).
				WithDetails(map[string]any{"from": current, "to": enums.OrderStatusCancelled, "reason": "order can no longer be cancelled"})
		}
		return nil
	}, &outbox.ActorRef{UserID: userID})
}

func (s *service) Transition(ctx context.Context, number string, to enums.OrderStatus) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": to})
	}
	return s.transition(ctx, number, to, nil, nil)
}

type guardFunc func(current enums.OrderStatus, ownerID uuid.UUID) error

func (s *service) transition(ctx context.Context, number string, to enums.OrderStatus, guard guardFunc, actor *outbox.ActorRef) (*OrderDTO, error) {
	var (
		from   enums.OrderStatus
		result OrderDTO
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByNumber(ctx, number)
		if err != nil {
			return wrapLookup(err)
		}
		from = order.Status
		if guard != nil {
			if err := guard(from, order.UserID); err != nil {
				return err
			}
		}
		if !from.CanTransitionTo(to) {
			return stateConflict(from, to)
		}

		payment := nextPaymentStatus(order.PaymentMethod, order.PaymentStatus, to)
		affected, err := repo.UpdateStatus(ctx, order.ID, from, StatusUpdate{Status: to, PaymentStatus: payment})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return stateConflict(from, to)
		}

		if to == enums.OrderStatusCancelled && restockOnCancel[from] {
			for _, item := range order.Items {
				if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				From:          from,
				To:            to,
				PaymentStatus: payment,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status event")
		}

		order.Status = to
		order.PaymentStatus = payment
		result = FromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(string(to))
	kind, level := notifications.KindOrderStatus, notifications.LevelInfo
	if to == enums.OrderStatusCancelled {
		kind, level = notifications.KindOrderCancelled, notifications.LevelWarning
	}
	notifications.Emit(ctx, s.sink, notifications.Notice{
		Kind:    kind,
		Level:   level,
		Message: fmt.Sprintf("Order %s is now %s", result.OrderNumber, to),
		UserID:  userIDOf(actor),
		Data: map[string]any{
			"order_number": result.OrderNumber,
			"from":         string(from),
			"to":           string(to),
		},
	})
	return &result, nil
}

// nextPaymentStatus derives the payment column for an accepted transition.
func nextPaymentStatus(method enums.PaymentMethod, current enums.PaymentStatus, to enums.OrderStatus) enums.PaymentStatus {
	switch {
	case to == enums.OrderStatusRefunded:
		return enums.PaymentStatusRefunded
	case to == enums.OrderStatusDelivered && method.IsDeferred():
		return enums.PaymentStatusPaid
	}
	return current
}

func userIDOf(actor *outbox.ActorRef) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.UserID
}

func stateConflict(from, to enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func orderNotFound(number string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"order_number": number})
}

func wrapLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
