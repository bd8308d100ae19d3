package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultUnpaidOrderTTL = 7 * 24 * time.Hour
	defaultExpiryBatch    = 100
)

type pendingOrderReader interface {
	ListPendingBefore(ctx context.Context, method enums.PaymentMethod, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderTransitioner interface {
	Transition(ctx context.Context, number string, to enums.OrderStatus) (*orders.OrderDTO, error)
}

type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Reader    pendingOrderReader
	Orders    orderTransitioner
	TTL       time.Duration
	BatchSize int
}

// NewOrderExpiryJob cancels bank transfer orders still pending after TTL.
// Cancelling goes through the order state machine, so stock is restored and
// the status change is published like any other.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending order reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultUnpaidOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		reader: params.Reader,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	reader pendingOrderReader
	orders orderTransitioner
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.ListPendingBefore(ctx, enums.PaymentMethodBankTransfer, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list unpaid orders: %w", err)
	}

	var (
		errs    error
		expired int
	)
	for _, order := range stale {
		_, err := j.orders.Transition(ctx, order.OrderNumber, enums.OrderStatusCancelled)
		switch {
		case err == nil:
			expired++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
			// moved on since it was listed
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.OrderNumber, err))
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(stale),
		"expired":    expired,
	}), "unpaid order expiry complete")
	return errs
}
