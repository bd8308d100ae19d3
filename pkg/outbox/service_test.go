package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:outbox_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}))
	return db
}

func TestEmitWritesEnvelope(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	orderID := uuid.New()
	userID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: userID},
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, OrderNumber: "ORD-20260501-ABCDEF", Total: "42.00"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	require.Equal(t, 1, env.Version)
	require.True(t, env.OccurredAt.Equal(fixed))
	require.Equal(t, userID, env.Actor.UserID)

	var data payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "ORD-20260501-ABCDEF", data.OrderNumber)
}

func TestEmitRequiresTransactionAndKnownTypes(t *testing.T) {
	svc := NewService(NewRepository(newTestDB(t)), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder}))

	db := newTestDB(t)
	svc = NewService(NewRepository(db), nil)
	require.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder}))
}

func TestRepositoryPublishAndFailureBookkeeping(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventReviewSubmitted, AggregateType: enums.AggregateReview, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	rows, err := repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublished(ctx, rows[0].ID, time.Now()))
	require.NoError(t, repo.MarkFailed(ctx, rows[1].ID, errors.New("topic missing")))
	require.NoError(t, repo.MarkFailed(ctx, rows[1].ID, errors.New("topic missing")))

	rows, err = repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	require.Empty(t, rows, "published and exhausted rows are skipped")

	rows, err = repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2, rows[0].AttemptCount)
	require.Equal(t, "topic missing", *rows[0].LastError)
}
