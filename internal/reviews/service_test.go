package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *db.Client, *notifications.Recorder) {
	t.Helper()
	client := dbtest.Open(t)
	rec := &notifications.Recorder{}
	svc, err := NewService(ServiceParams{
		TX:     client,
		Repo:   NewRepository(client.DB()),
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Sink:   rec,
	})
	require.NoError(t, err)
	return svc, client, rec
}

func strPtr(s string) *string { return &s }

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	svc, client, rec := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Stock: 5})
	userID := uuid.New()

	first, err := svc.Upsert(ctx, userID, product.ID, Input{Rating: 4, Title: strPtr("  Solid  ")})
	require.NoError(t, err)
	require.False(t, first.Updated)
	require.Equal(t, "Solid", *first.Review.Title)
	require.Equal(t, 4.0, first.AvgRating)
	require.Equal(t, 1, first.ReviewCount)

	second, err := svc.Upsert(ctx, userID, product.ID, Input{Rating: 2, Comment: strPtr("changed my mind")})
	require.NoError(t, err)
	require.True(t, second.Updated)
	require.Equal(t, first.Review.ID, second.Review.ID)
	require.Nil(t, second.Review.Title)
	require.Equal(t, 2.0, second.AvgRating)
	require.Equal(t, 1, second.ReviewCount)

	var count int64
	require.NoError(t, client.DB().Model(&models.Review{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.Equal(t, []string{notifications.KindReviewSaved, notifications.KindReviewSaved}, rec.Kinds())
}

func TestUpsertRecomputesAggregateAcrossUsers(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{})

	for _, rating := range []int{5, 4, 4} {
		_, err := svc.Upsert(ctx, uuid.New(), product.ID, Input{Rating: rating})
		require.NoError(t, err)
	}

	var stored models.Product
	require.NoError(t, client.DB().First(&stored, "id = ?", product.ID).Error)
	require.InDelta(t, 4.33, stored.AvgRating, 0.001)
	require.Equal(t, 3, stored.ReviewCount)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 3)
	for _, e := range events {
		require.Equal(t, enums.EventReviewSubmitted, e.EventType)
		require.Equal(t, enums.AggregateReview, e.AggregateType)
	}
}

func TestUpsertIgnoresUnapprovedInAggregate(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{})

	hidden := &models.Review{UserID: uuid.New(), ProductID: product.ID, Rating: 1, IsApproved: true}
	require.NoError(t, client.DB().Create(hidden).Error)
	require.NoError(t, client.DB().Model(hidden).Update("is_approved", false).Error)

	res, err := svc.Upsert(ctx, uuid.New(), product.ID, Input{Rating: 5})
	require.NoError(t, err)
	require.Equal(t, 5.0, res.AvgRating)
	require.Equal(t, 1, res.ReviewCount)

	listed, err := svc.ListForProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, 5, listed[0].Rating)
}

func TestUpsertValidation(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Upsert(ctx, uuid.New(), product.ID, Input{Rating: rating})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "rating %d", rating)
	}

	_, err := svc.Upsert(ctx, uuid.Nil, product.ID, Input{Rating: 3})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestUpsertUnknownOrInactiveProduct(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, uuid.New(), uuid.New(), Input{Rating: 3})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	inactive := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Inactive: true})
	_, err = svc.Upsert(ctx, uuid.New(), inactive.ID, Input{Rating: 3})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}
