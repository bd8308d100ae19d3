package wishlist

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

func newTestService(t *testing.T) (Service, *db.Client, *notifications.Recorder, *prometheus.Registry) {
	t.Helper()
	client := dbtest.Open(t)
	rec := &notifications.Recorder{}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(client.DB()),
		Sink:    rec,
		Metrics: metrics.New(reg),
	})
	require.NoError(t, err)
	return svc, client, rec, reg
}

func TestAddReportsDuplicateWithoutError(t *testing.T) {
	svc, client, rec, reg := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Price: "80", ComparePrice: "100", Stock: 1})
	userID := uuid.New()

	first, err := svc.Add(ctx, userID, product.ID)
	require.NoError(t, err)
	require.False(t, first.Duplicate)
	require.NotNil(t, first.Item.Product)
	require.NotNil(t, first.Item.Product.Discount)
	require.Equal(t, int64(20), first.Item.Product.Discount.Percent)

	second, err := svc.Add(ctx, userID, product.ID)
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.Item.ID, second.Item.ID)
	require.NotNil(t, second.Item.Product)
	require.Equal(t, product.Slug, second.Item.Product.Slug)

	var count int64
	require.NoError(t, client.DB().Model(&models.WishlistItem{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.Equal(t, []string{notifications.KindWishlistAdded, notifications.KindWishlistDuplicate}, rec.Kinds())
	expected := `
# HELP storefront_wishlist_adds_total Wishlist add attempts by result.
# TYPE storefront_wishlist_adds_total counter
storefront_wishlist_adds_total{result="added"} 1
storefront_wishlist_adds_total{result="duplicate"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "storefront_wishlist_adds_total"))
}

func TestAddRejectsUnknownProductAndAnonymous(t *testing.T) {
	svc, client, _, _ := newTestService(t)
	ctx := context.Background()
	inactive := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Inactive: true})

	_, err := svc.Add(ctx, uuid.New(), inactive.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, uuid.New(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, uuid.Nil, inactive.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRemoveByRowIDIsIdempotentAndScoped(t *testing.T) {
	svc, client, _, _ := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{})
	owner, stranger := uuid.New(), uuid.New()

	added, err := svc.Add(ctx, owner, product.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, stranger, added.Item.ID))
	view, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.True(t, view.Contains(product.ID))

	require.NoError(t, svc.Remove(ctx, owner, added.Item.ID))
	require.NoError(t, svc.Remove(ctx, owner, added.Item.ID))

	view, err = svc.List(ctx, owner)
	require.NoError(t, err)
	require.False(t, view.Contains(product.ID))
	require.Empty(t, view.Items)
}

func TestListNewestFirst(t *testing.T) {
	svc, client, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	older := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Name: "Older"})
	newer := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{Name: "Newer"})

	a, err := svc.Add(ctx, userID, older.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, newer.ID)
	require.NoError(t, err)
	require.NoError(t, client.DB().Model(&models.WishlistItem{}).Where("id = ?", a.Item.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.Equal(t, "Newer", view.Items[0].Product.Name)
	require.ElementsMatch(t, []uuid.UUID{older.ID, newer.ID}, view.ProductIDs())
}
