package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/app"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type harness struct {
	server  *httptest.Server
	cfg     *config.Config
	product *models.Product
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	product := dbtest.MustProduct(t, client.DB(), dbtest.ProductOpts{
		Name:  "Linen Shirt",
		Price: "40.00",
		Stock: 5,
	})

	cfg := &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, CORSOrigins: []string{"*"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "storefront-test", ExpirationMinutes: 5},
	}
	m := metrics.New(prometheus.NewRegistry())
	svc, err := app.NewServices(app.Params{DB: client, Logger: logger.Nop(), Metrics: m})
	require.NoError(t, err)

	handler := NewRouter(cfg, logger.Nop(), Deps{DB: client, Metrics: m}, svc)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &harness{server: srv, cfg: cfg, product: product}
}

func (h *harness) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := auth.MintAccessToken(h.cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: userID})
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func TestHealthLive(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, body)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestCatalogSearchIsPublic(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/api/v1/products?q=linen", "", "")
	require.Equal(t, http.StatusOK, status)

	page := body["data"].(map[string]any)
	items := page["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Linen Shirt", items[0].(map[string]any)["name"])
}

func TestCartRequiresToken(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodPost, "/api/v1/cart/items", "", `{"product_id":"`+h.product.ID.String()+`"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
}

func TestCartToOrderFlow(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	tok := h.token(t, userID)

	status, _ := h.do(t, http.MethodPost, "/api/v1/cart/items", tok, `{"product_id":"`+h.product.ID.String()+`","quantity":2}`)
	require.Equal(t, http.StatusOK, status)

	status, body := h.do(t, http.MethodGet, "/api/v1/cart", tok, "")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body["data"])

	checkoutBody := `{"shipping_address":{"name":"Ada Buyer","address":"1 Main St","city":"Lisbon","postal_code":"1000-001","country":"PT"}}`
	status, body = h.do(t, http.MethodPost, "/api/v1/checkout", tok, checkoutBody)
	require.Equal(t, http.StatusCreated, status, body)
	result := body["data"].(map[string]any)
	// 80.00 clears the free shipping threshold: 80 + 16 tax
	assert.Equal(t, "96.00", result["total"])
	assert.Equal(t, "pending", result["status"])
	orderNumber := result["order_number"].(string)
	assert.True(t, strings.HasPrefix(orderNumber, "ORD-"), orderNumber)

	status, body = h.do(t, http.MethodPost, "/api/v1/checkout", tok, checkoutBody)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EMPTY_CART", body["error"].(map[string]any)["code"])

	status, body = h.do(t, http.MethodGet, "/api/v1/orders", tok, "")
	require.Equal(t, http.StatusOK, status)
	orders := body["data"].([]any)
	require.Len(t, orders, 1)
	assert.Equal(t, orderNumber, orders[0].(map[string]any)["order_number"])

	other := h.token(t, uuid.New())
	status, _ = h.do(t, http.MethodGet, "/api/v1/orders/"+orderNumber, other, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/health/live", "", "")

	resp, err := h.server.Client().Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "storefront_http_request_duration_seconds")
}
