package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func checkoutRequest(body, key string) *http.Request {
	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		pattern  string
		ok       bool
		required bool
	}{
		{"checkout", http.MethodPost, "/api/v1/checkout", true, true},
		{"order cancel", http.MethodPost, "/api/v1/orders/{orderNumber}/cancel", true, false},
		{"checkout get", http.MethodGet, "/api/v1/checkout", false, false},
		{"cart add", http.MethodPost, "/api/v1/cart/items", false, false},
	}
	for _, tt := range tests {
		rule, ok := matchRule(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && rule.required != tt.required {
			t.Fatalf("%s: expected required=%v", tt.name, tt.required)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeaderOnCheckout(t *testing.T) {
	mw := Idempotency(newFakeStore(), 0, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"payment_method":"cash_on_delivery"}`, ""))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareOptionalHeaderPassesThrough(t *testing.T) {
	mw := Idempotency(newFakeStore(), 0, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/orders/ORD-1/cancel", "/api/v1/orders/{orderNumber}/cancel", nil)
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected both requests to reach the handler, got %d", calls)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 0, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-20261016-AAAAAA"}}`))
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"a":1}`, "abc"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, checkoutRequest(`{"a":1}`, "abc"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if !strings.Contains(rec.Body.String(), "ORD-20261016-AAAAAA") {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	for _, ttl := range store.ttls {
		if ttl != defaultIdempotencyTTL {
			t.Fatalf("expected 7 day ttl, got %v", ttl)
		}
	}
}

func TestIdempotencyMiddlewareScopesKeysPerUser(t *testing.T) {
	mw := Idempotency(newFakeStore(), time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	for i := 0; i < 2; i++ {
		req := checkoutRequest(`{}`, "same-key")
		req = req.WithContext(WithUserID(req.Context(), uuid.New()))
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected separate users to execute separately, got %d calls", calls)
	}
}

func TestIdempotencyMiddlewareDoesNotStoreServerErrors(t *testing.T) {
	mw := Idempotency(newFakeStore(), 0, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, "retry"))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{}`, "retry"))
	if resp.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("expected retry to execute, got status %d after %d calls", resp.Code, calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	mw := Idempotency(newFakeStore(), 0, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{"foo":"bar"}`, "xyz"))

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"foo":"diff"}`, "xyz"))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}
