package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveHTTP("GET", "/api/v1/cart", 200, 250*time.Millisecond)
	m.IncCartMutation("add")
	m.IncCartMutation("add")
	m.IncCheckout(CheckoutStockConflict)
	m.IncWishlistAdd(WishlistDuplicate)
	m.IncOrderTransition("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_mutations_total", "op", "add"); err != nil {
		t.Fatalf("fetch cart: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cart add=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_checkout_outcomes_total", "outcome", CheckoutStockConflict); err != nil {
		t.Fatalf("fetch checkout: %v", err)
	} else if got != 1 {
		t.Fatalf("expected stock_conflict=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_wishlist_adds_total", "result", WishlistDuplicate); err != nil {
		t.Fatalf("fetch wishlist: %v", err)
	} else if got != 1 {
		t.Fatalf("expected duplicate=1, got %f", got)
	}

	if _, err := fetchCounterValue(mfs, "storefront_order_transitions_total", "to", "unknown"); err != nil {
		t.Fatalf("expected empty label normalized: %v", err)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_http_request_duration_seconds", "route", "/api/v1/cart"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncCartMutation("add")
	m.IncCheckout(CheckoutSuccess)
	m.ObserveHTTP("GET", "/", 200, time.Second)
	if m.Handler() == nil {
		t.Fatal("expected fallback handler")
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncCheckout(CheckoutSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `storefront_checkout_outcomes_total{outcome="success"} 1`) {
		t.Fatalf("expected checkout counter in body:\n%s", rec.Body.String())
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
