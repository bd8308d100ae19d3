package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Checkout outcomes.
const (
	CheckoutSuccess       = "success"
	CheckoutEmptyCart     = "empty_cart"
	CheckoutStockConflict = "stock_conflict"
	CheckoutError         = "error"
)

// Wishlist add results.
const (
	WishlistAdded     = "added"
	WishlistDuplicate = "duplicate"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so services can be built without a registry.
type Metrics struct {
	gatherer         prometheus.Gatherer
	httpDuration     *prometheus.HistogramVec
	cartMutations    *prometheus.CounterVec
	checkoutOutcomes *prometheus.CounterVec
	wishlistAdds     *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
}

// New registers the storefront collectors on reg. reg may also be a
// *prometheus.Registry, in which case Handler serves it.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Successful cart mutations by operation.",
	}, []string{"op"})
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	wishlistAdds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wishlist_adds_total",
		Help:      "Wishlist add attempts by result.",
	}, []string{"result"})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Accepted order status transitions by target status.",
	}, []string{"to"})
	reg.MustRegister(httpDuration, cartMutations, checkoutOutcomes, wishlistAdds, orderTransitions)

	m := &Metrics{
		httpDuration:     httpDuration,
		cartMutations:    cartMutations,
		checkoutOutcomes: checkoutOutcomes,
		wishlistAdds:     wishlistAdds,
		orderTransitions: orderTransitions,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

func (m *Metrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *Metrics) IncCheckout(outcome string) {
	if m == nil || m.checkoutOutcomes == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncWishlistAdd(result string) {
	if m == nil || m.wishlistAdds == nil {
		return
	}
	m.wishlistAdds.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncOrderTransition(to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
