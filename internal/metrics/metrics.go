package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quickorder"

// Metrics holds the service counters on a private registry so that tests can
// build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	CartMutations     *prometheus.CounterVec
	CheckoutRejected  *prometheus.CounterVec
	OrdersPlaced      *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	AuthFailures      *prometheus.CounterVec
	MirrorFailures    prometheus.Counter
	CatalogFallbacks  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		CheckoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejected_total",
			Help:      "Checkouts rejected during validation, by reason.",
		}, []string{"reason"}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed, by payment method.",
		}, []string{"payment_method"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Accepted order status transitions.",
		}, []string{"from", "to"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Failed auth operations, by error code.",
		}, []string{"code"}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_mirror_failures_total",
			Help:      "Best-effort order mirror writes that failed.",
		}),
		CatalogFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fallbacks_total",
			Help:      "Catalog loads served from the built-in product list.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CartMutations,
		m.CheckoutRejected,
		m.OrdersPlaced,
		m.StatusTransitions,
		m.AuthFailures,
		m.MirrorFailures,
		m.CatalogFallbacks,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
