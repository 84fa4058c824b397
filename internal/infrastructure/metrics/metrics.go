// Package metrics exposes Prometheus counters and histograms for use cases,
// HTTP traffic and order events on a dedicated registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
)

// Metrics owns the registry and every collector the service exports
type Metrics struct {
	registry *prometheus.Registry

	useCaseRequests *prometheus.CounterVec
	useCaseDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ordersCreated      *prometheus.CounterVec
	orderTransitions   *prometheus.CounterVec
	stockReleasedUnits prometheus.Counter
}

// New registers all collectors, plus the Go runtime and process collectors,
// on a fresh registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		useCaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecase_requests_total",
			Help:      "Total number of use case invocations.",
		}, []string{"use_case", "outcome"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Duration of use case execution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders placed, by currency.",
		}, []string{"currency"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Applied order transitions by axis and target state.",
		}, []string{"axis", "from", "to"}),
		stockReleasedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_released_units_total",
			Help:      "Units returned to stock by cancelled or refunded orders.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.useCaseRequests,
		m.useCaseDuration,
		m.httpRequests,
		m.httpDuration,
		m.ordersCreated,
		m.orderTransitions,
		m.stockReleasedUnits,
	)
	return m
}

// Registry returns the underlying registry, for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUseCase implements the order services' Recorder
func (m *Metrics) ObserveUseCase(useCase, outcome string, elapsed time.Duration) {
	m.useCaseRequests.WithLabelValues(useCase, outcome).Inc()
	m.useCaseDuration.WithLabelValues(useCase).Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency per matched route.
// Unmatched paths are grouped under "unmatched" to bound cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// EventTypes implements shared.EventHandler
func (m *Metrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderPaymentStatusChanged,
		order.EventTypeOrderStockReleased,
	}
}

// Handle counts order events
func (m *Metrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		m.ordersCreated.WithLabelValues(e.Currency).Inc()
	case *order.OrderStatusChangedEvent:
		m.orderTransitions.WithLabelValues(string(order.AxisStatus), string(e.From), string(e.To)).Inc()
	case *order.OrderPaymentStatusChangedEvent:
		m.orderTransitions.WithLabelValues(string(order.AxisPayment), string(e.From), string(e.To)).Inc()
	case *order.OrderStockReleasedEvent:
		units := 0
		for _, line := range e.Lines {
			units += line.Quantity
		}
		m.stockReleasedUnits.Add(float64(units))
	}
	return nil
}

var (
	_ apporder.Recorder   = (*Metrics)(nil)
	_ shared.EventHandler = (*Metrics)(nil)
)
