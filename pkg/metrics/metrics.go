// Package metrics exposes Prometheus instrumentation for settlement.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all settlement collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	UnlockRequestsTotal  *prometheus.CounterVec
	SettlementsTotal     *prometheus.CounterVec
	SettledAmountTotal   *prometheus.CounterVec
	DroppedMessagesTotal *prometheus.CounterVec
	WeightMismatchTotal  *prometheus.CounterVec
	GatewayDuration      *prometheus.HistogramVec
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		UnlockRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_unlock_requests_total",
				Help: "Unlock requests by outcome",
			},
			[]string{"result"},
		),
		SettlementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_settlements_total",
				Help: "Transactions settled by terminal status",
			},
			[]string{"status"},
		),
		SettledAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_settled_amount_minor_total",
				Help: "Reconciled totals in minor currency units by terminal status",
			},
			[]string{"status"},
		),
		DroppedMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_dropped_messages_total",
				Help: "Inbound messages dropped without effect, by reason",
			},
			[]string{"reason"},
		),
		WeightMismatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_weight_mismatch_total",
				Help: "Door events whose weight change did not corroborate the detected items",
			},
			[]string{"policy"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kiosk_gateway_request_duration_seconds",
				Help:    "Payment gateway call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (m *Metrics) UnlockRequest(result string) {
	if m == nil {
		return
	}
	m.UnlockRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Settled(status string, amount int64) {
	if m == nil {
		return
	}
	m.SettlementsTotal.WithLabelValues(status).Inc()
	m.SettledAmountTotal.WithLabelValues(status).Add(float64(amount))
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.DroppedMessagesTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) WeightMismatch(policy string) {
	if m == nil {
		return
	}
	m.WeightMismatchTotal.WithLabelValues(policy).Inc()
}

// GatewayCall records the latency of one gateway operation.
func (m *Metrics) GatewayCall(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
