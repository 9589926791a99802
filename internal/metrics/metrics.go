// Package metrics holds the Prometheus instruments for fan-out and live
// delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Push results recorded on LivePushTotal.
const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
	PushFailed    = "failed"
)

// Projections recorded on FanoutWriteErrors.
const (
	ProjectionNotification = "notification"
	ProjectionActivity     = "activity"
)

var (
	// Fan-out
	FanoutEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_events_total",
			Help: "Total number of interaction events dispatched to fan-out",
		},
		[]string{"type"},
	)

	FanoutWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_write_errors_total",
			Help: "Total number of failed projection writes during fan-out",
		},
		[]string{"projection"},
	)

	// Live delivery
	LivePushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_push_total",
			Help: "Total number of live push attempts by result",
		},
		[]string{"result"}, // "delivered", "offline", "failed"
	)

	LiveConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_connections_active",
			Help: "Current number of open live delivery connections on this instance",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
