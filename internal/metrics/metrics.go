package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Notification fan-out
	NotificationsCreated *prometheus.CounterVec
	FanoutFailures       *prometheus.CounterVec

	// Real-time delivery
	RealtimeConnections prometheus.Gauge
	RealtimeDelivered   prometheus.Counter
	RealtimeDropped     prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process metrics, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path"},
			),
			NotificationsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_created_total",
					Help: "Notification rows inserted, by type",
				},
				[]string{"type"},
			),
			FanoutFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notification_fanout_failures_total",
					Help: "Fan-out runs that failed, by triggering event",
				},
				[]string{"event"},
			),
			RealtimeConnections: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "realtime_connections",
				Help: "Open notification stream connections",
			}),
			RealtimeDelivered: promauto.NewCounter(prometheus.CounterOpts{
				Name: "realtime_messages_delivered_total",
				Help: "Notification messages queued to stream clients",
			}),
			RealtimeDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "realtime_messages_dropped_total",
				Help: "Notification messages dropped because a client was too slow",
			}),
		}
	})
	return instance
}
