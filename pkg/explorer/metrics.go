package explorer

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxowallet",
			Subsystem: "explorer",
			Name:      "requests_total",
			Help:      "Total number of requests made to block explorers",
		},
		[]string{"provider", "method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "utxowallet",
			Subsystem: "explorer",
			Name:      "request_duration_seconds",
			Help:      "Block explorer request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)

	registerOnce sync.Once
)

// RegisterMetrics registers the explorer request metrics with the default
// prometheus registry. It is safe to call it more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{requestsTotal, requestDuration} {
			if err := prometheus.Register(c); err != nil {
				var alreadyRegErr prometheus.AlreadyRegisteredError
				if !errors.As(err, &alreadyRegErr) {
					log.WithError(err).Warn("failed to register explorer metrics")
				}
			}
		}
	})
}
