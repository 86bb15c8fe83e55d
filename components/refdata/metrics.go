package refdata

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times catalog requests.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsforms",
				Subsystem: "refdata",
				Name:      "requests_total",
				Help:      "Total number of reference-data requests handled.",
			},
			[]string{"catalog", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "opsforms",
				Subsystem: "refdata",
				Name:      "request_duration_seconds",
				Help:      "Duration of reference-data requests.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
			},
			[]string{"catalog"},
		),
	}
	if reg != nil {
		for _, collector := range []prometheus.Collector{m.requests, m.duration} {
			if err := reg.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(catalog string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(catalog, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(catalog).Observe(elapsed.Seconds())
}
