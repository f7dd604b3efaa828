package monitoring

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Exchange metrics
	ExchangesTotal   *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	ResponseSize     *prometheus.HistogramVec

	// Retry metrics
	RetriesTotal   *prometheus.CounterVec
	RetryExhausted *prometheus.CounterVec

	// Breaker metrics
	BreakerRejections prometheus.Counter

	// Pool metrics
	PoolSize     prometheus.Gauge
	PoolDuration prometheus.Histogram

	gatherer prometheus.Gatherer
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for summaries outside Prometheus.
type Snapshot struct {
	Exchanges     int64
	Failures      int64
	Retries       int64
	TotalDuration time.Duration
}

// NewMetrics registers the collectors on reg. A nil reg uses a private
// registry, which keeps repeated construction in tests safe. WriteText can
// expose the collectors whenever reg is also a prometheus.Gatherer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	gatherer, _ := reg.(prometheus.Gatherer)

	return &Metrics{
		gatherer: gatherer,
		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curlkit_exchanges_total",
				Help: "Total number of HTTP exchanges by outcome",
			},
			[]string{"method", "status", "code"},
		),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curlkit_exchange_duration_seconds",
				Help:    "Duration of single HTTP exchanges",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curlkit_response_size_bytes",
				Help:    "Size of decoded response bodies",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			},
			[]string{"method"},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curlkit_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method"},
		),
		RetryExhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curlkit_retry_exhausted_total",
				Help: "Sends that ran out of retry attempts",
			},
			[]string{"method"},
		),
		BreakerRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "curlkit_breaker_rejections_total",
				Help: "Exchanges refused by the open circuit breaker",
			},
		),
		PoolSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "curlkit_pool_size",
				Help: "Number of exchanges in the last pool batch",
			},
		),
		PoolDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "curlkit_pool_duration_seconds",
				Help:    "Wall time of pool batches",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordExchange records one completed attempt. status is 0 and code
// non-empty when no response was received.
func (m *Metrics) RecordExchange(method string, status int, code string, duration time.Duration, size int) {
	m.ExchangesTotal.WithLabelValues(method, strconv.Itoa(status), code).Inc()
	m.ExchangeDuration.WithLabelValues(method).Observe(duration.Seconds())
	if status > 0 {
		m.ResponseSize.WithLabelValues(method).Observe(float64(size))
	}

	m.mu.Lock()
	m.snapshot.Exchanges++
	m.snapshot.TotalDuration += duration
	if status == 0 || status >= 400 {
		m.snapshot.Failures++
	}
	m.mu.Unlock()
}

// RecordRetry records one retry attempt
func (m *Metrics) RecordRetry(method string) {
	m.RetriesTotal.WithLabelValues(method).Inc()
	m.mu.Lock()
	m.snapshot.Retries++
	m.mu.Unlock()
}

// RecordRetryExhausted records a send that ran out of retries
func (m *Metrics) RecordRetryExhausted(method string) {
	m.RetryExhausted.WithLabelValues(method).Inc()
}

// RecordBreakerRejection records an attempt refused by an open breaker
func (m *Metrics) RecordBreakerRejection() {
	m.BreakerRejections.Inc()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Gatherer returns the registry the collectors live on, or nil when it
// cannot be gathered.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m.gatherer == nil {
		return fmt.Errorf("metrics registry cannot be gathered")
	}
	families, err := m.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// Timer measures a pool batch
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// StartPool records the batch size and starts timing it
func (m *Metrics) StartPool(size int) *Timer {
	m.PoolSize.Set(float64(size))
	return &Timer{start: time.Now(), metrics: m}
}

// Stop records the batch duration
func (t *Timer) Stop() {
	t.metrics.PoolDuration.Observe(time.Since(t.start).Seconds())
}
