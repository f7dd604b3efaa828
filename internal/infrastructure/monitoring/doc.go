/*
Package monitoring provides Prometheus metrics for outgoing exchanges.

# Metrics

- curlkit_exchanges_total{method,status,code}
- curlkit_exchange_duration_seconds{method}
- curlkit_response_size_bytes{method}
- curlkit_retries_total{method} and curlkit_retry_exhausted_total{method}
- curlkit_breaker_rejections_total
- curlkit_pool_size and curlkit_pool_duration_seconds

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	exec := curl.NewExecutor(curl.WithMetrics(metrics))

	// Expose with promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
*/
package monitoring
