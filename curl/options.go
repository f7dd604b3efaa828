package curl

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/curlkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/curlkit/internal/shared/id"
	"github.com/GriffinCanCode/curlkit/transport"
)

// Option configures an Executor.
type Option func(*Executor)

// WithTransport replaces the default resty-backed transport.
func WithTransport(t transport.Transport) Option {
	return func(e *Executor) {
		if t != nil {
			e.transport = t
		}
	}
}

// WithLogger sets the executor's logger. nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBreaker guards every host with its own circuit breaker.
func WithBreaker(settings resilience.Settings) Option {
	return func(e *Executor) {
		e.breakers = newBreakerSet(settings)
	}
}

// WithBreakerThreshold opens a host's breaker after failures consecutive
// failed exchanges and keeps it open for openFor.
func WithBreakerThreshold(failures int, openFor time.Duration) Option {
	if failures <= 0 {
		failures = 5
	}
	return WithBreaker(resilience.Settings{
		Timeout:     openFor,
		ReadyToTrip: resilience.ConsecutiveFailures(uint32(failures)),
	})
}

// WithRateLimit throttles every attempt, retries included.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Executor) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records every attempt and pool batch on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithPrometheus registers the executor's collectors on reg, typically the
// registry an application already serves.
func WithPrometheus(reg prometheus.Registerer) Option {
	return WithMetrics(monitoring.NewMetrics(reg))
}

// WithRequestID stamps each Send with a fresh ULID under header. Retries of
// the same Send reuse the id.
func WithRequestID(header string) Option {
	return func(e *Executor) {
		if header == "" {
			header = "X-Request-Id"
		}
		e.requestIDHeader = header
		if e.ids == nil {
			e.ids = id.Default()
		}
	}
}

// WithIDGenerator overrides the generator used by WithRequestID. nil keeps
// the current one.
func WithIDGenerator(g *id.Generator) Option {
	return func(e *Executor) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithPoolLimit caps how many pool exchanges run at once.
func WithPoolLimit(n int) Option {
	return func(e *Executor) {
		e.poolLimit = n
	}
}

// WithContentSniffing types attachments with unknown extensions by content.
func WithContentSniffing() Option {
	return func(e *Executor) {
		e.mimeFor = func(path string) string {
			if mt := MIMEType(path); mt != DefaultMIME {
				return mt
			}
			return sniffMIME(path)
		}
	}
}

// WithSleep replaces the delay between retry attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithSharedPool keeps connection pools alive across sends. It only applies
// to the default transport.
func WithSharedPool(size int) Option {
	return func(e *Executor) {
		e.sharedPool = size
	}
}
