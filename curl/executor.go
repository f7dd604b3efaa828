package curl

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/curlkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/curlkit/internal/shared/id"
	"github.com/GriffinCanCode/curlkit/response"
	"github.com/GriffinCanCode/curlkit/transport"
)

// Executor sends requests. It is safe for concurrent use.
type Executor struct {
	transport transport.Transport
	logger    *zap.Logger

	breakers *breakerSet
	limiter  *rate.Limiter
	metrics  *monitoring.Metrics

	ids             *id.Generator
	requestIDHeader string

	poolLimit  int
	sharedPool int
	mimeFor    func(string) string
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor. Without WithTransport it uses the
// resty-backed transport.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger:  zap.NewNop(),
		mimeFor: MIMEType,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.transport == nil {
		e.transport = transport.NewHTTP(
			transport.WithSharedPool(e.sharedPool),
			transport.WithLogger(e.logger),
			transport.WithConcurrency(e.poolLimit),
		)
	}
	return e
}

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

// DefaultExecutor returns a process-wide executor with no options.
func DefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}

// Close releases pooled connections held by the transport.
func (e *Executor) Close() {
	if c, ok := e.transport.(interface{ Close() }); ok {
		c.Close()
	}
}

// Do builds b and sends the result. Only build errors are returned as
// error; transport and HTTP failures are reported in the envelope.
func (e *Executor) Do(ctx context.Context, b *Builder) (*response.Response, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return e.Send(ctx, req), nil
}

// Send performs one exchange for req, retrying transient transport failures
// per req's retry policy. Callbacks run synchronously before Send returns.
func (e *Executor) Send(ctx context.Context, req *Request) *response.Response {
	ex, err := req.prepare(e.mimeFor)
	if err != nil {
		resp := response.NewFailure(response.CodeReadError, err.Error())
		e.logger.Warn("Failed to prepare request",
			zap.String("method", req.method.String()),
			zap.String("url", req.url),
			zap.Error(err))
		notify(req.onError, resp, req)
		return resp
	}

	log := e.logger.With(zap.String("method", ex.Method), zap.String("url", ex.URL))
	if e.requestIDHeader != "" {
		rid := e.ids.NewExchangeID().String()
		ex.Header.Set(e.requestIDHeader, rid)
		log = log.With(zap.String("request_id", rid))
	}

	res := e.attempt(ctx, ex, log)
	resp := res.Response()
	if !res.Failed() {
		notify(req.onSuccess, resp, req)
		return resp
	}

	log.Warn("Exchange failed",
		zap.Stringer("code", res.Code),
		zap.String("error", res.Message))
	notify(req.onError, resp, req)

	if req.retry.Times <= 0 || !transport.IsRetryable(res.Code) {
		return resp
	}
	return e.retry(ctx, req, ex, log)
}

func (e *Executor) retry(ctx context.Context, req *Request, ex *transport.Exchange, log *zap.Logger) *response.Response {
	for n := 1; n <= req.retry.Times; n++ {
		if err := e.sleep(ctx, req.retry.Delay); err != nil {
			resp := response.NewFailure(response.CodeAborted, err.Error())
			log.Warn("Retry aborted", zap.Int("attempt", n), zap.Error(err))
			notify(req.onError, resp, req)
			return resp
		}

		if e.metrics != nil {
			e.metrics.RecordRetry(ex.Method)
		}
		log.Info("Retrying exchange",
			zap.Int("attempt", n),
			zap.Int("max", req.retry.Times),
			zap.Duration("delay", req.retry.Delay))

		res := e.attempt(ctx, ex, log)
		if !res.Failed() && res.StatusCode < 500 {
			resp := res.Response()
			notify(req.onSuccess, resp, req)
			return resp
		}
	}

	log.Error("Retry attempts exhausted", zap.Int("attempts", req.retry.Times+1))
	if e.metrics != nil {
		e.metrics.RecordRetryExhausted(ex.Method)
	}
	resp := response.NewFailure(response.CodeRetryExhausted, "retry attempts exhausted")
	notify(req.onError, resp, req)
	return resp
}

// attempt runs a single round trip through the limiter and breaker.
func (e *Executor) attempt(ctx context.Context, ex *transport.Exchange, log *zap.Logger) *transport.Result {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return &transport.Result{Code: response.CodeAborted, Message: err.Error()}
		}
	}

	done := func(bool) {}
	if e.breakers != nil {
		var err error
		done, err = e.breakers.get(hostOf(ex.URL)).Allow()
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordBreakerRejection()
			}
			return &transport.Result{Code: response.CodeCircuitOpen, Message: err.Error()}
		}
	}

	res := e.transport.RoundTrip(ctx, ex)
	done(!res.Failed() && res.StatusCode < 500)

	if e.metrics != nil {
		e.metrics.RecordExchange(ex.Method, res.StatusCode, res.Code.String(), res.Duration, len(res.Body))
	}
	log.Debug("Exchange completed",
		zap.Int("status", res.StatusCode),
		zap.Stringer("code", res.Code),
		zap.Duration("duration", res.Duration))
	return res
}

func notify(observers []Observer, resp *response.Response, req *Request) {
	for _, fn := range observers {
		fn(resp, req)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type breakerSet struct {
	settings resilience.Settings

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

func newBreakerSet(settings resilience.Settings) *breakerSet {
	return &breakerSet{settings: settings, breakers: make(map[string]*resilience.Breaker)}
}

func (s *breakerSet) get(host string) *resilience.Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[host]
	if !ok {
		b = resilience.New(host, s.settings)
		s.breakers[host] = b
	}
	return b
}

// BreakerState reports the breaker state for host. Hosts never contacted
// are closed.
func (e *Executor) BreakerState(host string) resilience.State {
	if e.breakers == nil {
		return resilience.StateClosed
	}
	return e.breakers.get(host).State()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
