package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/curlkit/response"
)

// HTTP is the resty-backed Transport. Connection pools come from
// retryablehttp's pooled transport, cloned per TLS/proxy/connect-timeout
// fingerprint.
type HTTP struct {
	base   *http.Transport
	logger *zap.Logger

	// shared is nil unless WithSharedPool was given.
	shared *lru.Cache[string, *http.Transport]
	mu     sync.Mutex

	limit int
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithSharedPool keeps up to size connection pools alive across exchanges.
// Evicted pools have their idle connections closed.
func WithSharedPool(size int) HTTPOption {
	return func(h *HTTP) {
		if size <= 0 {
			return
		}
		h.shared = newPoolCache(size)
	}
}

// WithLogger sets the logger used for non-fatal transport problems.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(h *HTTP) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithConcurrency caps the number of exchanges RoundTripAll runs at once.
func WithConcurrency(n int) HTTPOption {
	return func(h *HTTP) { h.limit = n }
}

// NewHTTP creates the production transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil // Retries are driven by the executor

	base, ok := retryClient.HTTPClient.Transport.(*http.Transport)
	if !ok {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	h := &HTTP{base: base, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func newPoolCache(size int) *lru.Cache[string, *http.Transport] {
	cache, err := lru.NewWithEvict[string, *http.Transport](size, func(_ string, t *http.Transport) {
		t.CloseIdleConnections()
	})
	if err != nil {
		// Only possible for a non-positive size.
		panic(err)
	}
	return cache
}

// Close releases every pooled connection.
func (h *HTTP) Close() {
	if h.shared != nil {
		h.shared.Purge()
	}
}

// RoundTrip performs one exchange.
func (h *HTTP) RoundTrip(ctx context.Context, ex *Exchange) *Result {
	start := time.Now()
	res := h.roundTrip(ctx, ex)
	res.Duration = time.Since(start)
	return res
}

// RoundTripAll runs all exchanges concurrently. Exchanges with the same
// connection fingerprint share one pool for the duration of the batch.
func (h *HTTP) RoundTripAll(ctx context.Context, exchanges []*Exchange) []*Result {
	batch := h
	if h.shared == nil {
		batch = &HTTP{
			base:   h.base,
			logger: h.logger,
			shared: newPoolCache(len(exchanges) + 1),
		}
		defer batch.Close()
	}
	return FanOut(ctx, batch, exchanges, h.limit)
}

func (h *HTTP) roundTrip(ctx context.Context, ex *Exchange) *Result {
	tr, release, err := h.transportFor(ex)
	if err != nil {
		return failure(err)
	}
	defer release()

	var jar *FileJar
	if ex.Cookies.enabled() {
		jar, err = LoadFileJar(ex.Cookies.File)
		if err != nil {
			return failure(withCode(response.CodeReadError, err))
		}
	}

	client := resty.New().
		SetTransport(tr).
		SetTimeout(ex.Timeout).
		SetRedirectPolicy(redirectPolicy(ex)).
		SetLogger(h.logger.Sugar())
	if jar != nil {
		client.SetCookieJar(jar)
	} else {
		client.SetCookieJar(nil)
	}

	req := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeaderMultiValues(ex.Header)
	if ex.Compression {
		req.SetHeader("Accept-Encoding", AcceptEncoding)
	}
	if ex.Body != nil {
		req.SetBody(ex.Body)
	}

	resp, err := req.Execute(ex.Method, ex.URL)
	if err != nil {
		return failure(err)
	}

	raw := resp.RawBody()
	defer raw.Close()
	body, err := io.ReadAll(raw)
	if err != nil {
		code, msg := Classify(err)
		if code == response.CodeUnknown {
			code = response.CodeRecvError
		}
		return &Result{Code: code, Message: msg}
	}

	if ex.Compression {
		body, err = Decode(body, resp.Header().Get("Content-Encoding"))
		if err != nil {
			return failure(err)
		}
	}

	if jar != nil && ex.Cookies.Jar != "" {
		if err := jar.Save(ex.Cookies.Jar); err != nil {
			h.logger.Warn("Failed to persist cookies", zap.String("path", ex.Cookies.Jar), zap.Error(err))
		}
	}

	res := &Result{
		Body:        body,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Header:      resp.Header(),
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		res.EffectiveURL = resp.RawResponse.Request.URL.String()
	}
	return res
}

// transportFor returns the connection pool for an exchange and a release func.
func (h *HTTP) transportFor(ex *Exchange) (*http.Transport, func(), error) {
	if h.shared == nil {
		t, err := h.build(ex)
		if err != nil {
			return nil, nil, err
		}
		return t, t.CloseIdleConnections, nil
	}

	key := fingerprint(ex)
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.shared.Get(key); ok {
		return t, func() {}, nil
	}
	t, err := h.build(ex)
	if err != nil {
		return nil, nil, err
	}
	h.shared.Add(key, t)
	return t, func() {}, nil
}

func (h *HTTP) build(ex *Exchange) (*http.Transport, error) {
	t := h.base.Clone()
	t.DisableCompression = true

	dialer := &net.Dialer{Timeout: ex.ConnectTimeout, KeepAlive: 30 * time.Second}
	t.DialContext = dialer.DialContext
	if ex.ConnectTimeout > 0 {
		t.TLSHandshakeTimeout = ex.ConnectTimeout
	}

	cfg, err := tlsConfig(ex.TLS)
	if err != nil {
		return nil, withCode(response.CodeSSLConnectError, err)
	}
	t.TLSClientConfig = cfg

	if ex.Proxy != nil && ex.Proxy.Host != "" {
		u, err := ex.Proxy.URL()
		if err != nil {
			return nil, withCode(response.CodeURLMalformed, fmt.Errorf("proxy: %w", err))
		}
		t.Proxy = http.ProxyURL(u)
	}
	return t, nil
}

func tlsConfig(opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !opts.Verify, //nolint:gosec // caller opted out of verification
	}

	if opts.Verify && opts.CABundle != "" {
		pem, err := os.ReadFile(opts.CABundle)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// A missing bundle falls back to the system roots.
		case err != nil:
			return nil, fmt.Errorf("read ca bundle: %w", err)
		default:
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("ca bundle %s: no certificates found", opts.CABundle)
			}
			cfg.RootCAs = pool
		}
	}

	if opts.ClientCert != "" {
		key := opts.ClientKey
		if key == "" {
			key = opts.ClientCert
		}
		cert, err := tls.LoadX509KeyPair(opts.ClientCert, key)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func fingerprint(ex *Exchange) string {
	proxy := ""
	if ex.Proxy != nil {
		if u, err := ex.Proxy.URL(); err == nil {
			proxy = u.String()
		}
	}
	return fmt.Sprintf("%t|%s|%s|%s|%s|%s",
		ex.TLS.Verify, ex.TLS.CABundle, ex.TLS.ClientCert, ex.TLS.ClientKey, proxy, ex.ConnectTimeout)
}

func redirectPolicy(ex *Exchange) resty.RedirectPolicy {
	follow := ex.FollowRedirects
	limit := ex.MaxRedirects
	autoReferer := ex.AutoReferer
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if limit >= 0 && len(via) > limit {
			return fmt.Errorf("%w (%d)", ErrTooManyRedirects, limit)
		}
		if len(via) == 0 {
			return nil
		}
		if autoReferer {
			req.Header.Set("Referer", via[len(via)-1].URL.String())
			return nil
		}
		// net/http sets a Referer on its own; keep only the caller's.
		if ref := via[0].Header.Get("Referer"); ref != "" {
			req.Header.Set("Referer", ref)
		} else {
			req.Header.Del("Referer")
		}
		return nil
	})
}
