package transport

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GriffinCanCode/curlkit/response"
)

// Exchange is a fully configured description of one HTTP round trip.
type Exchange struct {
	Method string
	URL    string
	Header http.Header

	// Body is sent as-is. Nil means no payload.
	Body []byte

	Timeout        time.Duration
	ConnectTimeout time.Duration

	TLS   TLSOptions
	Proxy *Proxy

	FollowRedirects bool
	MaxRedirects    int
	AutoReferer     bool

	// Compression advertises gzip and deflate and decodes the reply.
	Compression bool

	Cookies CookieOptions
}

// TLSOptions controls certificate verification for one exchange.
type TLSOptions struct {
	Verify bool

	// CABundle is used only when the file exists.
	CABundle   string
	ClientCert string
	ClientKey  string
}

// Proxy describes an HTTP proxy with optional credentials.
type Proxy struct {
	Host     string
	Port     int
	Username string
	Password string
}

// URL renders the proxy as a URL, defaulting the scheme to http.
func (p *Proxy) URL() (*url.URL, error) {
	host := p.Host
	if p.Port > 0 {
		host += ":" + strconv.Itoa(p.Port)
	}
	raw := host
	if !hasScheme(raw) {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

func hasScheme(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// CookieOptions names the cookie files of an exchange. File is read before
// the request, Jar is written after it. Either may be empty.
type CookieOptions struct {
	File string
	Jar  string
}

func (c CookieOptions) enabled() bool {
	return c.File != "" || c.Jar != ""
}

// Result is what one round trip produced. Code is CodeOK when a response
// was received, whatever its status.
type Result struct {
	Body         []byte
	StatusCode   int
	ContentType  string
	Header       http.Header
	EffectiveURL string

	Code    response.ErrorCode
	Message string

	Duration time.Duration
}

// Failed reports whether the exchange ended without a response.
func (r *Result) Failed() bool {
	return r.Code.Failed()
}

// Response converts the result into an envelope.
func (r *Result) Response() *response.Response {
	if r.Failed() {
		return response.NewFailure(r.Code, r.Message)
	}
	return response.New(r.Body, r.StatusCode, r.ContentType, r.Code, r.Message).
		SetHeaders(r.Header).
		SetEffectiveURL(r.EffectiveURL)
}

// failure builds a Result for an exchange that produced no response.
func failure(err error) *Result {
	code, msg := Classify(err)
	return &Result{Code: code, Message: msg}
}

// Transport performs exactly one blocking exchange. It never returns a Go
// error: failures are encoded in Result.Code and Result.Message.
type Transport interface {
	RoundTrip(ctx context.Context, ex *Exchange) *Result
}

// Multiplexer runs several exchanges concurrently behind one blocking call.
// Results are positionally aligned with the input.
type Multiplexer interface {
	RoundTripAll(ctx context.Context, exchanges []*Exchange) []*Result
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, ex *Exchange) *Result

// RoundTrip calls f.
func (f TransportFunc) RoundTrip(ctx context.Context, ex *Exchange) *Result {
	return f(ctx, ex)
}
