package curl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/curlkit/transport"
)

// Version is reported in the default User-Agent.
const Version = "1.0.0"

// Defaults seeds every Builder created by NewWithDefaults.
type Defaults struct {
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	VerifySSL       bool
	CABundle        string
	FollowRedirects bool
	MaxRedirects    int
	AutoReferer     bool
	Compression     bool
	UserAgent       string
	Proxy           *transport.Proxy
	Cookies         bool
	CookieFile      string
	CookieJar       string
	Retry           RetryPolicy
	Headers         *Values
}

// DefaultSettings returns the stock defaults: 30s total and 10s connect
// timeout, verified TLS, up to 5 followed redirects with automatic Referer,
// compression on, no retries (1s delay once enabled).
func DefaultSettings() Defaults {
	return Defaults{
		Timeout:         30 * time.Second,
		ConnectTimeout:  10 * time.Second,
		VerifySSL:       true,
		FollowRedirects: true,
		MaxRedirects:    5,
		AutoReferer:     true,
		Compression:     true,
		UserAgent:       "curlkit/" + Version,
		Retry:           RetryPolicy{Delay: time.Second},
	}
}

// Builder accumulates a request description. It is not safe for concurrent
// use; Build returns an independent snapshot.
type Builder struct {
	req *Request
	err error
}

// New creates a builder for url with DefaultSettings.
func New(url string) *Builder {
	return NewWithDefaults(DefaultSettings(), url)
}

// NewWithDefaults creates a builder for url seeded from d.
func NewWithDefaults(d Defaults, url string) *Builder {
	b := &Builder{req: &Request{
		method:          MethodGet,
		url:             url,
		query:           NewValues(),
		headers:         NewValues(),
		timeout:         d.Timeout,
		connectTimeout:  d.ConnectTimeout,
		verifySSL:       d.VerifySSL,
		caBundle:        d.CABundle,
		followRedirects: d.FollowRedirects,
		maxRedirects:    d.MaxRedirects,
		autoReferer:     d.AutoReferer,
		compression:     d.Compression,
		userAgent:       d.UserAgent,
		retry:           d.Retry,
	}}
	if d.Proxy != nil {
		p := *d.Proxy
		b.req.proxy = &p
	}
	if d.Cookies {
		b.Cookie(true, d.CookieFile)
	}
	if d.CookieJar != "" {
		b.CookieJar(d.CookieJar)
	}
	b.Headers(d.Headers)
	return b
}

// URL replaces the base URL.
func (b *Builder) URL(url string) *Builder {
	b.req.url = url
	return b
}

// Method sets the method. Unknown names are recorded as a build error.
func (b *Builder) Method(method string) *Builder {
	m, err := ParseMethod(method)
	if err != nil {
		b.fail(err)
		return b
	}
	b.req.method = m
	return b
}

// Query merges params into the query string, keeping insertion order.
func (b *Builder) Query(params *Values) *Builder {
	b.req.query.Merge(params)
	return b
}

// QueryParam sets one query parameter, formatting value with fmt.Sprint.
func (b *Builder) QueryParam(key string, value any) *Builder {
	b.req.query.Set(key, fmt.Sprint(value))
	return b
}

// Header sets one header. Names are case-insensitive.
func (b *Builder) Header(key, value string) *Builder {
	b.req.headers.Set(textproto.CanonicalMIMEHeaderKey(key), value)
	return b
}

// Headers merges several headers in order.
func (b *Builder) Headers(headers *Values) *Builder {
	for _, k := range headers.Keys() {
		b.Header(k, headers.Get(k))
	}
	return b
}

// Accept sets the Accept header.
func (b *Builder) Accept(contentType string) *Builder {
	return b.Header("Accept", contentType)
}

// ContentType sets the Content-Type header. Multipart bodies override it.
func (b *Builder) ContentType(contentType string) *Builder {
	return b.Header("Content-Type", contentType)
}

// Bearer sets an "Authorization: Bearer" header.
func (b *Builder) Bearer(token string) *Builder {
	return b.Header("Authorization", "Bearer "+token)
}

// BasicAuth sets an "Authorization: Basic" header.
func (b *Builder) BasicAuth(username, password string) *Builder {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return b.Header("Authorization", "Basic "+creds)
}

// Body sets a raw payload.
func (b *Builder) Body(raw string) *Builder {
	b.req.kind = bodyRaw
	b.req.raw = raw
	return b
}

// Form sets a mapping payload, url-encoded unless a JSON Content-Type is set.
func (b *Builder) Form(data *Values) *Builder {
	b.req.kind = bodyForm
	b.req.form = data.Clone()
	return b
}

// FormAs sets a mapping payload together with the form Content-Type.
func (b *Builder) FormAs(data *Values) *Builder {
	return b.Form(data).ContentType(contentTypeForm)
}

// JSON sets a payload encoded as JSON and negotiates JSON both ways. v is
// encoded immediately, so later changes to it are not sent. An encoding
// failure is a build error.
func (b *Builder) JSON(v any) *Builder {
	data, err := sonic.Marshal(v)
	if err != nil {
		b.fail(fmt.Errorf("encode json body: %w", err))
		return b
	}
	b.req.kind = bodyJSON
	b.req.json = data
	return b.ContentType(contentTypeJSON).Accept(contentTypeJSON)
}

// AddFile attaches path as a multipart file under field. filename defaults
// to the base name of path. A missing file is a build error.
func (b *Builder) AddFile(field, path, filename string) *Builder {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		b.fail(fmt.Errorf("%w: %s", ErrFileNotFound, path))
		return b
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	f := File{Field: field, Path: path, Filename: filename, MIME: MIMEType(path)}

	for i := range b.req.files {
		if b.req.files[i].Field == field {
			b.req.files[i] = f
			return b
		}
	}
	b.req.files = append(b.req.files, f)
	return b
}

// Timeout bounds the whole exchange.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.req.timeout = d
	return b
}

// ConnectTimeout bounds connection setup only.
func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.req.connectTimeout = d
	return b
}

// VerifySSL toggles peer verification. caBundle is used only if it exists
// when the request is sent.
func (b *Builder) VerifySSL(verify bool, caBundle string) *Builder {
	b.req.verifySSL = verify
	b.req.caBundle = caBundle
	return b
}

// ClientCert sets a PEM client certificate. key may be empty when the
// certificate file also holds the key.
func (b *Builder) ClientCert(cert, key string) *Builder {
	b.req.clientCert = cert
	b.req.clientKey = key
	return b
}

// Proxy routes the exchange through host[:port]. port 0 keeps host as-is.
func (b *Builder) Proxy(host string, port int, user, pass string) *Builder {
	if host == "" {
		return b.NoProxy()
	}
	b.req.proxy = &transport.Proxy{Host: host, Port: port, Username: user, Password: pass}
	return b
}

// NoProxy clears any proxy, including one from Defaults.
func (b *Builder) NoProxy() *Builder {
	b.req.proxy = nil
	return b
}

// FollowRedirects toggles following 3xx responses.
func (b *Builder) FollowRedirects(follow bool) *Builder {
	b.req.followRedirects = follow
	return b
}

// MaxRedirects caps followed redirects.
func (b *Builder) MaxRedirects(max int) *Builder {
	b.req.maxRedirects = max
	return b
}

// AutoReferer sets Referer to the previous URL on each followed redirect.
func (b *Builder) AutoReferer(auto bool) *Builder {
	b.req.autoReferer = auto
	return b
}

// Compression toggles gzip/deflate negotiation and transparent decoding.
func (b *Builder) Compression(enabled bool) *Builder {
	b.req.compression = enabled
	return b
}

// UserAgent overrides the default User-Agent.
func (b *Builder) UserAgent(agent string) *Builder {
	b.req.userAgent = agent
	return b
}

// Referer overrides the default Referer, which is the request URL.
func (b *Builder) Referer(referer string) *Builder {
	b.req.referer = referer
	return b
}

// Cookie enables cookie support backed by file (a temp file when empty).
func (b *Builder) Cookie(enable bool, file string) *Builder {
	if file == "" {
		file = filepath.Join(os.TempDir(), "curlkit_cookie.txt")
	}
	b.req.cookies.enabled = enable
	b.req.cookies.file = file
	return b
}

// CookieJar sets where received cookies are written (a temp file when empty).
func (b *Builder) CookieJar(path string) *Builder {
	if path == "" {
		path = filepath.Join(os.TempDir(), "curlkit_cookie_jar.txt")
	}
	b.req.cookies.jar = path
	return b
}

// SendCookie sets a raw Cookie header.
func (b *Builder) SendCookie(cookie string) *Builder {
	return b.Header("Cookie", cookie)
}

// Retry re-issues the exchange up to times more on transient transport
// errors, sleeping delay between attempts.
func (b *Builder) Retry(times int, delay time.Duration) *Builder {
	if times < 0 {
		times = 0
	}
	b.req.retry = RetryPolicy{Times: times, Delay: delay}
	return b
}

// OnSuccess registers fn to run when the exchange completes. nil is ignored.
func (b *Builder) OnSuccess(fn Observer) *Builder {
	if fn != nil {
		b.req.onSuccess = append(b.req.onSuccess, fn)
	}
	return b
}

// OnError registers fn to run on every transport failure. nil is ignored.
func (b *Builder) OnError(fn Observer) *Builder {
	if fn != nil {
		b.req.onError = append(b.req.onError, fn)
	}
	return b
}

// Err returns the accumulated build errors, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build freezes the description. Later builder calls do not affect it.
func (b *Builder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.req.url == "" {
		return nil, ErrNoURL
	}
	return b.req.clone(), nil
}

// MustBuild is Build for statically known requests. It panics on error.
func (b *Builder) MustBuild() *Request {
	req, err := b.Build()
	if err != nil {
		panic(err)
	}
	return req
}

func (b *Builder) fail(err error) {
	b.err = errors.Join(b.err, err)
}
