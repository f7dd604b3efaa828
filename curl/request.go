package curl

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/curlkit/response"
	"github.com/GriffinCanCode/curlkit/transport"
)

const (
	contentTypeJSON      = "application/json"
	contentTypeForm      = "application/x-www-form-urlencoded"
	contentTypeText      = "text/plain"
	contentTypeMultipart = "multipart/form-data"

	boundaryPrefix = "----CurlKit"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyRaw
	bodyForm
	bodyJSON
)

// File is a multipart attachment.
type File struct {
	Field    string
	Path     string
	Filename string
	MIME     string
}

// RetryPolicy controls re-issuing an exchange after a transient failure.
type RetryPolicy struct {
	Times int
	Delay time.Duration
}

// Observer is notified once an exchange reaches a terminal outcome. The
// request it receives is read-only.
type Observer func(resp *response.Response, req *Request)

type cookieSettings struct {
	enabled bool
	file    string
	jar     string
}

// Request is a frozen description of one HTTP exchange, produced by
// Builder.Build. It is safe to send concurrently from several goroutines.
type Request struct {
	method  Method
	url     string
	query   *Values
	headers *Values

	kind bodyKind
	raw  string
	form *Values
	json []byte

	files []File

	timeout        time.Duration
	connectTimeout time.Duration

	verifySSL  bool
	caBundle   string
	clientCert string
	clientKey  string

	proxy *transport.Proxy

	followRedirects bool
	maxRedirects    int
	autoReferer     bool
	compression     bool

	userAgent string
	referer   string
	cookies   cookieSettings

	retry     RetryPolicy
	onSuccess []Observer
	onError   []Observer
}

// Accessors. Collections are returned as copies.
func (r *Request) Method() Method                { return r.method }
func (r *Request) URL() string                   { return r.url }
func (r *Request) Query() *Values                { return r.query.Clone() }
func (r *Request) Headers() *Values              { return r.headers.Clone() }
func (r *Request) Header(name string) string     { return r.headers.Get(textproto.CanonicalMIMEHeaderKey(name)) }
func (r *Request) Files() []File                 { return append([]File(nil), r.files...) }
func (r *Request) Timeout() time.Duration        { return r.timeout }
func (r *Request) ConnectTimeout() time.Duration { return r.connectTimeout }
func (r *Request) Retry() RetryPolicy            { return r.retry }

// clone deep-copies every collection.
func (r *Request) clone() *Request {
	c := *r
	c.query = r.query.Clone()
	c.headers = r.headers.Clone()
	if r.form != nil {
		c.form = r.form.Clone()
	}
	c.json = bytes.Clone(r.json)
	c.files = append([]File(nil), r.files...)
	if r.proxy != nil {
		p := *r.proxy
		c.proxy = &p
	}
	c.onSuccess = append([]Observer(nil), r.onSuccess...)
	c.onError = append([]Observer(nil), r.onError...)
	return &c
}

// BuildURL appends the query parameters to the base URL, using "&" when the
// base already has a query string.
func (r *Request) BuildURL() string {
	if r.query.Len() == 0 {
		return r.url
	}
	sep := "?"
	if strings.Contains(r.url, "?") {
		sep = "&"
	}
	return r.url + sep + r.query.Encode()
}

// Body is the encoded payload of a request.
type Body struct {
	// Data is nil when the request has no body.
	Data []byte

	// ContentType is set only when the encoding dictates it (multipart) and
	// then overrides any configured Content-Type.
	ContentType string

	// Form marks a mapping body.
	Form bool
}

// Present reports whether there is a payload.
func (b Body) Present() bool {
	return b.Data != nil
}

// BuildBody encodes the payload. With files attached it produces a
// multipart body with a fresh boundary on every call.
func (r *Request) BuildBody() (Body, error) {
	return r.buildBody(MIMEType)
}

func (r *Request) buildBody(mimeFor func(string) string) (Body, error) {
	if len(r.files) > 0 {
		return r.buildMultipart(mimeFor)
	}

	switch r.kind {
	case bodyRaw:
		return Body{Data: []byte(r.raw)}, nil
	case bodyForm:
		if isJSONType(r.headers.Get("Content-Type")) {
			data, err := r.form.MarshalJSON()
			if err != nil {
				return Body{}, fmt.Errorf("encode json body: %w", err)
			}
			return Body{Data: data, Form: true}, nil
		}
		return Body{Data: []byte(r.form.Encode()), Form: true}, nil
	case bodyJSON:
		return Body{Data: bytes.Clone(r.json)}, nil
	}
	return Body{}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart writes form fields first, then files, in insertion order.
// Raw and JSON bodies have no field structure and are not included.
func (r *Request) buildMultipart(mimeFor func(string) string) (Body, error) {
	boundary := boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return Body{}, fmt.Errorf("multipart boundary: %w", err)
	}

	if r.kind == bodyForm {
		for _, k := range r.form.Keys() {
			if err := w.WriteField(k, r.form.Get(k)); err != nil {
				return Body{}, fmt.Errorf("multipart field %s: %w", k, err)
			}
		}
	}

	for _, f := range r.files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return Body{}, fmt.Errorf("read attachment %s: %w", f.Path, err)
		}
		mt := f.MIME
		if mt == "" || mt == DefaultMIME {
			mt = mimeFor(f.Path)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		h.Set("Content-Type", mt)
		part, err := w.CreatePart(h)
		if err != nil {
			return Body{}, fmt.Errorf("multipart file %s: %w", f.Field, err)
		}
		if _, err := part.Write(data); err != nil {
			return Body{}, fmt.Errorf("multipart file %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return Body{}, fmt.Errorf("multipart close: %w", err)
	}

	return Body{
		Data:        buf.Bytes(),
		ContentType: contentTypeMultipart + "; boundary=" + boundary,
		Form:        r.kind == bodyForm,
	}, nil
}

// BuildHeaders renders the configured headers for body. A multipart content
// type always wins. Otherwise a present body without a Content-Type gets
// the form type for mappings and text/plain for anything else.
func (r *Request) BuildHeaders(body Body) http.Header {
	h := make(http.Header, r.headers.Len()+1)
	for _, k := range r.headers.Keys() {
		h.Set(k, r.headers.Get(k))
	}

	switch {
	case body.ContentType != "":
		h.Set("Content-Type", body.ContentType)
	case body.Present() && h.Get("Content-Type") == "":
		if body.Form {
			h.Set("Content-Type", contentTypeForm)
		} else {
			h.Set("Content-Type", contentTypeText)
		}
	}
	return h
}

// Prepare composes the complete exchange: URL, body and headers plus
// timeouts, TLS, proxy, redirects, compression and cookie files.
func (r *Request) Prepare() (*transport.Exchange, error) {
	return r.prepare(MIMEType)
}

func (r *Request) prepare(mimeFor func(string) string) (*transport.Exchange, error) {
	body, err := r.buildBody(mimeFor)
	if err != nil {
		return nil, err
	}

	target := r.BuildURL()
	header := r.BuildHeaders(body)
	if r.userAgent != "" && header.Get("User-Agent") == "" {
		header.Set("User-Agent", r.userAgent)
	}
	if header.Get("Referer") == "" {
		ref := r.referer
		if ref == "" {
			ref = target
		}
		header.Set("Referer", ref)
	}

	ex := &transport.Exchange{
		Method:         r.method.String(),
		URL:            target,
		Header:         header,
		Timeout:        r.timeout,
		ConnectTimeout: r.connectTimeout,
		TLS: transport.TLSOptions{
			Verify:     r.verifySSL,
			CABundle:   r.caBundle,
			ClientCert: r.clientCert,
			ClientKey:  r.clientKey,
		},
		FollowRedirects: r.followRedirects,
		MaxRedirects:    r.maxRedirects,
		AutoReferer:     r.autoReferer,
		Compression:     r.compression,
		Cookies:         r.cookieOptions(),
	}
	if r.proxy != nil {
		p := *r.proxy
		ex.Proxy = &p
	}
	if r.method.CarriesBody() && body.Present() {
		ex.Body = body.Data
	}
	return ex, nil
}

// cookieOptions reads the cookie file only when cookies are enabled; the
// jar is written whenever a path is known.
func (r *Request) cookieOptions() transport.CookieOptions {
	var opts transport.CookieOptions
	if r.cookies.enabled {
		opts.File = r.cookies.file
	}
	switch {
	case r.cookies.jar != "":
		opts.Jar = r.cookies.jar
	case r.cookies.enabled:
		opts.Jar = r.cookies.file
	}
	return opts
}

func isJSONType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), contentTypeJSON)
}
