package response

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
)

// Response is the outcome of one exchange: content, status and transport error state.
//
// Content is either the raw body (nil when the transport failed) or a decoded
// mapping, which is what factories and Pull produce.
type Response struct {
	body         []byte
	data         map[string]any
	statusCode   int
	contentType  string
	errorCode    ErrorCode
	errorMessage string
	headers      http.Header
	effectiveURL string
}

// New creates an envelope around a raw body.
func New(body []byte, statusCode int, contentType string, code ErrorCode, message string) *Response {
	return &Response{
		body:         body,
		statusCode:   statusCode,
		contentType:  contentType,
		errorCode:    code,
		errorMessage: message,
	}
}

// NewFailure creates the envelope of an exchange that produced no response.
func NewFailure(code ErrorCode, message string) *Response {
	return New(nil, 0, "", code, message)
}

// NewData creates an envelope whose content is already a mapping.
func NewData(data map[string]any, statusCode int, contentType string) *Response {
	if data == nil {
		data = map[string]any{}
	}
	return &Response{data: data, statusCode: statusCode, contentType: contentType}
}

// Body returns the raw body, nil when the content is a mapping or absent.
func (r *Response) Body() []byte { return r.body }

// Content returns the mapping when the content is decoded, otherwise the raw body.
func (r *Response) Content() any {
	if r.data != nil {
		return r.data
	}
	if r.body == nil {
		return nil
	}
	return r.body
}

// StatusCode is 0 when no response was received.
func (r *Response) StatusCode() int { return r.statusCode }

// ContentType is the raw Content-Type header value.
func (r *Response) ContentType() string { return r.contentType }

// ErrorCode and ErrorMessage describe the transport failure, if any.
func (r *Response) ErrorCode() ErrorCode  { return r.errorCode }
func (r *Response) ErrorMessage() string { return r.errorMessage }

// Headers returns the captured response headers.
func (r *Response) Headers() http.Header { return r.headers }

// EffectiveURL is the final URL after redirects.
func (r *Response) EffectiveURL() string { return r.effectiveURL }

// HasTransportError reports whether no response was received.
func (r *Response) HasTransportError() bool { return r.errorCode.Failed() }

// SetHeaders attaches captured response headers.
func (r *Response) SetHeaders(h http.Header) *Response {
	r.headers = h
	return r
}

// SetEffectiveURL records the final URL after redirects.
func (r *Response) SetEffectiveURL(u string) *Response {
	r.effectiveURL = u
	return r
}

// ToArray decodes the content into a mapping. Decoding is best effort:
// malformed or non-object content yields an empty mapping.
func (r *Response) ToArray() map[string]any {
	if r.data != nil {
		return r.data
	}
	if r.body == nil {
		return map[string]any{}
	}
	switch {
	case r.IsJSON():
		var v any
		if err := sonic.Unmarshal(r.body, &v); err != nil {
			return map[string]any{}
		}
		if m, ok := v.(map[string]any); ok {
			return m
		}
		return map[string]any{}
	case r.IsForm():
		return parseForm(string(r.body))
	}
	return map[string]any{}
}

// JSON is an alias of ToArray kept for readability at call sites.
func (r *Response) JSON() map[string]any {
	return r.ToArray()
}

// Object decodes JSON content into a generic value (object, array or scalar).
// It returns nil for non-JSON content.
func (r *Response) Object() any {
	if r.data != nil {
		return r.data
	}
	if r.body == nil || !r.IsJSON() {
		return nil
	}
	var v any
	if err := sonic.Unmarshal(r.body, &v); err != nil {
		return nil
	}
	return v
}

// ToJSON renders the decoded mapping as indented JSON.
func (r *Response) ToJSON() string {
	b, err := sonic.MarshalIndent(r.ToArray(), "", "    ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// String returns the raw body, or the mapping encoded as a query string.
func (r *Response) String() string {
	if r.data != nil {
		return encodeForm(r.data)
	}
	return string(r.body)
}

// Get reads key from the decoded mapping, returning def when it is missing.
func (r *Response) Get(key string, def any) any {
	if v, ok := r.ToArray()[key]; ok && v != nil {
		return v
	}
	return def
}

// Has reports whether the decoded mapping holds key.
func (r *Response) Has(key string) bool {
	_, ok := r.ToArray()[key]
	return ok
}

// Only returns the subset of the decoded mapping with the given keys.
func (r *Response) Only(keys ...string) map[string]any {
	src := r.ToArray()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Except returns a copy of the decoded mapping without the given keys.
func (r *Response) Except(keys ...string) map[string]any {
	src := r.ToArray()
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if _, skip := drop[k]; !skip {
			out[k] = v
		}
	}
	return out
}

// Pull reads key from the decoded mapping and replaces the content with the
// mapping minus that key.
func (r *Response) Pull(key string, def any) any {
	v := r.Get(key, def)
	r.data = r.Except(key)
	r.body = nil
	return v
}

// parseForm decodes a urlencoded string. Keys ending in "[]" collect every value,
// other repeated keys keep the last one.
func parseForm(s string) map[string]any {
	out := map[string]any{}
	// ParseQuery returns whatever it could decode alongside the first error.
	values, _ := url.ParseQuery(s)
	for k, vv := range values {
		if len(vv) == 0 {
			continue
		}
		if name, ok := strings.CutSuffix(k, "[]"); ok && name != "" {
			list := make([]any, 0, len(vv))
			for _, v := range vv {
				list = append(list, v)
			}
			out[name] = list
			continue
		}
		out[k] = vv[len(vv)-1]
	}
	return out
}

func encodeForm(m map[string]any) string {
	values := url.Values{}
	for k, v := range m {
		switch tv := v.(type) {
		case []any:
			for _, item := range tv {
				values.Add(k+"[]", fmt.Sprint(item))
			}
		case nil:
			values.Set(k, "")
		default:
			values.Set(k, fmt.Sprint(tv))
		}
	}
	return values.Encode()
}
