package response

import (
	"net/http"
	"strings"
)

// IsSuccess reports a 2xx status with no transport error.
func (r *Response) IsSuccess() bool {
	return !r.errorCode.Failed() && r.statusCode >= 200 && r.statusCode < 300
}

// IsRedirect reports a 3xx status.
func (r *Response) IsRedirect() bool {
	return r.statusCode >= 300 && r.statusCode < 400
}

// IsClientError reports a 4xx status.
func (r *Response) IsClientError() bool {
	return r.statusCode >= 400 && r.statusCode < 500
}

// IsServerError reports a 5xx status.
func (r *Response) IsServerError() bool {
	return r.statusCode >= 500
}

// Exact status checks.
func (r *Response) IsOK() bool                  { return r.statusCode == http.StatusOK }
func (r *Response) IsCreated() bool             { return r.statusCode == http.StatusCreated }
func (r *Response) IsNoContent() bool           { return r.statusCode == http.StatusNoContent }
func (r *Response) IsMovedPermanently() bool    { return r.statusCode == http.StatusMovedPermanently }
func (r *Response) IsFound() bool               { return r.statusCode == http.StatusFound }
func (r *Response) IsNotModified() bool         { return r.statusCode == http.StatusNotModified }
func (r *Response) IsBadRequest() bool          { return r.statusCode == http.StatusBadRequest }
func (r *Response) IsUnauthorized() bool        { return r.statusCode == http.StatusUnauthorized }
func (r *Response) IsForbidden() bool           { return r.statusCode == http.StatusForbidden }
func (r *Response) IsNotFound() bool            { return r.statusCode == http.StatusNotFound }
func (r *Response) IsMethodNotAllowed() bool    { return r.statusCode == http.StatusMethodNotAllowed }
func (r *Response) IsConflict() bool            { return r.statusCode == http.StatusConflict }
func (r *Response) IsUnprocessableEntity() bool { return r.statusCode == http.StatusUnprocessableEntity }
func (r *Response) IsTooManyRequests() bool     { return r.statusCode == http.StatusTooManyRequests }
func (r *Response) IsInternalServerError() bool { return r.statusCode == http.StatusInternalServerError }
func (r *Response) IsServiceUnavailable() bool  { return r.statusCode == http.StatusServiceUnavailable }

// Content-type predicates compare the media type prefix, ignoring case and parameters.

// IsJSON matches application/json.
func (r *Response) IsJSON() bool { return r.hasType("application/json") }

// IsXML matches application/xml and text/xml.
func (r *Response) IsXML() bool {
	return r.hasType("application/xml") || r.hasType("text/xml")
}

// IsHTML matches text/html.
func (r *Response) IsHTML() bool { return r.hasType("text/html") }
// IsText matches text/plain.
func (r *Response) IsText() bool { return r.hasType("text/plain") }

// IsForm matches both url-encoded and multipart form bodies.
func (r *Response) IsForm() bool {
	return r.hasType("application/x-www-form-urlencoded") || r.hasType("multipart/form-data")
}

func (r *Response) hasType(prefix string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.contentType)), prefix)
}
