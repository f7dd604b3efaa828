package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure raised by ThrowIfError and ThrowIfNotOK.
type Kind int

const (
	KindGeneric Kind = iota
	KindClient
	KindServer
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "generic"
	}
}

// Error is the typed failure returned by the throwing helpers.
type Error struct {
	Kind Kind

	// StatusCode is the HTTP status. It is 0 when no response was received.
	StatusCode int

	// Code is the transport error code, CodeOK for HTTP-level failures.
	Code ErrorCode

	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.StatusCode != 0 {
		b.WriteString(fmt.Sprintf(": http %d", e.StatusCode))
		if t := http.StatusText(e.StatusCode); t != "" {
			b.WriteString(" ")
			b.WriteString(t)
		}
	}
	if e.Code.Failed() {
		b.WriteString(fmt.Sprintf(" (%s)", e.Code))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// IsClientError reports whether the status is in the 4xx range.
func (e *Error) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports whether the status is 5xx or above.
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsClientError reports whether err wraps a 4xx *Error.
func IsClientError(err error) bool {
	re, ok := AsError(err)
	return ok && re.Kind == KindClient
}

// IsServerError reports whether err wraps a 5xx *Error.
func IsServerError(err error) bool {
	re, ok := AsError(err)
	return ok && re.Kind == KindServer
}
