package curl

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Method is one of the supported HTTP methods.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

var (
	// ErrInvalidMethod is returned for methods outside the supported set.
	ErrInvalidMethod = errors.New("invalid http method")
	// ErrNoURL is returned by Build when no URL was configured.
	ErrNoURL = errors.New("request url is empty")
	// ErrFileNotFound is returned when an attached file does not exist.
	ErrFileNotFound = errors.New("file not found")
)

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions:
		return true
	}
	return false
}

// CarriesBody reports whether a payload is attached for this method.
func (m Method) CarriesBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// String returns the method name.
func (m Method) String() string { return string(m) }
