package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/curlkit/response"
)

var (
	// ErrTooManyRedirects is returned by the redirect policy once the hop limit is exceeded.
	ErrTooManyRedirects = errors.New("maximum redirects followed")

	errUnsupportedProtocol = errors.New("unsupported protocol scheme")
)

// codedError pins a code on errors whose origin is known at the call site.
type codedError struct {
	code response.ErrorCode
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code response.ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

var retryable = map[response.ErrorCode]struct{}{
	response.CodeCouldNotResolveHost: {},
	response.CodeCouldNotConnect:     {},
	response.CodeOperationTimedOut:   {},
	response.CodeSSLConnectError:     {},
	response.CodeGotNothing:          {},
}

// IsRetryable reports whether a transport error code is transient.
func IsRetryable(code response.ErrorCode) bool {
	_, ok := retryable[code]
	return ok
}

// Classify maps a Go error from the HTTP stack to a transport error code.
func Classify(err error) (response.ErrorCode, string) {
	if err == nil {
		return response.CodeOK, ""
	}
	msg := err.Error()

	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code, msg
	}

	switch {
	case errors.Is(err, context.Canceled):
		return response.CodeAborted, msg
	case errors.Is(err, ErrTooManyRedirects):
		return response.CodeTooManyRedirects, msg
	case errors.Is(err, context.DeadlineExceeded):
		return response.CodeOperationTimedOut, msg
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return response.CodeOperationTimedOut, msg
		}
		return response.CodeCouldNotResolveHost, msg
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return response.CodeOperationTimedOut, msg
	}

	if code, ok := classifyTLS(err); ok {
		return code, msg
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return response.CodeCouldNotConnect, msg
		case "write":
			return response.CodeSendError, msg
		case "read":
			if errors.Is(err, syscall.ECONNRESET) {
				return response.CodeGotNothing, msg
			}
			return response.CodeRecvError, msg
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return response.CodeGotNothing, msg
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if strings.Contains(urlErr.Err.Error(), errUnsupportedProtocol.Error()) {
			return response.CodeUnsupportedProtocol, msg
		}
		if urlErr.Op == "parse" {
			return response.CodeURLMalformed, msg
		}
	}

	return response.CodeUnknown, msg
}

func classifyTLS(err error) (response.ErrorCode, bool) {
	var (
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return response.CodePeerFailedVerification, true
	case errors.As(err, &recordErr), errors.As(err, &alertErr):
		return response.CodeSSLConnectError, true
	}
	if strings.Contains(err.Error(), "tls: ") {
		return response.CodeSSLConnectError, true
	}
	return response.CodeOK, false
}
