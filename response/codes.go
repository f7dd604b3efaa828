package response

import "fmt"

// ErrorCode identifies why an exchange failed before producing an HTTP status.
// Values follow libcurl's numbering where one exists.
type ErrorCode int

const (
	CodeOK                     ErrorCode = 0
	CodeUnsupportedProtocol    ErrorCode = 1
	CodeURLMalformed           ErrorCode = 3
	CodeCouldNotResolveHost    ErrorCode = 6
	CodeCouldNotConnect        ErrorCode = 7
	CodeReadError              ErrorCode = 26
	CodeOperationTimedOut      ErrorCode = 28
	CodeSSLConnectError        ErrorCode = 35
	CodeAborted                ErrorCode = 42
	CodeTooManyRedirects       ErrorCode = 47
	CodeGotNothing             ErrorCode = 52
	CodeSendError              ErrorCode = 55
	CodeRecvError              ErrorCode = 56
	CodePeerFailedVerification ErrorCode = 60
	CodeBadContentEncoding     ErrorCode = 61

	// Executor-level sentinels, outside the libcurl range.
	CodeUnknown        ErrorCode = 1000
	CodeRetryExhausted ErrorCode = 1001
	CodeCircuitOpen    ErrorCode = 1002
)

var codeNames = map[ErrorCode]string{
	CodeOK:                     "ok",
	CodeUnsupportedProtocol:    "unsupported_protocol",
	CodeURLMalformed:           "url_malformed",
	CodeCouldNotResolveHost:    "couldnt_resolve_host",
	CodeCouldNotConnect:        "couldnt_connect",
	CodeReadError:              "read_error",
	CodeOperationTimedOut:      "operation_timedout",
	CodeSSLConnectError:        "ssl_connect_error",
	CodeAborted:                "aborted",
	CodeTooManyRedirects:       "too_many_redirects",
	CodeGotNothing:             "got_nothing",
	CodeSendError:              "send_error",
	CodeRecvError:              "recv_error",
	CodePeerFailedVerification: "peer_failed_verification",
	CodeBadContentEncoding:     "bad_content_encoding",
	CodeUnknown:                "unknown",
	CodeRetryExhausted:         "retry_exhausted",
	CodeCircuitOpen:            "circuit_open",
}

// String returns a stable snake_case name, suitable for metric labels.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code_%d", int(c))
}

// Failed reports whether the code marks a transport failure.
func (c ErrorCode) Failed() bool {
	return c != CodeOK
}
