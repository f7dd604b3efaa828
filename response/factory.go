package response

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

const jsonType = "application/json"

// From wraps arbitrary content. JSON objects are decoded eagerly so the
// envelope behaves like one produced by the other factories.
func From(content string, contentType string, statusCode int) *Response {
	r := New([]byte(content), statusCode, contentType, CodeOK, "")
	if r.IsJSON() {
		var m map[string]any
		if err := sonic.UnmarshalString(content, &m); err == nil && m != nil {
			r.data = m
			r.body = nil
		}
	}
	return r
}

// Success builds a {"success": true, "message", "data"} envelope.
func Success(data any, message string, statusCode int) *Response {
	if message == "" {
		message = "Success"
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	return NewData(map[string]any{
		"success": true,
		"message": message,
		"data":    data,
	}, statusCode, jsonType)
}

// Failure builds a {"success": false, "message", "errors"} envelope.
// errors is omitted when nil.
func Failure(message string, statusCode int, errors any) *Response {
	if message == "" {
		message = "Error"
	}
	if statusCode == 0 {
		statusCode = http.StatusBadRequest
	}
	body := map[string]any{
		"success": false,
		"message": message,
	}
	if errors != nil {
		body["errors"] = errors
	}
	r := NewData(body, statusCode, jsonType)
	r.errorMessage = message
	return r
}

// NotFound builds a 404 failure. An empty message uses the status text.
func NotFound(message string) *Response {
	return Failure(orDefault(message, "Not Found"), http.StatusNotFound, nil)
}

// Unauthorized builds a 401 failure.
func Unauthorized(message string) *Response {
	return Failure(orDefault(message, "Unauthorized"), http.StatusUnauthorized, nil)
}

// Forbidden builds a 403 failure.
func Forbidden(message string) *Response {
	return Failure(orDefault(message, "Forbidden"), http.StatusForbidden, nil)
}

// ServerError builds a 500 failure.
func ServerError(message string) *Response {
	return Failure(orDefault(message, "Internal Server Error"), http.StatusInternalServerError, nil)
}

// ValidationError builds a 422 failure carrying the per-field errors.
func ValidationError(errors any, message string) *Response {
	return Failure(orDefault(message, "Validation Failed"), http.StatusUnprocessableEntity, errors)
}

// ThrowIfError returns a typed *Error unless the envelope is a success.
// The envelope is returned in both cases.
func (r *Response) ThrowIfError() (*Response, error) {
	if r.IsSuccess() {
		return r, nil
	}

	kind := KindGeneric
	switch {
	case r.IsServerError():
		kind = KindServer
	case r.IsClientError():
		kind = KindClient
	}

	msg := r.errorMessage
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", r.statusCode)
	}
	return r, &Error{Kind: kind, StatusCode: r.statusCode, Code: r.errorCode, Message: msg}
}

// ThrowIfNotOK fails with a generic *Error for any status other than 200.
func (r *Response) ThrowIfNotOK() (*Response, error) {
	if r.statusCode == http.StatusOK && !r.errorCode.Failed() {
		return r, nil
	}
	return r, &Error{
		Kind:       KindGeneric,
		StatusCode: r.statusCode,
		Code:       r.errorCode,
		Message:    fmt.Sprintf("expected status 200, got %d", r.statusCode),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
