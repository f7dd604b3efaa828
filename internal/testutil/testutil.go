// Package testutil provides transport doubles and fixtures for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/curlkit/response"
	"github.com/GriffinCanCode/curlkit/transport"
)

// MockTransport is a mock implementation of transport.Transport.
type MockTransport struct {
	mock.Mock
}

// RoundTrip mocks the RoundTrip method.
func (m *MockTransport) RoundTrip(ctx context.Context, ex *transport.Exchange) *transport.Result {
	args := m.Called(ctx, ex)
	if args.Get(0) == nil {
		return Failure(response.CodeUnknown, "no result configured")
	}
	return args.Get(0).(*transport.Result)
}

// NewMockTransport creates a mock transport answering 200 with an empty
// JSON object unless the test configures otherwise.
func NewMockTransport(t *testing.T) *MockTransport {
	t.Helper()
	m := new(MockTransport)

	m.On("RoundTrip", mock.Anything, mock.Anything).
		Return(OK(200, "{}", "application/json")).
		Maybe()

	return m
}

// ScriptedTransport replays results in order and records every exchange.
// Once the script runs out the last result repeats.
type ScriptedTransport struct {
	mu        sync.Mutex
	script    []*transport.Result
	exchanges []*transport.Exchange
}

// NewScriptedTransport creates a transport replaying results.
func NewScriptedTransport(results ...*transport.Result) *ScriptedTransport {
	return &ScriptedTransport{script: results}
}

func (s *ScriptedTransport) RoundTrip(_ context.Context, ex *transport.Exchange) *transport.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.exchanges)
	s.exchanges = append(s.exchanges, ex)
	if len(s.script) == 0 {
		return Failure(response.CodeUnknown, "empty script")
	}
	if n >= len(s.script) {
		n = len(s.script) - 1
	}
	res := *s.script[n]
	return &res
}

// Calls returns how many exchanges were attempted.
func (s *ScriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}

// Exchanges returns the recorded exchanges in order.
func (s *ScriptedTransport) Exchanges() []*transport.Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*transport.Exchange(nil), s.exchanges...)
}

// OK creates a successful result.
func OK(status int, body, contentType string) *transport.Result {
	return &transport.Result{
		Body:        []byte(body),
		StatusCode:  status,
		ContentType: contentType,
	}
}

// Failure creates a transport-level failure.
func Failure(code response.ErrorCode, message string) *transport.Result {
	return &transport.Result{Code: code, Message: message}
}

// WriteFile creates name with content in a per-test temp dir and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// NoSleep is a retry delay that returns immediately.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// AssertSuccess is a helper to assert a successful envelope.
func AssertSuccess(t *testing.T, resp *response.Response) {
	t.Helper()
	if resp == nil {
		t.Fatal("Response is nil")
	}
	if resp.HasTransportError() {
		t.Fatalf("Expected success, got transport error %s: %s", resp.ErrorCode(), resp.ErrorMessage())
	}
}

// AssertTransportError is a helper to assert a failed envelope with code.
func AssertTransportError(t *testing.T, resp *response.Response, code response.ErrorCode) {
	t.Helper()
	if resp == nil {
		t.Fatal("Response is nil")
	}
	if resp.ErrorCode() != code {
		t.Fatalf("Expected error code %s, got %s", code, resp.ErrorCode())
	}
	if resp.StatusCode() != 0 {
		t.Fatalf("Expected status 0, got %d", resp.StatusCode())
	}
}
