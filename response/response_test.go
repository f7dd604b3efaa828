package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToArray(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		expected    map[string]any
	}{
		{
			name:        "json object",
			body:        `{"a":1}`,
			contentType: "application/json",
			expected:    map[string]any{"a": float64(1)},
		},
		{
			name:        "json with charset parameter",
			body:        `{"name":"x"}`,
			contentType: "application/json; charset=utf-8",
			expected:    map[string]any{"name": "x"},
		},
		{
			name:        "malformed json",
			body:        `{"a":`,
			contentType: "application/json",
			expected:    map[string]any{},
		},
		{
			name:        "json array is not a mapping",
			body:        `[1,2,3]`,
			contentType: "application/json",
			expected:    map[string]any{},
		},
		{
			name:        "form encoded",
			body:        "a=1&b=2",
			contentType: "application/x-www-form-urlencoded",
			expected:    map[string]any{"a": "1", "b": "2"},
		},
		{
			name:        "form list and last wins",
			body:        "tag[]=x&tag[]=y&a=1&a=2",
			contentType: "application/x-www-form-urlencoded",
			expected:    map[string]any{"tag": []any{"x", "y"}, "a": "2"},
		},
		{
			name:        "plain text",
			body:        "hello",
			contentType: "text/plain",
			expected:    map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New([]byte(tt.body), 200, tt.contentType, CodeOK, "")
			assert.Equal(t, tt.expected, r.ToArray())
		})
	}
}

func TestToArrayTransportFailure(t *testing.T) {
	r := NewFailure(CodeCouldNotConnect, "connection refused")

	assert.Nil(t, r.Content())
	assert.Equal(t, 0, r.StatusCode())
	assert.True(t, r.HasTransportError())
	assert.Empty(t, r.ToArray())
	assert.False(t, r.IsSuccess())
}

func TestPull(t *testing.T) {
	r := New([]byte(`{"a":1,"b":"two"}`), 200, "application/json", CodeOK, "")

	assert.Equal(t, float64(1), r.Pull("a", nil))
	assert.Equal(t, map[string]any{"b": "two"}, r.ToArray())
	assert.False(t, r.Has("a"))

	assert.Equal(t, "fallback", r.Pull("missing", "fallback"))
	assert.Equal(t, map[string]any{"b": "two"}, r.ToArray())
}

func TestOnlyExcept(t *testing.T) {
	r := New([]byte(`{"a":1,"b":2,"c":3}`), 200, "application/json", CodeOK, "")

	assert.Equal(t, map[string]any{"a": float64(1), "c": float64(3)}, r.Only("a", "c", "z"))
	assert.Equal(t, map[string]any{"b": float64(2)}, r.Except("a", "c"))
	// Except must not mutate the decoded view
	assert.True(t, r.Has("a"))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		status int
		check  func(*Response) bool
	}{
		{200, (*Response).IsOK},
		{201, (*Response).IsCreated},
		{204, (*Response).IsNoContent},
		{301, (*Response).IsMovedPermanently},
		{302, (*Response).IsFound},
		{304, (*Response).IsNotModified},
		{400, (*Response).IsBadRequest},
		{401, (*Response).IsUnauthorized},
		{403, (*Response).IsForbidden},
		{404, (*Response).IsNotFound},
		{405, (*Response).IsMethodNotAllowed},
		{409, (*Response).IsConflict},
		{422, (*Response).IsUnprocessableEntity},
		{429, (*Response).IsTooManyRequests},
		{500, (*Response).IsInternalServerError},
		{503, (*Response).IsServiceUnavailable},
	}

	for _, tt := range tests {
		r := New(nil, tt.status, "", CodeOK, "")
		assert.True(t, tt.check(r), "status %d", tt.status)
	}

	assert.True(t, New(nil, 302, "", CodeOK, "").IsRedirect())
	assert.True(t, New(nil, 418, "", CodeOK, "").IsClientError())
	assert.True(t, New(nil, 502, "", CodeOK, "").IsServerError())
	assert.False(t, New(nil, 200, "", CodeCouldNotConnect, "x").IsSuccess())
}

func TestContentTypePredicates(t *testing.T) {
	assert.True(t, New(nil, 200, "application/json", CodeOK, "").IsJSON())
	assert.True(t, New(nil, 200, "text/xml", CodeOK, "").IsXML())
	assert.True(t, New(nil, 200, "application/xml", CodeOK, "").IsXML())
	assert.True(t, New(nil, 200, "Text/HTML; charset=utf-8", CodeOK, "").IsHTML())
	assert.True(t, New(nil, 200, "text/plain", CodeOK, "").IsText())
	assert.True(t, New(nil, 200, "application/x-www-form-urlencoded", CodeOK, "").IsForm())
	assert.True(t, New(nil, 200, "multipart/form-data; boundary=x", CodeOK, "").IsForm())
	assert.False(t, New(nil, 200, "multipart/mixed", CodeOK, "").IsForm())
	assert.False(t, New(nil, 200, "", CodeOK, "").IsJSON())
}

func TestThrowIfError(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		r := New([]byte("nope"), 404, "text/plain", CodeOK, "")
		got, err := r.ThrowIfError()
		require.Error(t, err)
		assert.Same(t, r, got)

		re, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindClient, re.Kind)
		assert.Equal(t, 404, re.StatusCode)
		assert.True(t, IsClientError(err))
		assert.False(t, IsServerError(err))
	})

	t.Run("server error", func(t *testing.T) {
		r := New(nil, 500, "", CodeOK, "")
		_, err := r.ThrowIfError()
		require.Error(t, err)

		re, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindServer, re.Kind)
		assert.Equal(t, 500, re.StatusCode)
		assert.True(t, IsServerError(err))
	})

	t.Run("transport error is generic", func(t *testing.T) {
		r := NewFailure(CodeOperationTimedOut, "timeout")
		_, err := r.ThrowIfError()
		require.Error(t, err)

		re, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindGeneric, re.Kind)
		assert.Equal(t, CodeOperationTimedOut, re.Code)
		assert.Contains(t, err.Error(), "operation_timedout")
	})

	t.Run("success unchanged", func(t *testing.T) {
		r := New([]byte("ok"), 204, "", CodeOK, "")
		got, err := r.ThrowIfError()
		require.NoError(t, err)
		assert.Same(t, r, got)
	})
}

func TestThrowIfNotOK(t *testing.T) {
	_, err := New(nil, 200, "", CodeOK, "").ThrowIfNotOK()
	assert.NoError(t, err)

	_, err = New(nil, 201, "", CodeOK, "").ThrowIfNotOK()
	require.Error(t, err)
	re, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindGeneric, re.Kind)
	assert.Equal(t, 201, re.StatusCode)
}

func TestFactories(t *testing.T) {
	ok := Success(map[string]any{"id": 7}, "", 0)
	assert.Equal(t, 200, ok.StatusCode())
	assert.True(t, ok.IsJSON())
	assert.Equal(t, true, ok.Get("success", nil))
	assert.Equal(t, "Success", ok.Get("message", nil))

	nf := NotFound("")
	assert.True(t, nf.IsNotFound())
	assert.Equal(t, "Not Found", nf.Get("message", nil))
	assert.False(t, nf.Has("errors"))

	ve := ValidationError(map[string]any{"email": "required"}, "")
	assert.True(t, ve.IsUnprocessableEntity())
	assert.Equal(t, map[string]any{"email": "required"}, ve.Get("errors", nil))

	_, err := ServerError("boom").ThrowIfError()
	assert.True(t, IsServerError(err))
	assert.Contains(t, err.Error(), "boom")

	assert.Equal(t, 401, Unauthorized("").StatusCode())
	assert.Equal(t, 403, Forbidden("").StatusCode())
}

func TestFrom(t *testing.T) {
	r := From(`{"x":"y"}`, "application/json", 201)
	assert.Equal(t, map[string]any{"x": "y"}, r.Content())
	assert.Equal(t, "y", r.Get("x", nil))

	raw := From("plain", "text/plain", 200)
	assert.Equal(t, "plain", raw.String())
	assert.Equal(t, []byte("plain"), raw.Body())
}

func TestToJSONAndString(t *testing.T) {
	r := NewData(map[string]any{"a": "b"}, 200, "application/json")
	assert.JSONEq(t, `{"a":"b"}`, r.ToJSON())
	assert.Equal(t, "a=b", r.String())

	assert.Equal(t, "{}", New([]byte("x"), 200, "text/plain", CodeOK, "").ToJSON())
}

func TestObject(t *testing.T) {
	r := New([]byte(`[1,2]`), 200, "application/json", CodeOK, "")
	assert.Equal(t, []any{float64(1), float64(2)}, r.Object())

	assert.Nil(t, New([]byte("x"), 200, "text/plain", CodeOK, "").Object())
}

func TestTextAndDocument(t *testing.T) {
	html := `<html><head><title>Hi</title></head><body><p class="m">hello</p></body></html>`
	r := New([]byte(html), 200, "text/html; charset=utf-8", CodeOK, "")

	assert.Equal(t, "utf-8", r.Charset())
	assert.Equal(t, html, r.Text())

	doc, err := r.Document()
	require.NoError(t, err)
	assert.Equal(t, "Hi", doc.Find("title").Text())
	assert.Equal(t, "hello", doc.Find("p.m").Text())

	_, err = NewFailure(CodeGotNothing, "empty").Document()
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "couldnt_resolve_host", CodeCouldNotResolveHost.String())
	assert.Equal(t, "retry_exhausted", CodeRetryExhausted.String())
	assert.Equal(t, "code_999", ErrorCode(999).String())
	assert.False(t, CodeOK.Failed())
}
