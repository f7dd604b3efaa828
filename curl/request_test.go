package curl

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		query    *Values
		expected string
	}{
		{"no params", "https://x/y", nil, "https://x/y"},
		{"no params keeps existing query", "https://x/y?z=1", nil, "https://x/y?z=1"},
		{"params appended with question mark", "https://x/y", Pairs("a", "1", "b", "2"), "https://x/y?a=1&b=2"},
		{"params appended with ampersand", "https://x/y?z=1", Pairs("a", "2"), "https://x/y?z=1&a=2"},
		{"insertion order kept", "https://x", Pairs("z", "1", "a", "2", "m", "3"), "https://x?z=1&a=2&m=3"},
		{"values escaped", "https://x", Pairs("q", "a b"), "https://x?q=a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := New(tt.url).Query(tt.query).MustBuild()
			assert.Equal(t, tt.expected, req.BuildURL())
		})
	}
}

func TestBuildBody(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		body, err := Post("https://x").MustBuild().BuildBody()
		require.NoError(t, err)
		assert.False(t, body.Present())
	})

	t.Run("raw passthrough", func(t *testing.T) {
		body, err := Post("https://x").Body("hello").MustBuild().BuildBody()
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body.Data))
		assert.False(t, body.Form)
	})

	t.Run("form encoded", func(t *testing.T) {
		body, err := Post("https://x").Form(Pairs("a", "1", "b", "x y")).MustBuild().BuildBody()
		require.NoError(t, err)
		assert.Equal(t, "a=1&b=x+y", string(body.Data))
		assert.True(t, body.Form)
	})

	t.Run("form with json content type", func(t *testing.T) {
		body, err := Post("https://x").
			ContentType("application/json").
			Form(Pairs("a", "1")).
			MustBuild().BuildBody()
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":"1"}`, string(body.Data))
	})

	t.Run("json value", func(t *testing.T) {
		body, err := Post("https://x").JSON(map[string]any{"n": 1}).MustBuild().BuildBody()
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(body.Data))
	})
}

func TestBuildBodyMultipart(t *testing.T) {
	avatar := writeFixture(t, "avatar.png", "PNGDATA")
	notes := writeFixture(t, "notes.bin", "raw")

	req := Post("https://x").
		Form(Pairs("name", "ada", "role", "admin")).
		AddFile("avatar", avatar, "").
		AddFile("notes", notes, `n"1.bin`).
		MustBuild()

	body, err := req.BuildBody()
	require.NoError(t, err)

	mt, params, err := mime.ParseMediaType(body.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mt)
	assert.True(t, strings.HasPrefix(params["boundary"], boundaryPrefix))
	assert.Len(t, params["boundary"], len(boundaryPrefix)+32)

	r := multipart.NewReader(bytes.NewReader(body.Data), params["boundary"])
	var parts []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)

		switch p.FormName() {
		case "name":
			assert.Equal(t, "ada", string(data))
		case "avatar":
			assert.Equal(t, "avatar.png", p.FileName())
			assert.Equal(t, "image/png", p.Header.Get("Content-Type"))
			assert.Equal(t, "PNGDATA", string(data))
		case "notes":
			assert.Equal(t, `n"1.bin`, p.FileName())
			assert.Equal(t, DefaultMIME, p.Header.Get("Content-Type"))
		}
		parts = append(parts, p.FormName())
	}
	assert.Equal(t, []string{"name", "role", "avatar", "notes"}, parts)
}

func TestBuildHeaders(t *testing.T) {
	t.Run("form body defaults to urlencoded", func(t *testing.T) {
		req := Post("https://x").Form(Pairs("a", "1")).MustBuild()
		body, err := req.BuildBody()
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", req.BuildHeaders(body).Get("Content-Type"))
	})

	t.Run("raw body defaults to text", func(t *testing.T) {
		req := Post("https://x").Body("hi").MustBuild()
		body, err := req.BuildBody()
		require.NoError(t, err)
		assert.Equal(t, "text/plain", req.BuildHeaders(body).Get("Content-Type"))
	})

	t.Run("explicit content type kept", func(t *testing.T) {
		req := Post("https://x").Body("<a/>").ContentType("application/xml").MustBuild()
		body, err := req.BuildBody()
		require.NoError(t, err)
		assert.Equal(t, "application/xml", req.BuildHeaders(body).Get("Content-Type"))
	})

	t.Run("no body no content type", func(t *testing.T) {
		req := Get("https://x").Header("x-trace", "1").MustBuild()
		body, err := req.BuildBody()
		require.NoError(t, err)
		h := req.BuildHeaders(body)
		assert.Empty(t, h.Get("Content-Type"))
		assert.Equal(t, "1", h.Get("X-Trace"))
	})

	t.Run("multipart overrides configured type", func(t *testing.T) {
		path := writeFixture(t, "a.txt", "x")
		for _, ct := range []string{"", "application/json", "text/plain"} {
			b := Post("https://x").AddFile("f", path, "")
			if ct != "" {
				b.ContentType(ct)
			}
			req := b.MustBuild()
			body, err := req.BuildBody()
			require.NoError(t, err)

			got := req.BuildHeaders(body).Get("Content-Type")
			mt, params, err := mime.ParseMediaType(got)
			require.NoError(t, err)
			assert.Equal(t, "multipart/form-data", mt)
			assert.NotEmpty(t, params["boundary"])
		}
	})
}

func TestBuildIdempotent(t *testing.T) {
	req := Post("https://x/y?z=1").
		Query(Pairs("a", "1")).
		Header("X-A", "1").
		Form(Pairs("k", "v")).
		MustBuild()

	assert.Equal(t, req.BuildURL(), req.BuildURL())

	b1, err := req.BuildBody()
	require.NoError(t, err)
	b2, err := req.BuildBody()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, req.BuildHeaders(b1), req.BuildHeaders(b2))
}

func TestBuildBodyFreshBoundary(t *testing.T) {
	path := writeFixture(t, "a.txt", "x")
	req := Post("https://x").AddFile("f", path, "").MustBuild()

	b1, err := req.BuildBody()
	require.NoError(t, err)
	b2, err := req.BuildBody()
	require.NoError(t, err)

	assert.NotEqual(t, b1.ContentType, b2.ContentType)
	norm := func(b Body) string {
		_, params, _ := mime.ParseMediaType(b.ContentType)
		return strings.ReplaceAll(string(b.Data), params["boundary"], "B")
	}
	assert.Equal(t, norm(b1), norm(b2))
}

func TestPrepare(t *testing.T) {
	req := Post("https://x/y").
		Query(Pairs("a", "1")).
		Body("payload").
		Timeout(5*time.Second).
		ConnectTimeout(time.Second).
		VerifySSL(false, "/etc/ca.pem").
		Proxy("proxy.local", 8080, "u", "p").
		FollowRedirects(false).
		MaxRedirects(2).
		Compression(false).
		MustBuild()

	ex, err := req.Prepare()
	require.NoError(t, err)

	assert.Equal(t, "POST", ex.Method)
	assert.Equal(t, "https://x/y?a=1", ex.URL)
	assert.Equal(t, []byte("payload"), ex.Body)
	assert.Equal(t, "text/plain", ex.Header.Get("Content-Type"))
	assert.Equal(t, "curlkit/"+Version, ex.Header.Get("User-Agent"))
	assert.Equal(t, "https://x/y?a=1", ex.Header.Get("Referer"))
	assert.Equal(t, 5*time.Second, ex.Timeout)
	assert.Equal(t, time.Second, ex.ConnectTimeout)
	assert.False(t, ex.TLS.Verify)
	assert.Equal(t, "/etc/ca.pem", ex.TLS.CABundle)
	require.NotNil(t, ex.Proxy)
	assert.Equal(t, "proxy.local", ex.Proxy.Host)
	assert.Equal(t, 8080, ex.Proxy.Port)
	assert.False(t, ex.FollowRedirects)
	assert.Equal(t, 2, ex.MaxRedirects)
	assert.True(t, ex.AutoReferer)
	assert.False(t, ex.Compression)
	assert.Empty(t, ex.Cookies.File)
	assert.Empty(t, ex.Cookies.Jar)
}

func TestPrepareBodyOnlyForPayloadMethods(t *testing.T) {
	for _, m := range []string{"GET", "HEAD", "OPTIONS"} {
		ex, err := New("https://x").Method(m).Body("x").MustBuild().Prepare()
		require.NoError(t, err)
		assert.Nil(t, ex.Body, m)
	}
	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		ex, err := New("https://x").Method(m).Body("x").MustBuild().Prepare()
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), ex.Body, m)
	}
}

func TestPrepareRefererAndAgentOverrides(t *testing.T) {
	ex, err := Get("https://x").
		Referer("https://from").
		UserAgent("agent/1").
		MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, "https://from", ex.Header.Get("Referer"))
	assert.Equal(t, "agent/1", ex.Header.Get("User-Agent"))

	ex, err = Get("https://x").Header("user-agent", "explicit").MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, "explicit", ex.Header.Get("User-Agent"))
}

func TestPrepareCookies(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.txt")
	jar := filepath.Join(dir, "out.txt")

	ex, err := Get("https://x").Cookie(true, file).MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, file, ex.Cookies.File)
	assert.Equal(t, file, ex.Cookies.Jar)

	ex, err = Get("https://x").Cookie(true, file).CookieJar(jar).MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, file, ex.Cookies.File)
	assert.Equal(t, jar, ex.Cookies.Jar)

	ex, err = Get("https://x").Cookie(true, "").MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.TempDir(), "curlkit_cookie.txt"), ex.Cookies.File)
}

func TestPrepareMissingAttachment(t *testing.T) {
	path := writeFixture(t, "gone.txt", "x")
	req := Post("https://x").AddFile("f", path, "").MustBuild()
	require.NoError(t, os.Remove(path))

	_, err := req.Prepare()
	assert.Error(t, err)
}
