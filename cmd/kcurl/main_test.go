package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/curlkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/curlkit/response"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"method":"` + r.Method + `","q":"` + r.URL.Query().Get("k") + `"}`))
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunJSON(t *testing.T) {
	srv := newServer(t)

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-q", "k=v", srv.URL + "/json"}, &out, &errOut)
	require.Equal(t, exitOK, code, errOut.String())

	var rec map[string]any
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, float64(200), rec["status"])
	assert.Equal(t, map[string]any{"method": "GET", "q": "v"}, rec["body"])
}

func TestRunPoolYAML(t *testing.T) {
	srv := newServer(t)

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-o", "yaml", srv.URL + "/text", srv.URL + "/json"}, &out, &errOut)
	require.Equal(t, exitOK, code, errOut.String())

	var b batch
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &b))
	require.Len(t, b.Responses, 2)
	assert.Equal(t, srv.URL+"/text", b.Responses[0].URL)
	assert.Equal(t, "hello", b.Responses[0].Body)
	assert.Equal(t, 200, b.Responses[1].Status)
}

func TestRunTOML(t *testing.T) {
	srv := newServer(t)

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-o", "toml", srv.URL + "/text"}, &out, &errOut)
	require.Equal(t, exitOK, code, errOut.String())

	var rec record
	require.NoError(t, toml.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, 200, rec.Status)
	assert.Equal(t, "hello", rec.Body)
}

func TestRunFail(t *testing.T) {
	srv := newServer(t)

	var out, errOut bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"-o", "raw", srv.URL + "/missing"}, &out, &errOut))
	assert.Equal(t, exitHTTP, run(context.Background(), []string{"-fail", srv.URL + "/missing"}, &out, &errOut))
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "URL is required")

	errOut.Reset()
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-o", "xml", "https://x"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown output format")
}

func TestNewBuilder(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	opts, err := parseFlags([]string{
		"-H", "X-A: 1",
		"-F", "title=t",
		"-F", "file=@" + path,
		"-proxy", "proxy.local:3128",
		"-proxy-user", "u:p",
		"https://x",
	}, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	b, err := newBuilder(cfg.Defaults(), opts.urls[0], opts)
	require.NoError(t, err)
	req := b.MustBuild()

	assert.Equal(t, "POST", req.Method().String())
	assert.Equal(t, "1", req.Header("x-a"))
	require.Len(t, req.Files(), 1)

	ex, err := req.Prepare()
	require.NoError(t, err)
	require.NotNil(t, ex.Proxy)
	assert.Equal(t, "u", ex.Proxy.Username)
	assert.Contains(t, ex.Header.Get("Content-Type"), "multipart/form-data; boundary=")

	opts.headers = multiFlag{"broken"}
	_, err = newBuilder(cfg.Defaults(), "https://x", opts)
	assert.Error(t, err)
}

func TestProxyFromEnvironment(t *testing.T) {
	t.Setenv("KCURL_PROXY", "proxy.local:3128")
	t.Setenv("KCURL_PROXY_USER", "alice")
	t.Setenv("KCURL_PROXY_PASSWORD", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	opts, err := parseFlags([]string{"https://x"}, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	b, err := newBuilder(cfg.Defaults(), opts.urls[0], opts)
	require.NoError(t, err)

	ex, err := b.MustBuild().Prepare()
	require.NoError(t, err)
	require.NotNil(t, ex.Proxy)
	assert.Equal(t, "proxy.local:3128", ex.Proxy.Host)
	assert.Equal(t, "alice", ex.Proxy.Username)
	assert.Equal(t, "s3cret", ex.Proxy.Password)

	// Flags still win over the environment
	opts, err = parseFlags([]string{"-proxy-user", "bob:pw", "https://x"}, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	b, err = newBuilder(cfg.Defaults(), opts.urls[0], opts)
	require.NoError(t, err)
	ex, err = b.MustBuild().Prepare()
	require.NoError(t, err)
	assert.Equal(t, "bob", ex.Proxy.Username)
	assert.Equal(t, "pw", ex.Proxy.Password)
}

func TestRunMetrics(t *testing.T) {
	srv := newServer(t)

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-metrics", srv.URL + "/text"}, &out, &errOut)
	require.Equal(t, exitOK, code, errOut.String())

	assert.Contains(t, errOut.String(), "# TYPE curlkit_exchanges_total counter")
	assert.Contains(t, errOut.String(), `curlkit_exchanges_total{code="ok",method="GET",status="200"} 1`)
}

func TestExitCode(t *testing.T) {
	ok := response.New(nil, 200, "", response.CodeOK, "")
	notFound := response.New(nil, 404, "", response.CodeOK, "")

	assert.Equal(t, exitOK, exitCode([]*response.Response{ok, notFound}, false))
	assert.Equal(t, exitHTTP, exitCode([]*response.Response{ok, notFound}, true))
	assert.Equal(t, 7, exitCode([]*response.Response{response.NewFailure(response.CodeCouldNotConnect, "x")}, true))
	assert.Equal(t, exitError, exitCode([]*response.Response{response.NewFailure(response.CodeRetryExhausted, "x")}, false))
}
