package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/curlkit/curl"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/curlkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/curlkit/response"
)

// Exit codes besides transport error codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
	exitHTTP  = 22
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type options struct {
	method         string
	headers        multiFlag
	query          multiFlag
	data           string
	json           string
	fields         multiFlag
	timeout        time.Duration
	connectTimeout time.Duration
	insecure       bool
	caCert         string
	proxy          string
	proxyUser      string
	noFollow       bool
	maxRedirs      int
	cookie         string
	cookieJar      string
	retry          int
	retryDelay     time.Duration
	fail           bool
	output         string
	dev            bool
	verbose        bool
	metrics        bool
	urls           []string
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("kcurl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.method, "X", "", "HTTP method (default GET, or POST with a body)")
	fs.Var(&o.headers, "H", "Header \"Name: value\" (repeatable)")
	fs.Var(&o.query, "q", "Query parameter key=value (repeatable)")
	fs.StringVar(&o.data, "d", "", "Raw request body")
	fs.StringVar(&o.json, "json", "", "JSON request body")
	fs.Var(&o.fields, "F", "Multipart field name=value or name=@path (repeatable)")
	fs.DurationVar(&o.timeout, "timeout", cfg.HTTP.Timeout, "Total exchange timeout")
	fs.DurationVar(&o.connectTimeout, "connect-timeout", cfg.HTTP.ConnectTimeout, "Connect timeout")
	fs.BoolVar(&o.insecure, "insecure", !cfg.HTTP.VerifySSL, "Skip TLS verification")
	fs.StringVar(&o.caCert, "cacert", cfg.HTTP.CABundle, "CA bundle path")
	fs.StringVar(&o.proxy, "proxy", cfg.HTTP.Proxy, "Proxy host[:port]")
	fs.StringVar(&o.proxyUser, "proxy-user", proxyCredentials(cfg.HTTP), "Proxy credentials user:password")
	fs.BoolVar(&o.noFollow, "no-follow", !cfg.HTTP.FollowRedirects, "Do not follow redirects")
	fs.IntVar(&o.maxRedirs, "max-redirs", cfg.HTTP.MaxRedirects, "Maximum redirects to follow")
	fs.StringVar(&o.cookie, "cookie", cfg.HTTP.CookieFile, "Cookie file to read and update")
	fs.StringVar(&o.cookieJar, "cookie-jar", cfg.HTTP.CookieJar, "Cookie jar to write")
	fs.IntVar(&o.retry, "retry", cfg.Retry.Times, "Retries on transient transport errors")
	fs.DurationVar(&o.retryDelay, "retry-delay", cfg.Retry.Delay, "Delay between retries")
	fs.BoolVar(&o.fail, "fail", false, "Exit 22 on HTTP status >= 400")
	fs.StringVar(&o.output, "o", "json", "Output format: json, yaml, toml or raw")
	fs.BoolVar(&o.dev, "dev", cfg.Logging.Development, "Development logging")
	fs.BoolVar(&o.verbose, "v", false, "Log a summary when done")
	fs.BoolVar(&o.metrics, "metrics", false, "Write Prometheus metrics to stderr when done")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.urls = fs.Args()
	if len(o.urls) == 0 {
		return nil, errors.New("at least one URL is required")
	}
	if !validFormat(o.output) {
		return nil, fmt.Errorf("unknown output format %q", o.output)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "kcurl: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "kcurl: %v\n", err)
		return exitUsage
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "kcurl: %v\n", err)
		}
		return exitUsage
	}

	logCfg := cfg.LoggerConfig()
	if opts.dev {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(stderr, "kcurl: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	metrics := monitoring.NewMetrics(nil)
	exec := curl.NewExecutor(append(cfg.ExecutorOptions(),
		curl.WithLogger(logger.Logger),
		curl.WithMetrics(metrics),
	)...)
	defer exec.Close()

	defaults := cfg.Defaults()
	builders := make(map[string]*curl.Builder, len(opts.urls))
	for i, u := range opts.urls {
		b, err := newBuilder(defaults, u, opts)
		if err != nil {
			fmt.Fprintf(stderr, "kcurl: %v\n", err)
			return exitUsage
		}
		builders[strconv.Itoa(i)] = b
	}

	var responses []*response.Response
	if len(builders) == 1 {
		resp, err := exec.Do(ctx, builders["0"])
		if err != nil {
			fmt.Fprintf(stderr, "kcurl: %v\n", err)
			return exitError
		}
		responses = []*response.Response{resp}
	} else {
		out := exec.PoolBuilders(ctx, builders)
		for i := range opts.urls {
			responses = append(responses, out[strconv.Itoa(i)])
		}
	}

	if err := write(stdout, opts.output, opts.urls, responses); err != nil {
		fmt.Fprintf(stderr, "kcurl: %v\n", err)
		return exitError
	}

	if opts.verbose {
		snap := metrics.Snapshot()
		logger.Info("Summary",
			zap.Int64("exchanges", snap.Exchanges),
			zap.Int64("failures", snap.Failures),
			zap.Int64("retries", snap.Retries),
			zap.Duration("total", snap.TotalDuration))
	}
	if opts.metrics {
		if err := metrics.WriteText(stderr); err != nil {
			fmt.Fprintf(stderr, "kcurl: %v\n", err)
		}
	}
	return exitCode(responses, opts.fail)
}

func proxyCredentials(h config.HTTPConfig) string {
	if h.ProxyUser == "" {
		return ""
	}
	return h.ProxyUser + ":" + h.ProxyPassword
}

func newBuilder(d curl.Defaults, url string, o *options) (*curl.Builder, error) {
	b := curl.NewWithDefaults(d, url).
		Timeout(o.timeout).
		ConnectTimeout(o.connectTimeout).
		VerifySSL(!o.insecure, o.caCert).
		FollowRedirects(!o.noFollow).
		MaxRedirects(o.maxRedirs).
		Retry(o.retry, o.retryDelay)

	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", h)
		}
		b.Header(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	for _, q := range o.query {
		k, v, _ := strings.Cut(q, "=")
		b.QueryParam(k, v)
	}

	if o.proxy != "" {
		user, pass, _ := strings.Cut(o.proxyUser, ":")
		b.Proxy(o.proxy, 0, user, pass)
	}
	if o.cookie != "" {
		b.Cookie(true, o.cookie)
	}
	if o.cookieJar != "" {
		b.CookieJar(o.cookieJar)
	}

	hasBody := false
	switch {
	case o.json != "":
		b.Body(o.json).ContentType("application/json").Accept("application/json")
		hasBody = true
	case o.data != "":
		b.Body(o.data)
		hasBody = true
	}

	if len(o.fields) > 0 {
		form := curl.NewValues()
		for _, f := range o.fields {
			name, value, ok := strings.Cut(f, "=")
			if !ok {
				return nil, fmt.Errorf("malformed field %q", f)
			}
			if path, isFile := strings.CutPrefix(value, "@"); isFile {
				b.AddFile(name, path, "")
				continue
			}
			form.Set(name, value)
		}
		if form.Len() > 0 {
			b.Form(form)
		}
		hasBody = true
	}

	method := o.method
	if method == "" && hasBody {
		method = "POST"
	}
	if method != "" {
		b.Method(method)
	}
	return b, b.Err()
}

// exitCode mirrors curl: the first transport error code wins, then 22 for
// HTTP failures under -fail.
func exitCode(responses []*response.Response, fail bool) int {
	for _, r := range responses {
		if r.HasTransportError() {
			if c := int(r.ErrorCode()); c < 256 {
				return c
			}
			return exitError
		}
	}
	if fail {
		for _, r := range responses {
			if _, err := r.ThrowIfError(); err != nil {
				return exitHTTP
			}
		}
	}
	return exitOK
}
