// Package config provides 12-factor configuration for the kcurl client.
//
// Configuration is loaded from environment variables with sensible defaults.
// A .env file can seed the environment first; CLI flags override both.
//
// Configuration Sections:
//   - HTTP: per-request defaults (timeouts, TLS, redirects, proxy, cookies)
//   - Retry: default retry policy
//   - Share: connection pool reuse and pool fan-out limit
//   - RateLimit: client-side throttling
//   - Breaker: per-host circuit breaker
//   - Logging: log level, format and rotated file output
//
// Example Usage:
//
//	_ = config.LoadDotEnv()
//	cfg := config.LoadOrDefault()
//	exec := curl.NewExecutor(cfg.ExecutorOptions()...)
//	resp := exec.Send(ctx, curl.NewWithDefaults(cfg.Defaults(), url).MustBuild())
//
// Environment Variables:
//   - KCURL_TIMEOUT, KCURL_CONNECT_TIMEOUT, KCURL_VERIFY_SSL, KCURL_CA_BUNDLE
//   - KCURL_FOLLOW_REDIRECTS, KCURL_MAX_REDIRECTS, KCURL_PROXY, KCURL_USER_AGENT
//   - KCURL_RETRY_TIMES, KCURL_RETRY_DELAY
//   - KCURL_SHARED_POOL, KCURL_POOL_LIMIT
//   - KCURL_RATE_LIMIT_RPS, KCURL_RATE_LIMIT_BURST, KCURL_RATE_LIMIT_ENABLED
//   - KCURL_BREAKER_FAILURES, KCURL_BREAKER_OPEN_FOR, KCURL_BREAKER_ENABLED
//   - KCURL_LOG_LEVEL, KCURL_LOG_DEV, KCURL_LOG_FILE
package config
