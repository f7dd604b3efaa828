// Package main is the kcurl command, a small front end for the curl package.
//
// Every positional argument is a URL. One URL is sent on its own, with retries
// if requested; several URLs are sent concurrently as a pool.
//
// Configuration:
//   - Environment variables (KCURL_*), optionally from a .env file
//   - CLI flags (override env vars)
//
// Usage:
//
//	# GET with a query parameter, printed as YAML
//	kcurl -q page=2 -o yaml https://api.example.com/items
//
//	# POST JSON with retries
//	kcurl -json '{"name":"ada"}' -retry 3 -retry-delay 500ms https://api.example.com/users
//
//	# Multipart upload
//	kcurl -F title=report -F file=@report.pdf https://api.example.com/upload
//
//	# Pool of three
//	kcurl -o raw https://a.example https://b.example https://c.example
//
// Exit status is 0 on success, the transport error code when an exchange
// failed without a response, and 22 for HTTP errors when -fail is set.
package main
