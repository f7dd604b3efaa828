/*
Package curl builds and sends HTTP requests.

# Overview

A Builder accumulates a request description through chained calls and
freezes it with Build. The resulting Request is immutable and can be sent
any number of times by an Executor:

	req, err := curl.Post("https://api.example.com/users").
		JSON(map[string]any{"name": "ada"}).
		Bearer(token).
		Retry(3, 500*time.Millisecond).
		Build()
	if err != nil {
		return err
	}
	resp := executor.Send(ctx, req)

Transport failures and HTTP errors are returned as data in the envelope.
Only local problems, such as a missing attachment, surface as errors.

# Retry

A request with a retry policy is re-issued when the first attempt fails
with a transient transport error: host resolution, connect, timeout, TLS
handshake or an empty reply. Each retry sleeps the configured delay first
and succeeds on any response below 500. Error callbacks fire once for the
first failure and again if every retry is used up.

# Pool

Executor.Pool sends a batch concurrently and blocks until every exchange
has finished. Pool exchanges are not retried and do not run callbacks.
*/
package curl
