/*
Package response provides the envelope returned by every exchange.

# Overview

A Response carries the body (or nil when the transport failed), the HTTP
status (0 when none was received), the content type and a transport
ErrorCode. Transport and HTTP failures are data: nothing here panics or
returns an error unless the caller asks for it through ThrowIfError or
ThrowIfNotOK.

# Features

- Status predicates (IsSuccess, IsNotFound, IsServerError, ...)
- Content-type predicates (IsJSON, IsForm, IsHTML, ...)
- Best-effort decoding to a mapping (ToArray, Get, Only, Except, Pull)
- Charset-aware text and HTML access (Text, Document)
- Typed failures with client, server and generic kinds
- Envelope factories for API-style payloads (Success, Failure, NotFound, ...)

# Usage

	resp := executor.Send(ctx, req)
	if _, err := resp.ThrowIfError(); err != nil {
		if response.IsClientError(err) {
			// 4xx
		}
		return err
	}
	name := resp.Get("name", "anonymous")
*/
package response
