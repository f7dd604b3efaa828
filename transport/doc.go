/*
Package transport performs HTTP exchanges on behalf of the curl package.

# Overview

A Transport takes a fully configured Exchange and performs exactly one
blocking round trip. Failures never surface as Go errors; they are mapped
to a response.ErrorCode by Classify and carried in the Result.

# Features

- resty client over retryablehttp's pooled transport
- Connect timeout, TLS verification, CA bundles and client certificates
- Proxies with credentials
- Redirect policy with hop limit and automatic Referer
- gzip/deflate negotiation decoded with klauspost/compress
- Netscape cookie files (FileJar)
- Optional shared connection pools kept in an LRU (WithSharedPool)
- Concurrent batches through Multiplexer or FanOut

# Usage

	t := transport.NewHTTP(transport.WithSharedPool(16))
	defer t.Close()

	res := t.RoundTrip(ctx, &transport.Exchange{
		Method:          http.MethodGet,
		URL:             "https://example.com",
		Timeout:         30 * time.Second,
		FollowRedirects: true,
		MaxRedirects:    5,
		TLS:             transport.TLSOptions{Verify: true},
	})
	if res.Failed() {
		log.Printf("%s: %s", res.Code, res.Message)
	}
*/
package transport
