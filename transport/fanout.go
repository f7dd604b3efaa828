package transport

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs every exchange on t concurrently and waits for all of them.
// limit caps concurrency when positive. Results are aligned with exchanges.
func FanOut(ctx context.Context, t Transport, exchanges []*Exchange, limit int) []*Result {
	results := make([]*Result, len(exchanges))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ex := range exchanges {
		g.Go(func() error {
			results[i] = t.RoundTrip(ctx, ex)
			return nil
		})
	}
	_ = g.Wait() // RoundTrip never fails

	return results
}

// RoundTripAll uses the transport's own multiplexing when it has one.
func RoundTripAll(ctx context.Context, t Transport, exchanges []*Exchange, limit int) []*Result {
	if m, ok := t.(Multiplexer); ok {
		return m.RoundTripAll(ctx, exchanges)
	}
	return FanOut(ctx, t, exchanges, limit)
}
