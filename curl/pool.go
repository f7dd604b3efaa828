package curl

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/curlkit/response"
	"github.com/GriffinCanCode/curlkit/transport"
)

// Pool sends every request concurrently and waits for all of them. There is
// no retry, no callbacks and no partial result: the map holds one envelope
// per key once every exchange has finished.
func (e *Executor) Pool(ctx context.Context, reqs map[string]*Request) map[string]*response.Response {
	keys := make([]string, 0, len(reqs))
	for k := range reqs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]*response.Response, len(reqs))
	pending := make([]string, 0, len(keys))
	exchanges := make([]*transport.Exchange, 0, len(keys))
	for _, k := range keys {
		ex, err := reqs[k].prepare(e.mimeFor)
		if err != nil {
			out[k] = response.NewFailure(response.CodeReadError, err.Error())
			continue
		}
		pending = append(pending, k)
		exchanges = append(exchanges, ex)
	}
	if len(exchanges) == 0 {
		return out
	}

	log := e.logger
	if e.ids != nil {
		log = log.With(zap.Stringer("batch_id", e.ids.NewBatchID()))
	}
	log.Debug("Pool started", zap.Int("size", len(exchanges)))

	if e.metrics != nil {
		timer := e.metrics.StartPool(len(exchanges))
		defer timer.Stop()
	}

	results := transport.RoundTripAll(ctx, e.transport, exchanges, e.poolLimit)
	failed := 0
	for i, k := range pending {
		res := results[i]
		if e.metrics != nil {
			e.metrics.RecordExchange(exchanges[i].Method, res.StatusCode, res.Code.String(), res.Duration, len(res.Body))
		}
		if res.Failed() {
			failed++
		}
		out[k] = res.Response()
	}

	log.Debug("Pool finished", zap.Int("size", len(exchanges)), zap.Int("failed", failed))
	return out
}

// PoolBuilders builds every builder and pools the results. A builder that
// fails to build yields an envelope carrying the build error.
func (e *Executor) PoolBuilders(ctx context.Context, builders map[string]*Builder) map[string]*response.Response {
	reqs := make(map[string]*Request, len(builders))
	failed := make(map[string]*response.Response)
	for k, b := range builders {
		req, err := b.Build()
		if err != nil {
			failed[k] = response.NewFailure(response.CodeReadError, err.Error())
			continue
		}
		reqs[k] = req
	}

	out := e.Pool(ctx, reqs)
	for k, resp := range failed {
		out[k] = resp
	}
	return out
}
