/*
Package resilience provides the circuit breaker that guards outgoing exchanges.

# Overview

When a remote end keeps failing at the transport level, the executor stops
dialing it for a while instead of burning every retry on a dead host.

# Usage

	breaker := resilience.New("http", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
	})

	done, err := breaker.Allow()
	if err != nil {
		return err // open or probing
	}
	res := t.RoundTrip(ctx, ex)
	done(!res.Failed())

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
