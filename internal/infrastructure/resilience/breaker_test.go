package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := New("test", settings)
	b.now = c.now
	b.expiry = c.now().Add(b.settings.Interval)
	return b, c
}

func fail(b *Breaker) error {
	return b.Execute(func() error { return errors.New("failed") })
}

func succeed(b *Breaker) error {
	return b.Execute(func() error { return nil })
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		outcomes      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      Settings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute},
			outcomes:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: ConsecutiveFailures(3),
			},
			outcomes:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure streak",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: ConsecutiveFailures(2),
			},
			outcomes:      []bool{false, true, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker, _ := newTestBreaker(tt.settings)

			for _, ok := range tt.outcomes {
				if ok {
					_ = succeed(breaker)
				} else {
					_ = fail(breaker)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker, _ := newTestBreaker(Settings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute})

	require.NoError(t, succeed(breaker))

	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.Error(t, fail(breaker))

	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerCountsResetEachInterval(t *testing.T) {
	breaker, clk := newTestBreaker(Settings{Interval: time.Minute, ReadyToTrip: ConsecutiveFailures(2)})

	_ = fail(breaker)
	clk.advance(2 * time.Minute)
	_ = fail(breaker)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerOpenRejects(t *testing.T) {
	breaker, _ := newTestBreaker(Settings{Timeout: time.Minute, ReadyToTrip: ConsecutiveFailures(2)})

	_ = fail(breaker)
	_ = fail(breaker)
	require.Equal(t, StateOpen, breaker.State())

	called := false
	err := breaker.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	_, err = breaker.Allow()
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerHalfOpen(t *testing.T) {
	breaker, clk := newTestBreaker(Settings{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: ConsecutiveFailures(2),
	})

	_ = fail(breaker)
	_ = fail(breaker)
	clk.advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	first, err := breaker.Allow()
	require.NoError(t, err)
	second, err := breaker.Allow()
	require.NoError(t, err)

	// Probe budget spent
	_, err = breaker.Allow()
	assert.ErrorIs(t, err, ErrTooManyRequests)

	first(true)
	second(true)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	breaker, clk := newTestBreaker(Settings{Timeout: time.Second, ReadyToTrip: ConsecutiveFailures(1)})

	_ = fail(breaker)
	clk.advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = fail(breaker)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerStaleOutcomeIgnored(t *testing.T) {
	breaker, clk := newTestBreaker(Settings{Interval: time.Minute, ReadyToTrip: ConsecutiveFailures(1)})

	done, err := breaker.Allow()
	require.NoError(t, err)

	clk.advance(2 * time.Minute)
	done(false)

	assert.Equal(t, StateClosed, breaker.State())
	done(false) // second call is a no-op
	assert.Equal(t, uint32(0), breaker.Counts().TotalFailures)
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	breaker, clk := newTestBreaker(Settings{
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: ConsecutiveFailures(2),
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = fail(breaker)
	_ = fail(breaker)
	clk.advance(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, breaker.State())

	assert.Equal(t, []string{"closed->open", "open->half-open"}, transitions)
}
