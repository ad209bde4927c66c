package rate

import (
	"errors"
	"time"
)

// ErrBudgetExhausted is returned once transient failures exceed the
// configured retry budget.
var ErrBudgetExhausted = errors.New("transient retry budget exhausted")

// Governor computes poll pacing for one device/CIBA session. It is owned by
// a single polling loop and is not safe for concurrent use.
type Governor struct {
	interval  time.Duration
	increment time.Duration
	ceiling   time.Duration

	budget   int
	failures int
}

// NewGovernor builds a governor starting at the provider-issued interval.
// Non-positive tuning values select defaults: 5s interval, 5s increment,
// 60s ceiling, 5 transient retries.
func NewGovernor(initial, increment, ceiling time.Duration, transientBudget int) *Governor {
	if initial <= 0 {
		initial = 5 * time.Second
	}
	if increment <= 0 {
		increment = 5 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 60 * time.Second
	}
	if ceiling < initial {
		ceiling = initial
	}
	if transientBudget <= 0 {
		transientBudget = 5
	}
	return &Governor{
		interval:  initial,
		increment: increment,
		ceiling:   ceiling,
		budget:    transientBudget,
	}
}

// Interval returns the current effective polling interval.
func (g *Governor) Interval() time.Duration {
	return g.interval
}

// SlowDown grows the interval by the fixed increment, capped at the ceiling,
// and returns the new interval. The interval never decreases.
func (g *Governor) SlowDown() time.Duration {
	g.interval += g.increment
	if g.interval > g.ceiling {
		g.interval = g.ceiling
	}
	return g.interval
}

// TransientFailure consumes one unit of the retry budget and returns the
// backoff delay before the next attempt: interval doubled per consecutive
// failure, capped at the ceiling. Returns ErrBudgetExhausted once the
// budget is spent.
func (g *Governor) TransientFailure() (time.Duration, error) {
	g.failures++
	if g.failures > g.budget {
		return 0, ErrBudgetExhausted
	}

	delay := g.interval
	for i := 1; i < g.failures; i++ {
		delay *= 2
		if delay >= g.ceiling {
			delay = g.ceiling
			break
		}
	}
	if delay > g.ceiling {
		delay = g.ceiling
	}
	return delay, nil
}

// Settle clears the consecutive-failure count after any response from the
// provider, transient or not.
func (g *Governor) Settle() {
	g.failures = 0
}
