// ABOUTME: Breaker stops calling a failing downstream after consecutive errors
// ABOUTME: Lets one trial call through after a cooldown and closes again on success

package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds breaker settings.
type BreakerConfig struct {
	// Name identifies the guarded downstream in logs.
	Name string

	// Consecutive failures that open the breaker. Defaults to 5.
	MaxFailures int

	// Time the breaker stays open before a trial call. Defaults to 30s.
	Cooldown time.Duration

	// OnStateChange is called with the lock released after every transition.
	OnStateChange func(name string, from, to State)
}

// Counts summarizes breaker activity.
type Counts struct {
	Successes           int64
	Failures            int64
	Rejected            int64
	ConsecutiveFailures int
}

// Breaker guards calls to one downstream. It is safe for concurrent use.
type Breaker struct {
	config BreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    State
	openedAt time.Time
	trial    bool
	counts   Counts
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{config: cfg, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Execute runs fn unless the breaker is open.
// Context cancellation is not counted as a downstream failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.allow() {
		return ErrOpen
	}

	err := fn(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		b.release()
		return err
	}
	b.record(err == nil)
	return err
}

// State returns the current position, moving an expired open breaker to half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.advance()
	state := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return state
}

// Counts returns a snapshot of the counters.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Reset closes the breaker and clears the failure streak.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.trial = false
	b.counts.ConsecutiveFailures = 0
	b.mu.Unlock()

	b.notify(from, StateClosed)
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	from, to := b.advance()

	ok := false
	switch b.state {
	case StateClosed:
		ok = true
	case StateHalfOpen:
		if !b.trial {
			b.trial = true
			ok = true
		}
	}
	if !ok {
		b.counts.Rejected++
	}
	b.mu.Unlock()

	b.notify(from, to)
	return ok
}

// advance must be called with mu held.
func (b *Breaker) advance() (State, State) {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.Cooldown {
		b.state = StateHalfOpen
		b.trial = false
		return StateOpen, StateHalfOpen
	}
	return b.state, b.state
}

func (b *Breaker) release() {
	b.mu.Lock()
	b.trial = false
	b.mu.Unlock()
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	from := b.state

	if success {
		b.counts.Successes++
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.state = StateClosed
		}
	} else {
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		if b.state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.config.MaxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	b.trial = false
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, from, to)
	}
}
