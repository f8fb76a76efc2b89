package backend

import (
	"sync"
	"time"
)

// Action is what a retry policy currently permits.
type Action int

const (
	// ActionOK permits a connection attempt now.
	ActionOK Action = iota
	// ActionWait denies the attempt: backoff is in effect.
	ActionWait
)

// Policy gates new connection attempts against a backend's failure history.
//
// CanTry returns the current permission; the second result is false when the
// policy is permanently blocked and only Succeed (or a fresh policy) can
// rehabilitate it. Fail records one failed attempt and advances the backoff.
// Succeed clears the failure history after a successful connection.
//
// Fail must be called at most once per failed attempt; the concrete policies
// are mutex-guarded so records may be read from other goroutines, but the
// owning session loop remains the single writer.
type Policy interface {
	CanTry() (Action, bool)
	Fail()
	Succeed()
}

// Defaults for ExponentialBackoff.
const (
	defaultBackoffBase    = 100 * time.Millisecond
	defaultBackoffFactor  = 2.0
	defaultBackoffCeiling = 30 * time.Second
)

// ExponentialBackoff is the standard circuit-breaking policy: each failure
// doubles (by Factor) the delay before the next permitted attempt, capped at
// Ceiling; once failures exceed MaxTries the policy reports permanently
// blocked until a success resets it.
type ExponentialBackoff struct {
	mu       sync.Mutex
	failures int
	until    time.Time

	maxTries int
	base     time.Duration
	factor   float64
	ceiling  time.Duration
}

// NewExponentialBackoff returns a policy allowing maxTries consecutive
// failures before blocking permanently, with default base delay, growth
// factor and ceiling.
func NewExponentialBackoff(maxTries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		maxTries: maxTries,
		base:     defaultBackoffBase,
		factor:   defaultBackoffFactor,
		ceiling:  defaultBackoffCeiling,
	}
}

// CanTry implements Policy.
func (p *ExponentialBackoff) CanTry() (Action, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures > p.maxTries {
		return ActionWait, false
	}
	if time.Now().Before(p.until) {
		return ActionWait, true
	}
	return ActionOK, true
}

// Fail implements Policy.
func (p *ExponentialBackoff) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failures++
	delay := p.base
	for i := 1; i < p.failures; i++ {
		delay = time.Duration(float64(delay) * p.factor)
		if delay >= p.ceiling {
			delay = p.ceiling
			break
		}
	}
	p.until = time.Now().Add(delay)
}

// Succeed implements Policy, rehabilitating the backend.
func (p *ExponentialBackoff) Succeed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failures = 0
	p.until = time.Time{}
}

// Failures returns the current consecutive-failure count.
func (p *ExponentialBackoff) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
