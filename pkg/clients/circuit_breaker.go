// Package clients provides circuit breaker protection for the HTTP client
package clients

import (
	"sync"
	"time"
)

// circuitState represents the state of the circuit breaker
type circuitState int

const (
	// stateClosed allows all requests to pass through
	stateClosed circuitState = iota
	// stateOpen blocks all requests until the cooldown elapses
	stateOpen
	// stateHalfOpen allows a single probe request
	stateHalfOpen
)

// CircuitBreaker opens after a run of consecutive failures and probes the
// endpoint again once the cooldown elapses. It protects the remote API from
// hammering while it is down; retry policy itself stays with the caller.
type CircuitBreaker struct {
	failureThreshold int
	cooldown         time.Duration

	mu                  sync.Mutex
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
}

// NewCircuitBreaker creates a breaker that opens after failureThreshold
// consecutive failures and half-opens after cooldown
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		state:            stateClosed,
	}
}

// Allow reports whether a request may proceed
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(cb.openedAt) >= cb.cooldown {
			cb.state = stateHalfOpen
			return true
		}
		return false
	case stateHalfOpen:
		// One probe at a time
		return false
	}
	return false
}

// RecordSuccess closes the breaker
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	cb.state = stateClosed
}

// RecordFailure counts a failure and opens the breaker at the threshold
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	if cb.state == stateHalfOpen || cb.consecutiveFailures >= cb.failureThreshold {
		cb.state = stateOpen
		cb.openedAt = time.Now()
	}
}
