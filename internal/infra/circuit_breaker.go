package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// A CircuitBreaker guards the SMTP relay. FailureThreshold failures in a row
// open it; while open every call fails with ErrCircuitOpen. After OpenTimeout
// calls are let through again (half-open) and SuccessThreshold successes in a
// row close it. A failure while half-open reopens it.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

var stateNames = map[CBState]string{
	CBClosed:   "closed",
	CBOpen:     "open",
	CBHalfOpen: "half-open",
}

func (s CBState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCBConfig returns the settings used for the mailer.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "smtp",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

// CBSnapshot is the breaker as reported by the health endpoint.
type CBSnapshot struct {
	State    string     `json:"state"`
	Failures int        `json:"consecutive_failures"`
	RetryAt  *time.Time `json:"retry_at,omitempty"`
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CBState
	streak   int // consecutive failures when closed, successes when half-open
	openedAt time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

func (cb *CircuitBreaker) Snapshot() CBSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := CBSnapshot{State: cb.current().String()}
	switch cb.state {
	case CBClosed:
		s.Failures = cb.streak
	case CBOpen:
		at := cb.openedAt.Add(cb.cfg.OpenTimeout)
		s.RetryAt = &at
	}
	return s
}

// Execute runs fn unless the breaker is open and records its outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}
	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		if cb.state == CBHalfOpen {
			cb.trip()
		} else if cb.streak++; cb.streak >= cb.cfg.FailureThreshold {
			cb.trip()
		}
		return err
	}
	if cb.state == CBHalfOpen {
		if cb.streak++; cb.streak >= cb.cfg.SuccessThreshold {
			cb.move(CBClosed)
		}
		return nil
	}
	cb.streak = 0
	return nil
}

// current must be called with mu held.
func (cb *CircuitBreaker) current() CBState {
	if cb.state == CBOpen && !cb.now().Before(cb.openedAt.Add(cb.cfg.OpenTimeout)) {
		cb.move(CBHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.move(CBOpen)
}

func (cb *CircuitBreaker) move(to CBState) {
	log.Warn().Str("breaker", cb.cfg.Name).Stringer("from", cb.state).Stringer("to", to).
		Msg("circuit breaker state change")
	cb.state = to
	cb.streak = 0
}
