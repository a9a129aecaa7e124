package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota + 1
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	State() State
	Reset()
}

type Config struct {
	// Window is the number of most recent calls tracked, 0 disables the
	// breaker and every call goes through.
	Window int `envconfig:"CB_WINDOW" default:"0"`
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration `envconfig:"CB_COOLDOWN" default:"5s"`
	// FailureRatio of the window that opens the breaker.
	FailureRatio float64 `envconfig:"CB_FAILURE_RATIO" default:"0.5"`
	// Probes is the number of consecutive half-open successes that close it,
	// and the number of half-open calls let through at once.
	Probes int `envconfig:"CB_PROBES" default:"2"`
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state    State
	openedAt time.Time
	// ring of call outcomes, true means failed
	window    []bool
	pos       int
	failures  int
	successes int
	// half-open calls still running
	inTrial int
}

func New(cfg Config) CircuitBreaker {
	if cfg.Window <= 0 {
		return disabled{}
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	return &circuitBreaker{
		cfg:    cfg,
		now:    time.Now,
		state:  Closed,
		window: make([]bool, cfg.Window),
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successes = 0
	}
	trial := cb.state == HalfOpen
	if trial {
		if cb.inTrial >= cb.cfg.Probes {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.inTrial++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.inTrial--
	}
	cb.record(err != nil)

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
			return err
		}
		cb.successes++
		if cb.successes >= cb.cfg.Probes {
			cb.reset()
		}
		return err
	}

	if float64(cb.failures)/float64(len(cb.window)) >= cb.cfg.FailureRatio && cb.failures > 0 {
		cb.trip()
	}
	return err
}

func (cb *circuitBreaker) record(failed bool) {
	if cb.window[cb.pos] {
		cb.failures--
	}
	cb.window[cb.pos] = failed
	if failed {
		cb.failures++
	}
	cb.pos = (cb.pos + 1) % len(cb.window)
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successes = 0
	cb.openedAt = cb.now()
}

func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.pos = 0
	cb.failures = 0
	cb.successes = 0
	cb.state = Closed
}

type disabled struct{}

func (disabled) Call(fn func() error) error { return fn() }
func (disabled) State() State               { return Closed }
func (disabled) Reset()                     {}
