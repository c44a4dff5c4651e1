// Package retry runs remote operations with exponential backoff, retrying
// only the failures the faults classifier considers transient.
package retry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Policy defaults.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMultiplier   = 2.0
)

// ErrInvalidPolicy is returned by Validate and Do for unusable policies.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy controls how many attempts are made and how long to wait between them.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// InitialDelay is the wait after the first failed attempt.
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`

	// Multiplier scales the delay after every further failure. Zero means
	// DefaultMultiplier.
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// MaxDelay caps a single wait. Zero leaves waits uncapped.
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultPolicy returns three attempts starting at 100ms and doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be >= 1, got %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("%w: initial delay must be >= 0, got %s", ErrInvalidPolicy, p.InitialDelay)
	}
	if p.Multiplier != 0 && p.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier must be >= 1, got %g", ErrInvalidPolicy, p.Multiplier)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("%w: max delay must be >= 0, got %s", ErrInvalidPolicy, p.MaxDelay)
	}
	return nil
}

// Delay returns the wait that follows the failure of the given zero-based
// attempt: InitialDelay * Multiplier^attempt, capped by MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult == 0 {
		mult = DefaultMultiplier
	}

	d := float64(p.InitialDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d >= float64(math.MaxInt64) || math.IsNaN(d) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Delays returns the full wait schedule for a sequence whose every attempt
// fails transiently: MaxAttempts-1 entries.
func Delays(p Policy) []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	out := make([]time.Duration, p.MaxAttempts-1)
	for i := range out {
		out[i] = p.Delay(i)
	}
	return out
}
