package retry

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	goretry "github.com/sethvargo/go-retry"

	"github.com/rshade/storekit/internal/faults"
	"github.com/rshade/storekit/internal/logging"
)

// Operation is one attempt of a remote call.
type Operation[T any] func(ctx context.Context) (T, error)

// Observer receives lifecycle callbacks for every retry sequence.
// Attempt numbers are one-based.
type Observer interface {
	OnAttempt(name string, attempt int)
	OnRetry(name string, attempt int, delay time.Duration, err error)
	OnDone(name string, attempts int, err error)
}

type nopObserver struct{}

func (nopObserver) OnAttempt(string, int)                     {}
func (nopObserver) OnRetry(string, int, time.Duration, error) {}
func (nopObserver) OnDone(string, int, error)                 {}

type options struct {
	name      string
	retryable func(error) bool
	observer  Observer
}

// Option customises a single Do call.
type Option func(*options)

// WithName labels the sequence in logs and observer callbacks.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClassifier replaces faults.IsRetryable as the retry decision.
func WithClassifier(retryable func(error) bool) Option {
	return func(o *options) {
		if retryable != nil {
			o.retryable = retryable
		}
	}
}

// WithObserver attaches an observer to the sequence.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Do invokes op until it succeeds, fails with a non-retryable error, or the
// policy's attempts run out. Errors from op are returned unchanged. A wait
// interrupted by ctx returns ctx.Err(). Attempts never overlap.
func Do[T any](ctx context.Context, p Policy, op Operation[T], opts ...Option) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}

	o := options{
		name:      "remote call",
		retryable: func(err error) bool { return faults.IsRetryable(err) },
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	log := logging.FromContext(ctx).With().
		Str("component", "retry").
		Str("operation", o.name).
		Str("call_id", ulid.Make().String()).
		Logger()

	var (
		result  T
		attempt int
		lastErr error
	)

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		if attempt >= p.MaxAttempts-1 {
			return 0, true
		}
		delay := p.Delay(attempt)
		attempt++
		o.observer.OnRetry(o.name, attempt, delay, lastErr)
		log.Debug().
			Ctx(ctx).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Dur("delay", delay).
			Err(lastErr).
			Msg("transient failure, backing off")
		return delay, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		o.observer.OnAttempt(o.name, attempt+1)
		v, opErr := op(ctx)
		if opErr == nil {
			result = v
			return nil
		}
		lastErr = opErr
		if !o.retryable(opErr) {
			log.Debug().Ctx(ctx).Int("attempt", attempt+1).Err(opErr).Msg("permanent failure, not retrying")
			return opErr
		}
		return goretry.RetryableError(opErr)
	})

	o.observer.OnDone(o.name, attempt+1, err)
	if err != nil {
		log.Warn().Ctx(ctx).Int("attempts", attempt+1).Err(err).Msg("remote call failed")
		return zero, err
	}
	if attempt > 0 {
		log.Info().Ctx(ctx).Int("attempts", attempt+1).Msg("remote call recovered after retry")
	}
	return result, nil
}
