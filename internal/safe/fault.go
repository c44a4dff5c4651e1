package safe

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rshade/storekit/internal/logging"
)

// ErrCallbackPanic marks a fault raised by a panicking callback.
var ErrCallbackPanic = errors.New("callback panicked")

// noIndex is used in Fault.Index when the fault is not tied to an element.
const noIndex = -1

// Fault describes a caller callback that failed inside an accessor.
type Fault struct {
	// Op is the accessor that caught the fault (map, filter, reduce, call, get).
	Op string
	// Input is a short description of the value being traversed.
	Input string
	// Index is the element position, or -1.
	Index int
	// Cause is the error returned or the recovered panic.
	Cause error
}

func (f *Fault) Error() string {
	if f.Index >= 0 {
		return fmt.Sprintf("safe %s over %s failed at index %d: %v", f.Op, f.Input, f.Index, f.Cause)
	}
	return fmt.Sprintf("safe %s over %s failed: %v", f.Op, f.Input, f.Cause)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// guard runs fn, converting a panic into an error wrapping ErrCallbackPanic.
//
//nolint:nonamedreturns // Named returns are required to rewrite results from the deferred recover.
func guard[R any](fn func() (R, error)) (result R, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero R
			result = zero
			if pe, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", ErrCallbackPanic, pe)
				return
			}
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, p)
		}
	}()
	return fn()
}

// report logs a fault. Logging is the only side effect of a fault.
func report(ctx context.Context, f *Fault) {
	logging.FromContext(ctx).Warn().
		Ctx(ctx).
		Str("component", "safe").
		Str("op", f.Op).
		Str("input", f.Input).
		Int("index", f.Index).
		Err(f.Cause).
		Msg("callback fault, returning fallback")
}

// reportAbsent logs, at debug level, an input that was not a usable value.
func reportAbsent(ctx context.Context, op string, v any) {
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "safe").
		Str("op", op).
		Str("input", describe(v)).
		Msg("input absent or not traversable, returning fallback")
}

// describe renders a compact description of v for diagnostics.
func describe(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		if rv.Kind() != reflect.Array && rv.Kind() != reflect.String && rv.IsNil() {
			return fmt.Sprintf("%T(nil)", v)
		}
		return fmt.Sprintf("%T(len=%d)", v, rv.Len())
	case reflect.Ptr:
		if rv.IsNil() {
			return fmt.Sprintf("%T(nil)", v)
		}
	}
	return fmt.Sprintf("%T", v)
}
