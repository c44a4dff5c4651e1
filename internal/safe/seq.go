package safe

import (
	"context"
	"errors"
	"reflect"
)

var errNilCallback = errors.New("nil callback")

// Map applies fn to every element of seq. A nil seq or nil fn returns
// fallback. If any application fails, the whole call returns fallback.
func Map[T, U any](ctx context.Context, seq []T, fn func(T) (U, error), fallback []U) []U {
	if seq == nil {
		reportAbsent(ctx, "map", seq)
		return fallback
	}
	if fn == nil {
		report(ctx, &Fault{Op: "map", Input: describe(seq), Index: noIndex, Cause: errNilCallback})
		return fallback
	}

	out := make([]U, 0, len(seq))
	for i, item := range seq {
		v, err := guard(func() (U, error) { return fn(item) })
		if err != nil {
			report(ctx, &Fault{Op: "map", Input: describe(seq), Index: i, Cause: err})
			return fallback
		}
		out = append(out, v)
	}
	return out
}

// Filter keeps the elements of seq for which pred reports true, with the
// same all-or-nothing contract as Map.
func Filter[T any](ctx context.Context, seq []T, pred func(T) (bool, error), fallback []T) []T {
	if seq == nil {
		reportAbsent(ctx, "filter", seq)
		return fallback
	}
	if pred == nil {
		report(ctx, &Fault{Op: "filter", Input: describe(seq), Index: noIndex, Cause: errNilCallback})
		return fallback
	}

	out := make([]T, 0, len(seq))
	for i, item := range seq {
		keep, err := guard(func() (bool, error) { return pred(item) })
		if err != nil {
			report(ctx, &Fault{Op: "filter", Input: describe(seq), Index: i, Cause: err})
			return fallback
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// Reduce folds seq into an accumulator starting at initial. A nil seq, a
// nil fn, or any failing step returns fallback.
func Reduce[T, A any](ctx context.Context, seq []T, fn func(A, T) (A, error), initial, fallback A) A {
	if seq == nil {
		reportAbsent(ctx, "reduce", seq)
		return fallback
	}
	if fn == nil {
		report(ctx, &Fault{Op: "reduce", Input: describe(seq), Index: noIndex, Cause: errNilCallback})
		return fallback
	}

	acc := initial
	for i, item := range seq {
		next, err := guard(func() (A, error) { return fn(acc, item) })
		if err != nil {
			report(ctx, &Fault{Op: "reduce", Input: describe(seq), Index: i, Cause: err})
			return fallback
		}
		acc = next
	}
	return acc
}

// Call evaluates fn, returning fallback if it panics or returns an error.
func Call[T any](ctx context.Context, fn func() (T, error), fallback T) T {
	if fn == nil {
		report(ctx, &Fault{Op: "call", Input: "func", Index: noIndex, Cause: errNilCallback})
		return fallback
	}
	v, err := guard(fn)
	if err != nil {
		report(ctx, &Fault{Op: "call", Input: "func", Index: noIndex, Cause: err})
		return fallback
	}
	return v
}

// Index returns seq[i], or fallback when i is out of range.
func Index[T any](seq []T, i int, fallback T) T {
	if i < 0 || i >= len(seq) {
		return fallback
	}
	return seq[i]
}

// IndexAny indexes an untrusted value that may or may not be a sequence.
func IndexAny(v any, i int, fallback any) any {
	items, ok := Items(v)
	if !ok {
		return fallback
	}
	return Index(items, i, fallback)
}

// Items views v as a sequence. Any slice or array kind is accepted; nil
// slices and every other kind report false.
func Items(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, items != nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range rv.Len() {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// IsEmpty reports whether v is absent or has no elements. Values without a
// length count as empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len() == 0
	default:
		return true
	}
}

// HasItems reports whether v has at least one element.
func HasItems(v any) bool {
	return !IsEmpty(v)
}
