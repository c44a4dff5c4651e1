package safe

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// pathSeparator splits Get/Lookup paths into segments.
const pathSeparator = "."

// Lookup walks a dot-separated path through obj. It reports false as soon as
// an intermediate value is nil or missing, when the walk panics, or when the
// resolved leaf is nil. An empty path resolves to obj itself.
//
//nolint:nonamedreturns // Named returns are required to rewrite results from the deferred recover.
func Lookup(ctx context.Context, obj any, path string) (value any, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			report(ctx, &Fault{
				Op:    "get",
				Input: describe(obj),
				Index: noIndex,
				Cause: fmt.Errorf("%w: path %q: %v", ErrCallbackPanic, path, p),
			})
			value, ok = nil, false
		}
	}()

	if isNil(obj) {
		return nil, false
	}
	if path == "" {
		return obj, true
	}

	cur := obj
	for _, seg := range strings.Split(path, pathSeparator) {
		next, found := step(cur, seg)
		if !found || isNil(next) {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Get resolves path in obj and returns the leaf when it is present, non-nil
// and of type T. Anything else yields fallback.
func Get[T any](ctx context.Context, obj any, path string, fallback T) T {
	v, ok := Lookup(ctx, obj, path)
	if !ok {
		return fallback
	}
	typed, ok := v.(T)
	if !ok {
		return fallback
	}
	return typed
}

// Decode resolves path in obj and decodes the leaf into a T. Numbers, strings
// and booleans are converted weakly, so a JSON float64 can fill an int and a
// map can fill a struct through its json tags. Decode failures yield fallback.
func Decode[T any](ctx context.Context, obj any, path string, fallback T) T {
	v, ok := Lookup(ctx, obj, path)
	if !ok {
		return fallback
	}
	if typed, isT := v.(T); isT {
		return typed
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &out,
	})
	if err != nil {
		report(ctx, &Fault{Op: "decode", Input: describe(v), Index: noIndex, Cause: err})
		return fallback
	}
	if err = dec.Decode(v); err != nil {
		report(ctx, &Fault{Op: "decode", Input: describe(v), Index: noIndex, Cause: err})
		return fallback
	}
	return out
}

// step resolves one path segment against cur.
func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(rv, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	default:
		return nil, false
	}
}

// structField finds an exported field by name or by its json tag.
func structField(rv reflect.Value, seg string) (any, bool) {
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if f.Name == seg || (tag != "" && tag == seg) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
