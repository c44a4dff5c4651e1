package faults

import (
	"context"
	"errors"
	"net"
	"regexp"

	"google.golang.org/grpc/codes"
)

// Class is the retry taxonomy of a remote failure.
type Class int

const (
	// ClassPermanent failures are surfaced immediately and never retried.
	ClassPermanent Class = iota
	// ClassTransient failures are retried per policy, then surfaced.
	ClassTransient
)

func (c Class) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// ErrConfiguration marks configuration mistakes that must fail fast.
var ErrConfiguration = errors.New("configuration error")

// HTTP status bounds used by IsRetryable.
const (
	minClientError = 400
	minServerError = 500
)

// transientPattern matches connectivity and timeout messages.
var transientPattern = regexp.MustCompile( //nolint:gochecknoglobals // Compiled once.
	`(?i)(network|fetch failed|failed to fetch|timeout|timed out|econnrefused|econnreset|` +
		`etimedout|eai_again|connection (reset|refused|closed)|socket hang up|` +
		`temporarily unavailable|service unavailable|broken pipe|\beof\b|no such host)`,
)

// transientGRPC lists gRPC codes that indicate a transient condition.
var transientGRPC = map[string]bool{ //nolint:gochecknoglobals // Lookup table.
	codes.Unavailable.String():      true,
	codes.DeadlineExceeded.String(): true,
	codes.Aborted.String():          true,
}

// IsRetryable reports whether v looks like a transient failure. The check is
// a conservative heuristic: an unrecognised failure is not retryable.
func IsRetryable(v any) bool {
	n := Normalize(v)

	if cause := n.Unwrap(); cause != nil {
		if errors.Is(cause, context.Canceled) {
			return false
		}
		if errors.Is(cause, context.DeadlineExceeded) {
			return true
		}
		var ne net.Error
		if errors.As(cause, &ne) && ne.Timeout() {
			return true
		}
	}

	// Aborted maps to 409 but is worth another attempt.
	if n.Shape == ShapeGRPC && transientGRPC[n.Code] {
		return true
	}

	switch {
	case n.StatusCode >= minServerError:
		return true
	case n.StatusCode >= minClientError:
		return false
	}

	return transientPattern.MatchString(n.Message)
}

// Classify maps v onto the retry taxonomy.
func Classify(v any) Class {
	if IsRetryable(v) {
		return ClassTransient
	}
	return ClassPermanent
}
