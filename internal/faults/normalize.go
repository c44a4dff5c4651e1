// Package faults turns arbitrary error values into a canonical record and
// decides whether a failed remote call is worth retrying.
package faults

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnknownErrorMessage is used when no message can be derived from a value.
const UnknownErrorMessage = "unknown error"

// Shape names the kind of value Normalize received.
type Shape int

const (
	// ShapeUnknown is any value none of the other shapes describe.
	ShapeUnknown Shape = iota
	// ShapeNil is a nil value.
	ShapeNil
	// ShapeError is a plain Go error.
	ShapeError
	// ShapeStatusError is an error exposing a status code or error code.
	ShapeStatusError
	// ShapeGRPC is a gRPC status error.
	ShapeGRPC
	// ShapeRecord is a map-shaped error object, including GraphQL errors.
	ShapeRecord
	// ShapeText is a bare string.
	ShapeText
	// ShapeNumber is a bare number.
	ShapeNumber
)

var shapeNames = map[Shape]string{ //nolint:gochecknoglobals // Lookup table for String.
	ShapeUnknown:     "unknown",
	ShapeNil:         "nil",
	ShapeError:       "error",
	ShapeStatusError: "status_error",
	ShapeGRPC:        "grpc",
	ShapeRecord:      "record",
	ShapeText:        "text",
	ShapeNumber:      "number",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// Normalized is the canonical form of any error value.
type Normalized struct {
	Message    string
	Code       string
	StatusCode int
	Details    map[string]any
	Shape      Shape

	cause error
}

func (n *Normalized) Error() string {
	return n.Message
}

// Unwrap returns the original error, when the normalized value was one.
func (n *Normalized) Unwrap() error {
	return n.cause
}

// StatusCoder is implemented by errors carrying an HTTP-style status code.
type StatusCoder interface {
	StatusCode() int
}

// HTTPStatuser is implemented by errors carrying an HTTP status.
type HTTPStatuser interface {
	HTTPStatus() int
}

// Coder is implemented by errors carrying a symbolic error code.
type Coder interface {
	Code() string
}

// Record keys recognised on map-shaped errors.
const (
	keyMessage    = "message"
	keyCode       = "code"
	keyStatusCode = "statusCode"
	keyStatus     = "status"
	keyStatusSnk  = "status_code"
	keyExtensions = "extensions"
	keyGRPCDetail = "grpc_details"
)

// Normalize converts any value into a Normalized record. The result is never
// nil and always carries a non-empty message.
func Normalize(v any) *Normalized {
	n := classifyShape(v)
	if strings.TrimSpace(n.Message) == "" {
		n.Message = UnknownErrorMessage
	}
	return n
}

func classifyShape(v any) *Normalized {
	switch val := v.(type) {
	case nil:
		return &Normalized{Shape: ShapeNil}
	case *Normalized:
		if val == nil {
			return &Normalized{Shape: ShapeNil}
		}
		cp := *val
		cp.Details = maps.Clone(val.Details)
		return &cp
	case string:
		return &Normalized{Message: val, Shape: ShapeText}
	case map[string]any:
		return fromRecord(val)
	case error:
		return fromError(val)
	case fmt.Stringer:
		return &Normalized{Message: val.String(), Shape: ShapeUnknown}
	}

	if f, ok := toFloat(v); ok {
		return &Normalized{Message: strconv.FormatFloat(f, 'f', -1, 64), Shape: ShapeNumber}
	}
	return &Normalized{Message: fmt.Sprint(v), Shape: ShapeUnknown}
}

func fromError(err error) *Normalized {
	var nested *Normalized
	if errors.As(err, &nested) && nested != nil {
		cp := *nested
		cp.Details = maps.Clone(nested.Details)
		cp.Message = err.Error()
		cp.cause = err
		return &cp
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		n := &Normalized{
			Message:    st.Message(),
			Code:       st.Code().String(),
			StatusCode: httpStatusFromGRPC(st.Code()),
			Shape:      ShapeGRPC,
			cause:      err,
		}
		if details := st.Details(); len(details) > 0 {
			n.Details = map[string]any{keyGRPCDetail: details}
		}
		return n
	}

	n := &Normalized{Message: err.Error(), Shape: ShapeError, cause: err}

	var sc StatusCoder
	if errors.As(err, &sc) {
		n.StatusCode = sc.StatusCode()
		n.Shape = ShapeStatusError
	}
	var hs HTTPStatuser
	if n.StatusCode == 0 && errors.As(err, &hs) {
		n.StatusCode = hs.HTTPStatus()
		n.Shape = ShapeStatusError
	}
	var cd Coder
	if errors.As(err, &cd) {
		n.Code = cd.Code()
		n.Shape = ShapeStatusError
	}
	return n
}

// fromRecord reads an ad hoc error object such as a decoded GraphQL error.
func fromRecord(rec map[string]any) *Normalized {
	n := &Normalized{Shape: ShapeRecord}
	details := make(map[string]any)

	for k, v := range rec {
		switch k {
		case keyMessage:
			if s, ok := v.(string); ok {
				n.Message = s
				continue
			}
		case keyCode:
			if s, ok := codeString(v); ok {
				n.Code = s
				continue
			}
		case keyStatusCode, keyStatus, keyStatusSnk:
			if f, ok := toFloat(v); ok && n.StatusCode == 0 {
				n.StatusCode = int(f)
				continue
			}
		}
		details[k] = v
	}

	if ext, ok := rec[keyExtensions].(map[string]any); ok {
		if n.Code == "" {
			if s, found := codeString(ext[keyCode]); found {
				n.Code = s
			}
		}
		if n.StatusCode == 0 {
			for _, k := range []string{keyStatusCode, keyStatus, keyStatusSnk} {
				if f, found := toFloat(ext[k]); found {
					n.StatusCode = int(f)
					break
				}
			}
		}
	}

	if len(details) > 0 {
		n.Details = details
	}
	return n
}

func codeString(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, c != ""
	case nil:
		return "", false
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case float64:
		return n, !math.IsNaN(n)
	default:
		return 0, false
	}
}

// httpStatusFromGRPC maps gRPC codes onto the HTTP status families used by
// IsRetryable.
func httpStatusFromGRPC(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return statusClientClosed
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Internal, codes.DataLoss:
		return http.StatusInternalServerError
	default:
		return 0
	}
}

// statusClientClosed is the de facto status for a request the client abandoned.
const statusClientClosed = 499
