package config

import (
	"fmt"

	"github.com/go-stack/stack"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind enumerates the six error categories from spec.md §7.
type Kind int

const (
	KindInvalidAudio Kind = iota
	KindInvalidOptions
	KindModelUnavailable
	KindQuantizationDegenerate
	KindNoOnsetsDetected
	KindIOError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAudio:
		return "invalid_audio"
	case KindInvalidOptions:
		return "invalid_options"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindQuantizationDegenerate:
		return "quantization_degenerate"
	case KindNoOnsetsDetected:
		return "no_onsets_detected"
	case KindIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// grpcCode maps a Kind onto the nearest google.golang.org/grpc/codes.Code,
// grounded on the teacher's use of grpc status codes across
// internal/analyzer/client.go's RPC boundary.
func (k Kind) grpcCode() codes.Code {
	switch k {
	case KindInvalidAudio, KindInvalidOptions:
		return codes.InvalidArgument
	case KindModelUnavailable:
		return codes.Unavailable
	case KindQuantizationDegenerate, KindNoOnsetsDetected:
		return codes.FailedPrecondition
	case KindIOError:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// Error is BeatSight's sealed error type: a Kind, a message, an optional
// wrapped cause, and (under --debug) a captured call stack, grounded on the
// teacher's structured RPC-error pattern but adapted to a single local
// taxonomy instead of transport-layer status codes directly.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
	Stack stack.CallStack
}

// debugStacksEnabled is toggled by cmd/beatsight when --debug is set, per
// spec.md §7's "stack frame capture under --debug" requirement.
var debugStacksEnabled = false

// EnableDebugStacks turns on call-stack capture for every Error constructed
// afterward. Intended to be called once at startup from --debug.
func EnableDebugStacks() { debugStacksEnabled = true }

// NewError constructs an Error, capturing the call stack when debug mode is
// enabled.
func NewError(kind Kind, msg string, cause error) *Error {
	e := &Error{Kind: kind, Msg: msg, Cause: cause}
	if debugStacksEnabled {
		e.Stack = stack.Trace().TrimRuntime()
	}
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("beatsight: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("beatsight: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// GRPCStatus lets status.FromError map an Error onto its nearest
// google.golang.org/grpc/codes.Code, per spec.md §7, the same boundary the
// teacher crosses in internal/analyzer/client.go.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.grpcCode(), e.Error())
}
