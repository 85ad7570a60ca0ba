package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCode     Phase = "code"     // shared coder state machine
	PhaseEncode   Phase = "encode"   // value to bytes
	PhaseDecode   Phase = "decode"   // bytes to value
	PhaseValidate Phase = "validate" // schema validation
	PhaseReflect  Phase = "reflect"  // type to schema reflection
)

// Kind categorizes the error
type Kind string

const (
	// KindIO is an underlying sink/source failure. Fatal: the coder is left
	// broken.
	KindIO Kind = "io"
	// KindMalformedData means the bytes being decoded are not a valid
	// message for the schema. Fatal: the coder is left broken.
	KindMalformedData Kind = "malformed_data"
	// KindSchemaNonConformance means the shape of the data the caller tried
	// to code does not match the schema at the current position.
	// Recoverable: the coder is left unchanged.
	KindSchemaNonConformance Kind = "schema_non_conformance"
	// KindPlatformLimits means an otherwise valid message exceeds what this
	// platform can represent. Fatal: the coder is left broken.
	KindPlatformLimits Kind = "platform_limits"
	// KindIllegalSchema means the schema itself is malformed, e.g. an
	// out-of-range recurse or a zero-variant enum. Fatal when hit during
	// coding; catchable up front with schema validation.
	KindIllegalSchema Kind = "illegal_schema"
	// KindAPIUsage means a sequence of calls that would never be valid
	// regardless of schema. Recoverable: the coder is left unchanged.
	KindAPIUsage Kind = "api_usage"
)

// Fatal reports whether this kind leaves the coder in the broken state.
func (k Kind) Fatal() bool {
	switch k {
	case KindIO, KindMalformedData, KindPlatformLimits, KindIllegalSchema:
		return true
	default:
		return false
	}
}

// Error is the structured error type used throughout the codec
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	State  string // coder state dump at time of failure, if available
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if e.State != "" {
		b.WriteString("\nstate: ")
		b.WriteString(e.State)
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// State attaches a dump of the coder state at time of failure
func (b *Builder) State(state string) *Builder {
	b.err.State = state
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// IO wraps a sink/source failure
func IO(phase Phase, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindIO,
		Cause: cause,
	}
}

// MalformedData creates a malformed data error
func MalformedData(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedData,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NonConformance creates a schema non-conformance error
func NonConformance(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSchemaNonConformance,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// PlatformLimits creates a platform limits error
func PlatformLimits(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPlatformLimits,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// IllegalSchema creates an illegal schema error
func IllegalSchema(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIllegalSchema,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// APIUsage creates an API usage error
func APIUsage(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAPIUsage,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidUTF8 creates a malformed data error for non-UTF-8 string bytes
func InvalidUTF8(phase Phase, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedData,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidOrdinal creates a malformed data error for an out-of-range enum
// ordinal read from the wire
func InvalidOrdinal(phase Phase, ord uint64, numVariants int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedData,
		Detail: fmt.Sprintf("enum ordinal %d out of range 0..%d", ord, numVariants),
	}
}
