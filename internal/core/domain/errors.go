// Package domain defines the IPC value model and the error taxonomy.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by how it affects the connection that produced it.
type Kind uint8

const (
	// KindConnection is a transport failure. Fatal to the affected session only.
	KindConnection Kind = iota + 1
	// KindProtocol is a malformed frame or ordering violation. Fatal to the session.
	KindProtocol
	// KindAuth is a failed or abandoned handshake. Fails the single attempt.
	KindAuth
	// KindValue is a local attempt to build or mutate a Value inconsistently.
	KindValue
	// KindRemote is an error value returned by the peer.
	KindRemote
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindAuth:
		return "auth"
	case KindValue:
		return "value"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is a coded error with a kind.
// Codes follow the format QIPC-<AREA>-<NNNN>.
type Error struct {
	Kind    Kind
	Code    string // Error code (e.g., "QIPC-PROT-2001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error.
func NewError(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Detailf is WithDetails with formatting.
func (e *Error) Detailf(format string, args ...any) *Error {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this error as the cause.
func (e *Error) Wrap(cause error) *Error {
	return e.WithCause(cause)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// GetErrorCode extracts the error code from an error if it's an *Error.
func GetErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrConnectionFailed indicates the transport could not be established.
	ErrConnectionFailed = NewError(KindConnection, "QIPC-CONN-1000", "connection failed")

	// ErrConnectionClosed indicates the peer or the local side closed the connection.
	ErrConnectionClosed = NewError(KindConnection, "QIPC-CONN-1001", "connection closed")

	// ErrConnectionIO indicates a read or write failed mid-stream.
	ErrConnectionIO = NewError(KindConnection, "QIPC-CONN-1002", "connection i/o failure")

	// ErrConnectionTimeout indicates a deadline or cancellation interrupted i/o.
	ErrConnectionTimeout = NewError(KindConnection, "QIPC-CONN-1003", "connection timed out")

	// ErrSessionClosed indicates an operation on a session that is no longer open.
	ErrSessionClosed = NewError(KindConnection, "QIPC-CONN-1004", "session closed")
)

// ============================================================================
// Protocol Errors (PROT)
// ============================================================================

var (
	// ErrMalformedHeader indicates an invalid message header.
	ErrMalformedHeader = NewError(KindProtocol, "QIPC-PROT-2000", "malformed message header")

	// ErrUnknownType indicates an unsupported type code in the payload.
	ErrUnknownType = NewError(KindProtocol, "QIPC-PROT-2001", "unknown type code")

	// ErrTruncated indicates the payload ended before the value was complete.
	ErrTruncated = NewError(KindProtocol, "QIPC-PROT-2002", "truncated payload")

	// ErrDecompress indicates a malformed compressed stream or length mismatch.
	ErrDecompress = NewError(KindProtocol, "QIPC-PROT-2003", "decompression failed")

	// ErrOrderingViolation indicates a second sync request while one is outstanding.
	ErrOrderingViolation = NewError(KindProtocol, "QIPC-PROT-2004", "sync request already in flight")

	// ErrMessageTooLarge indicates a frame exceeding the configured limit.
	ErrMessageTooLarge = NewError(KindProtocol, "QIPC-PROT-2005", "message too large")

	// ErrUnexpectedMessage indicates a message of the wrong kind, e.g. a non-response
	// where a response was awaited.
	ErrUnexpectedMessage = NewError(KindProtocol, "QIPC-PROT-2006", "unexpected message type")

	// ErrUnencodable indicates a Value that cannot be serialized.
	ErrUnencodable = NewError(KindProtocol, "QIPC-PROT-2007", "value cannot be encoded")

	// ErrNestingTooDeep indicates a payload nested beyond the decoder's depth limit.
	ErrNestingTooDeep = NewError(KindProtocol, "QIPC-PROT-2008", "value nested too deeply")

	// ErrMalformedValue indicates a well-typed payload describing an inconsistent value,
	// e.g. a table whose columns differ in length, or trailing bytes.
	ErrMalformedValue = NewError(KindProtocol, "QIPC-PROT-2009", "malformed value")
)

// ============================================================================
// Auth Errors (AUTH)
// ============================================================================

var (
	// ErrAuthFailed indicates a credential mismatch or unknown user.
	ErrAuthFailed = NewError(KindAuth, "QIPC-AUTH-3000", "authentication failed")

	// ErrHandshakeAbandoned indicates the peer closed during the handshake.
	ErrHandshakeAbandoned = NewError(KindAuth, "QIPC-AUTH-3001", "handshake abandoned")

	// ErrCredentialFormat indicates a malformed credential string or account line.
	ErrCredentialFormat = NewError(KindAuth, "QIPC-AUTH-3002", "invalid credential format")

	// ErrRateLimited indicates too many handshakes from one address.
	ErrRateLimited = NewError(KindAuth, "QIPC-AUTH-3003", "handshake rate limit exceeded")

	// ErrPeerNotAllowed indicates a peer address outside the allowlist.
	ErrPeerNotAllowed = NewError(KindAuth, "QIPC-AUTH-3004", "peer address not allowed")
)

// ============================================================================
// Value Errors (VAL)
// ============================================================================

var (
	// ErrInvalidCast indicates a getter called on a value of another type.
	ErrInvalidCast = NewError(KindValue, "QIPC-VAL-4000", "invalid cast")

	// ErrIndexOutOfBounds indicates an index beyond the list length.
	ErrIndexOutOfBounds = NewError(KindValue, "QIPC-VAL-4001", "index out of bounds")

	// ErrInvalidOperation indicates an operation unsupported for the value type.
	ErrInvalidOperation = NewError(KindValue, "QIPC-VAL-4002", "invalid operation")

	// ErrLengthMismatch indicates dictionary or table parts of different lengths.
	ErrLengthMismatch = NewError(KindValue, "QIPC-VAL-4003", "length mismatch")

	// ErrNoSuchColumn indicates a table column lookup miss.
	ErrNoSuchColumn = NewError(KindValue, "QIPC-VAL-4004", "no such column")

	// ErrInsertWrongElement indicates an element of the wrong type for a typed list.
	ErrInsertWrongElement = NewError(KindValue, "QIPC-VAL-4005", "wrong element type")

	// ErrPopFromEmptyList indicates Pop on an empty list.
	ErrPopFromEmptyList = NewError(KindValue, "QIPC-VAL-4006", "pop from empty list")

	// ErrInvalidDateTime indicates a temporal value outside the representable range.
	ErrInvalidDateTime = NewError(KindValue, "QIPC-VAL-4007", "invalid date/time")
)

// ============================================================================
// Remote Errors (REMOTE)
// ============================================================================

// ErrRemote wraps an error value carried by a peer's response.
var ErrRemote = NewError(KindRemote, "QIPC-REMOTE-5000", "remote error")
