// Package nerr defines the classified failure modes surfaced by the
// negentropy packages: store sealing, wire parsing, and protocol
// reconciliation all return errors built with this package so that
// callers can discriminate on Kind rather than parsing messages.
package nerr

import (
	"errors"
	"fmt"
)

// Kind discriminates the classified failure modes of the engine.
type Kind int

const (
	// KindAlreadySealed is returned by Insert/Seal on an already-sealed store.
	KindAlreadySealed Kind = iota
	// KindNotSealed is returned by operations that require a sealed store.
	KindNotSealed
	// KindInvalidIdSize is returned when an id or prefix length mismatches.
	KindInvalidIdSize
	// KindUnsupportedProtocolVersion is returned when the version byte of an
	// incoming message does not match the protocol version this engine speaks.
	KindUnsupportedProtocolVersion
	// KindUnexpectedMode is returned when a record's mode is outside {0,1,2}.
	KindUnexpectedMode
	// KindParseEnded is returned when a buffer runs out mid-parse.
	KindParseEnded
	// KindInitiatorError is returned on role-misuse: calling Initiate on an
	// engine that has already initiated or responded, or calling Reconcile
	// on an initiator that has finished. A responder receiving an IdList
	// answers it with Skip, and Reconcile on a fresh engine makes it the
	// responder; neither is an error.
	KindInitiatorError
	// KindFrameSizeLimitTooSmall is a construction-time error for a nonzero
	// frame size limit below the floor.
	KindFrameSizeLimitTooSmall
	// KindHexDecode is returned by the hexutil boundary helpers.
	KindHexDecode
)

func (k Kind) String() string {
	switch k {
	case KindAlreadySealed:
		return "already_sealed"
	case KindNotSealed:
		return "not_sealed"
	case KindInvalidIdSize:
		return "invalid_id_size"
	case KindUnsupportedProtocolVersion:
		return "unsupported_protocol_version"
	case KindUnexpectedMode:
		return "unexpected_mode"
	case KindParseEnded:
		return "parse_ended"
	case KindInitiatorError:
		return "initiator_error"
	case KindFrameSizeLimitTooSmall:
		return "frame_size_limit_too_small"
	case KindHexDecode:
		return "hex_decode"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module. It carries a
// Kind so callers can use Is/As instead of matching on message text.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Kind.String()
	}
	return e.msg
}

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, nerr.New(nerr.KindParseEnded, "")) works regardless of
// the wrapped message text.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New creates an *Error of the given kind with a fixed message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Newf creates an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
