package engine

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeForbidden      Code = "FORBIDDEN"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeWrongTurn      Code = "WRONG_TURN"
	CodeTurnExpired    Code = "TURN_EXPIRED"
	CodeGameEnded      Code = "GAME_ENDED"
	CodeInvalidWord    Code = "INVALID_WORD"
	CodeUnrelatedWord  Code = "UNRELATED_WORD"
	CodeSameOrSimilar  Code = "SAME_SIMILAR_WORD"
	CodeTookTooLong    Code = "TOOK_TOO_LONG"
	CodeMalformedInput Code = "MALFORMED_INPUT"
)

type Class int

const (
	ClassInternal Class = iota
	ClassClient
	ClassUnauthorized
	ClassForbidden
	ClassNotFound
	ClassConflict
)

func (c Code) Class() Class {
	switch c {
	case CodeMalformedInput:
		return ClassClient
	case CodeUnauthorized:
		return ClassUnauthorized
	case CodeForbidden:
		return ClassForbidden
	case CodeNotFound:
		return ClassNotFound
	case CodeWrongTurn,
		CodeTurnExpired,
		CodeGameEnded,
		CodeInvalidWord,
		CodeUnrelatedWord,
		CodeSameOrSimilar,
		CodeTookTooLong:
		return ClassConflict
	default:
		return ClassInternal
	}
}

// Error is the domain error type. Two errors are equal under errors.Is when
// their codes match, so callers compare against the package sentinels.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrNotFound          = New(CodeNotFound, "game not found")
	ErrForbidden         = New(CodeForbidden, "player is not part of this game")
	ErrUnauthorized      = New(CodeUnauthorized, "invalid session")
	ErrWrongTurn         = New(CodeWrongTurn, "not your turn")
	ErrTurnExpired       = New(CodeTurnExpired, "turn time has expired")
	ErrGameEnded         = New(CodeGameEnded, "game has already ended")
	ErrInvalidWord       = New(CodeInvalidWord, "invalid word")
	ErrUnrelatedWord     = New(CodeUnrelatedWord, "word is not related to the previous word")
	ErrSameOrSimilarWord = New(CodeSameOrSimilar, "word is the same as or too similar to a previous word")
	ErrTookTooLong       = New(CodeTookTooLong, "took too long")
	ErrMalformedInput    = New(CodeMalformedInput, "please supply a single word")
)

// CodeOf extracts the domain code from err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// ReasonFor maps a validation failure to the end reason it records.
func ReasonFor(err error) (EndReason, bool) {
	code, ok := CodeOf(err)
	if !ok {
		return "", false
	}
	switch code {
	case CodeInvalidWord:
		return EndInvalidWord, true
	case CodeUnrelatedWord:
		return EndUnrelatedWord, true
	case CodeSameOrSimilar:
		return EndSameOrSimilarWord, true
	case CodeTookTooLong:
		return EndTookTooLong, true
	default:
		return "", false
	}
}
