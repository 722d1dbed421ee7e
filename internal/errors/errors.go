package errors

import (
	"errors"
	"fmt"
)

// Kind classifies service failures independently of the transport.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindForbidden        Kind = "FORBIDDEN"
	KindInvalidOperation Kind = "INVALID_OPERATION"
	KindInvalidArgument  Kind = "INVALID_ARGUMENT"
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindConflict         Kind = "CONFLICT"
	KindStoreFailure     Kind = "STORE_FAILURE"
)

type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on Kind and Message so that sentinels compare equal to
// wrapped copies of themselves.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, msg string) error { return &AppError{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, cause error) error {
	return &AppError{Kind: kind, Message: msg, Cause: cause}
}

func NotFound(msg string) error         { return New(KindNotFound, msg) }
func Forbidden(msg string) error        { return New(KindForbidden, msg) }
func InvalidOperation(msg string) error { return New(KindInvalidOperation, msg) }
func Unauthenticated(msg string) error  { return New(KindUnauthenticated, msg) }
func Conflict(msg string) error         { return New(KindConflict, msg) }

// Store wraps an unclassified persistence error. The cause is kept for logs
// only and never rendered to clients.
func Store(cause error) error {
	return Wrap(KindStoreFailure, "internal error", cause)
}

// KindOf returns the Kind of the first AppError in err's chain.
func KindOf(err error) (Kind, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

var (
	ErrUserNotFound       = NotFound("user not found")
	ErrTargetNotFound     = NotFound("target user not found")
	ErrMatchNotFound      = NotFound("match not found")
	ErrSelfLike           = InvalidOperation("cannot like yourself")
	ErrNotParticipant     = Forbidden("not a participant of this match")
	ErrNotProfileOwner    = Forbidden("cannot modify another user's profile")
	ErrEmailTaken         = Conflict("email is already registered")
	ErrInvalidCredentials = Unauthenticated("invalid email or password")
)
