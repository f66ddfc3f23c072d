package service

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is the only error type that leaves the service layer. Msg is safe to
// show to clients unless Kind is KindInternal.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so wrapped internal errors still satisfy
// errors.Is(err, ErrInternal).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

var (
	ErrInvalidCredentials  = &Error{Kind: KindUnauthorized, Msg: "Invalid credentials"}
	ErrInvalidRefreshToken = &Error{Kind: KindUnauthorized, Msg: "Refresh Token is invalid"}
	ErrInvalidResetLink    = &Error{Kind: KindUnauthorized, Msg: "Invalid link"}
	ErrWrongCredentials    = &Error{Kind: KindUnauthorized, Msg: "Wrong credentials"}
	ErrTokenNotFound       = &Error{Kind: KindUnauthorized, Msg: "Token not found"}
	ErrInvalidToken        = &Error{Kind: KindUnauthorized, Msg: "Invalid token"}
	ErrForbidden           = &Error{Kind: KindForbidden, Msg: "Forbidden resource"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Msg: "User not found"}
	ErrUserExists          = &Error{Kind: KindConflict, Msg: "User already exists"}
	ErrEmailTaken          = &Error{Kind: KindConflict, Msg: "Email already registered"}
	ErrUsernameTaken       = &Error{Kind: KindConflict, Msg: "Username already taken"}
	ErrWeakPassword        = &Error{Kind: KindInvalid, Msg: "password does not meet policy requirements"}
	ErrInvalidRole         = &Error{Kind: KindInvalid, Msg: "Invalid role"}
	ErrInvalidInput        = &Error{Kind: KindInvalid, Msg: "Invalid input"}
	ErrInternal            = &Error{Kind: KindInternal, Msg: "Internal server error"}
)

// internal wraps a store or library failure so the raw driver error never
// reaches a caller as anything but KindInternal.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: ErrInternal.Msg, Err: err}
}

func invalid(base *Error, detail string) error {
	return &Error{Kind: base.Kind, Msg: fmt.Sprintf("%s: %s", base.Msg, detail), Err: base}
}

// KindOf reports the taxonomy kind of err. Foreign errors are internal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the message a transport may show to the caller.
func PublicMessage(err error) string {
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind == KindInternal {
		return ErrInternal.Msg
	}
	return svcErr.Msg
}
