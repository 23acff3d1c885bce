// Package apperr defines the coded errors returned by the game core.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable category of an error.
type Kind string

const (
	NotFound             Kind = "not_found"
	OutOfTurn            Kind = "out_of_turn"
	InvalidAction        Kind = "invalid_action"
	NoPendingAction      Kind = "no_pending_action"
	WrongResponder       Kind = "wrong_responder"
	InvalidCardSelection Kind = "invalid_card_selection"
	DeckEmpty            Kind = "deck_empty"
	WindowExpired        Kind = "window_expired"
	Unauthorized         Kind = "unauthorized"
	Internal             Kind = "internal"
)

// Sentinels usable with errors.Is; matching is by kind.
var (
	ErrNotFound             = New(NotFound, "not found")
	ErrOutOfTurn            = New(OutOfTurn, "not your turn")
	ErrInvalidAction        = New(InvalidAction, "invalid action")
	ErrNoPendingAction      = New(NoPendingAction, "no pending action to react to")
	ErrWrongResponder       = New(WrongResponder, "not your turn to act")
	ErrInvalidCardSelection = New(InvalidCardSelection, "invalid card selection")
	ErrDeckEmpty            = New(DeckEmpty, "deck is empty")
	ErrWindowExpired        = New(WindowExpired, "reaction window has closed")
	ErrUnauthorized         = New(Unauthorized, "login required")
)

// Error is a coded error. Message is safe to show to players.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or Internal when err is not coded.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the player-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a kind to the status code used by the HTTP layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case OutOfTurn, NoPendingAction, DeckEmpty:
		return http.StatusConflict
	case InvalidAction, InvalidCardSelection:
		return http.StatusBadRequest
	case WrongResponder:
		return http.StatusForbidden
	case WindowExpired:
		return http.StatusGone
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
