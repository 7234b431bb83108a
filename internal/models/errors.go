package models

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes domain errors.
type ErrorKind string

const (
	// KindValidation covers missing, short or mismatched fields.
	KindValidation ErrorKind = "validation"
	// KindConflict covers duplicate keys such as a taken email.
	KindConflict ErrorKind = "conflict"
	// KindAuth covers bad credentials.
	KindAuth ErrorKind = "auth"
	// KindNotFound covers stale ids and tokens.
	KindNotFound ErrorKind = "not_found"
	// KindUnauthenticated is returned by catalog operations without a session.
	KindUnauthenticated ErrorKind = "unauthenticated"
	// KindUnexpected is anything that is not a domain error (storage failures).
	KindUnexpected ErrorKind = "unexpected"
)

// Error is a user-correctable domain error. Message is safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrWeakPassword = &Error{
		Kind: KindValidation, Code: "WEAK_PASSWORD",
		Message: "Password must be at least 6 characters long.",
	}
	ErrPasswordMismatch = &Error{
		Kind: KindValidation, Code: "PASSWORD_MISMATCH",
		Message: "Passwords do not match.",
	}
	ErrMissingRequiredField = &Error{
		Kind: KindValidation, Code: "MISSING_REQUIRED_FIELD",
		Message: "Please fill in at least the title and the author.",
	}
	ErrEmailTaken = &Error{
		Kind: KindConflict, Code: "EMAIL_TAKEN",
		Message: "This email is already registered.",
	}
	// ErrInvalidCredentials does not say which field was wrong.
	ErrInvalidCredentials = &Error{
		Kind: KindAuth, Code: "INVALID_CREDENTIALS",
		Message: "Incorrect email or password.",
	}
	ErrBookNotFound = &Error{
		Kind: KindNotFound, Code: "BOOK_NOT_FOUND",
		Message: "Book not found.",
	}
	ErrNoPendingDelete = &Error{
		Kind: KindNotFound, Code: "NO_PENDING_DELETE",
		Message: "There is no pending deletion to confirm.",
	}
	ErrNotAuthenticated = &Error{
		Kind: KindUnauthenticated, Code: "NOT_AUTHENTICATED",
		Message: "Please log in to continue.",
	}
)

// KindOf classifies err. Wrapped domain errors are found with errors.As.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// UserMessage returns the message to show for err, or fallback when err is
// not a domain error.
func UserMessage(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
