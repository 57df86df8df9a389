package session

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrClientNotReady is returned when a Manager is constructed from a Client
// whose Initialize has not completed.
var ErrClientNotReady = errors.New("client not ready: call Initialize before building a session manager")

// ErrManagerClosed is returned when Start is called on a closed Manager
var ErrManagerClosed = errors.New("session manager is closed")

// ErrInvalidPhaseTransition is returned when a requested phase change is not
// in the transition table.
var ErrInvalidPhaseTransition = goerrors.New("invalid session phase transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_SESSION_PHASE_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the error identity services should return for a
// failed email/password verification. Kept generic so callers cannot tell a
// missing account from a bad password.
var ErrInvalidCredentials = goerrors.New("invalid password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrEmailTaken is returned by sign-up when the email is already registered
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN").
	WithCode(goerrors.CodeConflict)
