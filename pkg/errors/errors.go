package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies application errors. Command errors are reported
// to the originating connection only and never terminate it.
type ErrorType string

const (
	ErrorTypeInvalidPayload     ErrorType = "invalid_payload"
	ErrorTypeNoActivePoll       ErrorType = "no_active_poll"
	ErrorTypeInvalidPoll        ErrorType = "invalid_poll"
	ErrorTypeInvalidOption      ErrorType = "invalid_option"
	ErrorTypeInvalidParticipant ErrorType = "invalid_participant"
	ErrorTypeAlreadyVoted       ErrorType = "already_voted"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError is a structured application error. StatusCode only matters
// on the synchronous query surface; the event channel reports Type and
// Message.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Internal   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewInvalidPayload reports a malformed command payload, rejected
// before any state mutation.
func NewInvalidPayload(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidPayload,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNoActivePoll reports a lifecycle command against an empty current
// slot or a stale poll id.
func NewNoActivePoll(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNoActivePoll,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInvalidPoll reports a vote referencing a poll that is not the
// current active one.
func NewInvalidPoll(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidPoll,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInvalidOption reports a vote for an option id the current poll
// does not have.
func NewInvalidOption(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidOption,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewInvalidParticipant reports an unresolvable kick target or a
// command from a removed participant.
func NewInvalidParticipant(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidParticipant,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewAlreadyVoted reports a repeat vote on the same poll from the same
// connection.
func NewAlreadyVoted(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyVoted,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// From converts any error into an AppError, wrapping unknown errors as
// internal.
func From(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError("unexpected error", err)
}
