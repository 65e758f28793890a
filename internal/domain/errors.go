package domain

import "errors"

type ErrorKind string

const (
	ErrInvalidEmailFormat  ErrorKind = "invalid_email_format"
	ErrUnrecognizedDomain  ErrorKind = "unrecognized_domain"
	ErrProfileFieldMissing ErrorKind = "profile_field_missing"
	ErrDocumentRejected    ErrorKind = "document_rejected"
	ErrSubmissionEmpty     ErrorKind = "submission_empty"
	ErrRegistryUnavailable ErrorKind = "registry_unavailable"
	ErrInvalidTransition   ErrorKind = "invalid_transition"
	ErrSubmitInFlight      ErrorKind = "submit_in_flight"
	ErrSessionNotFound     ErrorKind = "session_not_found"
)

// WorkflowError is how every recoverable failure in the verification
// workflow reaches the caller: a kind from the taxonomy above, an optional
// field it is scoped to, and a user-facing message. Nothing here is fatal.
type WorkflowError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Cause   error
}

func (e *WorkflowError) Error() string {
	if e.Field != "" {
		return string(e.Kind) + ": " + e.Field + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

func NewWorkflowError(kind ErrorKind, field, message string) *WorkflowError {
	return &WorkflowError{Kind: kind, Field: field, Message: message}
}

// KindOf extracts the error kind, or empty string for non-workflow errors.
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
