package domain

import "fmt"

// Error types for consistent error handling across the funnel service.
// Boundary errors are converted to one of these at the component edge —
// nothing else is allowed to leak into the conversation loop.

// ErrValidation indicates bad input (email, phone, unknown action).
// Always raised before any I/O happens.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call
// (chat provider, lead datastore, email).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrBusy indicates a conversation already has a request in flight.
// The widget must wait for the previous turn to settle.
type ErrBusy struct {
	SessionID string
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("session %s already has a message in flight", e.SessionID)
}

// ErrInvalidAction indicates a quick-reply action that is not on the
// current stage's allow-list.
type ErrInvalidAction struct {
	Stage  Stage
	Action Action
}

func (e *ErrInvalidAction) Error() string {
	return fmt.Sprintf("action %q is not valid in stage %s", e.Action, e.Stage)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
