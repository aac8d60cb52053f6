package server

import (
	"errors"
	"fmt"

	"github.com/kinet-dev/kinet/pkg/protocol"
)

// Sentinel errors for session and transport failures.
var (
	// ErrSessionClosed is returned when operating on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrHandlerNotFound is returned when an event targets an HID and
	// event name with no registered handler.
	ErrHandlerNotFound = errors.New("server: handler not found")

	// ErrEventQueueFull is returned when the session's event queue is at
	// capacity.
	ErrEventQueueFull = errors.New("server: event queue full")

	// ErrMaxSessionsReached is returned when the manager is at capacity.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrInvalidHandshake is returned when connection setup fails.
	ErrInvalidHandshake = errors.New("server: invalid handshake")

	// ErrSessionExpired is returned when resuming a session whose resume
	// window has passed.
	ErrSessionExpired = errors.New("server: session expired")

	// ErrNoConnection is returned when sending on a detached session.
	ErrNoConnection = errors.New("server: no connection")

	// ErrFactoryNotFound is returned when dynamic mounting cannot resolve
	// a component factory for a descriptor.
	ErrFactoryNotFound = errors.New("server: component factory not found")

	// ErrElementNotAttached is returned when element operations run before
	// the runtime has attached the root element handle.
	ErrElementNotAttached = errors.New("server: element not attached")
)

// SessionError wraps an error with session context.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{SessionID: sessionID, Op: op, Err: err}
}

// ResolutionError reports a failed factory resolution during dynamic
// mounting. It carries the descriptor that failed so callers can surface it;
// no mount state is mutated before it is returned.
type ResolutionError struct {
	Descriptor string
	Err        error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("server: cannot resolve component %q: %v", e.Descriptor, e.Err)
}

// Unwrap returns the underlying error, usually ErrFactoryNotFound.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError creates a ResolutionError wrapping ErrFactoryNotFound.
func NewResolutionError(descriptor string) *ResolutionError {
	return &ResolutionError{Descriptor: descriptor, Err: ErrFactoryNotFound}
}

// HandlerError captures a panic inside an event handler.
type HandlerError struct {
	SessionID string
	HID       string
	EventName string
	Panic     any
	Stack     []byte
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("server: handler panic in session %s (hid=%s event=%s): %v",
		e.SessionID, e.HID, e.EventName, e.Panic)
}

// NewHandlerError creates a HandlerError.
func NewHandlerError(sessionID, hid, eventName string, panicValue any, stack []byte) *HandlerError {
	return &HandlerError{
		SessionID: sessionID,
		HID:       hid,
		EventName: eventName,
		Panic:     panicValue,
		Stack:     stack,
	}
}

// ProtocolError reports a malformed or unexpected wire message.
type ProtocolError struct {
	SessionID string
	Op        string
	Message   string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server: protocol error in session %s (%s): %s", e.SessionID, e.Op, e.Message)
}

// errorCodeFor maps an internal error to the wire code reported to the
// client.
func errorCodeFor(err error) protocol.ErrorCode {
	var handlerErr *HandlerError
	switch {
	case errors.Is(err, ErrHandlerNotFound):
		return protocol.ErrHandlerNotFound
	case errors.As(err, &handlerErr):
		return protocol.ErrHandlerPanic
	case errors.Is(err, ErrSessionExpired):
		return protocol.ErrSessionExpired
	case errors.Is(err, ErrEventQueueFull):
		return protocol.ErrRateLimited
	default:
		return protocol.ErrServerError
	}
}
