package helpers

import (
	"errors"
	"fmt"

	"telemetry-viewer/src/logger"
)

// -----------------------------------------------------------------------------
// Sentinel errors
// -----------------------------------------------------------------------------

var (
	ErrInvalidTransition = errors.New("operation not valid in current state")
	ErrNotConnected      = errors.New("no live connection")
	ErrDisconnected      = errors.New("session disconnected")
	ErrTopicMismatch     = errors.New("already subscribed to another topic")
	ErrInvalidTopic      = errors.New("topic cannot be empty")
	ErrGainOutOfRange    = errors.New("gain out of range")
	ErrInvalidViewMode   = errors.New("unknown view mode")
	ErrOperationPending  = errors.New("another transport operation is pending")
	ErrConnectAborted    = errors.New("connect aborted by disconnect")
	ErrSessionClosed     = errors.New("session is not running")
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ViewerError struct {
	Op      string
	Message string
	Cause   error
}

func (e *ViewerError) Error() string {
	prefix := e.Message
	if e.Op != "" {
		prefix = e.Op + ": " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Cause)
	}
	return prefix
}

func (e *ViewerError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ ViewerError }
type PresignError struct{ ViewerError }
type TransportError struct{ ViewerError }
type SubscriptionError struct{ ViewerError }
type DecodeError struct{ ViewerError }
type StorageError struct{ ViewerError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{ViewerError{Op: "config", Message: message, Cause: cause}}
}

func NewPresignError(message string, cause error) *PresignError {
	return &PresignError{ViewerError{Op: "presign", Message: message, Cause: cause}}
}

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{ViewerError{Op: "transport", Message: message, Cause: cause}}
}

func NewSubscriptionError(message string, cause error) *SubscriptionError {
	return &SubscriptionError{ViewerError{Op: "subscription", Message: message, Cause: cause}}
}

func NewDecodeError(message string, cause error) *DecodeError {
	return &DecodeError{ViewerError{Op: "decode", Message: message, Cause: cause}}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{ViewerError{Op: "storage", Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// Kind names the error family of err for logs, metrics and API responses.
func Kind(err error) string {
	var (
		presignErr *PresignError
		transErr   *TransportError
		subErr     *SubscriptionError
		decodeErr  *DecodeError
		cfgErr     *ConfigurationError
		storeErr   *StorageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &presignErr):
		return "presign"
	case errors.As(err, &transErr):
		return "transport"
	case errors.As(err, &subErr):
		return "subscription"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &storeErr):
		return "storage"
	case errors.Is(err, ErrGainOutOfRange), errors.Is(err, ErrInvalidViewMode), errors.Is(err, ErrInvalidTopic):
		return "invalid_argument"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrTopicMismatch),
		errors.Is(err, ErrNotConnected), errors.Is(err, ErrOperationPending):
		return "invalid_state"
	case errors.Is(err, ErrDisconnected), errors.Is(err, ErrConnectAborted), errors.Is(err, ErrSessionClosed):
		return "aborted"
	default:
		return "internal"
	}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// Handle logs err with its family and context. Surfaced errors end the
// current operation only; nothing here retries.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.ErrorCount++
	e.Logger.Error("Error in %s [%s]: %v", context, Kind(err), err)
}
