package intake

import (
	"errors"
	"fmt"
)

// ErrorType represents the categories of intake failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeSlotLimitExceeded
	ErrorTypeFileTooLarge
	ErrorTypeDuplicateName
	ErrorTypeUnsupportedType
	ErrorTypeDecodeFailure
	ErrorTypeInvalidPasswordReported
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeSlotLimitExceeded:
		return "SLOT_LIMIT_EXCEEDED"
	case ErrorTypeFileTooLarge:
		return "FILE_TOO_LARGE"
	case ErrorTypeDuplicateName:
		return "DUPLICATE_NAME"
	case ErrorTypeUnsupportedType:
		return "UNSUPPORTED_TYPE"
	case ErrorTypeDecodeFailure:
		return "DECODE_FAILURE"
	case ErrorTypeInvalidPasswordReported:
		return "INVALID_PASSWORD_REPORTED"
	default:
		return "UNKNOWN"
	}
}

// IsValidation reports whether the type is one of the four synchronous batch checks
func (et ErrorType) IsValidation() bool {
	switch et {
	case ErrorTypeSlotLimitExceeded, ErrorTypeFileTooLarge, ErrorTypeDuplicateName, ErrorTypeUnsupportedType:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether the user can recover by acting on the form.
// Every intake error is recoverable; the engine itself never enters a fatal state.
func (et ErrorType) IsRecoverable() bool {
	return et != ErrorTypeUnknown
}

// Sentinels usable with errors.Is against any *Error of the same type.
var (
	ErrSlotLimitExceeded       = &Error{Type: ErrorTypeSlotLimitExceeded}
	ErrFileTooLarge            = &Error{Type: ErrorTypeFileTooLarge}
	ErrDuplicateName           = &Error{Type: ErrorTypeDuplicateName}
	ErrUnsupportedType         = &Error{Type: ErrorTypeUnsupportedType}
	ErrDecodeFailure           = &Error{Type: ErrorTypeDecodeFailure}
	ErrInvalidPasswordReported = &Error{Type: ErrorTypeInvalidPasswordReported}
)

var (
	// ErrBatchSuperseded is reported for files still in flight when the requirement changed.
	ErrBatchSuperseded = errors.New("batch superseded by requirement change")
	// ErrUnknownSlot is returned when an operation names a slot that does not exist.
	ErrUnknownSlot = errors.New("no slot with that name")
	// ErrControllerStopped is returned by operations posted after Stop.
	ErrControllerStopped = errors.New("intake controller stopped")
)

// Error is an intake failure carrying the human-readable message shown to the user
type Error struct {
	Type     ErrorType
	Message  string
	FileName string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Type, so the sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// NewError creates a new Error with the user-facing message
func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// WrapDecodeFailure wraps a read, decode or encode error for the named file
func WrapDecodeFailure(fileName string, err error) *Error {
	return &Error{
		Type:     ErrorTypeDecodeFailure,
		Message:  fmt.Sprintf("Unable to process %q. Please try a different file.", fileName),
		FileName: fileName,
		Err:      err,
	}
}

// WithFile adds file name information to an existing Error
func (e *Error) WithFile(fileName string) *Error {
	e.FileName = fileName
	return e
}

// UserMessage returns the text a presentation layer should show, without the type tag
func UserMessage(err error) string {
	var ie *Error
	if errors.As(err, &ie) && ie.Message != "" {
		return ie.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
