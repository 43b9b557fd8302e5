package errors

import (
	"errors"
	"fmt"
)

// ParseError represents a loader-config parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration problems the user can fix: a missing
// boot target, an unresolvable ESP, a loader that fails classification.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing a named action.
type ExecutionError struct {
	Action string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(action string, err error) error {
	return &ExecutionError{Action: action, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("execution error on action %s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrivilegeError indicates the process lacks administrative rights or that a
// delegated elevated run did not succeed.
type PrivilegeError struct {
	Message string
	Err     error
}

// NewPrivilegeError constructs a PrivilegeError.
func NewPrivilegeError(message string, err error) error {
	return &PrivilegeError{Message: message, Err: err}
}

func (e *PrivilegeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("privilege error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("privilege error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PrivilegeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveryError marks the most severe failure tier: the boot chain may be
// broken and the user must prepare external recovery media. It is never
// produced unless an automatic rollback already failed.
type RecoveryError struct {
	Message string
	Err     error
}

// NewRecoveryError constructs a RecoveryError.
func NewRecoveryError(message string, err error) error {
	return &RecoveryError{Message: message, Err: err}
}

func (e *RecoveryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("recovery required: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("recovery required: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RecoveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrCancelled signals an intentional early exit chosen by the user. It is
// control flow, not a failure, and maps to exit code 0.
var ErrCancelled = errors.New("cancelled by user")

// IsCancel reports whether err represents a user cancellation.
func IsCancel(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// ExitCode maps an error returned from the top-level runner to the process
// exit status: success and user cancellation exit 0, everything else 1.
func ExitCode(err error) int {
	if err == nil || IsCancel(err) {
		return 0
	}
	return 1
}
