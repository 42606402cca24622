// Package errs defines the orchestrator's error taxonomy.
//
// Boundaries of the core (SafeExecute, Spawn, workflow Run) never return
// these; they flatten them into result values. The codes exist so internal
// helpers and Go-level APIs (builders, stores, config) can classify failures.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code string

const (
	CodeUnknown                 Code = "UNKNOWN"
	CodeValidation              Code = "VALIDATION"
	CodeExecution               Code = "EXECUTION"
	CodeUnavailableCollaborator Code = "UNAVAILABLE_COLLABORATOR"
	CodeDependencyNotMet        Code = "DEPENDENCY_NOT_MET"
	CodeUnimplementedContract   Code = "UNIMPLEMENTED_CONTRACT"
	CodeDuplicateTool           Code = "DUPLICATE_TOOL"
	CodeNotFound                Code = "NOT_FOUND"
	CodeMissingCallbackTarget   Code = "MISSING_CALLBACK_TARGET"
)

// Error is the module's coded error type.
type Error struct {
	code    Code
	message string
	cause   error
}

// New returns an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to cause. A nil cause returns nil.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message + ": " + e.cause.Error()
}

// Code returns the error's classification.
func (e *Error) Code() Code { return e.code }

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error with the same code, so coded sentinels work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code && (t.message == "" || t.message == e.message)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// Sentinels for errors.Is checks against a whole class.
var (
	ErrValidation              = &Error{code: CodeValidation}
	ErrExecution               = &Error{code: CodeExecution}
	ErrUnavailableCollaborator = &Error{code: CodeUnavailableCollaborator}
	ErrDependencyNotMet        = &Error{code: CodeDependencyNotMet}
	ErrUnimplementedContract   = &Error{code: CodeUnimplementedContract}
	ErrDuplicateTool           = &Error{code: CodeDuplicateTool}
	ErrNotFound                = &Error{code: CodeNotFound}
	ErrMissingCallbackTarget   = &Error{code: CodeMissingCallbackTarget}
)
