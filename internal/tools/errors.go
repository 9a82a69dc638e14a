package tools

import (
	"errors"
	"fmt"
)

// UnknownToolError is returned when a tool name has no registered contract.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

// DuplicateToolError indicates a registry misconfiguration: two contracts
// were registered under the same name. This only happens at startup.
type DuplicateToolError struct {
	Tool string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Tool)
}

// MissingParameterError is returned when a required parameter is absent.
type MissingParameterError struct {
	Tool  string
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("tool %q: missing required parameter %q", e.Tool, e.Param)
}

// TypeMismatchError is returned when a parameter value cannot be coerced
// to its declared type.
type TypeMismatchError struct {
	Tool     string
	Param    string
	Expected ParamType
	Received string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("tool %q: parameter %q expects %s, got %s", e.Tool, e.Param, e.Expected, e.Received)
}

// ConstraintViolationError is returned when a value coerces to the declared
// type but fails the parameter's validation predicate.
type ConstraintViolationError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("tool %q: parameter %q: %s", e.Tool, e.Param, e.Reason)
}

// UnexpectedParameterError is returned in strict mode when the caller passes
// a parameter the contract does not declare. Rejecting instead of dropping
// catches typos in automation scripts before they silently change behavior.
type UnexpectedParameterError struct {
	Tool  string
	Param string
}

func (e *UnexpectedParameterError) Error() string {
	return fmt.Sprintf("tool %q: unexpected parameter %q", e.Tool, e.Param)
}

// UnregisteredHandlerError indicates a contract exists without a bound
// handler. This is a wiring bug and is checked at startup, not per request.
type UnregisteredHandlerError struct {
	Tool string
}

func (e *UnregisteredHandlerError) Error() string {
	return fmt.Sprintf("tool %q has a contract but no handler", e.Tool)
}

// ErrorKind maps a validation-phase error to a stable machine-readable kind
// string for result envelopes and transport status mapping.
func ErrorKind(err error) string {
	var (
		unknown    *UnknownToolError
		duplicate  *DuplicateToolError
		missing    *MissingParameterError
		mismatch   *TypeMismatchError
		constraint *ConstraintViolationError
		unexpected *UnexpectedParameterError
		unbound    *UnregisteredHandlerError
	)
	switch {
	case errors.As(err, &unknown):
		return "unknown_tool"
	case errors.As(err, &duplicate):
		return "duplicate_tool"
	case errors.As(err, &missing):
		return "missing_parameter"
	case errors.As(err, &mismatch):
		return "type_mismatch"
	case errors.As(err, &constraint):
		return "constraint_violation"
	case errors.As(err, &unexpected):
		return "unexpected_parameter"
	case errors.As(err, &unbound):
		return "unregistered_handler"
	default:
		return "execution_error"
	}
}

// IsValidationError reports whether err belongs to the validation-phase
// taxonomy (recoverable by the caller correcting input).
func IsValidationError(err error) bool {
	switch ErrorKind(err) {
	case "unknown_tool", "missing_parameter", "type_mismatch",
		"constraint_violation", "unexpected_parameter":
		return true
	}
	return false
}
