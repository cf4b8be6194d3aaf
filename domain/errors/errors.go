// Package errors provides the bridge's error taxonomy. All types support
// unwrapping via errors.As() and errors.Is() and convert to the structured
// ErrorDetail used on the wire.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/scarter4work/bayesianastro/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail, recognizing
// the bridge's own error types.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// InitializationError represents a failure to bring the foreign runtime up.
// It is recoverable: the host reports it and retries lazily on the next
// invocation attempt.
type InitializationError struct {
	Err   error
	Stage string // "locate", "manifest", "read", "load"
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("runtime initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *InitializationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "initialization", Code: e.Stage}
}

// PreconditionError represents a "cannot execute" condition detected before
// any foreign call is attempted.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "cannot execute: " + e.Reason
}

// ToErrorDetail implements DetailedError.
func (e *PreconditionError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "precondition"}
}

// ForeignError represents an error raised on the guest side during an
// invocation. It is captured at the boundary; the module instance remains
// usable afterwards.
type ForeignError struct {
	Detail *entities.ErrorDetail
	Entry  string // exported entry point that faulted
}

func (e *ForeignError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("foreign call %s failed: %s", e.Entry, e.Detail.Message)
	}
	return fmt.Sprintf("foreign call %s failed", e.Entry)
}

// ToErrorDetail implements DetailedError.
func (e *ForeignError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "foreign", Code: e.Entry, Wrapped: e.Detail}
}

// MarshalError represents input that cannot be safely encoded for the
// foreign evaluator. It is rejected locally, before the foreign layer.
type MarshalError struct {
	Field  string
	Reason string
}

func (e *MarshalError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot marshal %s: %s", e.Field, e.Reason)
	}
	return "cannot marshal: " + e.Reason
}

// ToErrorDetail implements DetailedError.
func (e *MarshalError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "marshal", Code: e.Field}
}
