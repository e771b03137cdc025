// Package errors provides the structured error type shared by every stage of
// the scaffold pipeline. Stage failures carry the stage name so callers can
// report where a run aborted.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the module.
// It supports errors.Is / errors.As through Unwrap.
type AppError struct {
	// Code is the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context such as file names or values.
	Detail string

	// Stage names the pipeline stage that failed (analyze, generate, mesh...).
	Stage string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
// Format: "[<code>] <stage>: <message>: <detail>: <cause>", empty parts omitted.
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] ", e.Code)
	if e.Stage != "" {
		msg += e.Stage + ": "
	}
	msg += e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy of the receiver with Detail set.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithStage returns a copy of the receiver tagged with the failing stage.
func (e *AppError) WithStage(stage string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Stage = stage
	return &clone
}

// New constructs a fresh AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError around err. A nil err yields nil.
// When code is CodeUnknown and err is already an AppError its code is kept.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// StageFailed wraps err as a failure of the named stage. An AppError cause
// keeps its own code so invalid input still reads as invalid input.
func StageFailed(stage string, err error) *AppError {
	if err == nil {
		return nil
	}
	code := CodeStageFailed
	var ae *AppError
	if errors.As(err, &ae) {
		code = ae.Code
	}
	return &AppError{Code: code, Message: "stage failed", Stage: stage, Cause: err}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return New(CodeInvalidParam, message)
}

// Internal constructs a CodeInternal AppError.
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// IsCode reports whether any error in err's chain is an AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the code of the first AppError in err's chain.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// GetStage returns the first non-empty stage in err's chain.
func GetStage(err error) string {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			if ae.Stage != "" {
				return ae.Stage
			}
			err = ae.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Is is errors.Is re-exported so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is errors.As re-exported.
func As(err error, target interface{}) bool { return errors.As(err, target) }
