/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errors provides the structured error type used at every stage
// boundary of the drift pipeline. A bare error crossing a stage handler
// boundary cannot be classified as transient/permanent/non-applicable
//, so every error that can reach the state machine is
// wrapped into an AppError with a Type and an optional pipeline-specific
// Code (e.g. EXTRACTED_SCHEMA_VIOLATION, GITHUB_RATE_LIMIT).
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError for HTTP mapping and safe-message lookup.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypePolicy     ErrorType = "policy"
	ErrorTypeInternal   ErrorType = "internal"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation: http.StatusBadRequest,
	ErrorTypeAuth:       http.StatusUnauthorized,
	ErrorTypeNotFound:   http.StatusNotFound,
	ErrorTypeConflict:   http.StatusConflict,
	ErrorTypeTimeout:    http.StatusRequestTimeout,
	ErrorTypeRateLimit:  http.StatusTooManyRequests,
	ErrorTypeDatabase:   http.StatusInternalServerError,
	ErrorTypeNetwork:    http.StatusInternalServerError,
	ErrorTypePolicy:     http.StatusUnprocessableEntity,
	ErrorTypeInternal:   http.StatusInternalServerError,
}

// AppError is the structured error carried across stage-handler boundaries.
type AppError struct {
	Type       ErrorType
	Code       string // pipeline-specific code, e.g. EXTRACTED_SCHEMA_VIOLATION
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

func New(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: statusByType[t],
	}
}

func NewWithCode(t ErrorType, code, message string) *AppError {
	err := New(t, message)
	err.Code = code
	return err
}

func Wrap(cause error, t ErrorType, message string) *AppError {
	err := New(t, message)
	err.Cause = cause
	return err
}

func Wrapf(cause error, t ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// Predefined constructors mirroring the common pipeline failure shapes.

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewDatabaseError(op string, cause error) *AppError {
	return Wrapf(cause, ErrorTypeDatabase, "database operation failed: %s", op)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, resource+" not found")
}

func NewAuthError(message string) *AppError {
	return New(ErrorTypeAuth, message)
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, "operation timed out: "+operation)
}

func NewPolicyError(code, message string) *AppError {
	return NewWithCode(ErrorTypePolicy, code, message)
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	ae, ok := err.(*AppError)
	return ok && ae.Type == t
}

// GetType returns the AppError's type, or ErrorTypeInternal for any other error.
func GetType(err error) ErrorType {
	if ae, ok := err.(*AppError); ok {
		return ae.Type
	}
	return ErrorTypeInternal
}

// GetCode returns the AppError's pipeline-specific code, or "" for any other error.
func GetCode(err error) string {
	if ae, ok := err.(*AppError); ok {
		return ae.Code
	}
	return ""
}

func GetStatusCode(err error) int {
	if ae, ok := err.(*AppError); ok {
		return ae.StatusCode
	}
	return http.StatusInternalServerError
}

// ErrorMessages holds the generic, operator-safe messages used when an
// AppError's raw Message must not reach an external channel (Slack, a
// webhook response) verbatim.
var ErrorMessages = struct {
	ResourceNotFound       string
	AuthenticationFailed   string
	OperationTimeout       string
	RateLimitExceeded      string
	ConcurrentModification string
}{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Rate limit exceeded, please try again later",
	ConcurrentModification: "The resource was modified concurrently, please retry",
}

// SafeErrorMessage returns a message safe to surface to a human without
// leaking internal details (stack traces, DSNs, credentials).
func SafeErrorMessage(err error) string {
	ae, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch ae.Type {
	case ErrorTypeValidation:
		return ae.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimit:
		return ErrorMessages.RateLimitExceeded
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	default:
		return "An internal error occurred"
	}
}

// IsRetryable reports whether the pipeline's failure classifier should treat
// this error as transient and retry with backoff, as opposed to terminating
// the candidate immediately.
func IsRetryable(err error) bool {
	ae, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch ae.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeConflict:
		return true
	default:
		return false
	}
}
