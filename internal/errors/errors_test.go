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

package errors

import (
	"errors"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestErrors(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Structured Errors Suite")
}

var _ = Describe("AppError", func() {
	Context("basic error creation", func() {
		It("should create error with correct properties", func() {
			err := New(ErrorTypeValidation, "test message")

			Expect(err.Type).To(Equal(ErrorTypeValidation))
			Expect(err.Message).To(Equal("test message"))
			Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(err.Details).To(BeEmpty())
			Expect(err.Cause).To(BeNil())
		})

		It("should implement error interface correctly", func() {
			err := New(ErrorTypeValidation, "test message")
			Expect(err.Error()).To(Equal("validation: test message"))
		})

		It("should include details in error string when present", func() {
			err := New(ErrorTypeValidation, "test message").WithDetails("extra info")
			Expect(err.Error()).To(Equal("validation: test message (extra info)"))
		})

		It("should attach a pipeline-specific code", func() {
			err := NewWithCode(ErrorTypeValidation, "EXTRACTED_SCHEMA_VIOLATION", "missing field")
			Expect(err.Code).To(Equal("EXTRACTED_SCHEMA_VIOLATION"))
		})
	})

	Context("error wrapping", func() {
		It("should wrap underlying error", func() {
			originalErr := errors.New("original error")
			wrappedErr := Wrap(originalErr, ErrorTypeDatabase, "operation failed")

			Expect(wrappedErr.Type).To(Equal(ErrorTypeDatabase))
			Expect(wrappedErr.Message).To(Equal("operation failed"))
			Expect(wrappedErr.Cause).To(Equal(originalErr))
			Expect(wrappedErr.Unwrap()).To(Equal(originalErr))
		})

		It("should format wrapped error with arguments", func() {
			originalErr := errors.New("connection refused")
			wrappedErr := Wrapf(originalErr, ErrorTypeNetwork, "failed to connect to %s:%d", "localhost", 5432)

			Expect(wrappedErr.Message).To(Equal("failed to connect to localhost:5432"))
			Expect(wrappedErr.Cause).To(Equal(originalErr))
		})
	})

	Describe("HTTP status code mapping", func() {
		It("should map error types to correct HTTP status codes", func() {
			testCases := []struct {
				errorType  ErrorType
				statusCode int
			}{
				{ErrorTypeValidation, http.StatusBadRequest},
				{ErrorTypeAuth, http.StatusUnauthorized},
				{ErrorTypeNotFound, http.StatusNotFound},
				{ErrorTypeConflict, http.StatusConflict},
				{ErrorTypeTimeout, http.StatusRequestTimeout},
				{ErrorTypeRateLimit, http.StatusTooManyRequests},
				{ErrorTypeDatabase, http.StatusInternalServerError},
				{ErrorTypeNetwork, http.StatusInternalServerError},
				{ErrorTypePolicy, http.StatusUnprocessableEntity},
				{ErrorTypeInternal, http.StatusInternalServerError},
			}

			for _, tc := range testCases {
				err := New(tc.errorType, "test message")
				Expect(err.StatusCode).To(Equal(tc.statusCode))
			}
		})
	})

	Describe("predefined constructors", func() {
		It("should create a database error with op context", func() {
			originalErr := errors.New("connection lost")
			err := NewDatabaseError("query", originalErr)

			Expect(err.Type).To(Equal(ErrorTypeDatabase))
			Expect(err.Message).To(ContainSubstring("database operation failed: query"))
			Expect(err.Cause).To(Equal(originalErr))
		})

		It("should create a not found error", func() {
			err := NewNotFoundError("workspace")
			Expect(err.Message).To(Equal("workspace not found"))
		})

		It("should create a policy error with its code", func() {
			err := NewPolicyError("PACK_MERGE_CONFLICT", "conflicting obligations")
			Expect(err.Type).To(Equal(ErrorTypePolicy))
			Expect(err.Code).To(Equal("PACK_MERGE_CONFLICT"))
		})
	})

	Describe("type checking", func() {
		It("should correctly identify error types", func() {
			validationErr := NewValidationError("test")
			authErr := NewAuthError("test")

			Expect(IsType(validationErr, ErrorTypeValidation)).To(BeTrue())
			Expect(IsType(validationErr, ErrorTypeAuth)).To(BeFalse())
			Expect(IsType(authErr, ErrorTypeAuth)).To(BeTrue())
		})

		It("should handle non-AppError types", func() {
			regularErr := errors.New("regular error")
			Expect(IsType(regularErr, ErrorTypeValidation)).To(BeFalse())
			Expect(GetType(regularErr)).To(Equal(ErrorTypeInternal))
			Expect(GetCode(regularErr)).To(Equal(""))
		})
	})

	Describe("safe error messages", func() {
		It("should pass validation messages through but genericize everything else", func() {
			Expect(SafeErrorMessage(NewValidationError("bad field"))).To(Equal("bad field"))
			Expect(SafeErrorMessage(New(ErrorTypeDatabase, "leaked dsn"))).To(Equal("An internal error occurred"))
			Expect(SafeErrorMessage(errors.New("panic: nil pointer"))).To(Equal("An unexpected error occurred"))
		})
	})

	Describe("IsRetryable", func() {
		It("classifies transient types as retryable and the rest as permanent", func() {
			Expect(IsRetryable(New(ErrorTypeTimeout, "x"))).To(BeTrue())
			Expect(IsRetryable(New(ErrorTypeRateLimit, "x"))).To(BeTrue())
			Expect(IsRetryable(New(ErrorTypeNetwork, "x"))).To(BeTrue())
			Expect(IsRetryable(New(ErrorTypeValidation, "x"))).To(BeFalse())
			Expect(IsRetryable(errors.New("plain"))).To(BeFalse())
		})
	})
})
