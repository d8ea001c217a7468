// Package domainerrors provides code-carrying errors for the registry domain.
//
// Services create these at the boundary where a business rule fails; the HTTP
// layer translates codes into the fixed numeric taxonomy expected by callers.
// Stores do not use this package directly - they return sentinel errors which
// services wrap with the appropriate code.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure with a stable external meaning.
type Code string

const (
	// CodeNotAuthorized: caller is not the record's owner, or not admin for
	// admin-only operations.
	CodeNotAuthorized Code = "not_authorized"
	// CodeNotFound: the record id is unknown to the registry.
	CodeNotFound Code = "not_found"
	// CodeInvalidParams: altitude/coordinate range violation or malformed
	// metadata/content hash.
	CodeInvalidParams Code = "invalid_params"
	// CodeMetadataFrozen: mutation attempted after the one-way freeze.
	CodeMetadataFrozen Code = "metadata_frozen"
	// CodeListFull: the destination owner index is at capacity.
	CodeListFull Code = "list_full"
	// CodeAlreadyValidated: duplicate attestation by the same validator.
	CodeAlreadyValidated Code = "already_validated"
	// CodeBadRequest: transport-level input the handler could not parse.
	CodeBadRequest Code = "bad_request"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// DomainError pairs a stable code with a human-readable message and an
// optional wrapped cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code onto the registry's fixed numeric taxonomy.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotAuthorized:
		return http.StatusUnauthorized
	case CodeMetadataFrozen:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidParams, CodeBadRequest:
		return http.StatusBadRequest
	case CodeAlreadyValidated:
		return http.StatusConflict
	case CodeListFull:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
