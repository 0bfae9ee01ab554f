// Package apperrors defines the error taxonomy shared by all services.
//
// Every business outcome that is not a success is an *AppError carrying a
// machine-readable code. StateError additionally carries a Flag that clients
// branch on (for example "blocked" or "requestPending").
package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeAuthorization Code = "AUTHORIZATION"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeState         Code = "STATE"
	CodeUpstream      Code = "UPSTREAM"
)

// State flags carried by StateError.
const (
	FlagBlocked         = "blocked"
	FlagInactive        = "inactive"
	FlagRequestPending  = "requestPending"
	FlagRequestRejected = "requestRejected"
)

type AppError struct {
	Code    Code   `json:"code"`
	Flag    string `json:"flag,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Validation(msg string) error {
	return New(CodeValidation, msg)
}

func Authorization(msg string) error {
	return New(CodeAuthorization, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Conflict(msg string) error {
	return New(CodeConflict, msg)
}

// State returns a StateError with a machine-readable flag.
func State(flag, msg string) error {
	return &AppError{Code: CodeState, Flag: flag, Message: msg}
}

func Upstream(msg string, cause error) error {
	return &AppError{Code: CodeUpstream, Message: msg, Cause: cause}
}

// CodeOf extracts the taxonomy code from err. Unknown errors yield the
// empty code and are treated as internal failures.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// FlagOf returns the state flag carried by err, if any.
func FlagOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Flag
	}
	return ""
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func IsState(err error, flag string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == CodeState && ae.Flag == flag
}
