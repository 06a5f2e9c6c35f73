// Package apperr carries the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeForbidden    Code = "forbidden"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func Validation(msg string) *Error   { return New(CodeValidation, msg) }
func NotFound(msg string) *Error     { return New(CodeNotFound, msg) }
func Forbidden(msg string) *Error    { return New(CodeForbidden, msg) }
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }
func Conflict(msg string) *Error     { return New(CodeConflict, msg) }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// ToFiber converts a service error into the *fiber.Error rendered by the app's
// ErrorHandler. Errors without a code become a generic 500.
func ToFiber(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	var e *Error
	if !errors.As(err, &e) {
		log.Printf("[ERROR] %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	switch e.Code {
	case CodeValidation:
		return fiber.NewError(fiber.StatusBadRequest, e.Message)
	case CodeNotFound:
		return fiber.NewError(fiber.StatusNotFound, e.Message)
	case CodeForbidden:
		return fiber.NewError(fiber.StatusForbidden, e.Message)
	case CodeUnauthorized:
		return fiber.NewError(fiber.StatusUnauthorized, e.Message)
	case CodeConflict:
		return fiber.NewError(fiber.StatusConflict, e.Message)
	default:
		log.Printf("[ERROR] %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}
