package inventory

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeDuplicateName     Code = "DUPLICATE_NAME"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeOutOfBounds       Code = "OUT_OF_BOUNDS"
	CodeHasActiveLoan     Code = "HAS_ACTIVE_LOAN"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInternal          Code = "INTERNAL"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Is matches by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrDuplicateName     = &Error{Code: CodeDuplicateName}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrInvalidQuantity   = &Error{Code: CodeInvalidQuantity}
	ErrInsufficientStock = &Error{Code: CodeInsufficientStock}
	ErrOutOfBounds       = &Error{Code: CodeOutOfBounds}
	ErrHasActiveLoan     = &Error{Code: CodeHasActiveLoan}
	ErrInvalidArgument   = &Error{Code: CodeInvalidArgument}
)

func errDuplicateName(format string, a ...any) *Error {
	return &Error{Code: CodeDuplicateName, Message: fmt.Sprintf(format, a...)}
}

func errNotFound(format string, a ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, a...)}
}

func errInvalidQuantity(format string, a ...any) *Error {
	return &Error{Code: CodeInvalidQuantity, Message: fmt.Sprintf(format, a...)}
}

func errInsufficientStock(format string, a ...any) *Error {
	return &Error{Code: CodeInsufficientStock, Message: fmt.Sprintf(format, a...)}
}

func errOutOfBounds(format string, a ...any) *Error {
	return &Error{Code: CodeOutOfBounds, Message: fmt.Sprintf(format, a...)}
}

func errHasActiveLoan(format string, a ...any) *Error {
	return &Error{Code: CodeHasActiveLoan, Message: fmt.Sprintf(format, a...)}
}

func errInvalidArgument(format string, a ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, a...)}
}

// CodeOf returns the kind carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidQuantity, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateName, CodeHasActiveLoan:
		return http.StatusConflict
	case CodeInsufficientStock, CodeOutOfBounds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
