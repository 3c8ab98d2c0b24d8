package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeCooldownActive Code = "COOLDOWN_ACTIVE"
	CodeEmptyCart      Code = "EMPTY_CART"
	CodeStateConflict  Code = "STATE_CONFLICT"
	CodeRateLimit      Code = "RATE_LIMITED"
	CodePersistence    Code = "PERSISTENCE_FAILURE"
	CodeDependency     Code = "DEPENDENCY_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Metadata describes how a code surfaces at the edges of the service.
// Expected codes are ordinary traffic and are not logged as anomalies.
type Metadata struct {
	HTTPStatus     int
	Expected       bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Expected:       true,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusForbidden,
		Expected:      true,
		PublicMessage: "not authorized",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		Expected:      true,
		PublicMessage: "resource not found",
	},
	CodeCooldownActive: {
		HTTPStatus:     http.StatusTooManyRequests,
		Expected:       true,
		PublicMessage:  "cooldown active",
		DetailsAllowed: true,
	},
	CodeEmptyCart: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		Expected:      true,
		PublicMessage: "cart is empty",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusConflict,
		Expected:       true,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		Expected:      true,
		PublicMessage: "rate limit exceeded",
	},
	CodePersistence: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "storage unavailable",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusBadGateway,
		PublicMessage: "upstream dependency failed",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
