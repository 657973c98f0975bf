package services

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorInternal     ErrorCode = "internal"
)

// ServiceError is the only error type the gateway needs to understand.
// Fields carries per-question messages for assessment validation failures.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Fields  FieldErrors
	Err     error
	Stack   []byte
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// NewFieldsError reports answers that failed assessment validation.
func NewFieldsError(msg string, fields FieldErrors) error {
	return &ServiceError{Code: ErrorInvalid, Message: msg, Fields: fields}
}

// NewInternalError wraps an unexpected store failure and records where it surfaced.
func NewInternalError(msg string, err error) error {
	var stack []byte
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		stack = ge.Stack()
	} else if err != nil {
		stack = goerrors.Wrap(err, 1).Stack()
	} else {
		stack = goerrors.New(msg).Stack()
	}
	return &ServiceError{Code: ErrorInternal, Message: msg, Err: err, Stack: stack}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err carries the not_found code.
func IsNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorNotFound
}
