// Package apperrors holds the domain error taxonomy shared by services and
// the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	KindFieldUndefined
	KindNotFound
	KindExistsData
	KindValidation
	KindCannotCreate
	KindUnauthorized
)

// Reason codes carried by ExistsData and Validation errors.
const (
	CodeIDExists           = "ID_EXISTS"
	CodeStatusInvalido     = "STATUS_INVALIDO"
	CodeSituacaoInalterada = "SITUACAO_INALTERADA"
	CodeNomeExists         = "NOME_EXISTS"
	CodeUploadInvalido     = "UPLOAD_INVALIDO"
	CodeCampoInvalido      = "CAMPO_INVALIDO"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeEmailExists        = "EMAIL_EXISTS"
)

// Fields is the diagnostic payload attached to an error (offending values).
type Fields map[string]interface{}

// Error is a domain error. Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  Fields
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindFieldUndefined, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExistsData:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func FieldUndefined(message string, fields Fields) *Error {
	return &Error{Kind: KindFieldUndefined, Message: message, Fields: fields}
}

func NotFound(message string, fields Fields) *Error {
	return &Error{Kind: KindNotFound, Message: message, Fields: fields}
}

func ExistsData(message, code string, fields Fields) *Error {
	return &Error{Kind: KindExistsData, Code: code, Message: message, Fields: fields}
}

func Validation(message, code string, fields Fields) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

// CannotCreate wraps an unexpected persistence failure during a create.
func CannotCreate(message string, fields Fields, cause error) *Error {
	return &Error{Kind: KindCannotCreate, Message: message, Fields: fields, Err: cause}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// HasCode reports whether err carries a domain error with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
