// Package errs defines the application error taxonomy shared by the backend
// and the client. Every failure a user can observe maps to one of these codes.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeInvalidCredentials
	CodeNotFound
	CodeUploadFailed
	// CodeUploadCancelled marks a user-initiated cancellation. It is a normal
	// terminal state, not an error to surface.
	CodeUploadCancelled
	CodeUnsupportedFileType
	CodeTimeout
)

var codeInfo = map[Code]struct {
	message string
	status  int
}{
	CodeUnknown:             {"Something went wrong. Please try again.", http.StatusInternalServerError},
	CodeInvalidCredentials:  {"Invalid credentials", http.StatusUnauthorized},
	CodeNotFound:            {"Chat not found", http.StatusNotFound},
	CodeUploadFailed:        {"Failed to upload file", http.StatusBadGateway},
	CodeUploadCancelled:     {"Upload cancelled", http.StatusOK},
	CodeUnsupportedFileType: {"Only images and videos are supported", http.StatusUnsupportedMediaType},
	CodeTimeout:             {"Request timed out", http.StatusGatewayTimeout},
}

// Error carries a code, a user-facing message, and the HTTP status the
// backend responds with for this class of failure.
type Error struct {
	Code    Code
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an error for the given code with its canonical message.
// Optional printf-style details replace the canonical message.
func New(code Code, details ...any) *Error {
	info, ok := codeInfo[code]
	if !ok {
		info = codeInfo[CodeUnknown]
		code = CodeUnknown
	}
	msg := info.message
	if len(details) > 0 {
		if format, ok := details[0].(string); ok {
			msg = fmt.Sprintf(format, details[1:]...)
		}
	}
	return &Error{Code: code, Message: msg, Status: info.status}
}

// CodeOf extracts the code from err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus maps a backend response status to a coded error. Used by the
// network transport so callers see the same taxonomy as in-process callers.
func FromHTTPStatus(status int, message string) error {
	var code Code
	switch status {
	case http.StatusUnauthorized:
		code = CodeInvalidCredentials
	case http.StatusNotFound:
		code = CodeNotFound
	default:
		code = CodeUnknown
	}
	if message == "" {
		return New(code)
	}
	return New(code, "%s", message)
}
