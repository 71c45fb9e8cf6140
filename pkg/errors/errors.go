package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Error codes double as HTTP status codes; everything the API reports falls
// into one of these buckets.
const (
	CodeNotFound    = http.StatusNotFound            // missing project/segment/voice
	CodeValidation  = http.StatusBadRequest          // bad extension, bad voice id
	CodeUnprocessed = http.StatusUnprocessableEntity // invalid time range
	CodeProcessing  = http.StatusInternalServerError // subprocess failure, missing precondition
	CodeExternalAPI = http.StatusBadGateway          // analysis/synthesis provider failure
)

// Error is a coded error carrying the original cause and the stack captured
// at construction time.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Stack   string `json:"stack,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode creates a new error with an explicit code.
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef creates a new error with a code and formatted message.
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// Wrap wraps an error with a message, keeping the original cause reachable
// through Unwrap. The wrapped error inherits the cause's code if it has one.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: GetCode(err), Message: message, Err: err, Stack: captureStack()}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: GetCode(err), Message: fmt.Sprintf(format, args...), Err: err, Stack: captureStack()}
}

// NotFoundf builds a 404 error for a missing entity.
func NotFoundf(format string, args ...interface{}) *Error {
	return WithCodef(CodeNotFound, format, args...)
}

// Validationf builds a 400 error for rejected input.
func Validationf(format string, args ...interface{}) *Error {
	return WithCodef(CodeValidation, format, args...)
}

// Processingf builds a 500 error for local processing failures, including
// unmet preconditions like "no audio extracted yet".
func Processingf(format string, args ...interface{}) *Error {
	return WithCodef(CodeProcessing, format, args...)
}

// ExternalAPIf builds a 502 error for upstream provider failures.
func ExternalAPIf(format string, args ...interface{}) *Error {
	return WithCodef(CodeExternalAPI, format, args...)
}

// ExternalAPI wraps a provider failure as 502.
func ExternalAPI(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeExternalAPI, Message: message, Err: err, Stack: captureStack()}
}

// GetCode returns the error code, or 0 when err carries none.
func GetCode(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

// HTTPStatus maps an error to the status the request layer should return.
func HTTPStatus(err error) int {
	if code := GetCode(err); code >= 400 {
		return code
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404-coded error.
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}

// GetStack returns the captured stack trace, if any.
func GetStack(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Stack
	}
	return ""
}

func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	lines := strings.Split(string(buf[:n]), "\n")
	if len(lines) > 6 {
		lines = lines[6:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
