package failure

import (
	"errors"
	"net/http"
)

// Failure is an error that knows its HTTP status. Message is safe to show to clients.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	cause error
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func (e *Failure) Error() string {
	return e.Message
}

// Unwrap exposes the cause so errors.Is still matches sentinel errors behind the client message.
func (e *Failure) Unwrap() error {
	return e.cause
}

func newFailure(code int, message string, cause error) error {
	return &Failure{Code: code, Message: message, cause: cause}
}

// BadRequest turns err into a 400, keeping its text. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, err.Error(), err)
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, msg, nil)
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, msg, nil)
}

func NotFound(msg string) error {
	return newFailure(http.StatusNotFound, msg, nil)
}

func Conflict(msg string) error {
	return newFailure(http.StatusConflict, msg, nil)
}

// Upstream is a 500 for a failed call to an outside service. msg is shown, cause is only unwrapped.
func Upstream(msg string, cause error) error {
	return newFailure(http.StatusInternalServerError, msg, cause)
}

// GetCode is the status for err, 500 for anything that is not a Failure.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// IsFailure reports whether err carries a client-facing message.
func IsFailure(err error) bool {
	var fail *Failure

	return errors.As(err, &fail)
}
