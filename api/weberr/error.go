package weberr

import (
	"net/http"
)

// ErrorResponse is the JSON body of every failed marketplace request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestError keeps the internal cause for logging. Only the message of the
// attached ErrorResponse reaches the client.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewError attaches the public message and status to err. The response is
// applied last so it wins over any response carried by opts.
func NewError(err error, msg string, status int, opts ...Opt) error {
	opts = append(opts, WithResponse(&ErrorResponse{Error: msg}, status))
	return Wrap(&RequestError{Err: err}, opts...)
}

// Public messages of the generic failures. Domain errors with a more precise
// message go through apperr instead.
const (
	msgBadRequest      = "the request is invalid, check the submitted course or chapter fields"
	msgNotAuthorized   = "sign in to use the course marketplace"
	msgForbidden       = "only marketplace administrators may do this"
	msgNotFound        = "no such course or chapter in the marketplace"
	msgTooManyRequests = "too many requests to the marketplace, retry later"
	msgInternal        = "the marketplace could not process your request"
)

func BadRequest(err error, opts ...Opt) error {
	return NewError(err, msgBadRequest, http.StatusBadRequest, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, msgNotAuthorized, http.StatusUnauthorized, opts...)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(err, msgForbidden, http.StatusForbidden, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, msgNotFound, http.StatusNotFound, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, msgTooManyRequests, http.StatusTooManyRequests, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(err, msgInternal, http.StatusInternalServerError, opts...)
}
