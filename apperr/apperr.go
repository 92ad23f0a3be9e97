// Package apperr holds the error taxonomy shared by every service and
// its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrValidation   = errors.New("validation")          // 400
	ErrUnauthorized = errors.New("unauthorized")        // 401
	ErrForbidden    = errors.New("forbidden")           // 403
	ErrNotFound     = errors.New("not found")           // 404
	ErrConflict     = errors.New("conflict")            // 409
	ErrUnavailable  = errors.New("service unavailable") // 503
)

// ErrDuplicateUTR is a conflict that is answered with 400, which is what
// clients of the order endpoint already expect.
var ErrDuplicateUTR = &codedError{sentinel: ErrConflict, status: http.StatusBadRequest, msg: "UTR ID already used"}

type codedError struct {
	sentinel error
	status   int
	msg      string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Unwrap() error { return e.sentinel }

// Status maps err onto an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.status
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message strips the sentinel prefix so clients see "Order not found"
// rather than "not found: Order not found".
func Message(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.msg
	}
	msg := err.Error()
	for _, s := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrUnavailable} {
		if p := s.Error() + ": "; strings.HasPrefix(msg, p) {
			return strings.TrimPrefix(msg, p)
		}
	}
	return msg
}
