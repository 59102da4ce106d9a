package errors

import (
	"net/http"
)

// internalCode is returned for errors that do not wrap any registered error.
const internalCode uint32 = 1

// internalLog hides the details of errors that were not created by this
// package.
const internalLog = "internal error"

type coder interface {
	Code() uint32
}

// Code returns the registered code of the root cause of the given error. Zero
// is returned for a nil error and 1 for errors not based on a registered
// error.
func Code(err error) uint32 {
	if isNilErr(err) {
		return 0
	}
	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		if u, ok := err.(unpacker); ok {
			if errs := u.Unpack(); len(errs) > 0 {
				return Code(errs[0])
			}
			return internalCode
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

// Redact replaces all errors that are not based on a registered error with a
// generic internal error. Use it before returning an error to an untrusted
// client.
//
// This is a no-operation function when running in debug mode.
func Redact(err error, debug bool) error {
	if debug || isNilErr(err) {
		return err
	}
	if ErrPanic.Is(err) || Code(err) == internalCode {
		return Wrap(&Error{code: internalCode, desc: internalLog}, "redacted")
	}
	return err
}

// HTTPStatus maps an error to the HTTP response status code that best
// describes it.
func HTTPStatus(err error) int {
	switch {
	case isNilErr(err):
		return http.StatusOK
	case ErrUnauthorized.Is(err):
		return http.StatusUnauthorized
	case ErrNotFound.Is(err):
		return http.StatusNotFound
	case ErrDuplicate.Is(err):
		return http.StatusConflict
	case ErrPanic.Is(err), ErrDatabase.Is(err), ErrHuman.Is(err):
		return http.StatusInternalServerError
	case Code(err) == internalCode:
		return http.StatusInternalServerError
	}
	// All remaining registered errors describe a request that cannot be
	// fulfilled in the current state.
	return http.StatusBadRequest
}
