package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field marks err as a problem with a single attribute of a model, for
// example Price or Seller. Nested attributes use dot notation, as in
// Price.Ticker. A nil err results in nil, so the result can be passed to
// Append unconditionally.
//
// A stack trace is attached unless err already carries one.
func Field(name string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{name: name, desc: description, cause: err}
}

// AppendField adds err, marked as a problem of the named attribute, to
// collected. Both collected and err may be nil.
func AppendField(collected error, name string, err error) error {
	return Append(collected, Field(name, err, ""))
}

// FieldErrors returns all errors marked for the named attribute. Grouped
// errors are searched as well, and the result keeps their order.
func FieldErrors(err error, name string) []error {
	var found []error
	collectField(err, name, &found)
	return found
}

func collectField(err error, name string, found *[]error) {
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == name {
			*found = append(*found, err)
			return
		}
		switch e := err.(type) {
		case unpacker:
			// Every child of a group is visited here, the group
			// cause does not need to be followed.
			for _, child := range e.Unpack() {
				collectField(child, name, found)
			}
			return
		case causer:
			err = e.Cause()
		default:
			return
		}
	}
}

type fielder interface {
	Field() string
}

type fieldError struct {
	name  string
	desc  string
	cause error
}

var _ fielder = (*fieldError)(nil)

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("%s: %s", e.name, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.name, e.desc, e.cause)
}

func (e *fieldError) Cause() error  { return e.cause }
func (e *fieldError) Field() string { return e.name }
