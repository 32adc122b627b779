package formdata

import (
	"github.com/pkg/errors"
)

// EncodingIOError is returned when a part cannot be read or the encoded body
// cannot be written.
type EncodingIOError struct {
	Op    string
	cause error
}

func newEncodingIOError(op string, cause error) error {
	return errors.WithStack(&EncodingIOError{Op: op, cause: cause})
}

func (e *EncodingIOError) Error() string {
	return "multipart encoding failed: " + e.Op + ": " + e.cause.Error()
}

func (e *EncodingIOError) Unwrap() error { return e.cause }

// IsEncodingIO reports whether err is an EncodingIOError.
func IsEncodingIO(err error) bool {
	var target *EncodingIOError
	return errors.As(err, &target)
}
