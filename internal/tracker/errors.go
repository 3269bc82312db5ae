package tracker

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("habit not found")

// ValidationError reports a rejected input field. Nothing is written when
// one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bad habit %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
