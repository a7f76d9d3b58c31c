// Package errdefs defines the error categories shared across the registry
// and the client, together with helpers to attach context to them.
package errdefs

import (
	"errors"
	"fmt"
)

// Newf joins the base category error with a formatted detail error.
func Newf(base error, format string, args ...any) error {
	return errors.Join(base, fmt.Errorf(format, args...))
}

// NewE joins the base category error with err. If err already carries the
// base category, err is returned unchanged.
func NewE(base error, err error) error {
	if err == nil || errors.Is(err, base) {
		return err
	}
	return errors.Join(base, err)
}
