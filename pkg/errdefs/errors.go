package errdefs

import "errors"

var (
	// ErrNotFound signals that the requested object doesn't exist. Mapped to
	// HTTP 404 by the registry.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameter signals that the user input is invalid. Mapped to
	// HTTP 400.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrConflict signals that some stored state conflicts with the requested
	// action, e.g. removing the last owner of a package. Mapped to HTTP 409.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyExists signals that the resource already exists, e.g. a
	// version row colliding on (package, version). Mapped to HTTP 409.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized signals that no usable identity was presented. Mapped
	// to HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden signals that the identity is known but not allowed to
	// perform the action. Mapped to HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUnprocessable signals a short or malformed frame in a streamed
	// request body.
	ErrUnprocessable = errors.New("unprocessable payload")

	// ErrUnavailable signals that a collaborator (database, filesystem) is
	// not reachable right now.
	ErrUnavailable = errors.New("unavailable")

	// ErrSystem signals an internal error. The detail is logged, not shown
	// to API callers.
	ErrSystem = errors.New("system error")
)

// IsNotFound returns true if the error is due to a missing object.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidParameter returns true if the error is due to invalid user input.
func IsInvalidParameter(err error) bool { return errors.Is(err, ErrInvalidParameter) }

// IsConflict returns true if the error is due to conflicting stored state.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsAlreadyExists returns true if the error is due to a colliding resource.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsUnauthorized returns true if the caller presented no usable identity.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
