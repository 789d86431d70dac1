package domain

import "errors"

// Sentinel errors for the failure classes the engine can produce. Callers
// match them with errors.Is; call sites wrap them with fmt.Errorf and %w to
// add context.
var (
	// ErrInvalidArgument covers malformed input such as a bad identifier
	// string or an unrecognized query operator.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValidation covers arguments of the wrong shape, such as a
	// non-numeric skip or limit value.
	ErrValidation = errors.New("validation error")

	// ErrState covers operations invoked in the wrong cursor state, such as
	// an in-place sort before anything has been fetched.
	ErrState = errors.New("invalid state")

	// ErrUnsupported covers the intentionally-unimplemented cursor
	// compatibility methods.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrNotFound covers lookups for collections or documents that do not
	// exist.
	ErrNotFound = errors.New("not found")
)
