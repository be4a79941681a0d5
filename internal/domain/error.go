package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// ErrUserRequired is returned by handlers that need a resolved user
	// when the inbound update carried no sender.
	ErrUserRequired = errors.New("handler requires a resolved user")
)
