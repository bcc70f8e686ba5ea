package service

import "errors"

var (
	// ErrUnknownType is returned when a submission names a job type outside
	// the closed enum. No side effects happen in that case.
	ErrUnknownType = errors.New("unknown job type")

	// ErrInvalidDirection covers both unparseable directions and directions
	// an endpoint does not accept.
	ErrInvalidDirection = errors.New("invalid job direction")

	// ErrInvalidStatus is returned for an unknown status value or a
	// backwards status transition.
	ErrInvalidStatus = errors.New("invalid job status")
)
