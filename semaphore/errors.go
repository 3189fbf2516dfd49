package semaphore

import "errors"

// Errors returned by semaphore operations.
var (
	// ErrWrongObjectType is returned by host operations on a binary semaphore.
	ErrWrongObjectType = errors.New("semaphore: operation requires a timeline semaphore")

	// ErrValueNotIncreasing is returned when a timeline signal does not
	// exceed the last signaled value.
	ErrValueNotIncreasing = errors.New("semaphore: timeline value must increase")

	// ErrTimeout is returned when a host wait expires.
	ErrTimeout = errors.New("semaphore: timeout")

	// ErrNotImplemented is returned for opens across adapters.
	ErrNotImplemented = errors.New("semaphore: not implemented")

	// ErrUnsupported is returned when the backend lacks a capability.
	ErrUnsupported = errors.New("semaphore: unsupported by backend")

	// ErrInvalidValue is returned for malformed create or open parameters.
	ErrInvalidValue = errors.New("semaphore: invalid value")

	// ErrDestroyed is returned by any operation on a destroyed semaphore.
	ErrDestroyed = errors.New("semaphore: destroyed")

	// ErrWrongQueue is returned when a queue does not belong to the backend.
	ErrWrongQueue = errors.New("semaphore: queue not owned by backend")
)
