package pipeline

import "errors"

// Package errors for pipeline creation. Metadata is rejected here, before a
// command image is ever built.
var (
	// ErrEmptyMetadata is returned when metadata carries no register.
	ErrEmptyMetadata = errors.New("pipeline: metadata has no registers")

	// ErrDuplicateRegister is returned when a register is assigned twice.
	ErrDuplicateRegister = errors.New("pipeline: register assigned twice")

	// ErrUnsupportedRegister is returned for an address no SET_*_REG packet reaches.
	ErrUnsupportedRegister = errors.New("pipeline: register outside any packet aperture")

	// ErrTooManyUserData is returned when more user data is requested than
	// COMPUTE_USER_DATA registers exist.
	ErrTooManyUserData = errors.New("pipeline: too many user data entries")

	// ErrNoComputeEntryPoint is returned when a shader has no matching
	// compute entry point.
	ErrNoComputeEntryPoint = errors.New("pipeline: no compute entry point")
)
