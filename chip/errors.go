package chip

import "errors"

// Package errors for capability lookup.
var (
	// ErrUnknownRevision is returned when no capability record matches.
	ErrUnknownRevision = errors.New("chip: unknown revision")
)
