package pm4

import "errors"

// Package errors for packet decoding.
var (
	// ErrNotType3 is returned when a DWORD expected to be a header is not a
	// type-3 packet header.
	ErrNotType3 = errors.New("pm4: not a type-3 packet header")

	// ErrTruncated is returned when a packet extends past the end of the stream.
	ErrTruncated = errors.New("pm4: truncated packet")
)
