package halfence

import "errors"

var (
	// ErrUnknownHandle is returned for handles the backend never issued or
	// that were already imported.
	ErrUnknownHandle = errors.New("halfence: unknown handle")
)
