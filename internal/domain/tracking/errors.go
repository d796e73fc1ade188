package tracking

import "errors"

// ErrInvalidEvent indicates a task event without a page id.
var ErrInvalidEvent = errors.New("invalid task event")
