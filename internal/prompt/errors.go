package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoOptions is returned when a choice field has nothing to choose.
	ErrNoOptions = errors.New("prompt: field has no options")
)
