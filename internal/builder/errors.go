package builder

import "errors"

// Sentinel errors for controller operations, checked with errors.Is().
var (
	// ErrNotFound indicates no Configuration exists for the session id.
	ErrNotFound = errors.New("configuration not found")

	// ErrEmptyMessage indicates the inbound message was empty.
	ErrEmptyMessage = errors.New("empty message")

	// ErrEmptySessionID indicates the inbound request had no session id.
	ErrEmptySessionID = errors.New("empty session id")
)

// Apology is the fixed user-facing reply returned when the extraction
// model call fails. The Configuration is left untouched in that case.
const Apology = "I had trouble understanding that. Could you try rephrasing?"
