package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRecipient  = errors.New("recipient must be a valid user")
	ErrInvalidTitle      = errors.New("title must be between 1 and 255 characters")
	ErrInvalidMessage    = errors.New("message must be between 1 and 4096 characters")
	ErrInvalidBody       = errors.New("body must be between 1 and 8192 characters")
	ErrEmptyPatch        = errors.New("update must set at least one field")
	ErrAlreadySubscribed = errors.New("already subscribed to thread")
)
