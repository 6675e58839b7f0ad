package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateRequest = errors.New("booking with this request ID already exists")

	ErrTerminalStatus = errors.New("booking already reached a terminal status")
)
