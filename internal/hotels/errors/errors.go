package errors

import "errors"

var (
	ErrLockNotFound = errors.New("reservation lock not found")

	ErrRoomNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid id format")

	ErrLockReleased = errors.New("cannot confirm a released hold")

	ErrLockConfirmed = errors.New("cannot release a confirmed reservation")

	ErrStaleTransition = errors.New("lock status changed concurrently")
)
