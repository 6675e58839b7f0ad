// Package events publishes booking lifecycle notifications. Publishing is
// best-effort: a failed publish is logged and never fails the saga, since the
// booking's terminal state is already durable in its own store.
package events

import (
	"time"
)

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// Header keys on every published message.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
)

// BookingEvent is the payload for both terminal booking outcomes. Consumers
// (reporting, out-of-band reconciliation) key on RequestID to correlate with
// the remote reservation lock.
type BookingEvent struct {
	BookingID     string    `json:"booking_id"`
	RequestID     string    `json:"request_id"`
	UserID        string    `json:"user_id"`
	RoomID        string    `json:"room_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	CorrelationID string    `json:"correlation_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
