package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is one reservation attempt by a user. RequestID is the
// caller-supplied idempotency key and carries a unique index, so a retried
// create can never produce a second document.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RequestID     string    `json:"request_id" bson:"request_id" validate:"required,min=1,max=128"`
	UserID        string    `json:"user_id" bson:"user_id" validate:"required"`
	RoomID        string    `json:"room_id" bson:"room_id" validate:"required"`
	StartDate     time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Terminal reports whether the booking already reached one of the two final
// states. PENDING is the only non-terminal status.
func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusCancelled
}
