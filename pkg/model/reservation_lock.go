package model

import "time"

const (
	LockStatusHeld      = "held"
	LockStatusConfirmed = "confirmed"
	LockStatusReleased  = "released"
)

// RoomReservationLock is one claim on a room for a date range, owned by the
// hotel service. The core invariant of the system: for a fixed room, locks
// whose status is held or confirmed never overlap on [start_date, end_date).
type RoomReservationLock struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	RequestID string    `json:"request_id" bson:"request_id" validate:"required,min=1,max=128"`
	RoomID    string    `json:"room_id" bson:"room_id" validate:"required"`
	StartDate time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=held confirmed released"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Active reports whether the lock occupies its date range for conflict
// detection purposes. Released locks never block new holds.
func (l *RoomReservationLock) Active() bool {
	return l.Status == LockStatusHeld || l.Status == LockStatusConfirmed
}

// Overlaps reports whether two half-open date ranges [s1,e1) and [s2,e2)
// intersect: s1 < e2 AND s2 < e1. Back-to-back stays sharing a checkout day
// do not conflict.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// RoomHoldLock is an advisory lock serializing the conflict-scan-then-insert
// sequence for a single room. The deterministic _id makes the insert fail
// with a duplicate key error while another hold for the same room is in
// flight; ExpiresAt backs a TTL index so a crashed holder cannot wedge the
// room forever.
type RoomHoldLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
