package model

import "time"

// Hotel groups rooms for the catalog endpoints. Consumed, not owned, by the
// reservation core.
type Hotel struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	City      string    `json:"city" bson:"city" validate:"required,min=2,max=100"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Room is the unit being reserved. Available is a display/admin flag only;
// date-range occupancy is tracked exclusively through reservation locks and
// the flag must never feed conflict detection.
type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HotelID     string    `json:"hotel_id" bson:"hotel_id" validate:"required"`
	Number      string    `json:"number" bson:"number" validate:"required,min=1,max=20"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=20"`
	TimesBooked int64     `json:"times_booked" bson:"times_booked"`
	Available   bool      `json:"available" bson:"available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// RoomView is the projection served to the booking service for popularity
// ranking.
type RoomView struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	TimesBooked int64  `json:"times_booked"`
}
