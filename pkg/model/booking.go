package model

import "time"

// Booking is a member's seat in a specific session. Bookings are
// immutable once created; the participation date always equals the
// referenced session's date. ClassID and ClassName are denormalized so
// search results carry the class without a second lookup.
type Booking struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SessionID         string    `json:"session_id" bson:"session_id" validate:"required,mongodb"`
	ClassID           string    `json:"class_id" bson:"class_id" validate:"required,mongodb"`
	ClassName         string    `json:"class_name" bson:"class_name" validate:"required,min=2,max=100"`
	MemberName        string    `json:"member_name" bson:"member_name" validate:"required,min=2,max=100"`
	ParticipationDate time.Time `json:"participation_date" bson:"participation_date" validate:"required"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// CreateBookingRequest is the inbound payload for booking a class seat.
type CreateBookingRequest struct {
	ClassName         string `json:"class_name" validate:"required,min=2,max=100"`
	MemberName        string `json:"member_name" validate:"required,min=2,max=100"`
	ParticipationDate string `json:"participation_date" validate:"required,datetime=2006-01-02"`
}

// BookingSearch carries the optional filters for the booking search.
// A partial date range (only one endpoint set) counts as no range.
type BookingSearch struct {
	MemberName string
	StartDate  *time.Time
	EndDate    *time.Time
}

// HasMember reports whether the member filter is active.
func (q BookingSearch) HasMember() bool {
	return q.MemberName != ""
}

// HasRange reports whether the date-range filter is active; both
// endpoints must be present.
func (q BookingSearch) HasRange() bool {
	return q.StartDate != nil && q.EndDate != nil
}
