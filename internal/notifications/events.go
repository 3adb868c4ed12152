package notifications

import (
	"context"

	"clubmanager/pkg/kafka"
	"clubmanager/pkg/model"
)

const (
	EventTypeClassCreated   = "class.created"
	EventTypeBookingCreated = "booking.created"

	SchemaVersion = "1"
	Source        = "clubmanager"
)

// Publisher is the slice of the Kafka producer the domain services
// depend on. A nil Publisher disables event publishing.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ClassCreatedEvent struct {
	ClassID   string `json:"class_id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time"`
	Capacity  int    `json:"capacity"`
	Sessions  int    `json:"sessions"`
}

type BookingCreatedEvent struct {
	BookingID         string `json:"booking_id"`
	SessionID         string `json:"session_id"`
	ClassName         string `json:"class_name"`
	MemberName        string `json:"member_name"`
	ParticipationDate string `json:"participation_date"`
}

func NewClassCreatedMessage(class *model.ClubClass, sessions int) kafka.Message {
	return kafka.NewMessage().
		WithKey(class.ID).
		WithValue(ClassCreatedEvent{
			ClassID:   class.ID,
			Name:      class.Name,
			StartDate: model.FormatDate(class.StartDate),
			EndDate:   model.FormatDate(class.EndDate),
			StartTime: class.StartTime,
			Capacity:  class.Capacity,
			Sessions:  sessions,
		}).
		WithEventType(EventTypeClassCreated).
		WithSource(Source).
		WithSchemaVersion(SchemaVersion).
		Build()
}

func NewBookingCreatedMessage(booking *model.Booking) kafka.Message {
	return kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(BookingCreatedEvent{
			BookingID:         booking.ID,
			SessionID:         booking.SessionID,
			ClassName:         booking.ClassName,
			MemberName:        booking.MemberName,
			ParticipationDate: model.FormatDate(booking.ParticipationDate),
		}).
		WithEventType(EventTypeBookingCreated).
		WithSource(Source).
		WithSchemaVersion(SchemaVersion).
		Build()
}
