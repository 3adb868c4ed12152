package notifications

import (
	"context"
	"fmt"

	"clubmanager/pkg/kafka"
	"clubmanager/pkg/logger"
)

// NewBookingEventsHandler returns the handler the notifier runs against
// the booking events topic. Delivery is just a structured log line; a
// real channel (email, WhatsApp) would slot in here.
func NewBookingEventsHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch msg.GetEventType() {
		case EventTypeBookingCreated:
			var ev BookingCreatedEvent
			if err := msg.DecodeValue(&ev); err != nil {
				return fmt.Errorf("failed to decode booking event: %w", err)
			}
			log.Info("Booking confirmation",
				"event_id", msg.GetEventID(),
				"booking_id", ev.BookingID,
				"member_name", ev.MemberName,
				"class_name", ev.ClassName,
				"participation_date", ev.ParticipationDate,
			)
		default:
			log.Warn("Skipping unknown event type",
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"topic", msg.Topic,
			)
		}
		return nil
	}
}
