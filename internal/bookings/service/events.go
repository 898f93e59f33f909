package service

import (
	"context"

	"renta/pkg/kafka"
	"renta/pkg/middleware"
	"renta/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingPickedUp  = "booking.picked_up"
	EventBookingReturned  = "booking.returned"
	EventBookingCancelled = "booking.cancelled"

	eventSource = "rentals-service"
)

// EventPublisher is satisfied by kafka.Producer. A nil publisher disables
// event emission entirely.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// publishEvent emits a lifecycle event keyed by booking ID, so consumers see
// one booking's events in order. Delivery is best effort: the booking write
// already committed, and a broker outage must not fail the request.
func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}

	builder := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(eventType).
		WithSource(eventSource).
		WithValue(booking)

	if requestID := middleware.RequestID(ctx); requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}

	if err := s.events.Publish(ctx, builder.Build()); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
