package model

import (
	"time"
)

type BookingStatus string

const (
	StatusReserved  BookingStatus = "reserved"
	StatusConfirmed BookingStatus = "confirmed"
	StatusActive    BookingStatus = "active"
	StatusReturned  BookingStatus = "returned"
	StatusCancelled BookingStatus = "cancelled"

	// StatusLate is a derived view of an active booking past its end date.
	// It is never persisted; read paths present it via EffectiveStatus.
	StatusLate BookingStatus = "late"
)

var transitions = map[BookingStatus][]BookingStatus{
	StatusReserved:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusReturned},
	StatusReturned:  {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle step. Returned and cancelled are terminal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	if s.Terminal() {
		return false
	}
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

// Blocking reports whether a booking in this status holds its slot for
// conflict detection. Only cancelled bookings release the slot; a bare
// reservation still blocks.
func (s BookingStatus) Blocking() bool {
	return s != StatusCancelled
}

type Booking struct {
	ID               string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID       string        `json:"customer_id" bson:"customer_id" validate:"required,min=1,max=64"`
	ProductID        string        `json:"product_id" bson:"product_id" validate:"required,mongodb"`
	Status           BookingStatus `json:"status" bson:"status" validate:"omitempty,oneof=reserved confirmed active returned cancelled"`
	Quantity         int           `json:"quantity" bson:"quantity" validate:"required,min=1"`
	StartTime        time.Time     `json:"start_time" bson:"start_time" validate:"required"`
	EndTime          time.Time     `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	ActualReturnTime *time.Time    `json:"actual_return_time,omitempty" bson:"actual_return_time,omitempty"`
	DurationType     DurationType  `json:"duration_type" bson:"duration_type" validate:"required,oneof=hourly daily weekly monthly"`
	BasePrice        Money         `json:"base_price" bson:"base_price"`
	Discount         Money         `json:"discount" bson:"discount"`
	ServiceFee       Money         `json:"service_fee" bson:"service_fee"`
	LateFee          Money         `json:"late_fee" bson:"late_fee"`
	TotalAmount      Money         `json:"total_amount" bson:"total_amount"`
	PaymentRef       string        `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// EffectiveStatus presents an active booking past its end date as late.
// No background job flips the stored status; late is computed on every read.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Overdue(now) {
		return StatusLate
	}
	return b.Status
}

// Overdue reports whether the booking is active and past due at now.
func (b *Booking) Overdue(now time.Time) bool {
	return b.Status == StatusActive && !now.Before(b.EndTime)
}

// Overlaps reports whether the booking blocks the half-open range
// [start, end). A booking ending exactly at start does not conflict, and
// cancelled bookings never hold their slot. The Mongo filter built by the
// repository's FindOverlapping mirrors this predicate.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.Status.Blocking() && b.StartTime.Before(end) && b.EndTime.After(start)
}

// BookingRequest is the creation payload. Hourly bookings may carry HH:MM
// clock strings that are merged onto the date portion of the slot bounds
// before pricing. TotalAmount, when non-zero, is the client's asserted total
// and is checked against the server-computed quote.
type BookingRequest struct {
	Booking
	StartClock string `json:"start_clock,omitempty"`
	EndClock   string `json:"end_clock,omitempty"`
}

// AvailabilityQuery asks whether a product's slot is free over a half-open
// time range. Optional HH:MM clocks refine the date portion of the bounds,
// so a same-day hourly window can be probed. ExcludeBookingID skips one
// booking, so a reschedule does not collide with itself.
type AvailabilityQuery struct {
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required"`
	StartClock       string    `json:"start_clock,omitempty"`
	EndClock         string    `json:"end_clock,omitempty"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty" validate:"omitempty,mongodb"`
}

type AvailabilityResult struct {
	Available bool       `json:"available"`
	Conflicts []*Booking `json:"conflicts,omitempty"`
}

// LateBookingView decorates an overdue booking with its derived status and
// the penalty accrued so far.
type LateBookingView struct {
	Booking         *Booking      `json:"booking"`
	EffectiveStatus BookingStatus `json:"effective_status"`
	DaysLate        int64         `json:"days_late"`
	AccruedLateFee  Money         `json:"accrued_late_fee"`
}

// LateFeeView is the on-demand fee projection for a single booking. Nothing
// is persisted until the booking is returned.
type LateFeeView struct {
	BookingID      string `json:"booking_id"`
	DaysLate       int64  `json:"days_late"`
	LateFee        Money  `json:"late_fee"`
	ProjectedTotal Money  `json:"projected_total"`
}
