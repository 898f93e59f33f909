package model

import (
	"time"
)

// DurationType selects the pricing row and the duration-unit conversion used
// when quoting a booking.
type DurationType string

const (
	DurationHourly  DurationType = "hourly"
	DurationDaily   DurationType = "daily"
	DurationWeekly  DurationType = "weekly"
	DurationMonthly DurationType = "monthly"
)

func (d DurationType) Valid() bool {
	switch d {
	case DurationHourly, DurationDaily, DurationWeekly, DurationMonthly:
		return true
	}
	return false
}

// Unit returns the wall-clock length of one duration unit. A month is a
// fixed 30-day approximation, not calendar-month-aware.
func (d DurationType) Unit() time.Duration {
	switch d {
	case DurationHourly:
		return time.Hour
	case DurationDaily:
		return 24 * time.Hour
	case DurationWeekly:
		return 7 * 24 * time.Hour
	case DurationMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// ProductPricing is one rate row per (product, duration type) pair. At most
// one row per pair may be active at a time.
type ProductPricing struct {
	ID              string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProductID       string       `json:"product_id" bson:"product_id" validate:"required,mongodb"`
	DurationType    DurationType `json:"duration_type" bson:"duration_type" validate:"required,oneof=hourly daily weekly monthly"`
	BasePrice       Money        `json:"base_price" bson:"base_price"`
	DiscountPercent Money        `json:"discount_percent" bson:"discount_percent"`
	MinDuration     int64        `json:"min_duration" bson:"min_duration" validate:"min=0"`
	MaxDuration     int64        `json:"max_duration" bson:"max_duration" validate:"min=0"`
	Active          bool         `json:"active" bson:"active"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// QuoteRequest prices a hypothetical booking without reserving anything.
type QuoteRequest struct {
	DurationType DurationType `json:"duration_type" validate:"required,oneof=hourly daily weekly monthly"`
	StartTime    time.Time    `json:"start_time" validate:"required"`
	EndTime      time.Time    `json:"end_time" validate:"required,gtfield=StartTime"`
	Quantity     int          `json:"quantity" validate:"required,min=1"`
	StartClock   string       `json:"start_clock,omitempty"`
	EndClock     string       `json:"end_clock,omitempty"`
}

type QuoteResult struct {
	ProductID    string       `json:"product_id"`
	DurationType DurationType `json:"duration_type"`
	Duration     int64        `json:"duration"`
	BasePrice    Money        `json:"base_price"`
	Discount     Money        `json:"discount"`
	ServiceFee   Money        `json:"service_fee"`
	TotalAmount  Money        `json:"total_amount"`
}
