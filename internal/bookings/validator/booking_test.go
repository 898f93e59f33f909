package validator

import (
	"testing"
	"time"

	"renta/pkg/logger"
	"renta/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func baseRequest() *model.BookingRequest {
	start := time.Now().Add(48 * time.Hour)
	return &model.BookingRequest{
		Booking: model.Booking{
			CustomerID:   "cust-1",
			ProductID:    "65f000000000000000000001",
			Status:       model.StatusReserved,
			Quantity:     1,
			StartTime:    start,
			EndTime:      start.Add(24 * time.Hour),
			DurationType: model.DurationDaily,
		},
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	v := NewBookingValidator(testLogger())

	if err := v.Validate(baseRequest()); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *model.BookingRequest)
	}{
		{
			name: "missing customer",
			mutate: func(req *model.BookingRequest) {
				req.CustomerID = ""
			},
		},
		{
			name: "malformed product id",
			mutate: func(req *model.BookingRequest) {
				req.ProductID = "not-an-object-id"
			},
		},
		{
			name: "zero quantity",
			mutate: func(req *model.BookingRequest) {
				req.Quantity = 0
			},
		},
		{
			name: "end before start",
			mutate: func(req *model.BookingRequest) {
				req.EndTime = req.StartTime.Add(-time.Hour)
			},
		},
		{
			name: "start in the past",
			mutate: func(req *model.BookingRequest) {
				req.StartTime = time.Now().Add(-time.Hour)
			},
		},
		{
			name: "unknown duration type",
			mutate: func(req *model.BookingRequest) {
				req.DurationType = model.DurationType("fortnightly")
			},
		},
		{
			name: "clocks on daily booking",
			mutate: func(req *model.BookingRequest) {
				req.StartClock = "09:00"
			},
		},
	}

	v := NewBookingValidator(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)

			if err := v.Validate(req); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestValidateAvailabilityClocks(t *testing.T) {
	v := NewBookingValidator(testLogger())
	start := time.Now().Add(24 * time.Hour)

	query := func() *model.AvailabilityQuery {
		return &model.AvailabilityQuery{
			StartTime:  start,
			EndTime:    start.Add(4 * time.Hour),
			StartClock: "09:00",
			EndClock:   "13:00",
		}
	}

	if err := v.ValidateAvailability(query()); err != nil {
		t.Fatalf("ValidateAvailability() unexpected error: %v", err)
	}

	q := query()
	q.EndClock = "25:00"
	if err := v.ValidateAvailability(q); err == nil {
		t.Error("ValidateAvailability() expected error for malformed end_clock")
	}
}

func TestValidateClockFormats(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		clock string
		valid bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"12:60", false},
		{"noon", false},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			req := baseRequest()
			req.DurationType = model.DurationHourly
			req.StartClock = tt.clock
			req.EndClock = "10:00"

			err := v.Validate(req)
			if tt.valid && err != nil {
				t.Errorf("Validate() unexpected error for %q: %v", tt.clock, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Validate() expected error for %q", tt.clock)
			}
		})
	}
}
