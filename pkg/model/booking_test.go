package model

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{StatusReserved, StatusConfirmed, true},
		{StatusReserved, StatusCancelled, true},
		{StatusReserved, StatusActive, false},
		{StatusReserved, StatusReturned, false},
		{StatusConfirmed, StatusActive, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusReturned, false},
		{StatusActive, StatusReturned, true},
		{StatusActive, StatusCancelled, false},
		{StatusActive, StatusReserved, false},
		{StatusReturned, StatusActive, false},
		{StatusReturned, StatusReserved, false},
		{StatusCancelled, StatusReserved, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []BookingStatus{StatusReturned, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []BookingStatus{StatusReserved, StatusConfirmed, StatusActive} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestBlocking(t *testing.T) {
	if StatusCancelled.Blocking() {
		t.Error("cancelled bookings must never block a slot")
	}
	for _, s := range []BookingStatus{StatusReserved, StatusConfirmed, StatusActive, StatusReturned} {
		if !s.Blocking() {
			t.Errorf("%s should block its slot", s)
		}
	}
}

func TestBookingOverlaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
	}
	booked := &Booking{Status: StatusConfirmed, StartTime: day(10), EndTime: day(14)}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical range", day(10), day(14), true},
		{"request contains booking", day(8), day(16), true},
		{"booking contains request", day(11), day(12), true},
		{"partial overlap at head", day(8), day(11), true},
		{"partial overlap at tail", day(13), day(16), true},
		{"back-to-back before", day(8), day(10), false},
		{"back-to-back after", day(14), day(16), false},
		{"fully before", day(1), day(5), false},
		{"fully after", day(20), day(25), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := booked.Overlaps(tc.start, tc.end); got != tc.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}

	// Overlap checks are symmetric: if A's range collides with B, B's range
	// collides with A.
	other := &Booking{Status: StatusConfirmed, StartTime: day(13), EndTime: day(16)}
	if booked.Overlaps(other.StartTime, other.EndTime) != other.Overlaps(booked.StartTime, booked.EndTime) {
		t.Error("overlap must be symmetric between two bookings")
	}

	// A cancelled booking releases its slot no matter how the ranges sit.
	cancelled := &Booking{Status: StatusCancelled, StartTime: day(10), EndTime: day(14)}
	if cancelled.Overlaps(day(10), day(14)) {
		t.Error("cancelled booking must never overlap")
	}
}

func TestEffectiveStatus(t *testing.T) {
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	b := &Booking{Status: StatusActive, EndTime: end}

	if got := b.EffectiveStatus(end.Add(-time.Hour)); got != StatusActive {
		t.Errorf("before due: got %s, want %s", got, StatusActive)
	}
	if got := b.EffectiveStatus(end); got != StatusLate {
		t.Errorf("exactly at due: got %s, want %s", got, StatusLate)
	}
	if got := b.EffectiveStatus(end.Add(72 * time.Hour)); got != StatusLate {
		t.Errorf("past due: got %s, want %s", got, StatusLate)
	}

	// Only active bookings derive late.
	b.Status = StatusConfirmed
	if got := b.EffectiveStatus(end.Add(time.Hour)); got != StatusConfirmed {
		t.Errorf("confirmed past end: got %s, want %s", got, StatusConfirmed)
	}
	b.Status = StatusReturned
	if got := b.EffectiveStatus(end.Add(time.Hour)); got != StatusReturned {
		t.Errorf("returned past end: got %s, want %s", got, StatusReturned)
	}
}

func TestDurationTypeUnit(t *testing.T) {
	cases := map[DurationType]time.Duration{
		DurationHourly:  time.Hour,
		DurationDaily:   24 * time.Hour,
		DurationWeekly:  7 * 24 * time.Hour,
		DurationMonthly: 30 * 24 * time.Hour,
	}
	for dt, want := range cases {
		if got := dt.Unit(); got != want {
			t.Errorf("%s unit: got %s, want %s", dt, got, want)
		}
		if !dt.Valid() {
			t.Errorf("%s should be valid", dt)
		}
	}
	if DurationType("fortnightly").Valid() {
		t.Error("unknown duration type should be invalid")
	}
}
