package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"renta/pkg/model"
)

var (
	ErrInvalidRange        = errors.New("end time must be after start time")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrUnknownDurationType = errors.New("unknown duration type")
	ErrDurationBounds      = errors.New("duration outside the pricing row's bounds")
	ErrInvalidClock        = errors.New("clock time must be in HH:MM format")
)

var hundred = decimal.NewFromInt(100)

// Quote is the server-computed price breakdown for a booking request.
// All amounts keep full precision; rounding happens at presentation.
type Quote struct {
	Duration   int64
	BasePrice  decimal.Decimal
	Discount   decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
}

// Calculator computes quotes and late fees from explicit business settings,
// so no ambient configuration lookup happens inside the pricing math.
type Calculator struct {
	ServiceFee         decimal.Decimal
	LateFeeRatePercent decimal.Decimal
}

func NewCalculator(serviceFee, lateFeeRatePercent decimal.Decimal) Calculator {
	return Calculator{
		ServiceFee:         serviceFee,
		LateFeeRatePercent: lateFeeRatePercent,
	}
}

// MergeClock replaces the wall-clock portion of date with an HH:MM clock
// string. Hourly bookings carry explicit clock times merged onto the date, so
// a same-day rental prices by hours rather than calendar days.
func MergeClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// Units converts the elapsed time between start and end into billable units
// of the duration type: ceil of elapsed over the unit length, minimum 1.
func Units(dt model.DurationType, start, end time.Time) (int64, error) {
	if !dt.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDurationType, dt)
	}
	if !end.After(start) {
		return 0, ErrInvalidRange
	}

	unit := dt.Unit()
	elapsed := end.Sub(start)

	units := int64(elapsed / unit)
	if elapsed%unit != 0 {
		units++
	}
	if units < 1 {
		units = 1
	}
	return units, nil
}

// Quote prices a booking request against a pricing row:
//
//	base     = rate x duration x quantity
//	discount = base x discountPercent/100
//	total    = base - discount + serviceFee
func (c Calculator) Quote(row model.ProductPricing, start, end time.Time, quantity int) (Quote, error) {
	if quantity < 1 {
		return Quote{}, ErrInvalidQuantity
	}

	units, err := Units(row.DurationType, start, end)
	if err != nil {
		return Quote{}, err
	}

	if row.MinDuration > 0 && units < row.MinDuration {
		return Quote{}, fmt.Errorf("%w: %d %s units, minimum %d", ErrDurationBounds, units, row.DurationType, row.MinDuration)
	}
	if row.MaxDuration > 0 && units > row.MaxDuration {
		return Quote{}, fmt.Errorf("%w: %d %s units, maximum %d", ErrDurationBounds, units, row.DurationType, row.MaxDuration)
	}

	base := row.BasePrice.Decimal.
		Mul(decimal.NewFromInt(units)).
		Mul(decimal.NewFromInt(int64(quantity)))
	discount := base.Mul(row.DiscountPercent.Decimal).Div(hundred)
	total := base.Sub(discount).Add(c.ServiceFee)

	return Quote{
		Duration:   units,
		BasePrice:  base,
		Discount:   discount,
		ServiceFee: c.ServiceFee,
		Total:      total,
	}, nil
}

// LateFee computes the accrued penalty for an active booking past its end
// date: basePrice x rate/100 per full day late. It returns zero before the
// end date. The fee is derived on demand and only locked in at return time.
func (c Calculator) LateFee(basePrice decimal.Decimal, endTime, now time.Time) (decimal.Decimal, int64) {
	daysLate := DaysLate(endTime, now)
	if daysLate <= 0 {
		return decimal.Zero, 0
	}

	fee := basePrice.
		Mul(c.LateFeeRatePercent).
		Div(hundred).
		Mul(decimal.NewFromInt(daysLate))
	return fee, daysLate
}

// DaysLate is the number of full days elapsed past endTime, floored, never
// negative.
func DaysLate(endTime, now time.Time) int64 {
	if !now.After(endTime) {
		return 0
	}
	return int64(now.Sub(endTime) / (24 * time.Hour))
}
