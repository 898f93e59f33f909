package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "renta/internal/bookings/errors"
	"renta/internal/bookings/repository"
	"renta/internal/bookings/validator"
	"renta/internal/pricing"
	"renta/pkg/config"
	apperrors "renta/pkg/errors"
	"renta/pkg/model"
	"renta/pkg/sanitizer"
)

// totalTolerance absorbs client-side rounding when comparing an asserted
// total against the server-computed quote.
var totalTolerance = decimal.RequireFromString("0.01")

// ProductSource supplies product and pricing reads without coupling the
// booking domain to the products service implementation.
type ProductSource interface {
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindActivePricing(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error)
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, customerID, productID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
	CheckAvailability(ctx context.Context, productID string, query *model.AvailabilityQuery) (*model.AvailabilityResult, error)
	Confirm(ctx context.Context, id string, paymentRef string) (*model.Booking, error)
	Pickup(ctx context.Context, id string) (*model.Booking, error)
	Return(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	LateBookings(ctx context.Context, limit int, offset int64) ([]*model.LateBookingView, int64, error)
	LateFee(ctx context.Context, id string) (*model.LateFeeView, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	products  ProductSource
	validator *validator.BookingValidator
	calc      pricing.Calculator
	events    EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	products ProductSource,
	validator *validator.BookingValidator,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		products:  products,
		validator: validator,
		calc:      pricing.NewCalculator(cfg.ServiceFee, cfg.LateFeeRatePercent),
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.applyDefaults(req)
	s.sanitize(&req.Booking)

	if err := s.mergeClocks(req); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.findBookableProduct(ctx, req.ProductID, req.StartTime, req.EndTime, req.Quantity)
	if err != nil {
		return nil, err
	}

	row, err := s.findActivePricing(ctx, product.ID, req.DurationType)
	if err != nil {
		return nil, err
	}

	quote, err := s.quote(row, req.StartTime, req.EndTime, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.verifyClientTotal(req, quote); err != nil {
		return nil, err
	}

	booking := &req.Booking
	booking.BasePrice = model.MoneyFrom(quote.BasePrice)
	booking.Discount = model.MoneyFrom(quote.Discount)
	booking.ServiceFee = model.MoneyFrom(quote.ServiceFee)
	booking.LateFee = model.ZeroMoney()
	booking.TotalAmount = model.MoneyFrom(quote.Total)

	// Advisory lock closes the gap between the availability check and the
	// insert for two requests racing on the same slot.
	lockID, err := s.acquireSlotLock(ctx, booking.ProductID, booking.StartTime)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifySlotFree(sessCtx, booking.ProductID, booking.StartTime, booking.EndTime, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"product_id", booking.ProductID,
		"customer_id", booking.CustomerID,
		"start_time", booking.StartTime,
		"total_amount", booking.TotalAmount,
	)
	s.publishEvent(ctx, EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	booking.Status = booking.EffectiveStatus(s.now())
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.presentLate(bookings)
	return bookings, count, nil
}

func (s *bookingService) Search(ctx context.Context, customerID, productID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if customerID == "" && productID == "" {
		return nil, 0, apperrors.InvalidInput("At least one of customer_id or product_id is required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByCustomerAndProduct(ctx, customerID, productID, startTime, endTime)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by search",
				"customer_id", customerID,
				"product_id", productID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByCustomerAndProduct(ctx, customerID, productID, startTime, endTime, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"customer_id", customerID,
				"product_id", productID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.presentLate(bookings)
	s.cfg.Log.Debug("Booking search completed",
		"customer_id", customerID,
		"product_id", productID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// CheckAvailability answers whether [start, end) is free for the product.
// The range is half-open, so back-to-back bookings sharing a boundary
// instant do not conflict. Optional HH:MM clocks are merged onto the date
// bounds first, mirroring hourly booking creation.
func (s *bookingService) CheckAvailability(ctx context.Context, productID string, query *model.AvailabilityQuery) (*model.AvailabilityResult, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}
	if err := mergeSlotClocks(&query.StartTime, &query.EndTime, query.StartClock, query.EndClock); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAvailability(query); err != nil {
		s.cfg.Log.Warn("Availability query validation failed", "product_id", productID, "error", err)
		return nil, apperrors.Validation("Invalid availability query", map[string]any{"error": err.Error()})
	}

	conflicts, err := s.repo.FindOverlapping(ctx, productID, query.StartTime, query.EndTime, query.ExcludeBookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid exclude_booking_id format")
		}
		s.cfg.Log.Error("Failed to check availability", "product_id", productID, "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	return &model.AvailabilityResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *bookingService) Confirm(ctx context.Context, id string, paymentRef string) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusConfirmed, EventBookingConfirmed, func(b *model.Booking) error {
		b.PaymentRef = sanitizer.SanitizeReference(paymentRef)
		return nil
	})
}

func (s *bookingService) Pickup(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusActive, EventBookingPickedUp, nil)
}

// Return completes the rental. If the item comes back past its end date, the
// accrued late fee is locked into the booking and added to the total.
func (s *bookingService) Return(ctx context.Context, id string) (*model.Booking, error) {
	returnedAt := s.now()
	return s.transition(ctx, id, model.StatusReturned, EventBookingReturned, func(b *model.Booking) error {
		b.ActualReturnTime = &returnedAt

		fee, daysLate := s.calc.LateFee(b.BasePrice.Decimal, b.EndTime, returnedAt)
		if daysLate > 0 {
			b.LateFee = model.MoneyFrom(fee)
			b.TotalAmount = model.MoneyFrom(b.TotalAmount.Add(fee))
			s.cfg.Log.Info("Late return fee applied",
				"id", b.ID,
				"days_late", daysLate,
				"late_fee", b.LateFee,
			)
		}
		return nil
	})
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusCancelled, EventBookingCancelled, nil)
}

// LateBookings lists active bookings past their end date, decorated with the
// derived late status and the penalty accrued so far.
func (s *bookingService) LateBookings(ctx context.Context, limit int, offset int64) ([]*model.LateBookingView, int64, error) {
	now := s.now()

	count, err := s.repo.CountOverdue(ctx, now)
	if err != nil {
		s.cfg.Log.Error("Failed to count overdue bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to count overdue bookings", err)
	}

	bookings, err := s.repo.FindOverdue(ctx, now, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list overdue bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve overdue bookings", err)
	}

	views := make([]*model.LateBookingView, 0, len(bookings))
	for _, b := range bookings {
		fee, daysLate := s.calc.LateFee(b.BasePrice.Decimal, b.EndTime, now)
		views = append(views, &model.LateBookingView{
			Booking:         b,
			EffectiveStatus: b.EffectiveStatus(now),
			DaysLate:        daysLate,
			AccruedLateFee:  model.MoneyFrom(fee),
		})
	}

	return views, count, nil
}

// LateFee projects the current penalty for one booking without persisting
// anything. Returned bookings report their locked-in fee instead.
func (s *bookingService) LateFee(ctx context.Context, id string) (*model.LateFeeView, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.StatusReturned {
		return &model.LateFeeView{
			BookingID:      booking.ID,
			DaysLate:       pricing.DaysLate(booking.EndTime, returnTimeOrEnd(booking)),
			LateFee:        booking.LateFee,
			ProjectedTotal: booking.TotalAmount,
		}, nil
	}

	fee, daysLate := s.calc.LateFee(booking.BasePrice.Decimal, booking.EndTime, s.now())
	return &model.LateFeeView{
		BookingID:      booking.ID,
		DaysLate:       daysLate,
		LateFee:        model.MoneyFrom(fee),
		ProjectedTotal: model.MoneyFrom(booking.TotalAmount.Add(fee)),
	}, nil
}

// --- Helpers ---

func returnTimeOrEnd(b *model.Booking) time.Time {
	if b.ActualReturnTime != nil {
		return *b.ActualReturnTime
	}
	return b.EndTime
}

func (s *bookingService) applyDefaults(req *model.BookingRequest) {
	if req.Status == "" {
		req.Status = model.StatusReserved
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.CustomerID = sanitizer.SanitizeReference(b.CustomerID)
	b.PaymentRef = sanitizer.SanitizeReference(b.PaymentRef)
}

// mergeClocks folds HH:MM clock strings onto the date portion of the slot
// bounds so a same-day hourly rental prices by hours.
func (s *bookingService) mergeClocks(req *model.BookingRequest) error {
	if req.DurationType != model.DurationHourly {
		return nil
	}
	return mergeSlotClocks(&req.StartTime, &req.EndTime, req.StartClock, req.EndClock)
}

func mergeSlotClocks(start, end *time.Time, startClock, endClock string) error {
	if startClock != "" {
		merged, err := pricing.MergeClock(*start, startClock)
		if err != nil {
			return apperrors.InvalidInput("Invalid start_clock: must be in HH:MM format")
		}
		*start = merged
	}
	if endClock != "" {
		merged, err := pricing.MergeClock(*end, endClock)
		if err != nil {
			return apperrors.InvalidInput("Invalid end_clock: must be in HH:MM format")
		}
		*end = merged
	}
	return nil
}

func (s *bookingService) validateRequest(req *model.BookingRequest) error {
	if req.Status != model.StatusReserved {
		return apperrors.InvalidInput("New bookings must start in reserved status")
	}
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) findBookableProduct(ctx context.Context, productID string, start, end time.Time, quantity int) (*model.Product, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.Bookable() {
		return nil, apperrors.Conflict(fmt.Sprintf("Product %s is not open for booking", productID))
	}
	if !product.WithinWindow(start, end) {
		return nil, apperrors.Conflict(fmt.Sprintf("Requested range falls outside product %s availability window", productID))
	}
	if quantity > product.Quantity {
		return nil, apperrors.Validation("Requested quantity exceeds product stock", map[string]any{
			"requested": quantity,
			"available": product.Quantity,
		})
	}
	return product, nil
}

// findActivePricing maps a missing pricing row to a validation error: a
// product with no active row for the duration type is simply unbookable at
// that granularity.
func (s *bookingService) findActivePricing(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
	row, err := s.products.FindActivePricing(ctx, productID, dt)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr != nil && appErr.Code == apperrors.CodeNotFound {
			return nil, apperrors.Validation(
				fmt.Sprintf("Product cannot be booked %s: no active pricing", dt),
				map[string]any{"duration_type": string(dt)},
			)
		}
		return nil, err
	}
	return row, nil
}

func (s *bookingService) quote(row *model.ProductPricing, start, end time.Time, quantity int) (pricing.Quote, error) {
	quote, err := s.calc.Quote(*row, start, end, quantity)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrDurationBounds):
			return pricing.Quote{}, apperrors.Validation("Booking duration violates pricing bounds", map[string]any{
				"error":        err.Error(),
				"min_duration": row.MinDuration,
				"max_duration": row.MaxDuration,
			})
		case errors.Is(err, pricing.ErrInvalidRange), errors.Is(err, pricing.ErrInvalidQuantity):
			return pricing.Quote{}, apperrors.InvalidInput(err.Error())
		}
		return pricing.Quote{}, apperrors.Internal("Failed to compute quote", err)
	}
	return quote, nil
}

// verifyClientTotal rejects a creation request whose asserted total drifts
// from the server-computed quote. The server quote is authoritative either
// way; prices are never taken from the client.
func (s *bookingService) verifyClientTotal(req *model.BookingRequest, quote pricing.Quote) error {
	if req.TotalAmount.IsZero() {
		return nil
	}

	diff := req.TotalAmount.Sub(quote.Total).Abs()
	if diff.GreaterThan(totalTolerance) {
		return apperrors.Validation("Client total does not match the computed quote", map[string]any{
			"client_total":   req.TotalAmount,
			"computed_total": model.MoneyFrom(quote.Total),
		})
	}
	return nil
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// transition loads the booking, enforces the lifecycle matrix, applies the
// optional mutation and persists the step. Illegal steps surface as
// invalid-transition conflicts rather than silent writes.
func (s *bookingService) transition(ctx context.Context, id string, target model.BookingStatus, eventType string, mutate func(*model.Booking) error) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(target) {
		s.cfg.Log.Warn("Rejected booking transition",
			"id", id,
			"from", booking.Status,
			"to", target,
		)
		return nil, apperrors.InvalidTransition(string(booking.Status), string(target))
	}

	booking.Status = target
	if mutate != nil {
		if err := mutate(booking); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.UpdateStatus(ctx, id, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to persist booking transition", "id", id, "to", target, "error", err)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	s.cfg.Log.Info("Booking transitioned", "id", id, "status", target)
	s.publishEvent(ctx, eventType, booking)
	return booking, nil
}

func (s *bookingService) presentLate(bookings []*model.Booking) {
	now := s.now()
	for _, b := range bookings {
		b.Status = b.EffectiveStatus(now)
	}
}

func (s *bookingService) verifySlotFree(ctx context.Context, productID string, start, end time.Time, excludeID string) error {
	conflicts, err := s.repo.FindOverlapping(ctx, productID, start, end, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if len(conflicts) > 0 {
		first := conflicts[0]
		return apperrors.Conflict(fmt.Sprintf(
			"Booking time overlaps with existing booking (%s - %s)",
			first.StartTime.Format(time.RFC3339),
			first.EndTime.Format(time.RFC3339),
		))
	}
	return nil
}

// acquireSlotLock creates an advisory lock to prevent concurrent booking creation
// Returns the lock ID if successful, or conflict error if lock already exists
func (s *bookingService) acquireSlotLock(ctx context.Context, productID string, startTime time.Time) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s_%d", productID, startTime.Unix())

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.LockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

// releaseSlotLock removes the advisory lock
func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
