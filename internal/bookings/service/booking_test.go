package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"renta/internal/bookings/repository"
	"renta/internal/bookings/validator"
	"renta/internal/pricing"
	"renta/pkg/config"
	mongotx "renta/pkg/db/mongo"
	apperrors "renta/pkg/errors"
	"renta/pkg/logger"
	"renta/pkg/model"
)

// Mock repositories for testing

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findOverlappingFunc func(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error)
	updateStatusFunc    func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	findOverdueFunc     func(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Booking, error)
	countOverdueFunc    func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "65f000000000000000000099"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, productID, startTime, endTime, excludeID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByCustomerAndProduct(ctx context.Context, customerID string, productID string, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByCustomerAndProduct(ctx context.Context, customerID string, productID string, startTime, endTime *time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) FindOverdue(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Booking, error) {
	if m.findOverdueFunc != nil {
		return m.findOverdueFunc(ctx, now, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	if m.countOverdueFunc != nil {
		return m.countOverdueFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockProductSource struct {
	findProductFunc func(ctx context.Context, id string) (*model.Product, error)
	findPricingFunc func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error)
}

func (m *mockProductSource) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	if m.findProductFunc != nil {
		return m.findProductFunc(ctx, id)
	}
	return &model.Product{ID: id, Active: true, Quantity: 5}, nil
}

func (m *mockProductSource) FindActivePricing(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
	if m.findPricingFunc != nil {
		return m.findPricingFunc(ctx, productID, dt)
	}
	return &model.ProductPricing{
		ProductID:       productID,
		DurationType:    dt,
		BasePrice:       mustMoney("50"),
		DiscountPercent: mustMoney("10"),
		Active:          true,
	}, nil
}

func mustMoney(s string) model.Money {
	m, err := model.MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

const productID = "65f000000000000000000001"

func newTestService(repo repository.BookingRepository, lockRepo repository.BookingLockRepository, products ProductSource) *bookingService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	cfg := &config.Config{
		Log:     log,
		LockTTL: 10 * time.Second,
	}

	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		products:  products,
		validator: validator.NewBookingValidator(log),
		calc:      pricing.NewCalculator(decimal.RequireFromString("8.50"), decimal.RequireFromString("5")),
		cfg:       cfg,
		now:       time.Now,
	}
}

func validRequest() *model.BookingRequest {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	return &model.BookingRequest{
		Booking: model.Booking{
			CustomerID:   "cust-1",
			ProductID:    productID,
			Quantity:     1,
			StartTime:    start,
			EndTime:      start.Add(72 * time.Hour),
			DurationType: model.DurationDaily,
		},
	}
}

func TestCreateComputesQuoteServerSide(t *testing.T) {
	var inserted *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			inserted = booking
			booking.ID = "65f000000000000000000099"
			return nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, &mockProductSource{})

	booking, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if inserted == nil {
		t.Fatal("Create() did not insert a booking")
	}
	if booking.Status != model.StatusReserved {
		t.Errorf("Status = %s, want %s", booking.Status, model.StatusReserved)
	}

	// 50 x 3 days, 10% discount, 8.50 flat fee.
	if !booking.BasePrice.Equal(decimal.RequireFromString("150")) {
		t.Errorf("BasePrice = %s, want 150", booking.BasePrice)
	}
	if !booking.Discount.Equal(decimal.RequireFromString("15")) {
		t.Errorf("Discount = %s, want 15", booking.Discount)
	}
	if !booking.TotalAmount.Equal(decimal.RequireFromString("143.50")) {
		t.Errorf("TotalAmount = %s, want 143.50", booking.TotalAmount)
	}
	if !booking.LateFee.IsZero() {
		t.Errorf("LateFee = %s, want 0", booking.LateFee)
	}

	if len(locks.deleted) != 1 {
		t.Errorf("expected slot lock to be released once, got %d releases", len(locks.deleted))
	}
}

func TestCreateRejectsMismatchedClientTotal(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

	req := validRequest()
	req.TotalAmount = mustMoney("99.99")

	_, err := svc.Create(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
}

func TestCreateAcceptsClientTotalWithinTolerance(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

	req := validRequest()
	req.TotalAmount = mustMoney("143.51")

	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
}

func TestCreateRejectsOverlappingSlot(t *testing.T) {
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "65f000000000000000000002", StartTime: startTime, EndTime: endTime},
			}, nil
		},
	}
	locks := &mockLockRepository{}
	svc := newTestService(repo, locks, &mockProductSource{})

	_, err := svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("Create() error = %v, want conflict", err)
	}

	if len(locks.deleted) != 1 {
		t.Errorf("slot lock must be released on conflict, got %d releases", len(locks.deleted))
	}
}

func TestCreateRejectsWhenSlotLocked(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			return nil, mongo.WriteException{
				WriteErrors: mongo.WriteErrors{
					{Code: 11000},
				},
			}
		},
	}
	svc := newTestService(&mockBookingRepository{}, locks, &mockProductSource{})

	_, err := svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("Create() error = %v, want conflict while slot locked", err)
	}
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	products := &mockProductSource{
		findProductFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Active: false, Quantity: 5}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, products)

	_, err := svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("Create() error = %v, want conflict for inactive product", err)
	}
}

func TestCreateRejectsExcessQuantity(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

	req := validRequest()
	req.Quantity = 6

	_, err := svc.Create(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Create() error = %v, want validation error for quantity", err)
	}
}

func TestCreateRejectsMissingPricing(t *testing.T) {
	products := &mockProductSource{
		findPricingFunc: func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
			return nil, apperrors.NotFound("Active pricing")
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, products)

	_, err := svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Create() error = %v, want validation error for missing pricing", err)
	}
}

func TestCreateMergesHourlyClocks(t *testing.T) {
	var inserted *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			inserted = booking
			return nil
		},
	}
	products := &mockProductSource{
		findPricingFunc: func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
			return &model.ProductPricing{
				ProductID:    productID,
				DurationType: dt,
				BasePrice:    mustMoney("10"),
				Active:       true,
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, products)

	day := time.Now().Add(48 * time.Hour)
	req := &model.BookingRequest{
		Booking: model.Booking{
			CustomerID:   "cust-1",
			ProductID:    productID,
			Quantity:     1,
			StartTime:    day,
			EndTime:      day,
			DurationType: model.DurationHourly,
		},
		StartClock: "23:00",
		EndClock:   "23:45",
	}

	booking, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if inserted.StartTime.Hour() != 23 || inserted.StartTime.Minute() != 0 {
		t.Errorf("StartTime clock = %02d:%02d, want 23:00", inserted.StartTime.Hour(), inserted.StartTime.Minute())
	}
	// 45 minutes bills one full hour.
	if !booking.BasePrice.Equal(decimal.RequireFromString("10")) {
		t.Errorf("BasePrice = %s, want 10", booking.BasePrice)
	}
}

func TestCheckAvailability(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)

	t.Run("free slot", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

		result, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			t.Fatalf("CheckAvailability() unexpected error: %v", err)
		}
		if !result.Available {
			t.Error("expected slot to be available")
		}
	})

	t.Run("occupied slot reports conflicts", func(t *testing.T) {
		repo := &mockBookingRepository{
			findOverlappingFunc: func(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error) {
				return []*model.Booking{{ID: "65f000000000000000000002"}}, nil
			},
		}
		svc := newTestService(repo, &mockLockRepository{}, &mockProductSource{})

		result, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			t.Fatalf("CheckAvailability() unexpected error: %v", err)
		}
		if result.Available {
			t.Error("expected slot to be unavailable")
		}
		if len(result.Conflicts) != 1 {
			t.Errorf("Conflicts = %d, want 1", len(result.Conflicts))
		}
	})

	t.Run("exclude id forwarded to repository", func(t *testing.T) {
		var captured string
		repo := &mockBookingRepository{
			findOverlappingFunc: func(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error) {
				captured = excludeID
				return nil, nil
			},
		}
		svc := newTestService(repo, &mockLockRepository{}, &mockProductSource{})

		_, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime:        start,
			EndTime:          end,
			ExcludeBookingID: "65f000000000000000000003",
		})
		if err != nil {
			t.Fatalf("CheckAvailability() unexpected error: %v", err)
		}
		if captured != "65f000000000000000000003" {
			t.Errorf("excludeID = %q, want the requested booking ID", captured)
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

		_, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime: end,
			EndTime:   start,
		})
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.Code != apperrors.CodeValidation {
			t.Fatalf("CheckAvailability() error = %v, want validation error", err)
		}
	})

	t.Run("clocks refine a same-day window", func(t *testing.T) {
		day := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

		var gotStart, gotEnd time.Time
		repo := &mockBookingRepository{
			findOverlappingFunc: func(ctx context.Context, productID string, startTime, endTime time.Time, excludeID string) ([]*model.Booking, error) {
				gotStart, gotEnd = startTime, endTime
				return nil, nil
			},
		}
		svc := newTestService(repo, &mockLockRepository{}, &mockProductSource{})

		result, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime:  day,
			EndTime:    day,
			StartClock: "09:00",
			EndClock:   "13:00",
		})
		if err != nil {
			t.Fatalf("CheckAvailability() unexpected error: %v", err)
		}
		if !result.Available {
			t.Error("expected slot to be available")
		}
		if want := day.Add(9 * time.Hour); !gotStart.Equal(want) {
			t.Errorf("queried start = %s, want %s", gotStart, want)
		}
		if want := day.Add(13 * time.Hour); !gotEnd.Equal(want) {
			t.Errorf("queried end = %s, want %s", gotEnd, want)
		}
	})

	t.Run("malformed clock rejected", func(t *testing.T) {
		day := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
		svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockProductSource{})

		_, err := svc.CheckAvailability(context.Background(), productID, &model.AvailabilityQuery{
			StartTime:  day,
			EndTime:    day,
			StartClock: "9:00",
			EndClock:   "13:00",
		})
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
			t.Fatalf("CheckAvailability() error = %v, want invalid input error", err)
		}
	})
}

func storedBooking(status model.BookingStatus) *model.Booking {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	return &model.Booking{
		ID:           "65f000000000000000000010",
		CustomerID:   "cust-1",
		ProductID:    productID,
		Status:       status,
		Quantity:     1,
		StartTime:    start,
		EndTime:      start.Add(48 * time.Hour),
		DurationType: model.DurationDaily,
		BasePrice:    mustMoney("100"),
		Discount:     mustMoney("0"),
		ServiceFee:   mustMoney("8.50"),
		LateFee:      mustMoney("0"),
		TotalAmount:  mustMoney("108.50"),
	}
}

func serviceWithStored(status model.BookingStatus) (*bookingService, **model.Booking) {
	stored := storedBooking(status)
	var updated *model.Booking
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			c := *stored
			return &c, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
			updated = booking
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockProductSource{})
	return svc, &updated
}

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BookingStatus
		step    func(svc *bookingService, id string) (*model.Booking, error)
		wantTo  model.BookingStatus
		wantErr bool
	}{
		{
			name:   "confirm from reserved",
			from:   model.StatusReserved,
			step:   func(svc *bookingService, id string) (*model.Booking, error) { return svc.Confirm(context.Background(), id, "pay-1") },
			wantTo: model.StatusConfirmed,
		},
		{
			name:   "pickup from confirmed",
			from:   model.StatusConfirmed,
			step:   func(svc *bookingService, id string) (*model.Booking, error) { return svc.Pickup(context.Background(), id) },
			wantTo: model.StatusActive,
		},
		{
			name:   "return from active",
			from:   model.StatusActive,
			step:   func(svc *bookingService, id string) (*model.Booking, error) { return svc.Return(context.Background(), id) },
			wantTo: model.StatusReturned,
		},
		{
			name:   "cancel from reserved",
			from:   model.StatusReserved,
			step:   func(svc *bookingService, id string) (*model.Booking, error) { return svc.Cancel(context.Background(), id) },
			wantTo: model.StatusCancelled,
		},
		{
			name:   "cancel from confirmed",
			from:   model.StatusConfirmed,
			step:   func(svc *bookingService, id string) (*model.Booking, error) { return svc.Cancel(context.Background(), id) },
			wantTo: model.StatusCancelled,
		},
		{
			name:    "pickup from reserved rejected",
			from:    model.StatusReserved,
			step:    func(svc *bookingService, id string) (*model.Booking, error) { return svc.Pickup(context.Background(), id) },
			wantErr: true,
		},
		{
			name:    "cancel from active rejected",
			from:    model.StatusActive,
			step:    func(svc *bookingService, id string) (*model.Booking, error) { return svc.Cancel(context.Background(), id) },
			wantErr: true,
		},
		{
			name:    "confirm from returned rejected",
			from:    model.StatusReturned,
			step:    func(svc *bookingService, id string) (*model.Booking, error) { return svc.Confirm(context.Background(), id, "") },
			wantErr: true,
		},
		{
			name:    "return from cancelled rejected",
			from:    model.StatusCancelled,
			step:    func(svc *bookingService, id string) (*model.Booking, error) { return svc.Return(context.Background(), id) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, updated := serviceWithStored(tt.from)

			booking, err := tt.step(svc, "65f000000000000000000010")
			if tt.wantErr {
				appErr := apperrors.AsAppError(err)
				if appErr == nil || appErr.Code != apperrors.CodeInvalidTransition {
					t.Fatalf("error = %v, want invalid transition", err)
				}
				if *updated != nil {
					t.Error("rejected transition must not persist")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.Status != tt.wantTo {
				t.Errorf("Status = %s, want %s", booking.Status, tt.wantTo)
			}
			if *updated == nil {
				t.Error("accepted transition must persist")
			}
		})
	}
}

func TestReturnLocksInLateFee(t *testing.T) {
	svc, updated := serviceWithStored(model.StatusActive)

	stored := storedBooking(model.StatusActive)
	svc.now = func() time.Time { return stored.EndTime.Add(3 * 24 * time.Hour) }

	booking, err := svc.Return(context.Background(), "65f000000000000000000010")
	if err != nil {
		t.Fatalf("Return() unexpected error: %v", err)
	}

	// 3 full days late at 5% of a 100 base.
	if !booking.LateFee.Equal(decimal.RequireFromString("15")) {
		t.Errorf("LateFee = %s, want 15", booking.LateFee)
	}
	if !booking.TotalAmount.Equal(decimal.RequireFromString("123.50")) {
		t.Errorf("TotalAmount = %s, want 123.50", booking.TotalAmount)
	}
	if booking.ActualReturnTime == nil {
		t.Error("ActualReturnTime must be set on return")
	}
	if *updated == nil {
		t.Fatal("return must persist")
	}
}

func TestReturnOnTimeKeepsTotal(t *testing.T) {
	svc, _ := serviceWithStored(model.StatusActive)

	stored := storedBooking(model.StatusActive)
	svc.now = func() time.Time { return stored.EndTime.Add(-time.Hour) }

	booking, err := svc.Return(context.Background(), "65f000000000000000000010")
	if err != nil {
		t.Fatalf("Return() unexpected error: %v", err)
	}

	if !booking.LateFee.IsZero() {
		t.Errorf("LateFee = %s, want 0", booking.LateFee)
	}
	if !booking.TotalAmount.Equal(decimal.RequireFromString("108.50")) {
		t.Errorf("TotalAmount = %s, want unchanged 108.50", booking.TotalAmount)
	}
}

func TestGetByIDPresentsLateStatus(t *testing.T) {
	svc, _ := serviceWithStored(model.StatusActive)

	stored := storedBooking(model.StatusActive)
	svc.now = func() time.Time { return stored.EndTime.Add(time.Hour) }

	booking, err := svc.GetByID(context.Background(), "65f000000000000000000010")
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if booking.Status != model.StatusLate {
		t.Errorf("Status = %s, want %s", booking.Status, model.StatusLate)
	}
}

func TestLateBookings(t *testing.T) {
	overdue := storedBooking(model.StatusActive)
	repo := &mockBookingRepository{
		findOverdueFunc: func(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Booking, error) {
			return []*model.Booking{overdue}, nil
		},
		countOverdueFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockProductSource{})
	svc.now = func() time.Time { return overdue.EndTime.Add(2 * 24 * time.Hour) }

	views, total, err := svc.LateBookings(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("LateBookings() unexpected error: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("got %d views (total %d), want 1", len(views), total)
	}

	view := views[0]
	if view.EffectiveStatus != model.StatusLate {
		t.Errorf("EffectiveStatus = %s, want %s", view.EffectiveStatus, model.StatusLate)
	}
	if view.DaysLate != 2 {
		t.Errorf("DaysLate = %d, want 2", view.DaysLate)
	}
	if !view.AccruedLateFee.Equal(decimal.RequireFromString("10")) {
		t.Errorf("AccruedLateFee = %s, want 10", view.AccruedLateFee)
	}
}

func TestLateFeeProjection(t *testing.T) {
	svc, _ := serviceWithStored(model.StatusActive)

	stored := storedBooking(model.StatusActive)
	svc.now = func() time.Time { return stored.EndTime.Add(2 * 24 * time.Hour) }

	view, err := svc.LateFee(context.Background(), "65f000000000000000000010")
	if err != nil {
		t.Fatalf("LateFee() unexpected error: %v", err)
	}
	if view.DaysLate != 2 {
		t.Errorf("DaysLate = %d, want 2", view.DaysLate)
	}
	if !view.LateFee.Equal(decimal.RequireFromString("10")) {
		t.Errorf("LateFee = %s, want 10", view.LateFee)
	}
	if !view.ProjectedTotal.Equal(decimal.RequireFromString("118.50")) {
		t.Errorf("ProjectedTotal = %s, want 118.50", view.ProjectedTotal)
	}
}
