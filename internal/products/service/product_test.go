package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"renta/internal/pricing"
	productserrors "renta/internal/products/errors"
	"renta/internal/products/validator"
	"renta/pkg/config"
	mongotx "renta/pkg/db/mongo"
	apperrors "renta/pkg/errors"
	"renta/pkg/logger"
	"renta/pkg/model"
)

// Mock repositories for testing

type mockProductRepository struct {
	createFunc   func(ctx context.Context, product *model.Product) error
	findByIDFunc func(ctx context.Context, id string) (*model.Product, error)
	updateFunc   func(ctx context.Context, id string, product *model.Product) (*mongo.UpdateResult, error)
}

func (m *mockProductRepository) Create(ctx context.Context, product *model.Product) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, product)
	}
	product.ID = "65f000000000000000000001"
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Product{
		ID:         id,
		OwnerID:    "owner-1",
		Name:       "Cordless drill",
		CategoryID: "tools",
		Location:   "tel aviv",
		Quantity:   3,
		Active:     true,
	}, nil
}

func (m *mockProductRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Product, error) {
	return []*model.Product{}, nil
}

func (m *mockProductRepository) Update(ctx context.Context, id string, product *model.Product) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, product)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockProductRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockPricingRepository struct {
	insertFunc     func(ctx context.Context, row *model.ProductPricing) error
	deactivateFunc func(ctx context.Context, productID string, dt model.DurationType) error
	findActiveFunc func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error)
}

func (m *mockPricingRepository) Insert(ctx context.Context, row *model.ProductPricing) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, row)
	}
	row.ID = "65f000000000000000000050"
	return nil
}

func (m *mockPricingRepository) DeactivateActive(ctx context.Context, productID string, dt model.DurationType) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, productID, dt)
	}
	return nil
}

func (m *mockPricingRepository) FindActive(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, productID, dt)
	}
	return nil, productserrors.ErrPricingNotFound
}

func (m *mockPricingRepository) FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.ProductPricing, error) {
	return []*model.ProductPricing{}, nil
}

func (m *mockPricingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func mustMoney(s string) model.Money {
	m, err := model.MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

const productID = "65f000000000000000000001"

func newTestService(repo *mockProductRepository, pricingRepo *mockPricingRepository) *productService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	cfg := &config.Config{Log: log}

	return &productService{
		repo:        repo,
		pricingRepo: pricingRepo,
		validator:   validator.NewProductValidator(log),
		calc:        pricing.NewCalculator(decimal.RequireFromString("8.50"), decimal.RequireFromString("5")),
		cfg:         cfg,
	}
}

func TestCreateSanitizesInput(t *testing.T) {
	var inserted *model.Product
	repo := &mockProductRepository{
		createFunc: func(ctx context.Context, product *model.Product) error {
			inserted = product
			return nil
		},
	}
	svc := newTestService(repo, &mockPricingRepository{})

	product := &model.Product{
		OwnerID:    "owner-1",
		Name:       "  Cordless   Drill  ",
		CategoryID: "tools",
		Location:   "  Tel    Aviv ",
		Quantity:   3,
		Active:     true,
	}

	if err := svc.Create(context.Background(), product); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if inserted.Name != "Cordless Drill" {
		t.Errorf("Name = %q, want whitespace collapsed", inserted.Name)
	}
	if inserted.Location != "tel aviv" {
		t.Errorf("Location = %q, want lowercased and collapsed", inserted.Location)
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, &mockPricingRepository{})

	from := time.Now().Add(72 * time.Hour)
	until := from.Add(-time.Hour)
	product := &model.Product{
		OwnerID:        "owner-1",
		Name:           "Cordless drill",
		CategoryID:     "tools",
		Location:       "tel aviv",
		Quantity:       3,
		Active:         true,
		AvailableFrom:  &from,
		AvailableUntil: &until,
	}

	err := svc.Create(context.Background(), product)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
}

func TestUpsertPricingRetiresOldRowFirst(t *testing.T) {
	var order []string
	pricingRepo := &mockPricingRepository{
		deactivateFunc: func(ctx context.Context, productID string, dt model.DurationType) error {
			order = append(order, "deactivate")
			return nil
		},
		insertFunc: func(ctx context.Context, row *model.ProductPricing) error {
			order = append(order, "insert")
			return nil
		},
	}
	svc := newTestService(&mockProductRepository{}, pricingRepo)

	row := &model.ProductPricing{
		DurationType:    model.DurationDaily,
		BasePrice:       mustMoney("50"),
		DiscountPercent: mustMoney("10"),
	}

	if err := svc.UpsertPricing(context.Background(), productID, row); err != nil {
		t.Fatalf("UpsertPricing() unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "deactivate" || order[1] != "insert" {
		t.Errorf("operation order = %v, want [deactivate insert]", order)
	}
	if !row.Active {
		t.Error("upserted row must be active")
	}
	if row.ProductID != productID {
		t.Errorf("ProductID = %q, want path product", row.ProductID)
	}
}

func TestUpsertPricingRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  *model.ProductPricing
	}{
		{
			name: "negative base price",
			row: &model.ProductPricing{
				DurationType: model.DurationDaily,
				BasePrice:    mustMoney("-5"),
			},
		},
		{
			name: "discount above hundred",
			row: &model.ProductPricing{
				DurationType:    model.DurationDaily,
				BasePrice:       mustMoney("50"),
				DiscountPercent: mustMoney("120"),
			},
		},
		{
			name: "min above max",
			row: &model.ProductPricing{
				DurationType: model.DurationDaily,
				BasePrice:    mustMoney("50"),
				MinDuration:  7,
				MaxDuration:  2,
			},
		},
		{
			name: "unknown duration type",
			row: &model.ProductPricing{
				DurationType: model.DurationType("fortnightly"),
				BasePrice:    mustMoney("50"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockProductRepository{}, &mockPricingRepository{})

			err := svc.UpsertPricing(context.Background(), productID, tt.row)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != apperrors.CodeValidation {
				t.Fatalf("UpsertPricing() error = %v, want validation error", err)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	pricingRepo := &mockPricingRepository{
		findActiveFunc: func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
			return &model.ProductPricing{
				ProductID:       productID,
				DurationType:    dt,
				BasePrice:       mustMoney("50"),
				DiscountPercent: mustMoney("10"),
				Active:          true,
			}, nil
		},
	}
	svc := newTestService(&mockProductRepository{}, pricingRepo)

	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.Quote(context.Background(), productID, &model.QuoteRequest{
		DurationType: model.DurationDaily,
		StartTime:    start,
		EndTime:      start.AddDate(0, 0, 3),
		Quantity:     1,
	})
	if err != nil {
		t.Fatalf("Quote() unexpected error: %v", err)
	}

	if result.Duration != 3 {
		t.Errorf("Duration = %d, want 3", result.Duration)
	}
	if !result.TotalAmount.Equal(decimal.RequireFromString("143.50")) {
		t.Errorf("TotalAmount = %s, want 143.50", result.TotalAmount)
	}
}

func TestQuoteWithoutActivePricing(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, &mockPricingRepository{})

	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Quote(context.Background(), productID, &model.QuoteRequest{
		DurationType: model.DurationWeekly,
		StartTime:    start,
		EndTime:      start.AddDate(0, 0, 7),
		Quantity:     1,
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Quote() error = %v, want validation error for missing pricing", err)
	}
}

func TestQuoteHourlyWithClocks(t *testing.T) {
	pricingRepo := &mockPricingRepository{
		findActiveFunc: func(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
			return &model.ProductPricing{
				ProductID:    productID,
				DurationType: dt,
				BasePrice:    mustMoney("10"),
				Active:       true,
			}, nil
		},
	}
	svc := newTestService(&mockProductRepository{}, pricingRepo)

	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.Quote(context.Background(), productID, &model.QuoteRequest{
		DurationType: model.DurationHourly,
		StartTime:    day,
		EndTime:      day.Add(time.Minute),
		Quantity:     1,
		StartClock:   "09:00",
		EndClock:     "13:00",
	})
	if err != nil {
		t.Fatalf("Quote() unexpected error: %v", err)
	}

	if result.Duration != 4 {
		t.Errorf("Duration = %d, want 4", result.Duration)
	}
	if !result.TotalAmount.Equal(decimal.RequireFromString("48.50")) {
		t.Errorf("TotalAmount = %s, want 48.50", result.TotalAmount)
	}
}

func TestQuoteRejectsClocksForDaily(t *testing.T) {
	svc := newTestService(&mockProductRepository{}, &mockPricingRepository{})

	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Quote(context.Background(), productID, &model.QuoteRequest{
		DurationType: model.DurationDaily,
		StartTime:    start,
		EndTime:      start.AddDate(0, 0, 2),
		Quantity:     1,
		StartClock:   "09:00",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("Quote() error = %v, want validation error for clocks on daily quote", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	var updated *model.Product
	repo := &mockProductRepository{
		updateFunc: func(ctx context.Context, id string, product *model.Product) (*mongo.UpdateResult, error) {
			updated = product
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo, &mockPricingRepository{})

	qty := 7
	inactive := false
	err := svc.Update(context.Background(), productID, &model.ProductUpdate{
		Quantity: &qty,
		Active:   &inactive,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if updated.Quantity != 7 {
		t.Errorf("Quantity = %d, want 7", updated.Quantity)
	}
	if updated.Active {
		t.Error("Active = true, want false")
	}
	if updated.Name != "Cordless drill" {
		t.Errorf("Name = %q, want untouched existing name", updated.Name)
	}
}

func TestFindProductNotFound(t *testing.T) {
	repo := &mockProductRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, productserrors.ErrNotFound
		},
	}
	svc := newTestService(repo, &mockPricingRepository{})

	_, err := svc.FindProduct(context.Background(), productID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("FindProduct() error = %v, want not found", err)
	}
}
