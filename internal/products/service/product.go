package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"renta/internal/pricing"
	productserrors "renta/internal/products/errors"
	"renta/internal/products/repository"
	"renta/internal/products/validator"
	"renta/pkg/config"
	apperrors "renta/pkg/errors"
	"renta/pkg/model"
	"renta/pkg/sanitizer"
)

type ProductService interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Product, int64, error)
	Update(ctx context.Context, id string, updates *model.ProductUpdate) error
	Delete(ctx context.Context, id string) error
	UpsertPricing(ctx context.Context, productID string, row *model.ProductPricing) error
	ListPricing(ctx context.Context, productID string, activeOnly bool) ([]*model.ProductPricing, error)
	Quote(ctx context.Context, productID string, req *model.QuoteRequest) (*model.QuoteResult, error)

	// ProductSource reads for the booking domain.
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindActivePricing(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error)
}

type productService struct {
	repo        repository.ProductRepository
	pricingRepo repository.PricingRepository
	validator   *validator.ProductValidator
	calc        pricing.Calculator
	cfg         *config.Config
}

func NewProductService(
	repo repository.ProductRepository,
	pricingRepo repository.PricingRepository,
	validator *validator.ProductValidator,
	cfg *config.Config,
) ProductService {
	return &productService{
		repo:        repo,
		pricingRepo: pricingRepo,
		validator:   validator,
		calc:        pricing.NewCalculator(cfg.ServiceFee, cfg.LateFeeRatePercent),
		cfg:         cfg,
	}
}

func (s *productService) Create(ctx context.Context, product *model.Product) error {
	s.sanitize(product)
	if err := s.validate(product); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.cfg.Log.Error("Failed to create product", "error", err)
		return apperrors.Internal("Failed to create product", err)
	}

	s.cfg.Log.Info("Product created successfully",
		"id", product.ID,
		"owner_id", product.OwnerID,
		"name", product.Name,
	)
	return nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return s.FindProduct(ctx, id)
}

func (s *productService) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Product ID cannot be empty")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, productserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid product ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve product", err)
	}

	return product, nil
}

func (s *productService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Product, int64, error) {
	var count int64
	var products []*model.Product
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count products", "error", errCount)
			errCount = apperrors.Internal("Failed to count products", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		products, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list products", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve products", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return products, count, nil
}

func (s *productService) Update(ctx context.Context, id string, updates *model.ProductUpdate) error {
	existing, err := s.FindProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Product update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeProductUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Product", id)
		}
		s.cfg.Log.Error("Failed to update product", "id", id, "error", err)
		return apperrors.Internal("Failed to update product", err)
	}

	s.cfg.Log.Info("Product updated successfully", "id", id)
	return nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Product ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, productserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Product", id)
		}
		if errors.Is(err, productserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid product ID format")
		}
		return apperrors.Internal("Failed to delete product", err)
	}

	s.cfg.Log.Info("Product deleted successfully", "id", id)
	return nil
}

// UpsertPricing replaces the active rate row for the (product, duration
// type) pair. The deactivate and insert run in one transaction so readers
// never observe two active rows.
func (s *productService) UpsertPricing(ctx context.Context, productID string, row *model.ProductPricing) error {
	if _, err := s.FindProduct(ctx, productID); err != nil {
		return err
	}

	row.ProductID = productID
	row.Active = true
	if err := s.validator.ValidatePricing(row); err != nil {
		s.cfg.Log.Warn("Pricing validation failed", "product_id", productID, "error", err)
		return apperrors.Validation("Pricing validation failed", map[string]any{"error": err.Error()})
	}

	err := s.pricingRepo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.pricingRepo.DeactivateActive(sessCtx, productID, row.DurationType); err != nil {
			return apperrors.Internal("Failed to retire previous pricing", err)
		}
		if err := s.pricingRepo.Insert(sessCtx, row); err != nil {
			return apperrors.Internal("Failed to insert pricing row", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to upsert pricing", "product_id", productID, "duration_type", row.DurationType, "error", err)
		return err
	}

	s.cfg.Log.Info("Pricing upserted successfully",
		"product_id", productID,
		"duration_type", row.DurationType,
		"base_price", row.BasePrice,
	)
	return nil
}

func (s *productService) ListPricing(ctx context.Context, productID string, activeOnly bool) ([]*model.ProductPricing, error) {
	if _, err := s.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	rows, err := s.pricingRepo.FindByProduct(ctx, productID, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to list pricing", "product_id", productID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve pricing", err)
	}
	return rows, nil
}

func (s *productService) FindActivePricing(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
	if !dt.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown duration type: %s", dt))
	}

	row, err := s.pricingRepo.FindActive(ctx, productID, dt)
	if err != nil {
		if errors.Is(err, productserrors.ErrPricingNotFound) {
			return nil, apperrors.NotFound("Active pricing")
		}
		return nil, apperrors.Internal("Failed to retrieve pricing", err)
	}
	return row, nil
}

// Quote prices a hypothetical booking without reserving anything. The
// product only needs to exist; availability is not consulted.
func (s *productService) Quote(ctx context.Context, productID string, req *model.QuoteRequest) (*model.QuoteResult, error) {
	if _, err := s.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateQuote(req); err != nil {
		s.cfg.Log.Warn("Quote validation failed", "product_id", productID, "error", err)
		return nil, apperrors.Validation("Quote validation failed", map[string]any{"error": err.Error()})
	}

	start, end := req.StartTime, req.EndTime
	if req.DurationType == model.DurationHourly {
		var err error
		if req.StartClock != "" {
			if start, err = pricing.MergeClock(start, req.StartClock); err != nil {
				return nil, apperrors.InvalidInput("Invalid start_clock: must be in HH:MM format")
			}
		}
		if req.EndClock != "" {
			if end, err = pricing.MergeClock(end, req.EndClock); err != nil {
				return nil, apperrors.InvalidInput("Invalid end_clock: must be in HH:MM format")
			}
		}
	}

	row, err := s.FindActivePricing(ctx, productID, req.DurationType)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr != nil && appErr.Code == apperrors.CodeNotFound {
			return nil, apperrors.Validation(
				fmt.Sprintf("Product cannot be quoted %s: no active pricing", req.DurationType),
				map[string]any{"duration_type": string(req.DurationType)},
			)
		}
		return nil, err
	}

	quote, err := s.calc.Quote(*row, start, end, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrDurationBounds):
			return nil, apperrors.Validation("Quote duration violates pricing bounds", map[string]any{
				"error":        err.Error(),
				"min_duration": row.MinDuration,
				"max_duration": row.MaxDuration,
			})
		case errors.Is(err, pricing.ErrInvalidRange), errors.Is(err, pricing.ErrInvalidQuantity):
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, apperrors.Internal("Failed to compute quote", err)
	}

	return &model.QuoteResult{
		ProductID:    productID,
		DurationType: req.DurationType,
		Duration:     quote.Duration,
		BasePrice:    model.MoneyFrom(quote.BasePrice),
		Discount:     model.MoneyFrom(quote.Discount),
		ServiceFee:   model.MoneyFrom(quote.ServiceFee),
		TotalAmount:  model.MoneyFrom(quote.Total),
	}, nil
}

// --- Helpers ---

func (s *productService) sanitize(p *model.Product) {
	p.OwnerID = sanitizer.SanitizeReference(p.OwnerID)
	p.CategoryID = sanitizer.SanitizeReference(p.CategoryID)
	p.Name = sanitizer.SanitizeName(p.Name)
	p.Location = sanitizer.SanitizeLocation(p.Location)
}

func (s *productService) mergeProductUpdates(existing *model.Product, updates *model.ProductUpdate) *model.Product {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.CategoryID != "" {
		merged.CategoryID = updates.CategoryID
	}
	if updates.Location != "" {
		merged.Location = updates.Location
	}
	if updates.Quantity != nil {
		merged.Quantity = *updates.Quantity
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}
	if updates.AvailableFrom != nil {
		merged.AvailableFrom = updates.AvailableFrom
	}
	if updates.AvailableUntil != nil {
		merged.AvailableUntil = updates.AvailableUntil
	}

	return &merged
}

func (s *productService) validate(product *model.Product) error {
	if err := s.validator.Validate(product); err != nil {
		s.cfg.Log.Warn("Product validation failed", "error", err)
		return apperrors.Validation("Product validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
