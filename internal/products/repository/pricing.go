package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	productserrors "renta/internal/products/errors"
	"renta/pkg/config"
	mongotx "renta/pkg/db/mongo"
	"renta/pkg/model"
)

const (
	PricingCollectionName = "Product_pricing"
)

// PricingRepository manages rate rows. A partial unique index on
// (product_id, duration_type) with active=true enforces at most one active
// row per pair at the storage layer.
type PricingRepository interface {
	Insert(ctx context.Context, row *model.ProductPricing) error
	DeactivateActive(ctx context.Context, productID string, dt model.DurationType) error
	FindActive(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error)
	FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.ProductPricing, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPricingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPricingRepository(cfg *config.Config) PricingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoPricingRepository{
		cfg:        cfg,
		collection: db.Collection(PricingCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoPricingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPricingRepository) Insert(ctx context.Context, row *model.ProductPricing) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	row.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, row)
	if err != nil {
		return fmt.Errorf("failed to insert pricing row: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		row.ID = oid.Hex()
	}
	return nil
}

// DeactivateActive retires the current active row for the pair, if any.
// Superseded rows stay behind as rate history.
func (r *mongoPricingRepository) DeactivateActive(ctx context.Context, productID string, dt model.DurationType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"product_id":    productID,
		"duration_type": dt,
		"active":        true,
	}

	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("failed to deactivate pricing rows: %w", err)
	}
	return nil
}

func (r *mongoPricingRepository) FindActive(ctx context.Context, productID string, dt model.DurationType) (*model.ProductPricing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"product_id":    productID,
		"duration_type": dt,
		"active":        true,
	}

	var row model.ProductPricing
	err := r.collection.FindOne(ctx, filter).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productserrors.ErrPricingNotFound
		}
		return nil, fmt.Errorf("failed to find pricing row: %w", err)
	}

	return &row, nil
}

func (r *mongoPricingRepository) FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.ProductPricing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"product_id": productID}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "duration_type", Value: 1},
		{Key: "created_at", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pricing rows: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*model.ProductPricing
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode pricing rows: %w", err)
	}

	return rows, nil
}

func (r *mongoPricingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
