package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbt-commerce/catalog-service/internal/model"
	"github.com/tbt-commerce/catalog-service/internal/repository"
)

// ProductRepository implements repository.ProductRepository backed by a
// MongoDB collection.
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(collection *mongo.Collection) repository.ProductRepository {
	return &ProductRepository{collection: collection}
}

// GetAll returns the full product collection. Pagination is intentionally
// absent: the catalog is small and the listing endpoint mirrors that.
func (r *ProductRepository) GetAll(ctx context.Context) ([]*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*model.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// GetByID returns a single product by its id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &product, nil
}

// Create inserts a new product document. The write is a plain set keyed by
// the pre-assigned id, never a merge.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Patch applies a $set merge of the given fields and stamps updatedAt, then
// reads the document back so callers get the full post-merge state. The id
// and createdAt fields are never part of the update document.
func (r *ProductRepository) Patch(ctx context.Context, id string, fields map[string]any) (*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{}
	for k, v := range fields {
		update[k] = v
	}
	update["updatedAt"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, repository.ErrNotFound
	}

	var product model.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to read back updated product: %w", err)
	}
	return &product, nil
}

// Delete removes the document. Referenced blobs are left in place.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
