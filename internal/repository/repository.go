package repository

import (
	"context"
	"errors"

	"github.com/tbt-commerce/catalog-service/internal/model"
)

// ErrNotFound is returned when no document exists for the requested id.
var ErrNotFound = errors.New("product not found")

// ProductRepository defines the capability set of the product document store:
// full listing, lookup by id, create (set, not merge), merge-patch and delete.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]*model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	// Patch applies a merge-patch: only the named fields are overwritten and
	// updatedAt is stamped. It returns the full post-merge document.
	Patch(ctx context.Context, id string, fields map[string]any) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}
