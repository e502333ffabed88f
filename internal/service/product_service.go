package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbt-commerce/catalog-service/internal/blob"
	"github.com/tbt-commerce/catalog-service/internal/metrics"
	"github.com/tbt-commerce/catalog-service/internal/model"
	"github.com/tbt-commerce/catalog-service/internal/repository"
	"github.com/tbt-commerce/catalog-service/internal/sqs"
)

// allowedPatchFields is the allow-list of mutable product fields. "images" is
// the historical wire name and normalizes to the entity's "imageUrl" field.
var allowedPatchFields = map[string]string{
	"name":        "name",
	"price":       "price",
	"description": "description",
	"imageUrl":    "imageUrl",
	"images":      "imageUrl",
	"tags":        "tags",
	"stock":       "stock",
}

// UploadFile is one binary file part of a create request, in multipart
// arrival order.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// CreateProductInput carries the decoded fields of a multipart create request.
// HasCurrentImageURLs records whether the currentImageUrls field was present
// at all: its presence, not its content, marks an edit-with-new-images call.
type CreateProductInput struct {
	Name                string
	Price               float64
	Description         string
	Tags                []string
	CurrentImageURLs    []string
	HasCurrentImageURLs bool
	Files               []UploadFile
}

// ProductService implements the product upload and update pipelines on top of
// the document store and the blob store.
type ProductService struct {
	repo      repository.ProductRepository
	blobs     blob.Store
	publisher *sqs.Publisher
}

// NewProductService creates a new ProductService with the given stores. The
// publisher may be nil; event publishing is skipped then.
func NewProductService(repo repository.ProductRepository, blobs blob.Store, publisher *sqs.Publisher) *ProductService {
	return &ProductService{
		repo:      repo,
		blobs:     blobs,
		publisher: publisher,
	}
}

// CreateProduct validates the input, uploads all image files to the blob
// store concurrently and persists a single product document referencing the
// resulting URLs in file-submission order. A failed upload fails the whole
// request without persisting anything; blobs already uploaded from the same
// batch are left behind (no rollback).
func (ps *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPayload)
	}
	if math.IsNaN(input.Price) || math.IsInf(input.Price, 0) || input.Price < 0 {
		return nil, fmt.Errorf("%w: price must be a finite non-negative number", ErrInvalidPayload)
	}
	if len(input.Files) == 0 && !input.HasCurrentImageURLs {
		return nil, ErrNoFiles
	}

	uploadedURLs, err := ps.uploadImages(ctx, input.Files)
	if err != nil {
		metrics.ProductCreateFailures.Inc()
		return nil, err
	}

	imageURLs := make([]string, 0, len(input.CurrentImageURLs)+len(uploadedURLs))
	imageURLs = append(imageURLs, input.CurrentImageURLs...)
	imageURLs = append(imageURLs, uploadedURLs...)

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	product := &model.Product{
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		ImageURL:    imageURLs,
		Tags:        tags,
	}
	product.InitMeta()

	if err := ps.repo.Create(ctx, product); err != nil {
		metrics.ProductCreateFailures.Inc()
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	ps.publishEvent(ctx, "created", product)

	return product, nil
}

// uploadImages fans the file parts out to the blob store and collects the
// public URLs in submission order. Keys combine one batch-scoped millisecond
// timestamp with the ordinal index, so identically named files uploaded at
// the same instant cannot collide.
func (ps *ProductService) uploadImages(ctx context.Context, files []UploadFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	batchStamp := time.Now().UnixMilli()
	urls := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			url, err := ps.blobs.Put(ctx, blobKey(batchStamp, i, file.Name), contentTypeOrDefault(file.ContentType), file.Body)
			if err != nil {
				return fmt.Errorf("%w: image %q: %v", ErrStorageWrite, file.Name, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.ImagesUploaded.Add(float64(len(files)))
	return urls, nil
}

func blobKey(batchStamp int64, ordinal int, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return fmt.Sprintf("products/%d-%d-%s", batchStamp, ordinal, fileName)
	}
	return fmt.Sprintf("products/%d-%d%s", batchStamp, ordinal, ext)
}

func contentTypeOrDefault(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// UpdateProduct applies a merge-patch to an existing product. Keys outside
// the allow-list are silently dropped; a patch left empty after filtering is
// rejected. The returned product is the full post-merge document.
func (ps *ProductService) UpdateProduct(ctx context.Context, id string, patch map[string]any) (*model.Product, error) {
	// Existence decides the outcome before the patch body is inspected, so
	// an unknown id reads as not found no matter what the body holds
	if _, err := ps.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	filtered := make(map[string]any, len(patch))
	for key, value := range patch {
		field, ok := allowedPatchFields[key]
		if !ok {
			continue
		}
		normalized, err := normalizePatchValue(field, value)
		if err != nil {
			return nil, err
		}
		filtered[field] = normalized
	}
	if len(filtered) == 0 {
		return nil, ErrEmptyPatch
	}

	product, err := ps.repo.Patch(ctx, id, filtered)
	if err != nil {
		return nil, err
	}

	metrics.ProductsUpdated.Inc()
	ps.publishEvent(ctx, "updated", product)

	return product, nil
}

// normalizePatchValue validates one allow-listed patch field. Values arrive
// as decoded JSON, so numbers are float64 and sequences are []any.
func normalizePatchValue(field string, value any) (any, error) {
	switch field {
	case "price":
		price, ok := toFloat(value)
		if !ok || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: price must be a number", ErrInvalidPayload)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidPayload)
		}
		return price, nil
	case "stock":
		stock, ok := toFloat(value)
		if !ok || stock != math.Trunc(stock) {
			return nil, fmt.Errorf("%w: stock must be an integer", ErrInvalidPayload)
		}
		return int(stock), nil
	case "imageUrl", "tags":
		list, err := toStringSlice(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an array of strings", ErrInvalidPayload, field)
		}
		return list, nil
	case "name", "description":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, field)
		}
		if field == "name" && s == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidPayload)
		}
		return s, nil
	default:
		return value, nil
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %v is not a sequence", value)
	}
}

// GetProduct returns a single product by id.
func (ps *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return ps.repo.GetByID(ctx, id)
}

// ListProducts returns the full catalog.
func (ps *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return ps.repo.GetAll(ctx)
}

// DeleteProduct removes the document. Image blobs referenced by the product
// stay in the blob store.
func (ps *ProductService) DeleteProduct(ctx context.Context, id string) error {
	// Find the product first to get its details for the event
	product, err := ps.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := ps.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	ps.publishEvent(ctx, "deleted", product)

	return nil
}

func (ps *ProductService) publishEvent(ctx context.Context, action string, product *model.Product) {
	if ps.publisher == nil {
		return
	}
	event := sqs.CatalogEvent{
		Action:    action,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
	}
	if err := ps.publisher.PublishCatalogEvent(ctx, event); err != nil {
		// Log error but don't fail the request
		slog.Error("Failed to send SQS message", slog.Any("err", err), slog.String("action", action), slog.String("product_id", product.ID))
	}
}
