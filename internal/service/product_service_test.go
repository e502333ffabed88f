package service_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tbt-commerce/catalog-service/internal/model"
	"github.com/tbt-commerce/catalog-service/internal/repository"
	"github.com/tbt-commerce/catalog-service/internal/service"
)

// MockRepository is a mock implementation of repository.ProductRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAll(ctx context.Context) ([]*model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockRepository) Patch(ctx context.Context, id string, fields map[string]any) (*model.Product, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeBlobStore records uploads keyed by blob key and answers with a
// deterministic URL. Safe for concurrent use.
type fakeBlobStore struct {
	mu      sync.Mutex
	uploads map[string]string
	failOn  string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: map[string]string{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(string(content), f.failOn) {
		return "", fmt.Errorf("simulated storage outage")
	}
	f.uploads[key] = string(content)
	return "https://blob.test/" + key, nil
}

func uploadFiles(contents ...string) []service.UploadFile {
	files := make([]service.UploadFile, 0, len(contents))
	for i, c := range contents {
		files = append(files, service.UploadFile{
			Name:        fmt.Sprintf("image-%d.png", i),
			ContentType: "image/png",
			Body:        strings.NewReader(c),
		})
	}
	return files
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("persists one document with image URLs in submission order", func(t *testing.T) {
		mockRepo := new(MockRepository)
		blobs := newFakeBlobStore()

		var persisted *model.Product
		mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).
			Run(func(args mock.Arguments) {
				persisted = args.Get(1).(*model.Product)
			}).Return(nil)

		productService := service.NewProductService(mockRepo, blobs, nil)

		created, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:        "Figure",
			Price:       19.99,
			Description: "Limited edition",
			Tags:        []string{"New"},
			Files:       uploadFiles("first", "second", "third"),
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Figure", created.Name)
		assert.Equal(t, 19.99, created.Price)
		assert.Equal(t, []string{"New"}, created.Tags)
		assert.False(t, created.CreatedAt.IsZero())

		require.Len(t, created.ImageURL, 3)
		for i, url := range created.ImageURL {
			key := strings.TrimPrefix(url, "https://blob.test/")
			assert.Contains(t, key, fmt.Sprintf("-%d.png", i), "URL order must match file submission order")
			assert.Equal(t, []string{"first", "second", "third"}[i], blobs.uploads[key])
		}

		assert.Same(t, created, persisted, "the returned product is the persisted document")
		mockRepo.AssertExpectations(t)
	})

	t.Run("distinct ids across repeated calls", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		first, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name: "Figure", Price: 19.99, Files: uploadFiles("a"),
		})
		require.NoError(t, err)
		second, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name: "Figure", Price: 19.99, Files: uploadFiles("a"),
		})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("retained URLs precede new uploads", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		created, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:                "Figure",
			Price:               10,
			CurrentImageURLs:    []string{"https://blob.test/products/old-1.png"},
			HasCurrentImageURLs: true,
			Files:               uploadFiles("new"),
		})

		require.NoError(t, err)
		require.Len(t, created.ImageURL, 2)
		assert.Equal(t, "https://blob.test/products/old-1.png", created.ImageURL[0])
		assert.True(t, strings.HasPrefix(created.ImageURL[1], "https://blob.test/products/"))
	})

	t.Run("edit call with zero new files keeps existing images only", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		created, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:                "Figure",
			Price:               10,
			CurrentImageURLs:    []string{"https://blob.test/products/old-1.png"},
			HasCurrentImageURLs: true,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://blob.test/products/old-1.png"}, created.ImageURL)
	})

	t.Run("missing name is rejected without persisting", func(t *testing.T) {
		mockRepo := new(MockRepository)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Price: 19.99,
			Files: uploadFiles("a"),
		})

		require.ErrorIs(t, err, service.ErrInvalidPayload)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:  "Figure",
			Price: -1,
			Files: uploadFiles("a"),
		})

		require.ErrorIs(t, err, service.ErrInvalidPayload)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pure create without files is rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:  "Figure",
			Price: 19.99,
		})

		require.ErrorIs(t, err, service.ErrNoFiles)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("single failed upload fails the whole create", func(t *testing.T) {
		mockRepo := new(MockRepository)
		blobs := newFakeBlobStore()
		blobs.failOn = "second"
		productService := service.NewProductService(mockRepo, blobs, nil)

		_, err := productService.CreateProduct(ctx, service.CreateProductInput{
			Name:  "Figure",
			Price: 19.99,
			Files: uploadFiles("first", "second", "third"),
		})

		require.ErrorIs(t, err, service.ErrStorageWrite)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	existing := &model.Product{ID: "p-1", Name: "Figure", Price: 19.99}

	t.Run("filters to allow-listed fields and returns post-merge document", func(t *testing.T) {
		mockRepo := new(MockRepository)
		merged := &model.Product{ID: "p-1", Name: "Renamed", Price: 25}

		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		mockRepo.On("Patch", ctx, "p-1", map[string]any{
			"name":  "Renamed",
			"price": 25.0,
		}).Return(merged, nil)

		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		updated, err := productService.UpdateProduct(ctx, "p-1", map[string]any{
			"name":      "Renamed",
			"price":     25.0,
			"id":        "evil-overwrite",
			"createdAt": "2020-01-01",
		})

		require.NoError(t, err)
		assert.Equal(t, merged, updated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("images key normalizes to imageUrl", func(t *testing.T) {
		mockRepo := new(MockRepository)
		merged := &model.Product{ID: "p-1"}

		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		mockRepo.On("Patch", ctx, "p-1", map[string]any{
			"imageUrl": []string{"https://blob.test/products/a.png"},
		}).Return(merged, nil)

		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "p-1", map[string]any{
			"images": []any{"https://blob.test/products/a.png"},
		})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("patch with only disallowed keys is rejected untouched", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "p-1", map[string]any{
			"id":      "other",
			"unknown": true,
		})

		require.ErrorIs(t, err, service.ErrEmptyPatch)
		mockRepo.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-numeric price is rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "p-1", map[string]any{"price": "19.99"})

		require.ErrorIs(t, err, service.ErrInvalidPayload)
	})

	t.Run("non-sequence tags are rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "p-1", map[string]any{"tags": "New"})

		require.ErrorIs(t, err, service.ErrInvalidPayload)
	})

	t.Run("fractional stock is rejected", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "p-1").Return(existing, nil)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "p-1", map[string]any{"stock": 1.5})

		require.ErrorIs(t, err, service.ErrInvalidPayload)
	})

	t.Run("unknown id propagates not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "missing", map[string]any{"name": "x"})

		require.ErrorIs(t, err, repository.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown id wins over a patch with only disallowed keys", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "missing", map[string]any{"bogus": true})

		require.ErrorIs(t, err, repository.ErrNotFound)
		assert.NotErrorIs(t, err, service.ErrEmptyPatch)
	})

	t.Run("unknown id wins over an invalid price value", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound)
		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		_, err := productService.UpdateProduct(ctx, "missing", map[string]any{"price": "not-a-number"})

		require.ErrorIs(t, err, repository.ErrNotFound)
		assert.NotErrorIs(t, err, service.ErrInvalidPayload)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes existing product", func(t *testing.T) {
		mockRepo := new(MockRepository)
		product := &model.Product{ID: "p-1", Name: "Figure", Price: 19.99}

		mockRepo.On("GetByID", ctx, "p-1").Return(product, nil)
		mockRepo.On("Delete", ctx, "p-1").Return(nil)

		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		require.NoError(t, productService.DeleteProduct(ctx, "p-1"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown id propagates not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound)

		productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

		err := productService.DeleteProduct(ctx, "missing")

		require.ErrorIs(t, err, repository.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRepository)

	products := []*model.Product{
		{ID: "p-1", Name: "Product 1", Price: 10.0},
		{ID: "p-2", Name: "Product 2", Price: 20.0},
	}
	mockRepo.On("GetAll", ctx).Return(products, nil)

	productService := service.NewProductService(mockRepo, newFakeBlobStore(), nil)

	results, err := productService.ListProducts(ctx)

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "Product 1", results[0].Name)
	assert.Equal(t, "Product 2", results[1].Name)

	mockRepo.AssertExpectations(t)
}
