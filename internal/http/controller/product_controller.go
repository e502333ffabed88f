package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tbt-commerce/catalog-service/internal/model"
	"github.com/tbt-commerce/catalog-service/internal/repository"
	"github.com/tbt-commerce/catalog-service/internal/service"
)

// filesField is the fixed multipart field name carrying image file parts.
const filesField = "files"

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	ImageURL    []string `json:"imageUrl"`
	Tags        []string `json:"tags"`
	Stock       int      `json:"stock"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ListProducts handles the HTTP GET request for listing the full catalog.
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	// Always an array, never null
	productResponses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		productResponses = append(productResponses, toProductResponse(product))
	}

	c.JSON(http.StatusOK, productResponses)
}

// GetProduct handles the HTTP GET request for a single product by ID.
func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// CreateProduct handles the HTTP POST request for creating a new product from
// a multipart form: binary file parts under "files" plus text fields name,
// price, description, tags (JSON string) and currentImageUrls (JSON string,
// present only for edit-with-new-images calls).
func (pc *ProductController) CreateProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	price, err := strconv.ParseFloat(firstValue(form.Value, "price"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a number"})
		return
	}

	currentRaw, hasCurrent := form.Value["currentImageUrls"]
	var currentImageURLs []string
	if hasCurrent && len(currentRaw) > 0 {
		currentImageURLs = decodeStringArray("currentImageUrls", currentRaw[0])
	}

	input := service.CreateProductInput{
		Name:                firstValue(form.Value, "name"),
		Price:               price,
		Description:         firstValue(form.Value, "description"),
		Tags:                decodeStringArray("tags", firstValue(form.Value, "tags")),
		CurrentImageURLs:    currentImageURLs,
		HasCurrentImageURLs: hasCurrent,
	}

	for _, fileHeader := range form.File[filesField] {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file part"})
			return
		}
		defer file.Close()

		input.Files = append(input.Files, service.UploadFile{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        file,
		})
	}

	createdProduct, err := pc.productService.CreateProduct(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(createdProduct))
}

// UpdateProduct handles the HTTP PUT request applying a merge-patch to a product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updatedProduct, err := pc.productService.UpdateProduct(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(updatedProduct))
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// decodeStringArray decodes a JSON-encoded string array carried in a
// multipart text field. Malformed input falls back to empty with a logged
// warning: a broken auxiliary field must not abort an otherwise valid request.
func decodeStringArray(field, raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("ignoring malformed multipart field", slog.String("field", field), slog.Any("err", err))
		return nil
	}
	return out
}

// respondError maps the service error taxonomy onto HTTP status codes.
// Storage and unexpected failures are logged with their detail but answered
// with a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPayload),
		errors.Is(err, service.ErrNoFiles),
		errors.Is(err, service.ErrEmptyPatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, service.ErrStorageWrite):
		slog.Error("blob storage write failed", slog.Any("err", err), slog.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
	default:
		slog.Error("request failed", slog.Any("err", err), slog.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func toProductResponse(product *model.Product) ProductResponse {
	imageURL := product.ImageURL
	if imageURL == nil {
		imageURL = []string{}
	}
	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		ImageURL:    imageURL,
		Tags:        tags,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   product.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
