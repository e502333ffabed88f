package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no product exists for the requested id,
// neither on the server nor (for offline mutations) in the local cache.
var ErrNotFound = errors.New("product not found")

// Client talks to the catalog service with the local fallback cache as the
// secondary tier.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *fallbackCache
}

// New creates a Client for the given base URL. cachePath locates the local
// fallback cache file; empty means FallbackCacheFile in the working
// directory. httpc may be nil, then a client with a 10 second timeout is used.
func New(baseURL, cachePath string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   httpc,
		cache:   newFallbackCache(cachePath),
	}
}

// GetAll fetches the full catalog. On any transport failure or error status
// it returns the last-known-good cached array instead of an error; a
// response that is not a JSON array normalizes to an empty slice. Successful
// responses refresh the cache.
func (c *Client) GetAll(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.cache.load(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.cache.load(), nil
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		// Non-array responses normalize to empty rather than erroring
		return []Product{}, nil
	}
	if products == nil {
		products = []Product{}
	}
	c.cache.save(products)
	return products, nil
}

// Create posts a multipart create request. On transport failure the product
// is synthesized locally with a timestamp id and appended to the cache.
func (c *Client) Create(ctx context.Context, payload CreateProductPayload) (*Product, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.createOffline(payload), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create failed: %s", readError(resp))
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return &product, nil
}

// Update sends a merge-patch. On transport failure the patch is applied to
// the cached entry instead.
func (c *Client) Update(ctx context.Context, id string, patch map[string]any) (*Product, error) {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/products/"+id, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.updateOffline(id, patch)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("update failed: %s", readError(resp))
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode update response: %w", err)
	}
	return &product, nil
}

// Delete removes a product. On transport failure the cached entry is
// filtered out instead.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/products/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.deleteOffline(id)
		return nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusNoContent:
		return fmt.Errorf("delete failed: %s", readError(resp))
	}
	return nil
}

func (c *Client) createOffline(payload CreateProductPayload) *Product {
	now := time.Now()
	product := Product{
		// Offline ids come from the clock so they cannot collide with
		// server-assigned uuids
		ID:          strconv.FormatInt(now.UnixMilli(), 10),
		Name:        payload.Name,
		Price:       payload.Price,
		Description: payload.Description,
		Tags:        append([]string{}, payload.Tags...),
		ImageURL:    append([]string{}, payload.CurrentImageURLs...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	list := append(c.cache.load(), product)
	c.cache.save(list)
	return &product
}

func (c *Client) updateOffline(id string, patch map[string]any) (*Product, error) {
	list := c.cache.load()
	for i := range list {
		if list[i].ID != id {
			continue
		}
		applyPatch(&list[i], patch)
		list[i].UpdatedAt = time.Now()
		c.cache.save(list)
		product := list[i]
		return &product, nil
	}
	return nil, ErrNotFound
}

func (c *Client) deleteOffline(id string) {
	list := c.cache.load()
	kept := list[:0]
	for _, product := range list {
		if product.ID != id {
			kept = append(kept, product)
		}
	}
	c.cache.save(kept)
}

// applyPatch mirrors the server allow-list on the cached copy. Values with
// unexpected types are skipped.
func applyPatch(product *Product, patch map[string]any) {
	for key, value := range patch {
		switch key {
		case "name":
			if s, ok := value.(string); ok {
				product.Name = s
			}
		case "price":
			if f, ok := value.(float64); ok {
				product.Price = f
			}
		case "description":
			if s, ok := value.(string); ok {
				product.Description = s
			}
		case "imageUrl", "images":
			if list, ok := toStringSlice(value); ok {
				product.ImageURL = list
			}
		case "tags":
			if list, ok := toStringSlice(value); ok {
				product.Tags = list
			}
		case "stock":
			if f, ok := value.(float64); ok {
				product.Stock = int(f)
			} else if n, ok := value.(int); ok {
				product.Stock = n
			}
		}
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// encodeMultipart assembles the outbound create request body: file parts
// under "files" plus the text fields, with tags and currentImageUrls
// JSON-encoded the way the server expects them.
func encodeMultipart(payload CreateProductPayload) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("name", payload.Name); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("price", strconv.FormatFloat(payload.Price, 'f', -1, 64)); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("description", payload.Description); err != nil {
		return nil, "", err
	}

	tags := payload.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("tags", string(encodedTags)); err != nil {
		return nil, "", err
	}

	// Presence of the field is what marks an edit call, so nil stays absent
	if payload.CurrentImageURLs != nil {
		encodedURLs, err := json.Marshal(payload.CurrentImageURLs)
		if err != nil {
			return nil, "", err
		}
		if err := writer.WriteField("currentImageUrls", string(encodedURLs)); err != nil {
			return nil, "", err
		}
	}

	for _, file := range payload.Files {
		part, err := writer.CreatePart(fileHeader(file))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func fileHeader(file FileUpload) textproto.MIMEHeader {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return header
}

func readError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
}
