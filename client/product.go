// Package client is a Go client for the catalog service. Reads fall back
// to a local last-known-good cache and writes degrade to local mutations
// when the service is unreachable, keeping admin tooling usable offline at
// the cost of silent divergence from server state.
package client

import "time"

// Product mirrors the catalog service wire format.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	ImageURL    []string  `json:"imageUrl"`
	Tags        []string  `json:"tags"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FileUpload is one image file selected for upload.
type FileUpload struct {
	Name        string
	ContentType string
	Content     []byte
}

// CreateProductPayload carries a create (or edit-with-new-images) request.
// A non-nil CurrentImageURLs marks the call as originating from an edit flow:
// the server then accepts zero new files.
type CreateProductPayload struct {
	Name             string
	Price            float64
	Description      string
	Tags             []string
	Files            []FileUpload
	CurrentImageURLs []string
}
