package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product entity with its properties and metadata.
// IDs are opaque server-generated strings; ImageURL keeps upload order, which
// is the order file parts arrived in the multipart request.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Price       float64   `json:"price" bson:"price"`
	Description string    `json:"description" bson:"description"`
	ImageURL    []string  `json:"imageUrl" bson:"imageUrl"`
	Tags        []string  `json:"tags" bson:"tags"`
	Stock       int       `json:"stock" bson:"stock"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New().String()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}
