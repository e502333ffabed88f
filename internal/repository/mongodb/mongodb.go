package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbt-commerce/catalog-service/internal/config"
)

// ProductsCollection is the collection holding product documents.
const ProductsCollection = "products"

// Connect establishes the MongoDB client connection and verifies it with a ping.
func Connect(ctx context.Context, conf config.Mongo) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("document store connection done", slog.String("database", conf.Database))
	return client.Database(conf.Database), nil
}
