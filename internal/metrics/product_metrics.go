package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products patched.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// ProductCreateFailures counts create requests that failed after validation,
	// including partial blob upload failures.
	ProductCreateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_create_failures_total",
		Help: "The total number of failed product create requests",
	})

	// ImagesUploaded counts image blobs successfully written to the blob store.
	ImagesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_images_uploaded_total",
		Help: "The total number of product images uploaded to blob storage",
	})
)
