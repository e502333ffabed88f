package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/tbt-commerce/catalog-service/internal/blob"
	"github.com/tbt-commerce/catalog-service/internal/config"
	httpAPI "github.com/tbt-commerce/catalog-service/internal/http"
	"github.com/tbt-commerce/catalog-service/internal/http/controller"
	"github.com/tbt-commerce/catalog-service/internal/logger"
	"github.com/tbt-commerce/catalog-service/internal/metrics"
	"github.com/tbt-commerce/catalog-service/internal/repository/mongodb"
	"github.com/tbt-commerce/catalog-service/internal/service"
	sqspkg "github.com/tbt-commerce/catalog-service/internal/sqs"
)

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx := context.Background()

	// Document store
	db, err := mongodb.Connect(ctx, conf.Mongo)
	handleErr("connecting to document store", err)
	productRepository := mongodb.NewProductRepository(db.Collection(mongodb.ProductsCollection))

	// Blob store for product images
	s3Client, err := blob.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating S3 client", err)
	blobStore := blob.NewS3Store(s3Client, conf.AWS.S3Bucket, conf.AWS.Region, conf.AWS.S3PublicBaseURL)

	// Catalog event publishing is optional; skipped when no queue is configured
	var publisher *sqspkg.Publisher
	if conf.AWS.SQSQueueURL != "" {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
		handleErr("creating SQS client", err)
		publisher = sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
	}

	productService := service.NewProductService(productRepository, blobStore, publisher)

	// Start HTTP server
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	ctr := controller.New(conf)
	productCtr := controller.NewProductController(productService)
	httpServer := httpAPI.InitRouter(gin.New(), ctr, productCtr)

	go func() {
		if err := httpServer.Run(":" + conf.HTTPServer.Port); err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
