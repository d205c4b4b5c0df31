package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greentech/marketplace/internal/config"
	httpAPI "github.com/greentech/marketplace/internal/http"
	"github.com/greentech/marketplace/internal/http/controller"
	"github.com/greentech/marketplace/internal/logger"
	"github.com/greentech/marketplace/internal/metrics"
	"github.com/greentech/marketplace/internal/repository/sql"
	"github.com/greentech/marketplace/internal/service"
	sqspkg "github.com/greentech/marketplace/internal/sqs"
)

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx := context.Background()
	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	// Create repositories
	userRepository := sql.NewUserRepository(db)
	materialRepository := sql.NewMaterialRepository(db)
	eventRepository := sql.NewEventRepository(db)
	transactionalRepository := sql.NewTransactionalRepository(db)

	// Initialize AWS SQS client for the material event feed
	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating SQS client", err)
	sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	// Create services with outbox pattern
	materialService := service.NewMaterialService(materialRepository, transactionalRepository)
	searchService := service.NewSearchService(materialRepository, userRepository)

	// Start outbox worker to publish pending events every 2 seconds
	outboxWorker := service.NewOutboxWorker(eventRepository, sqsPublisher, 2*time.Second)
	go outboxWorker.Start(ctx)

	// Start HTTP server
	materialCtr := controller.NewMaterialController(materialService)
	searchCtr := controller.NewSearchController(searchService)
	collectorCtr := controller.NewCollectorController(searchService)
	httpServer := gin.Default()
	httpServer = httpAPI.InitRouter(conf, httpServer, materialCtr, searchCtr, collectorCtr)

	go func() {
		err = httpServer.Run(":" + conf.HTTPServer.Port)
		if err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	// Start metrics server
	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	outboxWorker.Stop()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
