package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/config"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/httpapi"
	miniostorage "github.com/SheliVas/therapySessionAnalyzer/internal/infra/minio"
	mongorepo "github.com/SheliVas/therapySessionAnalyzer/internal/infra/mongo"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/rabbitmq"
	"github.com/SheliVas/therapySessionAnalyzer/internal/usecase"
	"github.com/SheliVas/therapySessionAnalyzer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting upload-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx, cfg.VideoBucket), "ensure minio buckets")

	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI)
	fatalOnErr(err, "connect to mongo")
	defer mongoClient.Disconnect(ctx)

	videoRepo := mongorepo.NewVideoRepository(mongoClient, cfg.MongoDBName)

	pub := rabbitmq.NewPublisher(cfg.AMQPURL())
	uploadedPub := rabbitmq.NewVideoUploadedPublisher(pub, cfg.VideoUploadedQueue)

	uc := usecase.NewUploadVideoUseCase(storage, videoRepo, uploadedPub, cfg.VideoBucket, log)

	handlers := httpapi.NewUploadHandlers(uc, log)
	router := httpapi.NewUploadRouter(handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.UploadHTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("upload-api listening", zap.Int("port", cfg.UploadHTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Info("upload-api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
