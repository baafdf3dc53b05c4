package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SheliVas/therapySessionAnalyzer/internal/domain/port"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/config"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/email"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/llm"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/metrics"
	miniostorage "github.com/SheliVas/therapySessionAnalyzer/internal/infra/minio"
	mongorepo "github.com/SheliVas/therapySessionAnalyzer/internal/infra/mongo"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/rabbitmq"
	"github.com/SheliVas/therapySessionAnalyzer/internal/infra/tracing"
	"github.com/SheliVas/therapySessionAnalyzer/internal/usecase"
	"github.com/SheliVas/therapySessionAnalyzer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting analyzer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "analyzer")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
	})
	fatalOnErr(err, "create minio storage")

	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI)
	fatalOnErr(err, "connect to mongo")
	defer mongoClient.Disconnect(ctx)

	analysisRepo := mongorepo.NewAnalysisRepository(mongoClient, cfg.MongoDBName)
	videoRepo := mongorepo.NewVideoRepository(mongoClient, cfg.MongoDBName)

	pub := rabbitmq.NewPublisher(cfg.AMQPURL())
	completedPub := rabbitmq.NewAnalysisCompletedPublisher(pub, cfg.AnalysisCompletedQueue)

	var annotator llm.Annotator
	if cfg.LLMEndpoint != "" {
		annotator = llm.NewHTTPClient(cfg.LLMEndpoint, 2*time.Minute, log)
	}
	backend := llm.NewBackend(annotator, log)

	uc := usecase.NewAnalyzeUseCase(storage, backend, analysisRepo, videoRepo, completedPub, log)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log)

	policy, err := rabbitmq.ParseMalformedPolicy(cfg.MalformedPolicy)
	fatalOnErr(err, "parse malformed policy")

	var notifier port.DeadLetterNotifier
	if cfg.DLQNotifyEmail != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.DLQNotifyEmail, log)
	}

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              cfg.AMQPURL(),
		Queue:            cfg.TranscriptCreatedQueue,
		DLQ:              cfg.TranscriptCreatedQueue + ".dlq",
		ConnectAttempts:  cfg.ConnectAttempts,
		ConnectBaseDelay: cfg.ConnectBaseDelay,
		RetryBaseDelay:   cfg.RetryBaseDelay,
		HandlerTimeout:   cfg.HandlerTimeout,
		MalformedPolicy:  policy,
	}, uc.Execute, notifier, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("analyzer started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("analyzer stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
