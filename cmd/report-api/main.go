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
	mongorepo "github.com/SheliVas/therapySessionAnalyzer/internal/infra/mongo"
	"github.com/SheliVas/therapySessionAnalyzer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting report-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI)
	fatalOnErr(err, "connect to mongo")
	defer mongoClient.Disconnect(ctx)

	analysisRepo := mongorepo.NewAnalysisRepository(mongoClient, cfg.MongoDBName)

	handlers := httpapi.NewReportHandlers(analysisRepo, log)
	router := httpapi.NewReportRouter(handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ReportHTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("report-api listening", zap.Int("port", cfg.ReportHTTPPort))
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

	log.Info("report-api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
