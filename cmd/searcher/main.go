package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/app"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/gateway/router"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/publisher"
	searchhandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index_root", cfg.Index.RootPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	a, err := app.Build(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var queue ingesthandler.Queue
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexCommands)
		defer producer.Close()
		queue = publisher.New(producer)
		slog.Info("async writes enabled", "topic", cfg.Kafka.Topics.IndexCommands, "brokers", cfg.Kafka.Brokers)
	}

	checker := health.NewChecker()
	a.RegisterChecks(checker)

	handler := router.New(
		searchhandler.New(a.Executor, cfg.Search.DefaultLimit),
		ingesthandler.New(a.Service, queue, cfg.Server.MaxUploadBytes),
		checker,
		m,
		router.Options{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RateLimit:      cfg.RateLimit,
			RequestTimeout: cfg.Server.WriteTimeout,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, metrics.NewServer(cfg.Metrics.Port), cfg.Server.ShutdownTimeout)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("search service error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
