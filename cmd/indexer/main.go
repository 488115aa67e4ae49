package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/app"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
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
	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("kafka.brokers is empty; the indexer has nothing to consume")
		os.Exit(1)
	}
	slog.Info("starting indexer service", "index_root", cfg.Index.RootPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	a, err := app.Build(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.IndexCommands,
		consumer.HandleMessage(a.Service, m),
	)
	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.IndexCommands,
		"group", cfg.Kafka.ConsumerGroup,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return indexConsumer.Start(gctx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, metrics.NewServer(cfg.Metrics.Port), cfg.Server.ShutdownTimeout)
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("indexer error", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer service stopped")
}
