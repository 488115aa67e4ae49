// Package app builds the shared components every binary needs from one
// loaded config: index manager, cursor store, journal, ingestion service and
// search executor.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/journal"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/resilience"
)

// connectBackoff covers backends that come up a little after the service.
var connectBackoff = resilience.DefaultBackoff

type App struct {
	Config   *config.Config
	Indexes  *index.Manager
	Cursors  cursor.Store
	Journal  *journal.Journal
	Service  *ingestion.Service
	Executor *executor.Executor
	Metrics  *metrics.Metrics

	redis    *pkgredis.Client
	postgres *postgres.Client
}

// Build connects the configured backends. The Redis cursor store is required
// when cursor.backend is redis; the journal is only opened when
// postgres.enabled is set. m may be nil.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	a := &App{
		Config:  cfg,
		Indexes: index.NewManager(cfg.Index),
		Metrics: m,
	}

	switch cfg.Cursor.Backend {
	case "redis":
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "connect redis", connectBackoff, func(context.Context) error {
			var err error
			client, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connecting cursor store: %w", err)
		}
		a.redis = client
		a.Cursors = cursor.NewRedisStore(client, cfg.Index.RootPath)
		slog.Info("cursor store ready", "backend", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Cursor.TTL)
	default:
		a.Cursors = cursor.NewLocalStore(cfg.Index.RootPath, cfg.Cursor.LocalSize, cfg.Cursor.TTL)
		slog.Info("cursor store ready", "backend", "local", "size", cfg.Cursor.LocalSize, "ttl", cfg.Cursor.TTL)
	}

	if cfg.Postgres.Enabled {
		var db *postgres.Client
		err := resilience.Retry(ctx, "connect postgres", connectBackoff, func(context.Context) error {
			var err error
			db, err = postgres.New(cfg.Postgres)
			return err
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting journal database: %w", err)
		}
		a.postgres = db
		a.Journal = journal.New(db.DB)
		if err := a.Journal.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		slog.Info("write journal enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	a.Service = ingestion.NewService(a.Indexes, a.Cursors, a.Journal, m)
	a.Executor = executor.New(a.Indexes, a.Cursors, cfg.Search, cfg.Cursor.TTL, m)
	return a, nil
}

// RegisterChecks adds readiness probes for the index root and each connected
// backend.
func (a *App) RegisterChecks(checker *health.Checker) {
	checker.Register("index_root", health.FromError(a.indexRootWritable))
	if a.redis != nil {
		checker.Register("redis", health.FromError(a.redis.Ping))
	}
	if a.postgres != nil {
		checker.Register("journal", health.Degraded(a.postgres.Ping))
	}
}

func (a *App) indexRootWritable(context.Context) error {
	root := a.Indexes.Location().Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(root, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	return errors.Join(f.Close(), os.Remove(name))
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}
