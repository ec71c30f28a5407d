// Package bootstrap provides dependency initialization for the job feed service.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maauso/jobfeed/internal/bookmark"
	"github.com/maauso/jobfeed/internal/config"
	"github.com/maauso/jobfeed/internal/feed"
	"github.com/maauso/jobfeed/internal/lokal"
	"github.com/maauso/jobfeed/internal/server"
	"github.com/maauso/jobfeed/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Store      storage.Store
	Bookmarks  *bookmark.Repository
	Controller *feed.Controller
	Handlers   *server.Handlers
	Router     http.Handler
}

// NewDependencies creates and initializes all dependencies for the application.
// The feed itself is not loaded; callers run Controller.Initialize.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize bookmark repository and cache
	repo := bookmark.NewRepository(store, cfg.BookmarksKey, logger)
	if err := repo.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize bookmarks: %w", err)
	}
	cache := bookmark.NewCache(repo, cfg.BookmarkCheckConcurrency, logger)

	// Initialize upstream client
	client := lokal.NewClient(
		lokal.WithBaseURL(cfg.FeedBaseURL),
		lokal.WithTimeout(cfg.FeedTimeout),
		lokal.WithMaxRetries(cfg.FeedMaxRetries),
		lokal.WithLogger(logger),
	)

	ctrl := feed.NewController(client, repo, cache, logger)
	handlers := server.NewHandlers(ctrl, logger)

	return &Dependencies{
		Store:      store,
		Bookmarks:  repo,
		Controller: ctrl,
		Handlers:   handlers,
		Router:     server.NewRouter(handlers, logger, server.DefaultConfig()),
	}, nil
}

// Close releases the storage backend.
func (d *Dependencies) Close() error {
	return d.Store.Close()
}

// initStorage creates the storage backend selected by configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("memory storage configured")
		return storage.NewMemoryStore(), nil

	case config.BackendRedis:
		redisStore, err := storage.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("create redis storage: %w", err)
		}
		logger.Info("redis storage configured")
		return redisStore, nil

	case config.BackendS3:
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(ctx, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil

	case config.BackendFile:
		localStore, err := storage.NewLocalStore(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("create local storage: %w", err)
		}
		logger.Info("local storage configured",
			slog.String("store_dir", cfg.StoreDir),
		)
		return localStore, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}
