package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/marketfuse/internal/blob/s3"
	"github.com/alanyoungcy/marketfuse/internal/cache/redis"
	"github.com/alanyoungcy/marketfuse/internal/config"
	"github.com/alanyoungcy/marketfuse/internal/domain"
	"github.com/alanyoungcy/marketfuse/internal/llm"
	"github.com/alanyoungcy/marketfuse/internal/notify"
	"github.com/alanyoungcy/marketfuse/internal/pipeline"
	"github.com/alanyoungcy/marketfuse/internal/platform/manifold"
	"github.com/alanyoungcy/marketfuse/internal/platform/polymarket"
	"github.com/alanyoungcy/marketfuse/internal/platform/predictit"
	"github.com/alanyoungcy/marketfuse/internal/rag"
	"github.com/alanyoungcy/marketfuse/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Optional
// integrations stay nil when disabled; the pipeline skips the stages they
// drive.
type Dependencies struct {
	Fetchers []pipeline.Fetcher

	// Stores (nil unless postgres is enabled)
	Products domain.ProductStore
	Runs     domain.RunStore

	// Caches (nil unless redis is enabled)
	Cache       domain.MarketCache
	RateLimiter domain.RateLimiter
	Locks       domain.LockManager

	// Blob storage (nil unless s3 is enabled)
	Snapshots domain.SnapshotWriter

	// LLM and search (nil without an API key / with rag disabled)
	LLM   *llm.Client
	Index *rag.Index

	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to call on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Site fetchers ---
	fetchers, err := buildFetchers(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: fetchers: %w", err)
	}
	deps.Fetchers = fetchers

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Products = postgres.NewProductStore(pool)
		deps.Runs = postgres.NewRunStore(pool)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		deps.Cache = redis.NewMarketCache(redisClient, ttl)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Locks = redis.NewLockManager(redisClient)
	}

	// --- S3 snapshots ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Snapshots = s3blob.NewSnapshotWriter(s3Client)
	}

	// --- LLM and search index ---
	if cfg.LLM.APIKey != "" {
		deps.LLM = llm.NewClient(llm.Config{
			BaseURL:        cfg.LLM.BaseURL,
			APIKey:         cfg.LLM.APIKey,
			ChatModel:      cfg.LLM.ChatModel,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Timeout:        cfg.LLM.Timeout.Duration,
			MaxRetries:     cfg.LLM.MaxRetries,
		})
		if cfg.RAG.Enabled {
			deps.Index = rag.NewIndex(deps.LLM, cfg.RAG.CachePath, logger)
		}
	} else if cfg.RAG.Enabled {
		logger.Warn("rag enabled but no llm api key configured, search index disabled")
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// buildFetchers creates one client per enabled site, in a fixed order so
// collected batches are deterministic.
func buildFetchers(cfg *config.Config) ([]pipeline.Fetcher, error) {
	proxy := cfg.Scrape.Proxy
	timeout := cfg.Scrape.Timeout.Duration

	var fetchers []pipeline.Fetcher
	if cfg.Sites.Polymarket.Enabled {
		c, err := polymarket.NewClient(cfg.Sites.Polymarket.BaseURL, proxy, timeout)
		if err != nil {
			return nil, fmt.Errorf("polymarket: %w", err)
		}
		fetchers = append(fetchers, c)
	}
	if cfg.Sites.Manifold.Enabled {
		c, err := manifold.NewClient(cfg.Sites.Manifold.BaseURL, proxy, timeout)
		if err != nil {
			return nil, fmt.Errorf("manifold: %w", err)
		}
		fetchers = append(fetchers, c)
	}
	if cfg.Sites.PredictIt.Enabled {
		c, err := predictit.NewClient(cfg.Sites.PredictIt.BaseURL, proxy, timeout)
		if err != nil {
			return nil, fmt.Errorf("predictit: %w", err)
		}
		fetchers = append(fetchers, c)
	}
	return fetchers, nil
}
