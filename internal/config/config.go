// Package config defines the top-level configuration for marketfuse and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETFUSE_* environment
// variables.
type Config struct {
	Scrape   ScrapeConfig   `toml:"scrape"`
	Sites    SitesConfig    `toml:"sites"`
	Matching MatchingConfig `toml:"matching"`
	Export   ExportConfig   `toml:"export"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	LLM      LLMConfig      `toml:"llm"`
	RAG      RAGConfig      `toml:"rag"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ScrapeConfig holds collection parameters shared by all site fetchers.
type ScrapeConfig struct {
	// Limit is the maximum number of markets fetched per site.
	Limit int `toml:"limit"`
	// Proxy is an optional HTTP(S) proxy URL applied to all fetchers.
	Proxy string `toml:"proxy"`
	// Timeout bounds each site request.
	Timeout duration `toml:"timeout"`
	// RateLimitPerMin caps requests per site per minute when Redis is
	// enabled; 0 disables rate limiting.
	RateLimitPerMin int `toml:"rate_limit_per_min"`
}

// SitesConfig holds per-site API endpoints and enable flags.
type SitesConfig struct {
	Polymarket SiteConfig `toml:"polymarket"`
	Manifold   SiteConfig `toml:"manifold"`
	PredictIt  SiteConfig `toml:"predictit"`
}

// SiteConfig configures one fetch adapter.
type SiteConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// MatchingConfig holds matching-core parameters.
type MatchingConfig struct {
	// Threshold is the similarity a title must reach to join a cluster.
	// Passed through to the core unvalidated: >1 yields singletons, <=0
	// merges everything. That is defined behavior, not an error.
	Threshold float64 `toml:"threshold"`
}

// ExportConfig holds CSV output parameters.
type ExportConfig struct {
	OutputPath string `toml:"output_path"`
}

// PostgresConfig holds PostgreSQL connection parameters. Persistence is
// optional; when disabled, runs are memory-only plus CSV.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Optional; enables the
// market cache, fetch rate limiting, and the run lock.
type RedisConfig struct {
	Enabled         bool   `toml:"enabled"`
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// S3Config holds S3-compatible object storage parameters for raw-batch
// snapshots. Optional.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// LLMConfig holds the OpenAI-compatible API used for embeddings and the
// agent pipeline.
type LLMConfig struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	ChatModel      string   `toml:"chat_model"`
	EmbeddingModel string   `toml:"embedding_model"`
	Timeout        duration `toml:"timeout"`
	MaxRetries     int      `toml:"max_retries"`
}

// RAGConfig holds semantic-search parameters.
type RAGConfig struct {
	Enabled   bool   `toml:"enabled"`
	CachePath string `toml:"cache_path"`
	TopK      int    `toml:"top_k"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scrape: ScrapeConfig{
			Limit:           150,
			Timeout:         duration{30 * time.Second},
			RateLimitPerMin: 0,
		},
		Sites: SitesConfig{
			Polymarket: SiteConfig{
				Enabled: true,
				BaseURL: "https://clob.polymarket.com",
			},
			Manifold: SiteConfig{
				Enabled: true,
				BaseURL: "https://manifold.markets",
			},
			PredictIt: SiteConfig{
				Enabled: true,
				BaseURL: "https://www.predictit.org",
			},
		},
		Matching: MatchingConfig{
			Threshold: 0.78,
		},
		Export: ExportConfig{
			OutputPath: "data/output/unified_products.csv",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketfuse",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			PoolSize:        20,
			MaxRetries:      3,
			CacheTTLMinutes: 60,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketfuse-snapshots",
			ForcePathStyle: true,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			ChatModel:      "llama3-70b-8192",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        duration{60 * time.Second},
			MaxRetries:     2,
		},
		RAG: RAGConfig{
			Enabled:   true,
			CachePath: "data/embeddings_cache.json",
			TopK:      5,
		},
		Server: ServerConfig{
			Enabled:     false,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"run_completed", "run_failed"},
		},
		Mode:     "auto",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"collect": true,
	"agent":   true,
	"auto":    true,
	"test":    true,
	"serve":   true,
	"chat":    true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: collect, agent, auto, test, serve, chat, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scrape
	if c.Scrape.Limit < 1 {
		errs = append(errs, "scrape: limit must be >= 1")
	}
	if c.Scrape.Timeout.Duration <= 0 {
		errs = append(errs, "scrape: timeout must be positive")
	}

	// Sites — at least one must be enabled for modes that collect.
	collects := c.Mode == "collect" || c.Mode == "agent" || c.Mode == "auto" || c.Mode == "full"
	if collects {
		if !c.Sites.Polymarket.Enabled && !c.Sites.Manifold.Enabled && !c.Sites.PredictIt.Enabled {
			errs = append(errs, "sites: at least one site must be enabled for mode "+c.Mode)
		}
	}
	for _, site := range []struct {
		name string
		cfg  SiteConfig
	}{
		{"polymarket", c.Sites.Polymarket},
		{"manifold", c.Sites.Manifold},
		{"predictit", c.Sites.PredictIt},
	} {
		if site.cfg.Enabled && site.cfg.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("sites: %s.base_url must not be empty when enabled", site.name))
		}
	}

	// Export
	if strings.TrimSpace(c.Export.OutputPath) == "" {
		errs = append(errs, "export: output_path must not be empty")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// LLM — required only for the agent mode; auto degrades to local.
	if c.Mode == "agent" {
		if c.LLM.APIKey == "" {
			errs = append(errs, "llm: api_key is required for agent mode")
		}
		if c.LLM.BaseURL == "" {
			errs = append(errs, "llm: base_url must not be empty for agent mode")
		}
	}

	// RAG
	if c.RAG.Enabled {
		if strings.TrimSpace(c.RAG.CachePath) == "" {
			errs = append(errs, "rag: cache_path must not be empty when enabled")
		}
		if c.RAG.TopK < 1 {
			errs = append(errs, "rag: top_k must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled || c.Mode == "serve" || c.Mode == "full" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
