package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETFUSE_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
//
// A missing file is not an error: defaults plus environment overrides are
// used, so one-shot runs work without any config file at all.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETFUSE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Scrape ──
	setInt(&cfg.Scrape.Limit, "MARKETFUSE_SCRAPE_LIMIT")
	setStr(&cfg.Scrape.Proxy, "MARKETFUSE_SCRAPE_PROXY")
	setDuration(&cfg.Scrape.Timeout, "MARKETFUSE_SCRAPE_TIMEOUT")
	setInt(&cfg.Scrape.RateLimitPerMin, "MARKETFUSE_SCRAPE_RATE_LIMIT_PER_MIN")
	// Standard proxy variables double as the scrape proxy.
	if cfg.Scrape.Proxy == "" {
		setStr(&cfg.Scrape.Proxy, "HTTPS_PROXY")
	}
	if cfg.Scrape.Proxy == "" {
		setStr(&cfg.Scrape.Proxy, "HTTP_PROXY")
	}

	// ── Sites ──
	setBool(&cfg.Sites.Polymarket.Enabled, "MARKETFUSE_SITES_POLYMARKET_ENABLED")
	setStr(&cfg.Sites.Polymarket.BaseURL, "MARKETFUSE_SITES_POLYMARKET_BASE_URL")
	setBool(&cfg.Sites.Manifold.Enabled, "MARKETFUSE_SITES_MANIFOLD_ENABLED")
	setStr(&cfg.Sites.Manifold.BaseURL, "MARKETFUSE_SITES_MANIFOLD_BASE_URL")
	setBool(&cfg.Sites.PredictIt.Enabled, "MARKETFUSE_SITES_PREDICTIT_ENABLED")
	setStr(&cfg.Sites.PredictIt.BaseURL, "MARKETFUSE_SITES_PREDICTIT_BASE_URL")

	// ── Matching ──
	setFloat64(&cfg.Matching.Threshold, "MARKETFUSE_MATCHING_THRESHOLD")

	// ── Export ──
	setStr(&cfg.Export.OutputPath, "MARKETFUSE_EXPORT_OUTPUT_PATH")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "MARKETFUSE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "MARKETFUSE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MARKETFUSE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETFUSE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETFUSE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETFUSE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETFUSE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETFUSE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETFUSE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETFUSE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETFUSE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETFUSE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETFUSE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETFUSE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETFUSE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETFUSE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETFUSE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETFUSE_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "MARKETFUSE_REDIS_CACHE_TTL_MINUTES")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MARKETFUSE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MARKETFUSE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETFUSE_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETFUSE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETFUSE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETFUSE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETFUSE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETFUSE_S3_FORCE_PATH_STYLE")

	// ── LLM ──
	setStr(&cfg.LLM.BaseURL, "MARKETFUSE_LLM_BASE_URL")
	setStr(&cfg.LLM.APIKey, "MARKETFUSE_LLM_API_KEY")
	// Provider keys double as the LLM key when the dedicated one is unset.
	if cfg.LLM.APIKey == "" {
		setStr(&cfg.LLM.APIKey, "GROQ_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		setStr(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	}
	setStr(&cfg.LLM.ChatModel, "MARKETFUSE_LLM_CHAT_MODEL")
	setStr(&cfg.LLM.EmbeddingModel, "MARKETFUSE_LLM_EMBEDDING_MODEL")
	setDuration(&cfg.LLM.Timeout, "MARKETFUSE_LLM_TIMEOUT")
	setInt(&cfg.LLM.MaxRetries, "MARKETFUSE_LLM_MAX_RETRIES")

	// ── RAG ──
	setBool(&cfg.RAG.Enabled, "MARKETFUSE_RAG_ENABLED")
	setStr(&cfg.RAG.CachePath, "MARKETFUSE_RAG_CACHE_PATH")
	setInt(&cfg.RAG.TopK, "MARKETFUSE_RAG_TOP_K")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETFUSE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETFUSE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETFUSE_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETFUSE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETFUSE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETFUSE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETFUSE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETFUSE_MODE")
	setStr(&cfg.LogLevel, "MARKETFUSE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
