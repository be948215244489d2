package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FZOKART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FZOKART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	BcryptCost  int    `default:"12" usage:"bcrypt cost for password hashing" flag:"bcrypt-cost"`
	JWT         JWTConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// JWTConfig controls access and refresh token signing.
type JWTConfig struct {
	Secret        string        `usage:"HS256 secret for access tokens (FZOKART_JWT_SECRET or JWT_SECRET)" flag:"jwt-secret"`
	RefreshSecret string        `usage:"HS256 secret for refresh tokens, defaults to the access secret" flag:"jwt-refresh-secret"`
	TTL           time.Duration `default:"24h" usage:"Access token lifetime" flag:"jwt-ttl"`
	RefreshTTL    time.Duration `default:"168h" usage:"Refresh token lifetime" flag:"jwt-refresh-ttl"`
}

// RedisConfig enables the product cache and the shared rate limiter.
// Redis is off when neither URL nor Addr is set.
type RedisConfig struct {
	URL      string        `usage:"Redis URL (FZOKART_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	Addr     string        `usage:"Redis host:port" flag:"redis-addr"`
	Password string        `usage:"Redis password" flag:"redis-password"`
	DB       int           `default:"0" usage:"Redis database number" flag:"redis-db"`
	TTL      time.Duration `default:"10m" usage:"Product cache entry lifetime" flag:"redis-ttl"`
}

// Enabled reports whether a Redis endpoint is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Addr != ""
}

// KafkaConfig enables order event publishing. Kafka is off when no brokers
// are set.
type KafkaConfig struct {
	Brokers      []string      `usage:"Kafka bootstrap brokers" flag:"kafka-brokers"`
	Topic        string        `default:"fzokart.orders" usage:"Topic for order events" flag:"kafka-topic"`
	BatchTimeout time.Duration `default:"10ms" usage:"Max wait before flushing a batch" flag:"kafka-batch-timeout"`
	WriteTimeout time.Duration `default:"5s" usage:"Per-event publish timeout" flag:"kafka-write-timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max     int           `default:"100" usage:"Max requests per window"`
	Window  time.Duration `default:"15m" usage:"Rate limit window duration"`
	Backend string        `default:"memory" usage:"Limiter backend: memory or redis"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "FZOKART"
	base.Files = []string{"config.yaml", "/etc/fzokart/config.yaml"}
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set FZOKART_DATABASE_URL or DATABASE_URL")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required: set FZOKART_JWT_SECRET or JWT_SECRET")
	}
	if c.RateLimit.Max <= 0 {
		return errors.New("rate limit max must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.New("rate limit backend redis requires a Redis URL or address")
		}
	default:
		return errors.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's FZOKART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	fallback := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fallback(&c.DatabaseURL, "DATABASE_URL")
	fallback(&c.JWT.Secret, "JWT_SECRET")
	fallback(&c.JWT.RefreshSecret, "JWT_REFRESH_SECRET")
	fallback(&c.Redis.URL, "REDIS_URL")

	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
