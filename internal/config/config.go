package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/storage"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	ModeStructured = "structured"
	ModeSimple     = "simple"

	devSessionSecret = "fallback-secret-change-in-production"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Session   SessionConfig
	Model     ModelConfig
	RateLimit RateLimitConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether cookies must be marked Secure and .env loading skipped.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, EnvProduction)
}

type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects the backing store by URL scheme:
// postgres:// or postgresql:// (lib/pq), sqlite:// (modernc), mongodb:// or
// mongodb+srv://, or empty for the in-memory store.
type DatabaseConfig struct {
	URL string
	// Timeout bounds the connection ping of SQL backends.
	Timeout time.Duration
}

type MongoDBConfig struct {
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

type ModelConfig struct {
	APIKey              string
	BaseURL             string
	Name                string
	Temperature         float64
	Timeout             time.Duration
	Mode                string
	RetryMalformed      bool
	MaxTokensStructured int
	MaxTokensSimple     int
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type GitExportConfig struct {
	Dir    string
	Remote string
	Branch string
	Push   bool
}

type ExportConfig struct {
	Timeout time.Duration
	MinIO   storage.MinIOConfig
	Git     GitExportConfig
}

// LoadConfig loads configuration from environment variables and, outside
// production, from a .env file in the working directory.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("SERVER_ENVIRONMENT"), EnvProduction) {
		_ = godotenv.Load(".env")
	}

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", EnvDevelopment)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("DATABASE_TIMEOUT", 10)
	viper.SetDefault("MONGODB_DATABASE", "scaleaudit")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("SESSION_COOKIE_NAME", "sid")
	viper.SetDefault("MODEL_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("MODEL_NAME", "gpt-4o-mini")
	viper.SetDefault("MODEL_TEMPERATURE", 0.7)
	viper.SetDefault("MODEL_TIMEOUT", 30)
	viper.SetDefault("MODEL_MODE", ModeStructured)
	viper.SetDefault("MODEL_RETRY_MALFORMED", true)
	viper.SetDefault("MODEL_MAX_TOKENS_STRUCTURED", 1500)
	viper.SetDefault("MODEL_MAX_TOKENS_SIMPLE", 500)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 0.2)
	viper.SetDefault("RATE_LIMIT_BURST", 3)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("EXPORT_TIMEOUT", 20)
	viper.SetDefault("EXPORT_MINIO_BUCKET", "scale-audits")
	viper.SetDefault("EXPORT_GIT_REMOTE", "origin")
	viper.SetDefault("EXPORT_GIT_BRANCH", "main")

	cfg := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			URL:     viper.GetString("DATABASE_URL"),
			Timeout: time.Duration(viper.GetInt("DATABASE_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			TTL:        time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			CookieName: viper.GetString("SESSION_COOKIE_NAME"),
		},
		Model: ModelConfig{
			APIKey:              os.Getenv("OPENAI_API_KEY"),
			BaseURL:             strings.TrimRight(viper.GetString("MODEL_BASE_URL"), "/"),
			Name:                viper.GetString("MODEL_NAME"),
			Temperature:         viper.GetFloat64("MODEL_TEMPERATURE"),
			Timeout:             time.Duration(viper.GetInt("MODEL_TIMEOUT")) * time.Second,
			Mode:                strings.ToLower(strings.TrimSpace(viper.GetString("MODEL_MODE"))),
			RetryMalformed:      viper.GetBool("MODEL_RETRY_MALFORMED"),
			MaxTokensStructured: viper.GetInt("MODEL_MAX_TOKENS_STRUCTURED"),
			MaxTokensSimple:     viper.GetInt("MODEL_MAX_TOKENS_SIMPLE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Export: ExportConfig{
			Timeout: time.Duration(viper.GetInt("EXPORT_TIMEOUT")) * time.Second,
			MinIO: storage.MinIOConfig{
				Endpoint:  viper.GetString("EXPORT_MINIO_ENDPOINT"),
				AccessKey: os.Getenv("EXPORT_MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("EXPORT_MINIO_SECRET_KEY"),
				UseSSL:    viper.GetBool("EXPORT_MINIO_USE_SSL"),
				Bucket:    viper.GetString("EXPORT_MINIO_BUCKET"),
			},
			Git: GitExportConfig{
				Dir:    viper.GetString("EXPORT_GIT_DIR"),
				Remote: viper.GetString("EXPORT_GIT_REMOTE"),
				Branch: viper.GetString("EXPORT_GIT_BRANCH"),
				Push:   viper.GetBool("EXPORT_GIT_PUSH"),
			},
		},
	}

	if cfg.Session.Secret == "" && !cfg.Server.IsProduction() {
		logger.Warnf("SESSION_SECRET is not set; using development fallback secret")
		cfg.Session.Secret = devSessionSecret
	}
	cfg.Server.WriteTimeout = WriteTimeoutFor(cfg.Model)
	if cfg.Model.APIKey == "" {
		logger.Warnf("OPENAI_API_KEY is not set; audit generation will fail until it is configured")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeTimeoutMargin covers formatting, storage and response writing after
// the last model call.
const writeTimeoutMargin = 30 * time.Second

// WriteTimeoutFor returns a server write deadline that outlives every model
// call a single audit request can make: two when malformed output is
// re-prompted in either mode, one otherwise.
func WriteTimeoutFor(m ModelConfig) time.Duration {
	calls := time.Duration(1)
	if m.RetryMalformed {
		calls = 2
	}
	return calls*m.Timeout + writeTimeoutMargin
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required in %s", c.Server.Environment)
	}
	if c.Model.Mode != ModeStructured && c.Model.Mode != ModeSimple {
		return fmt.Errorf("unsupported MODEL_MODE %q (want %q or %q)", c.Model.Mode, ModeStructured, ModeSimple)
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("MODEL_TIMEOUT must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.Database.Timeout < 0 {
		return fmt.Errorf("DATABASE_TIMEOUT must not be negative")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < WriteTimeoutFor(c.Model)-writeTimeoutMargin {
		return fmt.Errorf("server write timeout %s is shorter than the model calls of one request (%s)",
			c.Server.WriteTimeout, WriteTimeoutFor(c.Model)-writeTimeoutMargin)
	}
	return nil
}
