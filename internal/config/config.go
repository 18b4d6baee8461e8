package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the movie aggregator service.
type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	OMDB      OMDBConfig
	Streaming StreamingConfig
	Posters   PosterConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	UpstreamTimeoutSeconds int `validate:"min=1,max=120"`
}

// OMDBConfig holds metadata provider configuration.
type OMDBConfig struct {
	APIKey  string `validate:"required"`
	BaseURL string `validate:"required,url"`
}

// StreamingConfig holds streaming-availability provider configuration.
type StreamingConfig struct {
	APIKey  string `validate:"required"`
	Host    string `validate:"required,hostname"`
	BaseURL string `validate:"required,url"`
}

// PosterConfig controls where uploaded posters live and how they are referenced.
type PosterConfig struct {
	Dir            string `validate:"required"`
	PublicPath     string `validate:"required,startswith=/"`
	MaxUploadBytes int    `validate:"min=1024"`
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"min=0"`
}

// RateLimitConfig holds inbound rate limit settings.
type RateLimitConfig struct {
	Max           int `validate:"min=1"`
	WindowSeconds int `validate:"min=1"`
}

// UpstreamTimeout returns the outbound request timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var errs []error
	intEnv := func(key string, fallback int) int {
		n, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	timeout := intEnv("UPSTREAM_TIMEOUT_SECONDS", 10)
	maxUpload := intEnv("MAX_UPLOAD_BYTES", 10485760)
	redisDB := intEnv("REDIS_DB", 0)
	rateLimitMax := intEnv("RATE_LIMIT_MAX", 100)
	rateLimitWindow := intEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	cfg := &Config{
		Port:     getEnv("SERVER_PORT", "5000"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		OMDB: OMDBConfig{
			APIKey:  os.Getenv("OMDB_API_KEY"),
			BaseURL: getEnv("OMDB_BASE_URL", "http://www.omdbapi.com"),
		},
		Streaming: StreamingConfig{
			APIKey:  os.Getenv("RAPIDAPI_KEY"),
			Host:    getEnv("RAPIDAPI_HOST", "streaming-availability.p.rapidapi.com"),
			BaseURL: getEnv("STREAMING_BASE_URL", "https://streaming-availability.p.rapidapi.com"),
		},
		Posters: PosterConfig{
			Dir:            getEnv("POSTER_DIR", "posters"),
			PublicPath:     strings.TrimRight(getEnv("POSTER_PUBLIC_PATH", "/movies/poster"), "/"),
			MaxUploadBytes: maxUpload,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			Max:           rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
		UpstreamTimeoutSeconds: timeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its validate tag and reports the
// failures using the environment variable names operators actually set.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.StructNamespace()
		if env, ok := envNames[name]; ok {
			name = env
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q", name, fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"Config.Port":                    "SERVER_PORT",
	"Config.LogLevel":                "LOG_LEVEL",
	"Config.OMDB.APIKey":             "OMDB_API_KEY",
	"Config.OMDB.BaseURL":            "OMDB_BASE_URL",
	"Config.Streaming.APIKey":        "RAPIDAPI_KEY",
	"Config.Streaming.Host":          "RAPIDAPI_HOST",
	"Config.Streaming.BaseURL":       "STREAMING_BASE_URL",
	"Config.Posters.Dir":             "POSTER_DIR",
	"Config.Posters.PublicPath":      "POSTER_PUBLIC_PATH",
	"Config.Posters.MaxUploadBytes":  "MAX_UPLOAD_BYTES",
	"Config.Redis.DB":                "REDIS_DB",
	"Config.RateLimit.Max":           "RATE_LIMIT_MAX",
	"Config.RateLimit.WindowSeconds": "RATE_LIMIT_WINDOW_SECONDS",
	"Config.UpstreamTimeoutSeconds":  "UPSTREAM_TIMEOUT_SECONDS",
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
