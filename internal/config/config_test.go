package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_PORT", "LOG_LEVEL", "OMDB_BASE_URL", "RAPIDAPI_HOST", "STREAMING_BASE_URL",
		"UPSTREAM_TIMEOUT_SECONDS", "POSTER_DIR", "POSTER_PUBLIC_PATH", "MAX_UPLOAD_BYTES",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW_SECONDS",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("OMDB_API_KEY", "omdb-key")
	t.Setenv("RAPIDAPI_KEY", "rapid-key")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.OMDB.BaseURL != "http://www.omdbapi.com" {
		t.Errorf("OMDB.BaseURL = %q", cfg.OMDB.BaseURL)
	}
	if cfg.Streaming.Host != "streaming-availability.p.rapidapi.com" {
		t.Errorf("Streaming.Host = %q", cfg.Streaming.Host)
	}
	if cfg.UpstreamTimeout() != 10*time.Second {
		t.Errorf("UpstreamTimeout() = %v, want 10s", cfg.UpstreamTimeout())
	}
	if cfg.Posters.Dir != "posters" || cfg.Posters.PublicPath != "/movies/poster" {
		t.Errorf("Posters = %+v", cfg.Posters)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want disabled", cfg.Redis.Addr)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info", cfg.SlogLevel())
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "8085")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "3")
	t.Setenv("POSTER_PUBLIC_PATH", "/api/posters/")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8085" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.UpstreamTimeout() != 3*time.Second {
		t.Errorf("UpstreamTimeout() = %v", cfg.UpstreamTimeout())
	}
	if cfg.Posters.PublicPath != "/api/posters" {
		t.Errorf("PublicPath = %q, want trailing slash trimmed", cfg.Posters.PublicPath)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantEnv string
	}{
		{"missing omdb key", map[string]string{"OMDB_API_KEY": ""}, "OMDB_API_KEY"},
		{"missing rapidapi key", map[string]string{"RAPIDAPI_KEY": ""}, "RAPIDAPI_KEY"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"timeout too large", map[string]string{"UPSTREAM_TIMEOUT_SECONDS": "600"}, "UPSTREAM_TIMEOUT_SECONDS"},
		{"relative public path", map[string]string{"POSTER_PUBLIC_PATH": "posters"}, "POSTER_PUBLIC_PATH"},
		{"bad base url", map[string]string{"OMDB_BASE_URL": "not a url"}, "OMDB_BASE_URL"},
		{"non numeric port", map[string]string{"SERVER_PORT": "http"}, "SERVER_PORT"},
		{"non numeric redis db", map[string]string{"REDIS_DB": "abc"}, "REDIS_DB"},
		{"non numeric timeout", map[string]string{"UPSTREAM_TIMEOUT_SECONDS": "10s"}, "UPSTREAM_TIMEOUT_SECONDS"},
		{"non numeric rate limit", map[string]string{"RATE_LIMIT_MAX": "lots"}, "RATE_LIMIT_MAX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantEnv) {
				t.Errorf("error %q does not mention %s", err, tt.wantEnv)
			}
		})
	}
}
