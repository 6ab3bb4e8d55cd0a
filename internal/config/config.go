package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backend names
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds runtime settings, read from EDTPRO_* environment variables.
type Config struct {
	Env                string
	Addr               string
	LogLevel           string
	StaticDir          string
	APIBaseURL         string
	APITimeout         time.Duration
	StorageBackend     string
	SQLitePath         string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionTTL         time.Duration
	CSRFKey            []byte
	StorageKey         []byte
	RateLimitPerSecond int
	TrustedOrigins     []string
	OTelEndpoint       string
	OTelInsecure       bool
	SlowRequestMs      int
	SlowQueryMs        int
}

// IsProduction reports whether the process runs with env=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// newViper returns a viper instance with defaults and env binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "") // empty serves the embedded assets
	v.SetDefault("api_base_url", "http://localhost:3000")
	v.SetDefault("api_timeout", 10*time.Second)
	v.SetDefault("storage_backend", BackendMemory)
	v.SetDefault("sqlite_path", "edtpro.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("csrf_key", "")
	v.SetDefault("storage_key", "")
	v.SetDefault("rate_limit_per_second", 10)
	v.SetDefault("trusted_origins", "localhost:8080,127.0.0.1:8080")
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("otel_insecure", false)
	v.SetDefault("slow_request_ms", 200)
	v.SetDefault("slow_query_ms", 50)
	v.SetEnvPrefix("EDTPRO")
	v.AutomaticEnv()
	return v
}

// Load reads the optional dotenv file and the environment.
// PRE: dotEnvPath may be empty or point to a missing file
// POST: Returns a validated Config or an error naming the bad key
func Load(dotEnvPath string) (Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return Config{}, fmt.Errorf("config.godotenv(%s): %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config.os.Stat(%s): %w", dotEnvPath, err)
		}
	}

	v := newViper()
	cfg := Config{
		Env:                v.GetString("env"),
		Addr:               v.GetString("addr"),
		LogLevel:           v.GetString("log_level"),
		StaticDir:          v.GetString("static_dir"),
		APIBaseURL:         strings.TrimRight(v.GetString("api_base_url"), "/"),
		APITimeout:         v.GetDuration("api_timeout"),
		StorageBackend:     strings.ToLower(v.GetString("storage_backend")),
		SQLitePath:         v.GetString("sqlite_path"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		SessionTTL:         v.GetDuration("session_ttl"),
		RateLimitPerSecond: v.GetInt("rate_limit_per_second"),
		TrustedOrigins:     splitList(v.GetString("trusted_origins")),
		OTelEndpoint:       v.GetString("otel_endpoint"),
		OTelInsecure:       v.GetBool("otel_insecure"),
		SlowRequestMs:      v.GetInt("slow_request_ms"),
		SlowQueryMs:        v.GetInt("slow_query_ms"),
	}

	var err error
	if cfg.CSRFKey, err = decodeKey("csrf_key", v.GetString("csrf_key")); err != nil {
		return Config{}, err
	}
	if cfg.StorageKey, err = decodeKey("storage_key", v.GetString("storage_key")); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
// INVARIANT: Config fields are not mutated
func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("EDTPRO_STORAGE_BACKEND must be one of memory, sqlite, redis (got %q)", c.StorageBackend)
	}
	if c.APIBaseURL == "" {
		return errors.New("EDTPRO_API_BASE_URL is required")
	}
	if c.APITimeout <= 0 {
		return errors.New("EDTPRO_API_TIMEOUT must be positive")
	}
	if c.IsProduction() && len(c.CSRFKey) == 0 {
		return errors.New("EDTPRO_CSRF_KEY is required in production")
	}
	if c.RateLimitPerSecond <= 0 {
		return errors.New("EDTPRO_RATE_LIMIT_PER_SECOND must be positive")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// decodeKey parses an optional 32-byte hex secret.
func decodeKey(name, keyHex string) ([]byte, error) {
	if keyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("EDTPRO_%s must be 64 hex characters (32 bytes)", strings.ToUpper(name))
	}
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
