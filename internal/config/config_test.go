package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoad_Defaults verifies the development defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Errorf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if len(cfg.TrustedOrigins) != 2 {
		t.Errorf("TrustedOrigins = %v, want 2 entries", cfg.TrustedOrigins)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
	if cfg.StaticDir != "" {
		t.Errorf("StaticDir = %q, want empty so the embedded assets are served", cfg.StaticDir)
	}
}

// TestLoad_EnvOverride verifies EDTPRO_* variables win over defaults.
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EDTPRO_ADDR", ":9090")
	t.Setenv("EDTPRO_API_BASE_URL", "https://api.edt.pro/")
	t.Setenv("EDTPRO_API_TIMEOUT", "3s")
	t.Setenv("EDTPRO_STORAGE_BACKEND", "SQLite")
	t.Setenv("EDTPRO_STORAGE_KEY", strings.Repeat("ab", 32))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.APIBaseURL != "https://api.edt.pro" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q", cfg.StorageBackend)
	}
	if len(cfg.StorageKey) != 32 {
		t.Errorf("StorageKey length = %d", len(cfg.StorageKey))
	}
}

// TestLoad_DotEnv verifies values are read from a dotenv file.
func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EDTPRO_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("EDTPRO_LOG_LEVEL") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

// TestLoad_Invalid covers rejected settings.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad backend", map[string]string{"EDTPRO_STORAGE_BACKEND": "mongo"}},
		{"short csrf key", map[string]string{"EDTPRO_CSRF_KEY": "abcd"}},
		{"production without csrf key", map[string]string{"EDTPRO_ENV": "production"}},
		{"zero rate limit", map[string]string{"EDTPRO_RATE_LIMIT_PER_SECOND": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
