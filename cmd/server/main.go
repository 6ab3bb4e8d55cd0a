package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"edtpro/internal/adapters/api"
	web "edtpro/internal/adapters/http"
	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/adapters/http/perf"
	"edtpro/internal/adapters/storage"
	"edtpro/internal/adapters/storage/clientstore"
	"edtpro/internal/adapters/telemetry"
	"edtpro/internal/application/orchestrators"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
	"edtpro/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// backend is the client storage chosen by config, with its readiness probe.
type backend struct {
	store session.Storage
	ready func(ctx context.Context) error
	tasks []orchestrators.HousekeepingTask
	close func() error
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, "edtpro-web", cfg.OTelEndpoint, cfg.OTelInsecure)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("otel_shutdown_error", "error", err)
		}
	}()

	// Performance instrumentation shared by storage, API client and request timing
	collector := perf.NewCollector(perf.DefaultRingSize)

	be, err := openBackend(cfg, collector)
	if err != nil {
		log.Fatalf("failed to open client storage: %v", err)
	}
	defer be.close()

	var accessorOpts []session.Option
	if len(cfg.StorageKey) > 0 {
		sealer, err := session.NewSealer(cfg.StorageKey)
		if err != nil {
			log.Fatalf("invalid storage key: %v", err)
		}
		accessorOpts = append(accessorOpts, session.WithSealer(sealer))
	}
	sessions := session.NewAccessor(be.store, accessorOpts...)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, time.Second)
	tasks := append(be.tasks, orchestrators.HousekeepingTask{
		Name: "rate_limiter_sweep",
		Run: func(context.Context) (int64, error) {
			return int64(limiter.Sweep(5 * time.Minute)), nil
		},
	})
	housekeepingStop := make(chan struct{})
	orchestrators.StartBackgroundWorker(tasks, time.Minute, housekeepingStop)
	defer close(housekeepingStop)

	handler := web.NewMux(web.Deps{
		Sessions:  sessions,
		API:       api.NewClient(cfg.APIBaseURL, cfg.APITimeout, collector),
		Validator: validation.New(),
		Collector: collector,
		Limiter:   limiter,
		Options: web.Options{
			CSRFKey:        csrfKey(cfg),
			Secure:         cfg.IsProduction(),
			TrustedOrigins: cfg.TrustedOrigins,
			CookieMaxAge:   cfg.SessionTTL,
			SlowRequestMs:  cfg.SlowRequestMs,
			StaticDir:      cfg.StaticDir,
			Ready:          be.ready,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(handler, "edtpro-web"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"storage", cfg.StorageBackend, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_error", "error", err)
	}
}

// setupLogging installs a text handler in development and a JSON handler in production.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// openBackend builds the client storage selected by storage_backend.
func openBackend(cfg config.Config, collector *perf.Collector) (backend, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		if err := storage.MigrateDB(db); err != nil {
			db.Close()
			return backend{}, err
		}
		store := clientstore.NewSQLiteStore(storage.NewTimedDB(db, collector, cfg.SlowQueryMs), cfg.SessionTTL)
		slog.Info("client_storage_ready", "backend", "sqlite", "path", cfg.SQLitePath, "schema", storage.LatestSchemaVersion())
		return backend{
			store: store,
			ready: db.PingContext,
			tasks: []orchestrators.HousekeepingTask{{Name: "client_item_purge", Run: store.PurgeExpired}},
			close: db.Close,
		}, nil

	case config.BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := clientstore.NewRedisStore(client, "edtpro", cfg.SessionTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			client.Close()
			return backend{}, err
		}
		slog.Info("client_storage_ready", "backend", "redis", "addr", cfg.RedisAddr)
		return backend{store: store, ready: store.Ping, close: client.Close}, nil
	}

	slog.Info("client_storage_ready", "backend", "memory")
	if cfg.IsProduction() {
		slog.Warn("memory_client_storage", "detail", "sessions are lost on restart and not shared between instances")
	}
	return backend{
		store: clientstore.NewMemoryStore(cfg.SessionTTL),
		close: func() error { return nil },
	}, nil
}

// csrfKey returns the configured key, or a random one outside production.
func csrfKey(cfg config.Config) []byte {
	if len(cfg.CSRFKey) > 0 {
		return cfg.CSRFKey
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	slog.Warn("random_csrf_key", "detail", "forms issued before a restart will be rejected; set EDTPRO_CSRF_KEY")
	return key
}
