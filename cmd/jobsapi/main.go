// cmd/jobsapi/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	http_api "job-listings/internal/api/http"
	"job-listings/internal/config"
	"job-listings/internal/domain"
	"job-listings/internal/infra/etcd"
	"job-listings/internal/infra/memory"
	"job-listings/internal/infra/postgres"
	"job-listings/internal/infra/redis"
	"job-listings/internal/logging"
	"job-listings/internal/scheduler"
	"job-listings/internal/tracing"
	"job-listings/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "jobs-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logger and tracer
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer(serviceName, cfg.Tracing.Enabled, os.Stdout)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	logger.Info("starting jobs api", "version", version, "storage", cfg.Storage.Driver)

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel, logger)

	// 4. Open storage
	repo, locker, closeStorage, err := openStorage(rootCtx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer closeStorage()

	if cfg.Storage.RedisURL != "" && cfg.Storage.Driver != config.DriverEtcd {
		redisClient, err := redis.NewClient(rootCtx, cfg.Storage.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		locker = redis.NewLocker(redisClient, redis.DefaultLockTTL)
		logger.Info("expiry lock backed by redis")
	}

	// 5. Instantiate components
	postingService := usecase.NewPostingService(repo, logger)
	postingHandler := http_api.NewPostingHandler(postingService, http_api.DefaultBasePath, logger)
	expiryService := usecase.NewExpiryService(repo, locker, scheduler.NewCronScheduler(logger), cfg.Expiry.MaxAge, logger)

	// 6. Register routes and metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", http_api.HealthHandler(serviceName, version))
	postingHandler.RegisterRoutes(mux)

	// 7. Start the expiry sweep
	go func() {
		if err := expiryService.Start(rootCtx, cfg.Expiry.Schedule); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("expiry service stopped with error", "error", err)
		}
	}()

	// 8. Start HTTP API server with CORS middleware
	logger.Info("starting http api server", "addr", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:              cfg.HttpListenAddr,
		Handler:           http_api.CORSMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 9. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	logger.Info("jobs api shut down")
}

// openStorage builds the repository and expiry lock for the configured
// driver. The returned func releases whatever was opened.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.PostingRepository, domain.Locker, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverEtcd:
		client, err := etcd.NewClient(cfg.Storage.EtcdEndpoints, cfg.Storage.EtcdTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("connected to etcd", "endpoints", cfg.Storage.EtcdEndpoints)
		closeFn := func() { _ = client.Close() }
		return etcd.NewEtcdPostingRepository(client, logger), etcd.NewEtcdLocker(client), closeFn, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to postgres")
		return postgres.NewPostingRepository(pool), memory.NewLocker(), pool.Close, nil

	default:
		logger.Warn("using in-memory storage, postings are lost on restart")
		return memory.NewPostingRepository(), memory.NewLocker(), func() {}, nil
	}
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()
	}()
}
