package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/core/services"
	"github.com/SscSPs/escrow_ledger_app/internal/handlers"
	"github.com/SscSPs/escrow_ledger_app/internal/job"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/SscSPs/escrow_ledger_app/internal/monitor"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/config"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/metrics"
	"github.com/SscSPs/escrow_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/escrow_ledger_app/internal/repositories/memory"
	"github.com/SscSPs/escrow_ledger_app/internal/sequence"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
	"github.com/SscSPs/escrow_ledger_app/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// @title Escrow Ledger API
// @version 1.0
// @description Double-entry ledger with hash-chained audit trail and escrow lifecycle.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repos, cleanup, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	sinks := []monitor.Sink{monitor.NewLogSink(logger)}
	if posthogClient.IsInitialized() {
		sinks = append(sinks, monitor.NewPosthogSink(posthogClient))
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := monitor.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaSecurityTopic)
		defer func() {
			if cerr := writer.Close(); cerr != nil {
				logger.Error("Error closing kafka writer", slog.String("error", cerr.Error()))
			}
		}()
		sinks = append(sinks, monitor.NewKafkaSink(writer))
		logger.Info("Security events will be published to kafka", slog.String("topic", cfg.KafkaSecurityTopic))
	}
	dispatcher := monitor.NewDispatcher(logger, cfg.MonitorBufferSize,
		monitor.NewVelocityRule(cfg.VelocityThreshold, cfg.VelocityWindow), m, sinks...)

	container, err := services.NewServiceContainer(cfg, repos,
		services.WithMonitor(dispatcher),
		services.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := ensureSystemAccounts(ctx, container.Account, cfg.SupportedCurrencies, logger); err != nil {
		return err
	}

	router, err := newRouter(cfg, container, registry, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := job.NewEscrowSweeper(container.Escrow, cfg.EscrowSweepInterval, cfg.EscrowSweepBatch, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// initRepositories selects the storage engine and returns a cleanup func for it.
func initRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	var (
		repos   portsrepo.RepositoryProvider
		cleanup = func() {}
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using the in-memory storage engine, state is lost on restart")
		repos = memory.NewRepositoryProvider(memory.NewStore())
	default:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return repos, cleanup, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		cleanup = func() { database.ClosePgxPool(dbPool) }

		if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
			cleanup()
			return repos, func() {}, err
		}
		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	if cfg.RedisURL != "" {
		client, err := sequence.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return repos, func() {}, err
		}
		repos.Sequences = sequence.NewRedisSequence(client)
		dbCleanup := cleanup
		cleanup = func() {
			if cerr := client.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
			dbCleanup()
		}
		logger.Info("Escrow numbers are drawn from redis")
	}

	return repos, cleanup, nil
}

// ensureSystemAccounts provisions the house accounts for every supported currency.
func ensureSystemAccounts(ctx context.Context, accounts portssvc.AccountWriterSvc, currencies []string, logger *slog.Logger) error {
	systemTypes := []domain.AccountType{domain.SystemEscrowHolding, domain.SystemSettlement, domain.SystemFees}
	for _, currency := range currencies {
		for _, accountType := range systemTypes {
			acc, err := accounts.EnsureSystemAccount(ctx, accountType, currency)
			if err != nil {
				return fmt.Errorf("failed to provision %s account for %s: %w", accountType, currency, err)
			}
			logger.Debug("System account ready", slog.String("account_id", acc.AccountID), slog.String("type", string(accountType)), slog.String("currency", currency))
		}
	}
	return nil
}

func newRouter(cfg *config.Config, container *portssvc.ServiceContainer, gatherer prometheus.Gatherer, logger *slog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	var rateLimiter *limiter.Limiter
	if cfg.RateLimit != "" {
		l, err := middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		rateLimiter = l
	}

	handlers.RegisterRoutes(r, cfg, container, handlers.RouterDeps{
		Limiter:  rateLimiter,
		Gatherer: gatherer,
	})
	return r, nil
}
