package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/opmgear/api/internal/di"
	"github.com/opmgear/api/internal/handlers"
	"github.com/opmgear/api/internal/platform/config"
	pfirestore "github.com/opmgear/api/internal/platform/firestore"
	"github.com/opmgear/api/internal/platform/observability"
	"github.com/opmgear/api/internal/repositories"
	"github.com/opmgear/api/internal/repositories/csvsource"
	firestoreRepo "github.com/opmgear/api/internal/repositories/firestore"
	"github.com/opmgear/api/internal/services"

	domain "github.com/opmgear/api/internal/domain"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(startedAt)

	var (
		source            repositories.PriceTableRepository
		firestoreProvider *pfirestore.Provider
	)
	switch cfg.Pricing.Source {
	case config.PricingSourceFirestore:
		firestoreProvider = pfirestore.NewProvider(cfg.Firestore)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := firestoreProvider.Close(closeCtx); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}()
		source, err = firestoreRepo.NewPriceTableRepository(firestoreProvider)
		if err != nil {
			logger.Fatal("failed to initialise firestore price source", zap.Error(err))
		}
	default:
		source, err = csvsource.NewPriceTableRepository(cfg.Pricing.CSVDir)
		if err != nil {
			logger.Fatal("failed to initialise csv price source", zap.Error(err))
		}
	}

	container, err := di.NewContainer(cfg, source, logger.Named("pricing"))
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}

	if cfg.Pricing.PrewarmOnStart {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := container.Services.Catalog.Refresh(warmCtx)
		cancel()
		if err != nil {
			// Serve anyway; tables load lazily on first request.
			logger.Warn("price table prewarm failed", zap.Error(err))
		} else {
			logger.Info("price tables prewarmed")
		}
	}

	projectID := strings.TrimSpace(cfg.Observability.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthReadyCheck("priceSource", priceSourceCheck(source)),
	)

	pricingHandlers := handlers.NewPricingHandlers(
		container.Services.Pricing,
		container.Services.Quotes,
		container.Services.Catalog,
		handlers.WithQuoteRateLimit(60, time.Minute),
	)
	adminHandlers := handlers.NewAdminPricingHandlers(container.Services.Catalog)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPricingRoutes(pricingHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("opmgear pricing api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.ToLower(strings.TrimSpace(os.Getenv("API_ENVIRONMENT")))
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

// priceSourceCheck probes the backing store with a cheap single-category
// load.
func priceSourceCheck(source repositories.PriceTableRepository) handlers.ReadyCheck {
	return func(ctx context.Context) error {
		checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		defer cancel()
		_, err := source.LoadTable(checkCtx, domain.PriceCategoryBaseProduct)
		return err
	}
}
