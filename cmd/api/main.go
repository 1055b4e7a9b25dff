package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/usecase/payment"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/gateway/pesapal"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/repository"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/session"
	timeProvider "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/config"
)

const serviceName = "crowdfunding-payments"

// sessionSweepInterval is how often expired database sessions are removed
const sessionSweepInterval = 15 * time.Minute

// storage holds the persistence chosen by the configured drivers
type storage struct {
	uow      persistence.UnitOfWork
	sessions persistence.PaymentSessionRepository
	checks   map[string]handler.HealthCheck
	closers  []func() error
}

func (s *storage) close(appLogger coreport.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			appLogger.Error("Failed to close storage", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger, err := logger.NewZapLogger(logger.Options{
		Production: cfg.Environment == config.Production,
		Level:      cfg.Logger.Level,
		Service:    serviceName,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Flush()

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	store, err := openStorage(startupCtx, cfg, tp, appLogger)
	cancelStartup()
	if err != nil {
		appLogger.Error("Failed to initialize storage", map[string]any{
			"error":           err.Error(),
			"database_driver": cfg.Database.Driver,
			"session_driver":  cfg.Session.Driver,
		})
		appLogger.Flush()
		os.Exit(1)
	}
	defer store.close(appLogger)

	// Payment gateway
	gatewayClient := pesapal.NewClient(pesapal.Config{
		ConsumerKey:     cfg.PesaPal.ConsumerKey,
		ConsumerSecret:  cfg.PesaPal.ConsumerSecret,
		TestEnabled:     cfg.PesaPal.TestEnabled,
		MerchantURL:     cfg.PesaPal.MerchantURL,
		TestMerchantURL: cfg.PesaPal.TestMerchantURL,
		APIURL:          cfg.PesaPal.APIURL,
		TestAPIURL:      cfg.PesaPal.TestAPIURL,
		RequestTimeout:  cfg.PesaPal.RequestTimeout,
	}, tp, appLogger)
	if !gatewayClient.Configured() {
		appLogger.Warn("PesaPal credentials are missing, payments will be refused", map[string]any{
			"test_enabled": cfg.PesaPal.TestEnabled,
		})
	}

	// Initialize use cases
	paymentService := payment.NewPaymentService(
		store.uow,
		store.sessions,
		gatewayClient,
		gatewayClient,
		tp,
		appLogger,
		payment.Config{
			Currency:                  cfg.Payment.Currency,
			Location:                  cfg.Payment.Location(),
			ReturnRedirectPath:        cfg.Payment.ReturnRedirectPath,
			RemoveSessionOnCompletion: cfg.Payment.RemoveSessionOnCompletion,
		},
	)

	cookies, err := session.NewCookieManager(session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})
	if err != nil {
		appLogger.Error("Failed to create session cookie manager", map[string]any{
			"error": err.Error(),
		})
		appLogger.Flush()
		os.Exit(1)
	}

	// Initialize API handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, cookies, cfg.Payment.CallbackBaseURL, appLogger)
	healthHandler := handler.NewHealthHandler(store.checks, appLogger)

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares
	routes.SetupMiddlewares(router, appLogger, cfg.Server.AllowedOrigins)

	// Setup routes
	routes.SetupRoutes(router, paymentHandler, healthHandler)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			appLogger.Flush()
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown the server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// openStorage connects the unit of work and the session store selected by the configuration
func openStorage(ctx context.Context, cfg *config.Config, tp coreport.TimeProvider, appLogger coreport.Logger) (*storage, error) {
	store := &storage{checks: make(map[string]handler.HealthCheck)}

	var dbManager *database.Manager
	switch cfg.Database.Driver {
	case "postgres":
		dbManager = database.NewManager(database.CreateConfigFromViperConfig(cfg), appLogger, tp)
		if _, err := dbManager.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		store.closers = append(store.closers, dbManager.Close)

		if err := dbManager.RunMigrations(ctx, cfg.Database.SeedDemoData); err != nil {
			store.close(appLogger)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		store.uow = dbManager.CreateUnitOfWork()
		store.checks["database"] = dbManager.Ping
		store.checks["database_pool"] = func(context.Context) error {
			if metrics := dbManager.PoolMetrics(); metrics.Exhausted() {
				return fmt.Errorf("all %d connections in use, %d callers waiting", metrics.MaxOpenConnections, metrics.NewWaits)
			}
			return nil
		}

	case "memory":
		appLogger.Warn("Using in-memory storage, transactions are lost on restart", nil)
		store.uow = memory.NewUnitOfWork(memory.NewStore(tp), appLogger)
		if cfg.Database.SeedDemoData {
			if err := migration.SeedDemoData(ctx, store.uow.GetProjectRepository(ctx)); err != nil {
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
		}

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	switch cfg.Session.Driver {
	case "database":
		sessions := repository.NewPaymentSessionRepository(dbManager.DB(), cfg.Session.TTL, tp, appLogger)
		stop := sweepExpiredSessions(sessions, appLogger)
		store.closers = append(store.closers, func() error {
			stop()
			return nil
		})
		store.sessions = sessions

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			store.close(appLogger)
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		store.closers = append(store.closers, client.Close)
		store.checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		store.sessions = session.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Session.TTL, tp, appLogger)

	case "memory":
		store.sessions = memory.NewSessionRepository(cfg.Session.TTL, tp)

	default:
		store.close(appLogger)
		return nil, fmt.Errorf("unsupported session driver: %s", cfg.Session.Driver)
	}

	return store, nil
}

// sweepExpiredSessions periodically deletes expired sessions until the returned stop func is called
func sweepExpiredSessions(sessions *repository.PaymentSessionRepository, appLogger coreport.Logger) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sessions.DeleteExpired(ctx)
				if err != nil {
					appLogger.Warn("Failed to delete expired payment sessions", map[string]any{
						"error": err.Error(),
					})
					continue
				}
				if removed > 0 {
					appLogger.Debug("Deleted expired payment sessions", map[string]any{
						"count": removed,
					})
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate database configuration
	if cfg.Database.Driver == "postgres" {
		required := []struct {
			value string
			key   string
			env   string
		}{
			{cfg.Database.Host, "database.host", "CP_DB_HOST"},
			{cfg.Database.Port, "database.port", "CP_DB_PORT"},
			{cfg.Database.Username, "database.username", "CP_DB_USERNAME"},
			{cfg.Database.Password, "database.password", "CP_DB_PASSWORD"},
			{cfg.Database.Database, "database.database", "CP_DB_NAME"},
		}
		for _, r := range required {
			if r.value != "" {
				continue
			}
			if cfg.Environment == config.Production {
				missingConfigs = append(missingConfigs, fmt.Sprintf("%s (or %s environment variable)", r.key, r.env))
			} else {
				missingConfigs = append(missingConfigs, r.key)
			}
		}

		if cfg.Database.QueryTimeout == 0 {
			missingConfigs = append(missingConfigs, "database.queryTimeout")
		}
	}

	// Validate session configuration
	if cfg.Session.Secret == "" {
		missingConfigs = append(missingConfigs, "session.secret (or CP_SESSION_SECRET environment variable)")
	}

	if cfg.Session.Driver == "redis" && cfg.Redis.Addr == "" {
		missingConfigs = append(missingConfigs, "redis.addr")
	}

	// Environment should be set with a valid value
	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	// Logger configuration
	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	// Return error with list of missing configurations
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, do additional validation for sensitive settings
	if cfg.Environment == config.Production {
		var warnings []string

		// Check database security settings
		if cfg.Database.Driver == "postgres" {
			sslMode := strings.ToLower(cfg.Database.SSLMode)
			if sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
				warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
			}
		}

		if cfg.Database.Driver == "memory" || cfg.Session.Driver == "memory" {
			warnings = append(warnings, "memory storage does not survive restarts or scale past one instance")
		}

		if cfg.PesaPal.TestEnabled {
			warnings = append(warnings, "pesapal.testEnabled routes payments to the demo gateway")
		}

		if !cfg.Session.Secure {
			warnings = append(warnings, "session.secure should be enabled so the payment cookie is HTTPS only")
		}

		// Check timeout settings
		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}

		if cfg.Server.WriteTimeout < 5*time.Second {
			warnings = append(warnings, "server.writeTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential security issues in production configuration: %v", warnings)
		}
	}

	return nil
}
