package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clientes/internal/cache"
	"clientes/internal/config"
	"clientes/internal/handlers"
	"clientes/internal/middleware"
	"clientes/internal/models"
	"clientes/internal/repositories"
	"clientes/internal/services"
	"clientes/pkg/masker"
	"clientes/pkg/rabbitmq"
	"clientes/pkg/viacep"
	"clientes/pkg/zaplogger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zaplogger.New(cfg.App.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := masker.LogConfigs(logger, &cfg.App, &cfg.Database, &cfg.Auth, &cfg.Broker, &cfg.Address, &cfg.Customer); err != nil {
		logger.Warn("Failed to log configuration", zap.Error(err))
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.App.Port))
		if err := app.fiber.Listen(cfg.App.Port); err != nil {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
}

// application is the wired service: the Fiber app plus everything that must
// be released on shutdown.
type application struct {
	fiber   *fiber.App
	auth    *services.AuthService
	closers []func() error
}

// Shutdown stops the HTTP server and releases the broker, cache and database.
func (a *application) Shutdown() error {
	errs := []error{a.fiber.ShutdownWithTimeout(10 * time.Second)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newApp(cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{}
	fail := func(err error) (*application, error) {
		for i := len(app.closers) - 1; i >= 0; i-- {
			_ = app.closers[i]()
		}
		return nil, err
	}

	// --- Repositories ---
	customerRepo, userRepo, closeDB, err := openRepositories(cfg.Database)
	if err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, closeDB)

	// --- RabbitMQ (optional) ---
	instanceID := uuid.New().String()
	var (
		mqClient *rabbitmq.Client
		events   services.EventPublisher
	)
	if cfg.Broker.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Broker.RabbitMQURL}, logger)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize RabbitMQ client: %w", err))
		}
		app.closers = append(app.closers, mqClient.Close)
		events = mqClient
	} else {
		logger.Info("RABBITMQ_URL not set, customer events stay local")
	}

	// --- Address lookup ---
	var addressCache cache.AddressCache
	if cfg.Address.RedisAddr != "" {
		redisCache, err := cache.NewRedisAddressCache(cache.RedisConfig{
			Addr:     cfg.Address.RedisAddr,
			Password: cfg.Address.RedisPassword,
		}, cfg.Address.CacheTTL)
		if err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, redisCache.Close)
		addressCache = redisCache
	} else {
		addressCache = cache.NewMemoryAddressCache(cfg.Address.CacheTTL)
	}
	addressService := services.NewAddressService(
		viacep.NewClient(viacep.Config{BaseURL: cfg.Address.ViaCEPBaseURL, Timeout: cfg.Address.Timeout}),
		addressCache,
		logger,
	)

	// --- Services ---
	authService := services.NewAuthService(userRepo, services.AuthOptions{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		AllowSignup: cfg.Auth.AllowSignup,
	}, logger)
	feed := services.NewCustomerFeed(customerRepo, logger)
	customerService, err := services.NewCustomerService(services.CustomerServiceConfig{
		Repo:                customerRepo,
		Checker:             services.NewUniquenessChecker(customerRepo),
		Credentials:         authService,
		Feed:                feed,
		Events:              events,
		Addresses:           addressService,
		Logger:              logger,
		InstanceID:          instanceID,
		IDFromTaxID:         cfg.Customer.IDFromTaxID,
		AllowOwnEmailOnEdit: cfg.Customer.AllowOwnEmailOnEdit,
	})
	if err != nil {
		return fail(err)
	}
	app.auth = authService

	// Changes made by other instances refresh local subscribers.
	if mqClient != nil {
		err := mqClient.ConsumeCustomerEvents(func(ev rabbitmq.CustomerEvent) error {
			return customerService.HandleRemoteEvent(context.Background(), ev)
		})
		if err != nil {
			return fail(fmt.Errorf("failed to start RabbitMQ consumer: %w", err))
		}
	}

	// --- Initialize Fiber App ---
	app.fiber = fiber.New(fiber.Config{
		AppName:               "clientes",
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	app.fiber.Use(recover.New())
	app.fiber.Use(middleware.RequestLogger(logger))

	// --- API Routes ---
	apiV1 := app.fiber.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService, logger)
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(apiV1, authRequired)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", authRequired)
	handlers.NewCustomerHandler(customerService, feed, authService, logger).RegisterRoutes(protectedRoutes)
	handlers.NewAddressHandler(addressService, logger).RegisterRoutes(protectedRoutes)

	// --- Health Check Endpoint ---
	brokerStatus := "disabled"
	if mqClient != nil {
		brokerStatus = "connected"
	}
	app.fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.Database.Driver,
			"rabbitMQ": brokerStatus,
			"instance": instanceID,
		})
	})

	return app, nil
}

// openRepositories builds the customer and credential stores for the
// configured driver.
func openRepositories(cfg config.DatabaseConfig) (repositories.CustomerRepository, repositories.UserRepository, func() error, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "memory":
		return repositories.NewMockCustomerRepository(), repositories.NewMockUserRepository(), func() error { return nil }, nil
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Customer{}); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	return repositories.NewGORMCustomerRepository(db), repositories.NewGORMUserRepository(db), sqlDB.Close, nil
}
