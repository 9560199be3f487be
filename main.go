package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"padelcentar/internal/config"
	"padelcentar/internal/database"
	"padelcentar/internal/handlers"
	"padelcentar/internal/middleware"
	"padelcentar/internal/ratelimit"
	"padelcentar/internal/repositories"
	"padelcentar/internal/services"
	"padelcentar/pkg/rabbitmq"
)

// appDeps holds everything newApp wires into the HTTP surface.
type appDeps struct {
	DB           *gorm.DB
	UserService  *services.UserService
	AuthService  *services.AuthService
	Location     *time.Location
	LoginLimiter ratelimit.Limiter // nil disables login throttling
}

// newApp builds the Fiber application with middleware and all routes.
func newApp(deps appDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "padelcentar",
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(deps.DB); err != nil {
			log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "connected",
		})
	})

	// --- API Routes ---
	api := app.Group("/api")
	adminOnly := middleware.AdminRequired(deps.AuthService)

	var loginGuards []fiber.Handler
	if deps.LoginLimiter != nil {
		loginGuards = append(loginGuards, middleware.RateLimit(deps.LoginLimiter))
	}

	handlers.NewAdminHandler(deps.AuthService).RegisterRoutes(api, loginGuards...)
	handlers.NewUserHandler(deps.UserService).RegisterRoutes(api, adminOnly)
	handlers.NewExportHandler(deps.UserService, deps.Location).RegisterRoutes(api, adminOnly)

	return app
}

// errorHandler answers unhandled errors with the same JSON shape the
// handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown LOG_LEVEL, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run starts the service and blocks until it stops. Returning instead of
// exiting lets every deferred Close run.
func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg.LogLevel)

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to load export time zone: %w", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Error("failed to close database")
		}
	}()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.WithField("driver", cfg.DatabaseDriver).Info("database ready")

	// --- Repositories and Services ---
	hasher := services.NewHasher(cfg.BcryptCost)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(repositories.NewGORMAdminRepository(db), hasher, tokens)

	ctx := context.Background()
	if cfg.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD is empty, skipping admin bootstrap")
	} else {
		admin, created, err := authService.EnsureBootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
		if created {
			log.WithField("username", admin.Username).Info("admin account created")
		}
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		go func() {
			log.Info("starting RabbitMQ consumer for user events")
			if err := mqClient.ConsumeUserEvents(rabbitmq.LogUserEvent); err != nil {
				log.WithError(err).Error("failed to start RabbitMQ consumer")
			}
		}()
	}

	userService := services.NewUserService(repositories.NewGORMUserRepository(db), hasher, publisher)

	// --- Redis login throttling (optional) ---
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
			Client:    redisClient,
			KeyPrefix: "padelcentar:admin-login:",
			Rate:      cfg.LoginRateLimit,
			Window:    cfg.LoginRateWindow,
		})
		log.WithField("addr", cfg.RedisAddr).Info("admin login rate limiting enabled")
	}

	app := newApp(appDeps{
		DB:           db,
		UserService:  userService,
		AuthService:  authService,
		Location:     location,
		LoginLimiter: limiter,
	})

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.WithField("port", cfg.AppPort).Info("starting server")
	if err := serve(app, cfg.AppPort, quit); err != nil {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}

// serve listens on addr until a signal arrives on stop, then shuts the app
// down. A listen failure is returned instead of exiting so the caller's
// deferred cleanup still runs.
func serve(app *fiber.App, addr string, stop <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("error during Fiber shutdown: %w", err)
		}
		return nil
	}
}
