package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jwt-pizza/pizza-service/internal/api"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
	"github.com/jwt-pizza/pizza-service/internal/core/service"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/config"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/db/mongo"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/db/postgres"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/db/redis"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/http/handlers"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/ratelimit"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/security"
	"github.com/jwt-pizza/pizza-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title Pizza Service API
// @version 1.0
// @description Token based authentication for the pizza service.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "pizza-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	codec, err := security.NewJWTCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	checks := make(map[string]handlers.Check)

	var (
		users    ports.CredentialStore
		sessions ports.SessionStore
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		userRepo := mongo.NewUserRepository(db, hasher)
		sessionRepo := mongo.NewSessionRepository(db)
		if err := mongo.EnsureIndexes(ctx, userRepo, sessionRepo); err != nil {
			return err
		}
		users, sessions = userRepo, sessionRepo
		checks["mongodb"] = handlers.MongoCheck(db)
	default:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		users, sessions = postgres.NewUserRepository(db, hasher), postgres.NewSessionRepository(db)
		checks["postgres"] = handlers.PostgresCheck(db)
	}

	authService := service.NewAuthService(users, sessions, codec, logger.Component("auth"))

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		authService.WithThrottle(redis.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow))
		checks["redis"] = handlers.RedisCheck(rdb)
	} else {
		authService.WithThrottle(ratelimit.NewMemoryThrottle(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow))
	}

	if cfg.Admin.Email != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Checks:      checks,
		Log:         logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
