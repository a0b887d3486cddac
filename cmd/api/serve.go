package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/99minutos/business-units/internal/api"
	"github.com/99minutos/business-units/internal/core/ports"
	"github.com/99minutos/business-units/internal/core/service"
	"github.com/99minutos/business-units/internal/infrastructure/db/postgres"
	"github.com/99minutos/business-units/internal/infrastructure/db/redis"
	"github.com/99minutos/business-units/internal/infrastructure/security"
	"github.com/99minutos/business-units/internal/pkg/config"
	"github.com/99minutos/business-units/pkg/logger"
)

const (
	serviceName     = "business-units-api"
	shutdownTimeout = 10 * time.Second
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		Timeout:  cfg.Database.ConnectTimeout,
		Attempts: cfg.Database.ConnectTries,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
	}

	var (
		limiter    ports.LoginLimiter
		redisCheck func(ctx context.Context) error
	)
	redisCfg := redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if redisCfg.Enabled() {
		rdb, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		} else {
			defer closeRedis(rdb)
			limiter = redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
			redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttling enabled")
		}
	}

	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	authService := service.NewAuthService(
		postgres.NewUserRepository(pool),
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		limiter,
		log.With().Str("component", "auth").Logger(),
		service.AuthOptions{PasswordMinLength: cfg.Auth.PasswordMinLength},
	)
	unitService := service.NewBusinessUnitService(
		postgres.NewBusinessUnitRepository(pool),
		log.With().Str("component", "business_units").Logger(),
	)

	router := api.NewRouter(api.Dependencies{
		AuthService:         authService,
		BusinessUnitService: unitService,
		Tokens:              tokens,
		Logger:              log,
		Postgres:            pool,
		Redis:               redisCheck,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		log.Info().Msg("api server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	}
}

func migrateUp(databaseURL string) error {
	log := logger.Get()
	migrator, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close migrator")
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	log.Info().Uint("version", version).Msg("database schema up to date")
	return nil
}

func closeRedis(rdb *goredis.Client) {
	if err := rdb.Close(); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("failed to close redis client")
	}
}
