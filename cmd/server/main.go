package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

func main() {
	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid time zone")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	rdb := config.NewRedisClient(&logger)
	if rdb != nil {
		defer rdb.Close()
	}

	// events must stay an untyped nil when disabled.
	var events service.EventPublisher
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitURL, &logger)
	}
	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.RabbitURL, cfg.EventLogPath, &logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	reservationRepo := repository.NewReservationRepo(db)
	tableRepo := repository.NewTableRepo(db, reservationRepo)
	reservations := service.NewReservationService(reservationRepo, utils.SystemClock{Location: loc}, events, &logger)
	tables := service.NewTableService(tableRepo, reservations, &logger)

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(&logger))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, &logger)
	router.RegisterHealth(e, db, redisPinger(rdb), cfg.MetricsEnabled)
	router.RegisterReservations(e, handler.NewReservationHandler(reservations, &logger), limit)
	router.RegisterTables(e, handler.NewTableHandler(tables, &logger), limit)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("tz", loc.String()).Msg("listening")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.Dev() {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func redisPinger(rdb *redis.Client) handler.RedisPinger {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
