package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/access"
	"github.com/hackgods/telehealth-coordination/internal/api"
	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/config"
	"github.com/hackgods/telehealth-coordination/internal/db"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/events"
	"github.com/hackgods/telehealth-coordination/internal/logging"
	"github.com/hackgods/telehealth-coordination/internal/notification"
	redisclient "github.com/hackgods/telehealth-coordination/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(false, "info")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.IsDev(), cfg.LogLevel)
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Str("version", version).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(rootCtx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("api-server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("api-server stopped")
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		return err
	}
	defer pgPool.Close()

	if err := db.EnsureSchema(ctx, pgPool); err != nil {
		return err
	}
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing lifecycle events to AMQP")
	}

	mailer := notification.NewSMTPMailer(cfg.SMTP, cfg.NotifyTimeout)
	if !mailer.Configured() {
		logger.Warn().Msg("EMAIL_USER/EMAIL_PASS not set, notifications will report not configured")
	}
	dispatcher := notification.NewDispatcher(mailer, cfg.AppBaseURL, logger)

	doctorRepo := doctor.NewCachedRepository(doctor.NewPgRepository(pgPool), cfg.DoctorCacheSize, cfg.DoctorCacheTTL)
	doctors := doctor.NewService(doctorRepo, dispatcher, publisher, logger)

	appointments := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		doctorRepo,
		redisclient.NewRedisLocker(rdb, cfg.LockTTL),
		dispatcher,
		publisher,
		cfg,
		logger,
	)

	router := api.NewRouter(api.RouterConfig{
		Appointments: appointments,
		Doctors:      doctors,
		Notifier:     dispatcher,
		Gate:         access.NewGate(),
		Identity:     access.NewJWTProvider(cfg.JWTSecret),
		Checks: []api.DependencyCheck{
			{Name: "postgres", Critical: true, Ping: pgPool.Ping},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		Logger:  logger,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}

	// Let booking notifications already in flight finish before the pools close.
	drained := make(chan struct{})
	go func() {
		appointments.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("gave up waiting for in-flight notifications")
	}

	return nil
}
