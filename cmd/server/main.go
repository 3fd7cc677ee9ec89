package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dashboard/backend/internal/alert"
	"dashboard/backend/internal/config"
	"dashboard/backend/internal/db"
	"dashboard/backend/internal/events"
	"dashboard/backend/internal/handler"
	"dashboard/backend/internal/logging"
	"dashboard/backend/internal/metrics"
	"dashboard/backend/internal/repository"
	"dashboard/backend/internal/router"
	"dashboard/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, dialect, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database, dialect, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	clk := clock.New()
	bus := events.NewBus()
	recorder := metrics.New(prometheus.DefaultRegisterer)

	dispatcher := alert.NewDispatcher(nil, notifier(cfg, logger), alert.StaticPermission(alert.PermissionGranted), recorder, logger)
	unsubscribe := dispatcher.Attach(bus)
	defer dispatcher.Wait()
	defer unsubscribe()

	userRepo := repository.NewUserRepository(database, dialect)
	timerRepo := repository.NewTimerRepository(database, dialect)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, clk, logger)
	timerService := service.NewTimerService(timerRepo, clk, bus, recorder, logger)

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService, clk, cfg.SummaryMaxRows)

	engine := router.New(authService, authHandler, timerHandler, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		Gatherer:    prometheus.DefaultGatherer,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("backend listening", zap.String("port", cfg.Port), zap.String("driver", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("run server", zap.Error(err))
	}
}

// notifier picks the completion sink: Telegram when configured, the log
// otherwise.
func notifier(cfg config.Config, logger *zap.Logger) alert.Notifier {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return alert.NewLogNotifier(logger)
	}
	tgNotifier, err := alert.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("telegram notifier unavailable, logging completions instead", zap.Error(err))
		return alert.NewLogNotifier(logger)
	}
	return tgNotifier
}
