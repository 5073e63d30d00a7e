package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Houeta/homecare-api/internal/auth"
	"github.com/Houeta/homecare-api/internal/config"
	"github.com/Houeta/homecare-api/internal/events"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/repository"
	"github.com/Houeta/homecare-api/internal/server"
	"github.com/Houeta/homecare-api/internal/services/tasks"
	"github.com/Houeta/homecare-api/internal/services/users"
	"github.com/Houeta/homecare-api/internal/storage"
	"github.com/Houeta/homecare-api/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	var wgr sync.WaitGroup

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Dbname)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	fileStore, err := storage.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	userRepo := repository.NewUserRepository(dtb, appMetrics)
	taskRepo := repository.NewTaskRepository(dtb, appMetrics)
	catalogRepo := repository.NewCatalogRepository(dtb, appMetrics)
	homeRepo := repository.NewHomeRepository(dtb, appMetrics)
	notificationRepo := repository.NewNotificationRepository(dtb, appMetrics)

	var (
		publisher events.Publisher = events.NoopPublisher{}
		broker    *events.RabbitPublisher
	)
	if cfg.Rabbit.Host != "" {
		broker, err = events.NewRabbitPublisher(
			cfg.Rabbit.Host, cfg.Rabbit.Port, cfg.Rabbit.User, cfg.Rabbit.Password, appMetrics)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer broker.Close()
		publisher = broker
	} else {
		logger.WarnContext(ctx, "No broker configured, lifecycle events will be dropped")
	}

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	userService := users.NewService(
		logger, userRepo, taskRepo, catalogRepo, notificationRepo, fileStore, tokens, appMetrics)
	taskService := tasks.NewService(
		logger, taskRepo, userRepo, homeRepo, catalogRepo, publisher, appMetrics)

	var brokerCheck server.BrokerChecker
	if broker != nil {
		brokerCheck = broker
	}
	health := server.NewHealthChecker(dtb, brokerCheck, logger)
	srv := server.NewServer(
		logger, userService, taskService, catalogRepo, homeRepo, fileStore, tokens, appMetrics, health)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort("", cfg.HTTP.Port),
		Handler:      srv.Router(reg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	if broker != nil {
		deliveries, consumeErr := broker.Consume()
		if consumeErr != nil {
			log.Fatalf("Failed to start consuming lifecycle events: %v", consumeErr)
		}
		notifier := worker.NewNotifier(logger, notificationRepo, appMetrics)

		wgr.Add(1)
		go func() {
			defer wgr.Done()
			notifier.Run(ctx, deliveries)
		}()
	}

	wgr.Add(1)
	go func() {
		defer wgr.Done()
		logger.InfoContext(ctx, "Starting HTTP server", slog.String("port", cfg.HTTP.Port))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server failed", "error", serveErr)
			stop()
		}
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	<-ctx.Done()

	shutdownTimeout := 10 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	wgr.Wait()

	logger.InfoContext(ctx, "Application stopped gracefully...")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{Key: "", Value: slog.Value{}}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{Key: "", Value: slog.Value{}}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified, or was invalid. Logging will be minimal, by default." +
				" Please specify the value of `env`: local, development, production")
	}

	return log
}
