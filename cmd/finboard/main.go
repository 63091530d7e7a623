package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/period"
	"finboard/internal/services"
	"finboard/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		// Logger is not configured yet; the default handler is fine here.
		log.New(log.DefaultConfig()).Warn("Failed to load .env file", "error", err)
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	ledgerBackend, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := ledgerBackend.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	svc := services.NewOverviewService(ledgerBackend.Reader, cfg.CacheSize, cfg.CacheTTL,
		logger.WithComponent(log.ComponentPeriod).Logger)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	svc.RegisterCaches(caches)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	// Ledger change notifications are optional; without them caches simply expire.
	if cfg.AMQPURL != "" {
		amqpLogger := logger.WithComponent(log.ComponentAMQP).Logger
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpLogger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without invalidation", "error", err)
		} else {
			defer client.Close()
			w := worker.NewInvalidationWorker(client, svc, amqpLogger)
			go func() {
				if err := w.Run(ctx); err != nil {
					amqpLogger.Error("Cache invalidation worker failed", "error", err)
				}
			}()
		}
	}

	defaultRange, _ := period.ParseRangeKey(cfg.DefaultRange)
	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:       logger.WithComponent(log.ComponentHTTP),
		Pinger:       ledgerBackend.Pinger,
		Location:     cfg.Location(),
		DefaultRange: defaultRange,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting finboard server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", cfg.Location().String(),
			"default_range", string(defaultRange))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
