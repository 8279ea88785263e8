// cmd/notify-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"urpark-realtime/internal/common/config"
	"urpark-realtime/internal/common/database"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/common/observability"
	"urpark-realtime/internal/worker"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notify-worker...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("notify-worker")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Wire the worker ---
	bridge := worker.NewUIBridge(redis, cfg.Worker.UIChannel, cfg.App.Version, log)
	source := worker.NewRedisSource(redis, cfg.Worker.EventChannel, cfg.Worker.ClickChannel, cfg.Worker.ControlChannel, log)

	w := worker.New(bridge, bridge, bridge, worker.Defaults{
		Title: cfg.Worker.DefaultTitle,
		Body:  cfg.Worker.DefaultBody,
		Icon:  cfg.Worker.IconPath,
		Badge: cfg.Worker.BadgePath,
	}, log)

	w.SetRecorder(obs)

	// Install forces immediate activation so this version takes over
	// without waiting for old pages to close.
	w.Install()

	go w.Run(ctx, source.Events(ctx), source.Clicks(ctx), source.Controls(ctx))

	// --- Health & metrics endpoint ---
	go func() {
		http.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]interface{}{
				"status":  "healthy",
				"state":   w.State(),
				"version": cfg.App.Version,
			})
		})
		http.Handle("/metrics", promhttp.Handler())

		zapLog.Info("Metrics server listening", zap.String("address", cfg.Worker.MetricsAddress))
		if err := http.ListenAndServe(cfg.Worker.MetricsAddress, nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping worker...")
	cancel()

	// Give in-flight event handling a moment to drain.
	time.Sleep(500 * time.Millisecond)
	zapLog.Info("notify-worker stopped")
}
