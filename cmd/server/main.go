package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bundlescope/bundlescope/internal/api"
	"github.com/bundlescope/bundlescope/internal/bus"
	"github.com/bundlescope/bundlescope/internal/cache"
	"github.com/bundlescope/bundlescope/internal/collectors"
	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/llm"
	"github.com/bundlescope/bundlescope/internal/logbuf"
	"github.com/bundlescope/bundlescope/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger with the in-memory ring attached
	ring := logbuf.NewRing(cfg.Logging.BufferCapacity)
	logger := buildLogger(cfg, ring)
	defer logger.Sync()

	logger.Info("Starting bundlescope server",
		zap.String("version", "0.1.0"),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("backend", cfg.Backend.URL),
	)

	// Initialize analysis cache
	store, err := cache.New(cfg.Cache.Path)
	if err != nil {
		logger.Fatal("Failed to open analysis cache", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Analysis cache ready", zap.String("path", cfg.Cache.Path))

	// Initialize LLM client and session
	client, err := llm.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	eventBus := bus.New()
	sess := session.New(store, client, eventBus, logger)

	// Setup HTTP server
	handler := api.NewHandler(sess, ring, eventBus, newSourceFactory(cfg, logger), logger)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info("Server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// newSourceFactory maps load paths to bundle sources. Paths beginning
// "live:" read the cluster directly, optionally naming a kube context;
// everything else goes through the bundle backend.
func newSourceFactory(cfg *config.Config, logger *zap.Logger) api.SourceFactory {
	return func(path string) (collectors.ContextSource, error) {
		if strings.HasPrefix(path, "live:") {
			liveCfg := *cfg
			if name := strings.TrimPrefix(path, "live:"); name != "" {
				liveCfg.Kubernetes.Context = name
			}
			return collectors.NewLiveCollector(&liveCfg, logger)
		}
		return collectors.NewBundleClient(cfg, path, logger), nil
	}
}

func buildLogger(cfg *config.Config, ring *logbuf.Ring) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	consoleCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)

	return zap.New(zapcore.NewTee(consoleCore, logbuf.NewCore(ring, level)))
}
