package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/homies-app/matchsvc/internal/analyzer/preference"
	"github.com/homies-app/matchsvc/internal/config"
	"github.com/homies-app/matchsvc/internal/db"
	dbRedis "github.com/homies-app/matchsvc/internal/db/redis"
	"github.com/homies-app/matchsvc/internal/domain"
	logpkg "github.com/homies-app/matchsvc/internal/logger"
	"github.com/homies-app/matchsvc/internal/metrics"
	"github.com/homies-app/matchsvc/internal/repository/bundlecache"
	chiTransport "github.com/homies-app/matchsvc/internal/transport/chi"
	openaiAnalyzer "github.com/homies-app/matchsvc/internal/transport/openai"
	"github.com/homies-app/matchsvc/internal/usecase/aggregate"
	analysisuc "github.com/homies-app/matchsvc/internal/usecase/analysis"
	healthuc "github.com/homies-app/matchsvc/internal/usecase/health"
	matchuc "github.com/homies-app/matchsvc/internal/usecase/match"
	"github.com/homies-app/matchsvc/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchsvc API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("analysis_provider", cfg.Analysis.Provider),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register matching metrics explicitly (no init())
	metrics.RegisterMatchMetrics()

	// Cache database is optional: without it every request re-analyzes.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	} else {
		logger.Warn("No database configured, bundle cache disabled")
	}

	// Assemble the analyzer set — composition root
	analyzers := []aggregate.Analyzer{preference.New()}
	var analyzerChecker healthuc.AnalyzerChecker
	if cfg.Analysis.APIKey != "" {
		textAnalyzer := openaiAnalyzer.NewTextAnalyzer(&openaiAnalyzer.Config{
			APIKey:   cfg.Analysis.APIKey,
			BaseURL:  cfg.Analysis.BaseURL,
			Model:    cfg.Analysis.TextModel,
			Provider: cfg.Analysis.Provider,
			Logger:   logger,
		})
		imageAnalyzer := openaiAnalyzer.NewImageAnalyzer(&openaiAnalyzer.Config{
			APIKey:   cfg.Analysis.APIKey,
			BaseURL:  cfg.Analysis.BaseURL,
			Model:    cfg.Analysis.ImageModel,
			Provider: cfg.Analysis.Provider,
			Logger:   logger,
		})
		analyzers = append(analyzers, textAnalyzer, imageAnalyzer)
		analyzerChecker = textAnalyzer
		logger.Info("LLM analyzers created",
			zap.String("provider", cfg.Analysis.Provider),
			zap.String("text_model", cfg.Analysis.TextModel),
			zap.String("image_model", cfg.Analysis.ImageModel),
		)
	} else {
		logger.Warn("No analysis api_key configured, text and image analyzers disabled")
	}

	// Create use case services
	matchSvc, err := matchuc.New()
	if err != nil {
		logger.Fatal("Failed to create match engine", zap.Error(err))
	}
	if len(cfg.Matching.Weights) > 0 {
		weights := make(map[domain.Modality]float64, len(cfg.Matching.Weights))
		for name, w := range cfg.Matching.Weights {
			weights[domain.Modality(name)] = w
		}
		if _, err := matchSvc.WithModalityWeights(weights); err != nil {
			logger.Fatal("Invalid matching weights", zap.Error(err))
		}
	}

	analysisSvc := analysisuc.New(aggregate.New(), analyzers...)
	if store != nil {
		cache := bundlecache.New(
			store, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.BundleCacheTotal, logger,
		)
		analysisSvc = analysisSvc.WithCache(cache)
	}

	// Health service: store may be a typed nil interface only when unset,
	// so pass nil explicitly.
	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	healthSvc := healthuc.New(dbPinger, analyzerChecker)

	// Create chi server
	server := chiTransport.NewServer(analysisSvc, matchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
