package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lumidecor/internal/api"
	"lumidecor/internal/config"
	"lumidecor/internal/gemini"
	"lumidecor/internal/httpclient"
	"lumidecor/internal/metrics"
	"lumidecor/internal/session"
	"lumidecor/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is empty; every generation will fail")
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  "lumidecor-web",
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		ImageModel: cfg.GeminiImageModel,
		TextModel:  cfg.GeminiTextModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	m := metrics.New()
	products := studio.NewMockProducts(nil)

	sessions := session.NewStore(session.Options{
		NewStudio: func() *studio.Session {
			return studio.NewSession(studio.Options{
				Generator:  gem,
				Products:   products,
				Recorder:   m,
				Logger:     logger,
				MaxHistory: cfg.MaxHistoryMessages,
				Timeout:    cfg.RequestTimeout,
			})
		},
		OnCount: m.SetActiveSessions,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, sessions, cfg.SessionIdle, logger)

	srv := &http.Server{
		Addr: cfg.WebAddr,
		Handler: api.NewRouter(api.Options{
			Sessions:       sessions,
			Metrics:        m.Handler(),
			Logger:         logger,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("web started", "addr", cfg.WebAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func sweep(ctx context.Context, sessions *session.Store, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(idle); n > 0 {
				logger.Info("idle sessions removed", "count", n, "live", sessions.Len())
			}
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
