package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gemini-chat/internal/adapter"
	"gemini-chat/internal/balancer"
	"gemini-chat/internal/chat"
	"gemini-chat/internal/config"
	"gemini-chat/internal/gemini"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("Invalid configuration", "error", err)
	}

	model := cfg.MapModel(cfg.Model)
	if model != cfg.Model {
		sugar.Infow("Model mapped", "from", cfg.Model, "to", model)
	}

	pool := balancer.NewKeyPool(sugar.Named("keys"))
	for _, key := range cfg.APIKeys {
		client, err := gemini.NewClient(key,
			gemini.WithModel(model),
			gemini.WithBaseURL(cfg.BaseURL),
			gemini.WithTimeout(cfg.RequestTimeout),
			gemini.WithProfile(cfg.ClientProfile),
			gemini.WithLogger(sugar),
		)
		if err != nil {
			sugar.Fatalw("Failed to create Gemini client", "key", balancer.KeyID(key), "error", err)
		}
		pool.Add(client, balancer.KeyID(key))
	}
	sugar.Infow("Gemini clients ready", "keys", pool.Size(), "model", model)

	store := adapter.NewSessionStore(func() *chat.Session {
		return chat.NewSession(pool,
			chat.WithBuildOptions(
				gemini.WithDefaultPrompt(cfg.DefaultImagePrompt),
				gemini.WithMaxOutputTokens(cfg.MaxOutputTokens),
			),
			chat.WithLogger(sugar.Named("session")),
		)
	})

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := adapter.NewRouter(adapter.RouterOptions{
		Store:         store,
		Model:         model,
		Aliases:       cfg.Aliases(),
		MaxImageBytes: cfg.MaxImageBytes,
		ProxyAPIKey:   cfg.ProxyAPIKey,
		Logger:        sugar,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, store, cfg.SessionIdleTimeout, sugar.Named("sessions").Infow)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		sugar.Infow("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("Shutdown incomplete", "error", err)
	}
}

func sweepSessions(ctx context.Context, store *adapter.SessionStore, maxIdle time.Duration, logf func(string, ...interface{})) {
	if maxIdle <= 0 {
		return
	}
	interval := maxIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(maxIdle); n > 0 {
				logf("Idle sessions removed", "count", n, "remaining", store.Len())
			}
		}
	}
}
