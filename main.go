package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"droidfolio/config"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/server"
	"droidfolio/server/middleware/limiter"
	"droidfolio/server/middleware/session"
	"droidfolio/server/routes"
	"droidfolio/services/assistant"
	"droidfolio/services/assistant/gemini"
	"droidfolio/services/content"
	"droidfolio/services/identity"
	"droidfolio/services/sessions"
	"droidfolio/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	// Load environment
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Println("✓ Configuration loaded and validated")
	cfg.PrintSummary()

	logCfg := logger.DefaultConfig(cfg.Server.LogFile)
	logCfg.Level = logger.ParseLevel(cfg.Server.LogLevel)
	appLogger, err := logger.NewWithConfig(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer appLogger.Close()
	logger.SetDefault(appLogger)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// Open the record store
	st, err := store.Open(startCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer st.Close()
	log.Printf("✓ Opened %s record store", cfg.Store.Backend)

	var limiterStorage limiter.Storage
	switch s := st.(type) {
	case *store.SQL:
		if err := metrics.RegisterCollectors(prometheus.DefaultRegisterer, s.DB(), nil); err != nil {
			return fmt.Errorf("failed to register store metrics: %w", err)
		}
	case *store.Redis:
		if err := metrics.RegisterCollectors(prometheus.DefaultRegisterer, nil, s.Client()); err != nil {
			return fmt.Errorf("failed to register store metrics: %w", err)
		}
		limiterStorage = limiter.NewRedisStorage(s.Client(), cfg.Store.KeyPrefix, time.Hour)
	}

	// Generative model
	model := assistant.Unavailable()
	if cfg.AIEnabled() {
		m, err := gemini.New(startCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		model = m
		log.Printf("✓ Initialized Gemini model %s", cfg.Gemini.Model)
	} else {
		logger.Warn("No Gemini API key configured; chat will answer with the fallback reply")
	}
	cb := assistant.NewBreaker()

	// Services
	ident := identity.NewService(st,
		identity.WithLoginDelay(cfg.Auth.LoginDelay),
		identity.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	csrv := content.NewService(st)

	smngr := sessions.NewManager(st, cfg.Session.TTL,
		sessions.WithExpireHook(func(ctx context.Context, id string) {
			if err := session.Clear(ctx, st, id); err != nil {
				logger.WithSession(id).WithError(err).Warn("Failed to clear expired session data")
			}
		}),
	)
	log.Println("✓ Initialized session manager")

	deps := routes.Dependencies{
		Store:    st,
		Sessions: smngr,
		Content:  csrv,
		Model:    model,
		Breaker:  cb,
		Chat: assistant.Options{
			MaxImageBytes:    cfg.Chat.MaxImageBytes,
			AllowedMIMETypes: cfg.Chat.AllowedMimeTypes,
			Breaker:          cb,
		},
		AIEnabled: cfg.AIEnabled(),
	}

	srv, err := server.NewServer(cfg, deps, server.Options{
		Identity:       ident,
		LimiterStorage: limiterStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create server; err: %w", err)
	}

	metrics.SystemInfo.WithLabelValues("1.0.0", runtime.Version(), time.Now().Format(time.RFC3339)).Set(1)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Printf("Received signal: %v. Shutting down gracefully...", sig)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	smngr.Flush()

	log.Println("✓ Server shutdown complete")
	return nil
}
