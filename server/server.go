package server

import (
	"context"
	"io"
	"os"

	"droidfolio/apperrors"
	"droidfolio/config"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/server/middleware/limiter"
	"droidfolio/server/middleware/security"
	"droidfolio/server/middleware/session"
	"droidfolio/server/routes"
	"droidfolio/services/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	App *fiber.App
	cfg *config.Config
}

// Options carries what NewServer needs beyond the route dependencies
type Options struct {
	Identity *identity.Service

	// LimiterStorage shares rate-limit buckets between instances. Nil keeps
	// them in memory.
	LimiterStorage limiter.Storage

	// LogOutput receives access and error logs. Nil uses the default logger's
	// destination.
	LogOutput io.Writer
}

func NewServer(cfg *config.Config, deps routes.Dependencies, opts Options) (*Server, error) {
	out := opts.LogOutput
	if out == nil {
		out = logger.GetDefault().Writer()
	}

	errorConfig := apperrors.DefaultHandlerConfig()
	errorConfig.Logger = setupErrorLogging(out)
	errorConfig.ShowInternalErrors = os.Getenv("APP_ENV") == "development"
	errorConfig.OnError = func(c *fiber.Ctx, err *apperrors.AppError) {
		kind := "client"
		if err.StatusCode >= 500 {
			kind = "server"
		}
		metrics.RecordError(kind, string(err.Code))
	}

	app := fiber.New(fiber.Config{
		AppName:      "droidfolio",
		ServerHeader: "droidfolio",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Chat.MaxImageBytes) * 2, // data URLs in JSON bodies
		ErrorHandler: apperrors.Handler(errorConfig),
	})

	app.Use(recover.New())
	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(security.New())
	setupLogging(app, out)

	// Probes and metrics skip rate limiting and sessions
	routes.RegisterOps(app, deps)

	app.Use(limiter.New(limiter.Config{
		Capacity:     cfg.RateLimit.Capacity,
		RefillRate:   cfg.RateLimit.RefillRate,
		RefillPeriod: cfg.RateLimit.RefillPeriod,
		Storage:      opts.LimiterStorage,
		LimitReachedHandler: func(c *fiber.Ctx) error {
			return apperrors.NewRateLimitError()
		},
	}))

	app.Use(session.New(session.Config{
		Manager:    deps.Sessions,
		Store:      deps.Store,
		Identity:   opts.Identity,
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.TTL,
		Secure:     os.Getenv("APP_ENV") == "production",
	}))

	routes.RegisterRoutes(app, deps)

	return &Server{App: app, cfg: cfg}, nil
}

func (s *Server) Start() error {
	addr := s.cfg.ServerAddress()
	logger.Info("Starting server on %s", addr)
	return s.App.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down server...")
	return s.App.ShutdownWithContext(ctx)
}
