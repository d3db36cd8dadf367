package session

import (
	"time"

	"droidfolio/services/identity"
	"droidfolio/services/sessions"
	"droidfolio/store"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Manager resolves and issues session ids
	//
	// Required. Default: nil
	Manager *sessions.Manager

	// Store is the shared record store session views are built over
	//
	// Required. Default: nil
	Store store.Store

	// Identity is the process-wide identity service
	//
	// Required. Default: nil
	Identity *identity.Service

	// CookieName is the name of the session cookie
	//
	// Optional. Default: "droidfolio_session"
	CookieName string

	// MaxAge of the cookie
	//
	// Optional. Default: 24 hours
	MaxAge time.Duration

	// Secure marks the cookie https-only
	//
	// Optional. Default: false
	Secure bool
}

var ConfigDefault = Config{
	CookieName: "droidfolio_session",
	MaxAge:     24 * time.Hour,
}

func configDefault(config Config) Config {
	cfg := config

	if cfg.Manager == nil || cfg.Store == nil || cfg.Identity == nil {
		panic("session: Manager, Store and Identity are required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = ConfigDefault.CookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = ConfigDefault.MaxAge
	}

	return cfg
}
