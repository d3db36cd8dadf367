package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// AllowedScriptSources for CSP script-src directive
	AllowedScriptSources []string

	// AllowedStyleSources for CSP style-src directive
	AllowedStyleSources []string

	// AllowedImageSources for CSP img-src directive. Project images are
	// arbitrary https URLs and chat attachments are data URLs.
	AllowedImageSources []string

	// HSTS sends Strict-Transport-Security; only enable behind TLS
	HSTS bool
}

var DefaultConfig = Config{
	AllowedScriptSources: []string{"'self'"},
	AllowedStyleSources: []string{
		"'self'",
		"https://fonts.googleapis.com",
	},
	AllowedImageSources: []string{"'self'", "data:", "blob:", "https:"},
}

// configDefault merges provided config with defaults
func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return DefaultConfig
	}

	cfg := config[0]

	if len(cfg.AllowedScriptSources) == 0 {
		cfg.AllowedScriptSources = DefaultConfig.AllowedScriptSources
	}
	if len(cfg.AllowedStyleSources) == 0 {
		cfg.AllowedStyleSources = DefaultConfig.AllowedStyleSources
	}
	if len(cfg.AllowedImageSources) == 0 {
		cfg.AllowedImageSources = DefaultConfig.AllowedImageSources
	}

	return cfg
}

// New creates a security headers middleware
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	csp := buildCSP(cfg)

	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", csp)

		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if cfg.HSTS {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		return c.Next()
	}
}

func buildCSP(cfg Config) string {
	var b strings.Builder
	directive := func(name string, sources ...string) {
		b.WriteString(name)
		for _, src := range sources {
			b.WriteString(" ")
			b.WriteString(src)
		}
		b.WriteString("; ")
	}

	directive("default-src", "'self'")
	directive("script-src", cfg.AllowedScriptSources...)
	directive("style-src", append(append([]string{}, cfg.AllowedStyleSources...), "'unsafe-inline'")...)
	directive("img-src", cfg.AllowedImageSources...)

	// websocket chat
	directive("connect-src", "'self'", "ws:", "wss:")
	directive("frame-ancestors", "'none'")
	directive("base-uri", "'self'")
	b.WriteString("form-action 'self';")

	return b.String()
}
