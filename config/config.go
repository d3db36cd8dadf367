package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported record store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// RequestTimeout bounds the work a single API request may do
const RequestTimeout = 5 * time.Second

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Session   SessionConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Chat      ChatConfig
}

type ServerConfig struct {
	Host        string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port        int           `env:"SERVER_PORT" envDefault:"8000"`
	LogFile     string        `env:"LOG_FILE" envDefault:"./log/server.log"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"INFO"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"5m"`

	// Streamed chat replies have no upper bound
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Backend     string `env:"STORE_BACKEND" envDefault:"memory"`
	FilePath    string `env:"STORE_FILE" envDefault:"./data/store.json"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./data/droidfolio.db"`
	KeyPrefix   string `env:"STORE_PREFIX" envDefault:"droidfolio:"`
}

type RedisConfig struct {
	Address  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Username string `env:"REDIS_USERNAME" envDefault:"default"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// LegacyAPIKey is read from API_KEY when GEMINI_API_KEY is unset
	LegacyAPIKey string `env:"API_KEY"`
}

type SessionConfig struct {
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"droidfolio_session"`
}

type AuthConfig struct {
	LoginDelay time.Duration `env:"LOGIN_DELAY" envDefault:"800ms"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

type RateLimitConfig struct {
	Capacity     int64         `env:"RATE_LIMIT_CAPACITY" envDefault:"200"`
	RefillRate   int64         `env:"RATE_LIMIT_REFILL" envDefault:"10"`
	RefillPeriod time.Duration `env:"RATE_LIMIT_PERIOD" envDefault:"1s"`
}

type ChatConfig struct {
	MaxImageBytes    int64    `env:"CHAT_MAX_IMAGE_BYTES" envDefault:"5242880"` // 5MB
	AllowedMimeTypes []string `env:"CHAT_ALLOWED_MIME_TYPES" envDefault:"image/jpeg,image/png,image/gif,image/webp" envSeparator:","`
}

// getProjectRoot finds the project root by looking for go.mod
func getProjectRoot() (string, error) {
	// Check if PROJECT_ROOT env var is set (useful for tests)
	if projectRoot := os.Getenv("PROJECT_ROOT"); projectRoot != "" {
		return projectRoot, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}

// resolvePath resolves a path relative to the project root if it's not absolute
func resolvePath(path string) (string, error) {
	if path == "" || path == "-" || path == "stdout" || filepath.IsAbs(path) {
		return path, nil
	}

	projectRoot, err := getProjectRoot()
	if err != nil {
		// Outside a source checkout (e.g. a deployed binary) paths stay relative to the cwd
		return path, nil
	}

	return filepath.Join(projectRoot, path), nil
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = cfg.Gemini.LegacyAPIKey
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)

	var err error
	if cfg.Server.LogFile, err = resolvePath(cfg.Server.LogFile); err != nil {
		return nil, fmt.Errorf("failed to resolve log file: %w", err)
	}
	if cfg.Store.FilePath, err = resolvePath(cfg.Store.FilePath); err != nil {
		return nil, fmt.Errorf("failed to resolve store file: %w", err)
	}
	if cfg.Store.SQLitePath, err = resolvePath(cfg.Store.SQLitePath); err != nil {
		return nil, fmt.Errorf("failed to resolve sqlite path: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errors []string

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}

	// Store validation
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.FilePath == "" {
			errors = append(errors, "store file (STORE_FILE) is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Address == "" {
			errors = append(errors, "redis address (REDIS_ADDR) is required for the redis backend")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errors = append(errors, "database connection string (DATABASE_URL) is required for the postgres backend")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errors = append(errors, "sqlite path (SQLITE_PATH) is required for the sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("unknown store backend: %q (STORE_BACKEND must be memory, file, redis, postgres or sqlite)", c.Store.Backend))
	}

	// Gemini validation
	if c.Gemini.Model == "" {
		errors = append(errors, "gemini model (GEMINI_MODEL) is required")
	}

	// Session validation
	if c.Session.TTL <= 0 {
		errors = append(errors, "session TTL must be > 0")
	}
	if c.Session.CookieName == "" {
		errors = append(errors, "session cookie name (SESSION_COOKIE_NAME) is required")
	}

	// Auth validation
	if c.Auth.LoginDelay < 0 || c.Auth.LoginDelay >= RequestTimeout {
		errors = append(errors, fmt.Sprintf("invalid login delay: %s (LOGIN_DELAY must be >= 0 and < %s)", c.Auth.LoginDelay, RequestTimeout))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost: %d (must be 4-31)", c.Auth.BcryptCost))
	}

	// Rate limit validation
	if c.RateLimit.Capacity <= 0 {
		errors = append(errors, "rate limit capacity must be > 0")
	}
	if c.RateLimit.RefillRate <= 0 {
		errors = append(errors, "rate limit refill rate must be > 0")
	}
	if c.RateLimit.RefillPeriod <= 0 {
		errors = append(errors, "rate limit refill period must be > 0")
	}

	// Chat validation
	if c.Chat.MaxImageBytes <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max image size: %d (must be > 0)", c.Chat.MaxImageBytes))
	}
	if len(c.Chat.AllowedMimeTypes) == 0 {
		errors = append(errors, "at least one allowed MIME type is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AIEnabled reports whether an API key is configured. Without one the chat
// endpoint answers every turn with the fallback reply.
func (c *Config) AIEnabled() bool {
	return c.Gemini.APIKey != ""
}

// PrintSummary logs a summary of the loaded configuration
func (c *Config) PrintSummary() {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Server: %s\n", c.ServerAddress())
	fmt.Printf("  Store: %s\n", c.storeSummary())
	fmt.Printf("  Gemini: model %s (API key: %s)\n", c.Gemini.Model, maskSecret(c.Gemini.APIKey))
	fmt.Printf("  Session TTL: %s (cookie: %s)\n", c.Session.TTL, c.Session.CookieName)
	fmt.Printf("  Login delay: %s\n", c.Auth.LoginDelay)
	fmt.Printf("  Chat image max size: %.2f MB\n", float64(c.Chat.MaxImageBytes)/(1024*1024))
	fmt.Printf("  Rate Limit: %d requests/%s (capacity: %d)\n",
		c.RateLimit.RefillRate, c.RateLimit.RefillPeriod, c.RateLimit.Capacity)
}

func (c *Config) storeSummary() string {
	switch c.Store.Backend {
	case BackendFile:
		return fmt.Sprintf("file %s", c.Store.FilePath)
	case BackendRedis:
		return fmt.Sprintf("redis %s (DB: %d, prefix: %s)", c.Redis.Address, c.Redis.DB, c.Store.KeyPrefix)
	case BackendPostgres:
		return fmt.Sprintf("postgres %s", maskConnectionString(c.Store.DatabaseURL))
	case BackendSQLite:
		return fmt.Sprintf("sqlite %s", c.Store.SQLitePath)
	default:
		return c.Store.Backend
	}
}

// maskConnectionString masks sensitive parts of the connection string
func maskConnectionString(connStr string) string {
	if len(connStr) < 30 {
		return "***"
	}
	return connStr[:20] + "..." + connStr[len(connStr)-10:]
}

func maskSecret(secret string) string {
	if secret == "" {
		return "not set"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-2:]
}
