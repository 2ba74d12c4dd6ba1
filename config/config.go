package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	ContentAPIURL   string
	ContentTimeout  time.Duration
	ChapterCacheTTL time.Duration

	ShareLinkTTL  time.Duration
	PublicBaseURL string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	VersesDir string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/biblereader.db"),
		ContentAPIURL: strings.TrimRight(getEnv("CONTENT_API_URL", "https://api.blessings365.top"), "/"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		VersesDir:     getEnv("VERSES_DIR", "./verses"),
	}

	var err error
	if cfg.ContentTimeout, err = getDuration("CONTENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ChapterCacheTTL, err = getDuration("CHAPTER_CACHE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShareLinkTTL, err = getDuration("SHARE_LINK_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.DBDriver, cfg.DatabaseURL, err = DatabaseFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	if c.IsProduction() && (c.CORSOrigins == "" || c.CORSOrigins == "http://localhost:3000") {
		log.Println("WARNING: CORS_ORIGINS not properly configured for production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DatabaseFromEnv returns the driver and DSN the tools share with the server.
// It needs none of the server's other settings.
func DatabaseFromEnv() (driver, dsn string, err error) {
	driver = strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	switch driver {
	case "postgres":
		return driver, postgresDSN(), nil
	case "sqlite":
		return driver, getEnv("SQLITE_PATH", "./data/biblereader.db"), nil
	}
	return driver, "", fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", driver)
}

func postgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "biblereader"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
