package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string
	DBConnMode     string
	DBMaxConns     int32

	JWTSecret   string
	JWTIssuer   string
	SessionTTL  time.Duration
	ResetTTL    time.Duration
	RecoveryTTL time.Duration
	BcryptCost  int

	CORSOrigins []string
	FrontendURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	RedisURL string

	LogLevel  string
	LogFormat string

	// LegacyDirectReset lets reset-password-direct run without a recovery token.
	LegacyDirectReset bool
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "5000"),
		DatabaseDriver: strings.ToLower(fallback(os.Getenv("DATABASE_DRIVER"), DriverPostgres)),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBConnMode:     strings.ToLower(fallback(os.Getenv("DB_CONN_MODE"), "pool")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "auth-recovery-be"),
		SessionTTL:     minutes(os.Getenv("SESSION_TTL_MINUTES"), 60),
		ResetTTL:       minutes(os.Getenv("RESET_TTL_MINUTES"), 15),
		RecoveryTTL:    minutes(os.Getenv("RECOVERY_TTL_MINUTES"), 10),
		BcryptCost:     positiveInt(os.Getenv("BCRYPT_COST"), 10),
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "http://localhost:3000")),
		FrontendURL:    fallback(os.Getenv("FRONTEND_URL"), "http://localhost:3000"),
		SMTPPort:       positiveInt(os.Getenv("SMTP_PORT"), 587),
		SMTPUsername:   fallback(os.Getenv("SMTP_USERNAME"), os.Getenv("GMAIL_USER")),
		SMTPPassword:   fallback(os.Getenv("SMTP_PASSWORD"), os.Getenv("GMAIL_PASS")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		LogLevel:       strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:      strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "console")),
	}

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if cfg.SMTPHost == "" && strings.TrimSpace(os.Getenv("GMAIL_USER")) != "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	cfg.MailFrom = fallback(os.Getenv("MAIL_FROM"), cfg.SMTPUsername)

	maxConns := positiveInt(os.Getenv("DB_MAX_CONNS"), 10)
	if maxConns > math.MaxInt32 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be at most %d, got %d", math.MaxInt32, maxConns)
	}
	cfg.DBMaxConns = int32(maxConns)

	legacy, err := parseBool(os.Getenv("LEGACY_DIRECT_RESET"))
	if err != nil {
		return Config{}, fmt.Errorf("LEGACY_DIRECT_RESET: %w", err)
	}
	cfg.LegacyDirectReset = legacy

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = postgresURLFromParts()
		}
		if cfg.DBConnMode != "pool" && cfg.DBConnMode != "single" {
			return Config{}, fmt.Errorf("DB_CONN_MODE must be pool or single, got %q", cfg.DBConnMode)
		}
	case DriverSQLite, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseDriver != DriverMemory && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.SMTPHost != "" && cfg.MailFrom == "" {
		return Config{}, errors.New("MAIL_FROM or SMTP_USERNAME is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// postgresURLFromParts builds a URL from DB_HOST, DB_PORT, DB_USER, DB_PASS, DB_NAME.
// It returns "" when DB_HOST is unset.
func postgresURLFromParts() string {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + fallback(os.Getenv("DB_PORT"), "5432"),
		Path:   "/" + strings.TrimSpace(os.Getenv("DB_NAME")),
	}
	if user := strings.TrimSpace(os.Getenv("DB_USER")); user != "" {
		if pass := os.Getenv("DB_PASS"); pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return strings.TrimSpace(def)
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func minutes(value string, def int) time.Duration {
	return time.Duration(positiveInt(value, def)) * time.Minute
}

func parseBool(value string) (bool, error) {
	if strings.TrimSpace(value) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
