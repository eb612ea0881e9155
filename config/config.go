package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	SessionBackendMySQL = "mysql"
	SessionBackendRedis = "redis"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	MySQLDSN string

	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	AppURL string

	SessionCookieName   string
	SessionCookieMaxAge time.Duration
	SessionIdleTimeout  time.Duration
	SessionSweepAge     time.Duration

	VerificationCodeLength int
	VerificationTTL        time.Duration
	ResetTokenTTL          time.Duration

	PasswordPolicy PasswordPolicy
	SMTP           SMTPConfig

	LogLevel string
	LogJSON  bool
}

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	cfg := &Config{
		HTTPHost: getEnv("HTTP_HOST", ""),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		MySQLDSN: mysqlDSN,

		SessionBackend: getEnv("SESSION_BACKEND", SessionBackendMySQL),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),

		AppURL: getEnv("APP_URL", "http://localhost:8080"),

		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "SNAPBOOTH_SESSION"),
		SessionCookieMaxAge: getDurationEnv("SESSION_COOKIE_MAX_AGE", 30*24*time.Hour),
		SessionIdleTimeout:  getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SessionSweepAge:     getDurationEnv("SESSION_SWEEP_AGE", 30*24*time.Hour),

		VerificationCodeLength: getIntEnv("VERIFICATION_CODE_LENGTH", 6),
		VerificationTTL:        getDurationEnv("VERIFICATION_TTL", 24*time.Hour),
		ResetTokenTTL:          getDurationEnv("RESET_TOKEN_TTL", time.Hour),

		PasswordPolicy: loadPasswordPolicy(),
		SMTP:           loadSMTPConfig(),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getBoolEnv("LOG_JSON", false),
	}

	if cfg.SessionBackend != SessionBackendMySQL && cfg.SessionBackend != SessionBackendRedis {
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}

func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Enabled:  getBoolEnv("SMTP_ENABLED", false),
		Host:     getEnv("SMTP_HOST", "localhost"),
		Port:     getIntEnv("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@snapbooth.local"),
	}
}
