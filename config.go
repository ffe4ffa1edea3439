package auth

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds every runtime setting the module needs. It is loaded once at
// startup and passed around as an immutable value, nothing reads the
// environment after LoadConfig returns.
type Config struct {
	// Environment is "development" or "production"; production turns on
	// the Secure cookie flag.
	Environment string

	// AccessSigningKey signs access tokens, RefreshSigningKey signs
	// refresh tokens. They must differ.
	AccessSigningKey  string
	RefreshSigningKey string

	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// RefreshCookieName is the cookie the refresh token is mirrored into on
	// login. Its max-age always equals RefreshTokenTTL.
	RefreshCookieName string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Debug bool
}

// LoadConfig loads configuration from environment variables.
// A .env file is loaded automatically via the godotenv autoload import.
func LoadConfig() Config {
	return Config{
		Environment:       getEnvWithDefault("AUTH_ENV", "development"),
		AccessSigningKey:  getEnvWithDefault("AUTH_JWT_SECRET", ""),
		RefreshSigningKey: getEnvWithDefault("AUTH_REFRESH_SECRET", ""),
		Issuer:            getEnvWithDefault("AUTH_ISSUER", "talentdesk"),
		AccessTokenTTL:    getDurationEnvWithDefault("AUTH_ACCESS_TTL", time.Hour),
		RefreshTokenTTL:   getDurationEnvWithDefault("AUTH_REFRESH_TTL", 4*time.Hour),
		RefreshCookieName: getEnvWithDefault("AUTH_REFRESH_COOKIE", "refreshToken"),
		SMTPHost:          getEnvWithDefault("AUTH_SMTP_HOST", "localhost"),
		SMTPPort:          getIntEnvWithDefault("AUTH_SMTP_PORT", 587),
		SMTPUser:          getEnvWithDefault("AUTH_SMTP_USER", ""),
		SMTPPass:          getEnvWithDefault("AUTH_SMTP_PASS", ""),
		SMTPFrom:          getEnvWithDefault("AUTH_SMTP_FROM", "no-reply@talentdesk.io"),
		Debug:             getBoolEnvWithDefault("AUTH_DEBUG", false),
	}
}

// IsProduction reports whether the module runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
