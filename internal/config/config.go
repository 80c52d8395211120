package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// InsecureSecretPlaceholder is the value shipped in .env.example. Startup and
// the token manager both refuse to sign anything with it.
const InsecureSecretPlaceholder = "change-me"

// MinBcryptCost is the lowest work factor we accept for password hashing.
const MinBcryptCost = 10

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port            string
	DatabaseURL     string
	TokenSecret     string
	TokenIssuer     string
	TokenTTL        time.Duration
	BcryptCost      int
	RateLimitMax    int
	RateLimitWindow time.Duration
	CORSOrigins     []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TokenSecret: strings.TrimSpace(os.Getenv("TOKEN_SECRET")),
		TokenIssuer: fallback(os.Getenv("TOKEN_ISSUER"), "propverse-api"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	cfg.TokenTTL = parseDuration(os.Getenv("TOKEN_TTL"), 168*time.Hour)
	cfg.RateLimitWindow = parseDuration(os.Getenv("RATE_LIMIT_WINDOW"), time.Minute)
	cfg.RateLimitMax = parseInt(os.Getenv("RATE_LIMIT_MAX"), 20)

	cfg.BcryptCost = parseInt(os.Getenv("BCRYPT_COST"), bcrypt.DefaultCost)
	if cfg.BcryptCost < MinBcryptCost {
		cfg.BcryptCost = MinBcryptCost
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET is required")
	}
	if cfg.TokenSecret == InsecureSecretPlaceholder {
		return Config{}, errors.New("TOKEN_SECRET is the insecure placeholder; set a real secret")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseDuration(value string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
		return d
	}
	return def
}

func parseInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
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
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
