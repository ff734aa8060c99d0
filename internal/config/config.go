// Package config loads process configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment selects the posture of cookie flags, CORS strictness, and
// secret-loading fallbacks.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// SMTPConfig carries the static SMTP deployment configuration used by the
// mail transport. Unlike the teacher's tenant-scoped mail_config, this is a
// single process-wide config: the spec has no multi-tenancy.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Config is the fully resolved process configuration.
type Config struct {
	Environment            Environment
	DatabaseURL            string
	JWTSecret              string
	AllowedOrigins         []string
	SMTP                   SMTPConfig
	ClientIPHeaderPriority []string
	ListenAddr             string
	SentryDSN              string
}

// defaultClientIPHeaderPriority matches spec.md §4.E: CF-Connecting-IP,
// X-Real-IP, the first entry of X-Forwarded-For, then the direct peer
// address (the peer address is not a header and is appended by the caller
// once this list is exhausted).
var defaultClientIPHeaderPriority = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// Load reads configuration from the environment. It returns an error on any
// resolution failure; callers in Production should treat that as fatal, as
// the teacher's cmd/api/main.go does for its own startup checks.
func Load() (*Config, error) {
	env := Environment(strings.ToLower(os.Getenv("APP_ENV")))
	if env == "" {
		env = Development
	}
	if env != Development && env != Production {
		return nil, fmt.Errorf("config: invalid APP_ENV %q", env)
	}

	cfg := &Config{
		Environment: env,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  envOr("LISTEN_ADDR", ":8080"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
	}

	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if env == Production && len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("config: ALLOWED_ORIGINS is required in production")
	}

	secret, err := resolveJWTSecret(env)
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = secret

	cfg.SMTP = SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envOrInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envOr("SMTP_FROM_EMAIL", os.Getenv("SMTP_USERNAME")),
		FromName: envOr("SMTP_FROM_NAME", "Mimo"),
	}

	if p := os.Getenv("CLIENT_IP_HEADER_PRIORITY"); p != "" {
		var list []string
		for _, h := range strings.Split(p, ",") {
			if h = strings.TrimSpace(h); h != "" {
				list = append(list, h)
			}
		}
		cfg.ClientIPHeaderPriority = list
	} else {
		cfg.ClientIPHeaderPriority = defaultClientIPHeaderPriority
	}

	return cfg, nil
}

// resolveJWTSecret follows the original prototype's load_or_generate_secret_key
// precisely: environment variable first (an explicitly empty value is an
// error, not "absent"), then a secret file (trimmed; whitespace-only content
// is treated as absent and resolution continues), then — Development only —
// an auto-generated key. Production with no usable secret from either source
// is fatal.
func resolveJWTSecret(env Environment) (string, error) {
	if raw, ok := os.LookupEnv("JWT_SECRET"); ok {
		if raw == "" {
			return "", fmt.Errorf("config: JWT_SECRET is set but empty")
		}
		return raw, nil
	}

	if path := os.Getenv("JWT_SECRET_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if env == Production {
				return "", fmt.Errorf("config: reading JWT_SECRET_FILE: %w", err)
			}
			// Development: unreadable file falls through as if absent.
		} else if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
			return trimmed, nil
		}
		// Whitespace-only file falls through as if absent.
	}

	if env == Production {
		return "", fmt.Errorf("config: JWT_SECRET is required in production")
	}

	secret, err := generateSecret()
	if err != nil {
		return "", fmt.Errorf("config: generating dev JWT secret: %w", err)
	}
	return secret, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
