package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "DATABASE_URL", "JWT_SECRET", "JWT_SECRET_FILE",
		"ALLOWED_ORIGINS", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME",
		"SMTP_PASSWORD", "SMTP_FROM_EMAIL", "SMTP_FROM_NAME",
		"CLIENT_IP_HEADER_PRIORITY", "LISTEN_ADDR", "SENTRY_DSN",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_DevelopmentAutoGeneratesSecret(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Development, cfg.Environment)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_ProductionRequiresAllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cr3t")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://mimo.example.com")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_JWTSecretEnvEmptyIsError(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_JWTSecretFileWhitespaceOnlyFallsThrough(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("   \n\t"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	// Development falls through to an auto-generated secret rather than
	// using the whitespace-only file content.
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_JWTSecretFileTrimmed(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("  from-file  \n"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoad_ClientIPHeaderPriorityOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIENT_IP_HEADER_PRIORITY", "X-Custom-IP, X-Real-IP")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"X-Custom-IP", "X-Real-IP"}, cfg.ClientIPHeaderPriority)
}
