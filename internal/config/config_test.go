package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("IMPORT_MAX_ROWS", "")
	t.Setenv("IMPORT_UPLOAD_TIMEOUT", "")
	t.Setenv("BACKEND_URL", "https://api.example.com/admin/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.ImportMaxRows)
	assert.Equal(t, 15*time.Minute, cfg.ImportUploadTimeout)
	assert.Equal(t, "https://api.example.com/admin", cfg.BackendURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("IMPORT_MAX_ROWS", "300")
	t.Setenv("IMPORT_UPLOAD_TIMEOUT", "90s")
	t.Setenv("IMPORT_SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.ImportMaxRows)
	assert.Equal(t, 90*time.Second, cfg.ImportUploadTimeout)
	assert.Equal(t, 2*time.Hour, cfg.ImportSessionTTL)
}

func TestLoadRejectsNonPositiveRowLimit(t *testing.T) {
	t.Setenv("IMPORT_MAX_ROWS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBUsername: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBDatabase: "estate"}
	assert.Equal(t, "u:p@tcp(db:3306)/estate?parseTime=true&loc=Local", cfg.GetDSN())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		AppEnv:               "production",
		JWTSecret:            defaultJWTSecret,
		ImportMaxRows:        100,
		ImportUploadTimeout:  time.Minute,
		ImportCoercionPolicy: "loose",
		BackendURL:           "http://backend",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_COERCION_POLICY")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.ImportCoercionPolicy = "strict"
	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
