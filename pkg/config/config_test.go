package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigMissingFileUsesDefaults(t *testing.T) {
	app, err := LoadAppConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), app)
}

func TestLoadAppConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
pagination:
  default_size: 20
  max_size: 5
upload:
  max_image_bytes: 1024
  allowed_image_types: ["image/png"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	app, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, app.Pagination.DefaultSize)
	assert.Equal(t, 20, app.Pagination.MaxSize, "max size is raised to the default size")
	assert.Equal(t, int64(1024), app.Upload.MaxImageBytes)
	assert.Equal(t, []string{"image/png"}, app.Upload.AllowedImageTypes)
}

func TestLoadAppConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pagination: ["), 0o600))

	_, err := LoadAppConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:          "development",
			PostgresUrl:  "postgres://localhost/onsil",
			AuthProvider: AuthProviderJWT,
			BlobBackend:  BlobBackendLocal,
		}
	}

	t.Run("development gets a fallback jwt secret", func(t *testing.T) {
		cfg := base()
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWTSecret)
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.Env = "production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres url required", func(t *testing.T) {
		cfg := base()
		cfg.PostgresUrl = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown auth provider", func(t *testing.T) {
		cfg := base()
		cfg.AuthProvider = "ldap"
		assert.Error(t, cfg.Validate())
	})

	t.Run("firebase storage needs bucket and credentials", func(t *testing.T) {
		cfg := base()
		cfg.BlobBackend = BlobBackendFirebase
		assert.Error(t, cfg.Validate())

		cfg.FirebaseStorageBucket = "onsil.appspot.com"
		assert.Error(t, cfg.Validate())

		cfg.FirebaseCredentialsPath = "./firebase_credentials.json"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadReadsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POSTGRES_URL", "postgres://db/onsil")
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "development")
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "postgres://db/onsil", cfg.PostgresUrl)
	assert.Equal(t, AuthProviderJWT, cfg.AuthProvider)
	assert.Equal(t, BlobBackendLocal, cfg.BlobBackend)
	assert.Equal(t, 10, cfg.App.Pagination.DefaultSize)
}
