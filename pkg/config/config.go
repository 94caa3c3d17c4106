package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"

	BlobBackendLocal    = "local"
	BlobBackendFirebase = "firebase"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	JWTSecret               string
	AuthProvider            string
	BlobBackend             string
	MediaDir                string
	LogLevel                string
	App                     AppConfig
}

// AppConfig holds tunables read from the optional YAML file
type AppConfig struct {
	Pagination PaginationConfig `yaml:"pagination"`
	Upload     UploadConfig     `yaml:"upload"`
}

type PaginationConfig struct {
	DefaultSize int `yaml:"default_size"`
	MaxSize     int `yaml:"max_size"`
}

type UploadConfig struct {
	MaxImageBytes     int64    `yaml:"max_image_bytes"`
	AllowedImageTypes []string `yaml:"allowed_image_types"`
}

// DefaultAppConfig returns the tunables used when no YAML file is present
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Pagination: PaginationConfig{DefaultSize: 10, MaxSize: 50},
		Upload: UploadConfig{
			MaxImageBytes:     5 << 20,
			AllowedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
	}
}

// Load reads .env (if any), the environment and the YAML tunables file.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "onsil"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		AuthProvider:            getEnv("AUTH_PROVIDER", AuthProviderJWT),
		BlobBackend:             getEnv("BLOB_BACKEND", BlobBackendLocal),
		MediaDir:                getEnv("MEDIA_DIR", "./media"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	app, err := LoadAppConfig(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.App = app

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAppConfig parses the YAML tunables at path on top of the defaults.
// A missing file yields the defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	app := DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return app, nil
		}
		return app, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &app); err != nil {
		return app, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if app.Pagination.DefaultSize <= 0 {
		app.Pagination.DefaultSize = 10
	}
	if app.Pagination.MaxSize < app.Pagination.DefaultSize {
		app.Pagination.MaxSize = app.Pagination.DefaultSize
	}
	return app, nil
}

// Validate checks that the combination of settings can start a server
func (c *Config) Validate() error {
	if c.PostgresUrl == "" {
		return fmt.Errorf("POSTGRES_URL environment variable not set")
	}
	switch c.AuthProvider {
	case AuthProviderJWT, AuthProviderFirebase:
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	switch c.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendFirebase:
		if c.FirebaseStorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when BLOB_BACKEND=firebase")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	if c.NeedsFirebase() && c.FirebaseCredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for firebase auth or storage")
	}
	if c.JWTSecret == "" {
		if c.Env != "development" {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		c.JWTSecret = "dev-only-jwt-secret"
	}
	return nil
}

// NeedsFirebase reports whether any component depends on the Firebase app
func (c *Config) NeedsFirebase() bool {
	return c.AuthProvider == AuthProviderFirebase || c.BlobBackend == BlobBackendFirebase
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
