package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-this-secret-key"

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string

	// Database
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUsername        string
	DBPassword        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string

	// Upload
	UploadMaxSize int

	// Backend the records are imported into
	BackendURL      string
	BackendToken    string
	TemplateTimeout time.Duration

	// Import
	ImportMaxRows        int
	ImportUploadTimeout  time.Duration
	ImportLargeBatch     int
	ImportCoercionPolicy string
	ImportSessionTTL     time.Duration
	ImportSnapshotTTL    time.Duration

	// Worker
	WorkerConcurrency int

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int
}

func Load() (*Config, error) {
	// Try the current dir first, then the repo root when running from cmd/*
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env")

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Estate Admin"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", "estate_admin"),
		DBUsername:        getEnv("DB_USERNAME", "root"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),

		UploadMaxSize: getEnvAsInt("UPLOAD_MAX_SIZE", 20971520), // 20MB

		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000/api/admin"), "/"),
		BackendToken:    getEnv("BACKEND_TOKEN", ""),
		TemplateTimeout: getEnvAsDuration("TEMPLATE_TIMEOUT", 30*time.Second),

		ImportMaxRows:        getEnvAsInt("IMPORT_MAX_ROWS", 5000),
		ImportUploadTimeout:  getEnvAsDuration("IMPORT_UPLOAD_TIMEOUT", 15*time.Minute),
		ImportLargeBatch:     getEnvAsInt("IMPORT_LARGE_BATCH", 100),
		ImportCoercionPolicy: getEnv("IMPORT_COERCION_POLICY", "lenient"),
		ImportSessionTTL:     getEnvAsDuration("IMPORT_SESSION_TTL", 2*time.Hour),
		ImportSnapshotTTL:    getEnvAsDuration("IMPORT_SNAPSHOT_TTL", 24*time.Hour),

		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ImportMaxRows <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_MAX_ROWS must be positive, got %d", c.ImportMaxRows))
	}
	if c.ImportUploadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_UPLOAD_TIMEOUT must be positive, got %s", c.ImportUploadTimeout))
	}
	switch c.ImportCoercionPolicy {
	case "lenient", "strict":
	default:
		errs = append(errs, fmt.Errorf("IMPORT_COERCION_POLICY must be lenient or strict, got %q", c.ImportCoercionPolicy))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if !c.IsDevelopment() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set outside development"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Local",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBDatabase,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
