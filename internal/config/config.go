// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"kunden-service/internal/pkg/jwt"
)

// Storage backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type AppConfig struct {
	// Server
	HTTPAddr    string
	Env         string
	LogLevel    string
	CORSOrigins []string

	// Storage
	StorageBackend string
	DataDir        string
	DatabaseURL    string
	SQLitePath     string

	// Backups
	BackupDir       string
	BackupRetention int
	BackupInterval  time.Duration
	BackupOnWrite   bool

	// Redis is optional; empty keeps sessions in memory.
	RedisAddr string
	RedisPass string

	// Auth
	UsersFile string
	JWT       jwt.Config
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	dataDir := getEnv("DATA_DIR", "data")

	return AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		Env:         getEnv("APP_ENV", "production"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendCSV)),
		DataDir:        dataDir,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", dataDir+"/kunden.db"),

		BackupDir:       getEnv("BACKUP_DIR", dataDir+"/backup"),
		BackupRetention: getEnvInt("BACKUP_RETENTION", 20),
		BackupInterval:  getEnvDuration("BACKUP_INTERVAL", 0),
		BackupOnWrite:   getEnvBool("BACKUP_ON_WRITE", true),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),

		UsersFile: getEnv("USERS_FILE", "config.yaml"),
		JWT: jwt.Config{
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", "secrets/jwt_private.pem"),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "secrets/jwt_public.pem"),
			Issuer:   getEnv("JWT_ISSUER", "kunden-service"),
			Audience: getEnv("JWT_AUDIENCE", "kunden-editors"),
			TTL:      getEnvDuration("JWT_TTL", 12*time.Hour),
			KID:      getEnv("JWT_KID", "kunden-key"),
		},
	}
}

// Validate rejects combinations the server cannot start with.
func (c AppConfig) Validate() error {
	switch c.StorageBackend {
	case BackendCSV, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.BackupRetention < 1 {
		return fmt.Errorf("BACKUP_RETENTION must be at least 1, got %d", c.BackupRetention)
	}
	if c.BackupInterval < 0 {
		return fmt.Errorf("BACKUP_INTERVAL must not be negative")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "6h") and plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
