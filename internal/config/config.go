package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv             string
	LogLevel           slog.Level
	Port               string
	GrpcPort           string
	DatabaseDriver     string
	SQLitePath         string
	PostgreSQLHost     string
	PostgreSQLPort     int64
	PostgreSQLUser     string
	PostgreSQLPassword string
	PostgreSQLDatabase string
	JWTSecret          string
	UploadDir          string
	MaxUploadSize      int64
	RedisHost          string
	RedisPort          int64
	RedisPassword      string
	RedisDatabase      int64
	AuthRateLimit      int64 // Requests per window on /api/auth, 0 disables
	AuthRateWindow     int64 // Window length in seconds
	ShutdownTimeout    int64 // Seconds
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadConfig reads the process environment. Values from a local .env file are
// used only for keys that are not already set.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:             getEnv("APP_ENV", "development"),                     // Default development
		LogLevel:           getLogLevel(),                                        // Default INFO
		Port:               getEnv("PORT", "4000"),                               // Default 4000
		GrpcPort:           getEnv("GRPC_PORT", "50052"),                         // Default 50052, empty disables
		DatabaseDriver:     getDatabaseDriver(),                                  // Default postgres
		SQLitePath:         getEnv("SQLITE_PATH", "sellerhub.db"),                // Default sellerhub.db
		PostgreSQLHost:     getEnv("POSTGRESQL_HOST", "db"),                      // Default db
		PostgreSQLPort:     getEnvAsInt64("POSTGRESQL_PORT", 5432),               // Default 5432
		PostgreSQLUser:     getEnv("POSTGRESQL_USER", "sellerhub_user"),          // Default user
		PostgreSQLPassword: getEnv("POSTGRESQL_PASSWORD", "sellerhub_password"),  // Default password
		PostgreSQLDatabase: getEnv("POSTGRESQL_DATABASE", "sellerhub_db"),        // Default database name
		JWTSecret:          getEnv("JWT_SECRET", ""),                             // No default
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),                      // Default ./uploads
		MaxUploadSize:      getEnvAsInt64("MAX_UPLOAD_SIZE", 5*1024*1024),        // Default 5 MB
		RedisHost:          getEnv("REDIS_HOST", "redis"),                        // Default redis
		RedisPort:          getEnvAsInt64("REDIS_PORT", 6379),                    // Default 6379
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),                         // Default empty
		RedisDatabase:      getEnvAsInt64("REDIS_DATABASE", 0),                   // Default 0
		AuthRateLimit:      getEnvAsInt64("AUTH_RATE_LIMIT", 20),                 // Default 20 requests
		AuthRateWindow:     getEnvAsInt64("AUTH_RATE_WINDOW", 60),                // Default 1 minute
		ShutdownTimeout:    getEnvAsInt64("SHUTDOWN_TIMEOUT", 15),                // Default 15 seconds
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getDatabaseDriver() string {
	switch strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)) {
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	default:
		return DriverPostgres
	}
}
