package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

const (
	maxRetries = 30
	retryDelay = 2 * time.Second
)

// ConnectDatabase opens the configured database and brings its schema up to date.
func ConnectDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		logger.Info("🔌 [Database] Opening SQLite database...", "path", cfg.SQLitePath)

		db, err := OpenSQLite(cfg.SQLitePath, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		if err := migrate(db, config.DriverSQLite, logger); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := connectPostgres(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, config.DriverPostgres, logger); err != nil {
		return nil, err
	}
	return db, nil
}

// PostgresDSN builds the connection string used by gorm and the migrate command.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.PostgreSQLHost,
		cfg.PostgreSQLUser,
		cfg.PostgreSQLPassword,
		cfg.PostgreSQLDatabase,
		cfg.PostgreSQLPort,
	)
}

func connectPostgres(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dsn := PostgresDSN(cfg)

	logger.Info("🔌 [Database] Connecting to PostgreSQL...",
		"host", cfg.PostgreSQLHost,
		"port", cfg.PostgreSQLPort,
		"database", cfg.PostgreSQLDatabase,
	)

	var db *gorm.DB
	var err error

	// The database container may still be starting
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			var sqlDB *sql.DB
			sqlDB, err = db.DB()
			if err == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
			}
		}

		if i < maxRetries-1 {
			logger.Warn("⏳ [Database] Connection failed, retrying...",
				"attempt", i+1,
				"max_retries", maxRetries,
				"retry_in", retryDelay,
				"error", err,
			)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
	}

	logger.Info("✅ [Database] Database connection established")
	return db, nil
}

// OpenSQLite opens a SQLite database without running migrations. The pool is
// limited to one connection so that ":memory:" databases stay shared.
func OpenSQLite(dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func migrate(db *gorm.DB, driver string, logger *slog.Logger) error {
	logger.Info("🔄 [Database] Running migrations...", "driver", driver)

	goose.SetLogger(&gooseLogger{logger: logger})
	if err := RunMigrations(db, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("✅ [Database] Migrations completed successfully")
	return nil
}

// RunMigrations applies every pending migration for the given driver.
func RunMigrations(gormDB *gorm.DB, driver string) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return MigrateSQL(sqlDB, driver, "up")
}

// MigrateSQL runs a goose command ("up", "down", "status", "version", ...)
// against the embedded migrations of the given driver.
func MigrateSQL(sqlDB *sql.DB, driver string, command string, args ...string) error {
	dialect, dir := "postgres", path.Join("migrations", config.DriverPostgres)
	if driver == config.DriverSQLite {
		dialect, dir = "sqlite3", path.Join("migrations", config.DriverSQLite)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Run(command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// Ping checks that the database still answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf("📦 [Migrations] "+format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	panic(fmt.Sprintf("[Migrations] "+format, v...))
}
