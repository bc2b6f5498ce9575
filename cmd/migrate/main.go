package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/config"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/logger"
)

const usage = `Usage: migrate [command] [args]

Commands:
  up                   Apply all pending migrations
  up-by-one            Apply the next pending migration
  up-to VERSION        Apply migrations up to VERSION
  down                 Roll back the latest migration
  down-to VERSION      Roll back to VERSION
  redo                 Roll back and re-apply the latest migration
  reset                Roll back every migration
  status               Print the status of every migration
  version              Print the current schema version

The database is selected with DB_DRIVER and the POSTGRESQL_* or SQLITE_PATH variables.
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	appLogger := logger.New(cfg)

	sqlDB, err := openDatabase(cfg)
	if err != nil {
		appLogger.Error("❌ Failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	command := args[0]
	appLogger.Info("🔄 [Migrations] Running command...", "command", command, "driver", cfg.DatabaseDriver)

	if err := database.MigrateSQL(sqlDB, cfg.DatabaseDriver, command, args[1:]...); err != nil {
		appLogger.Error("❌ Migration command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		db, err := database.OpenSQLite(cfg.SQLitePath, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		return db.DB()
	}

	sqlDB, err := sql.Open("postgres", database.PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
