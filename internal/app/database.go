package app

import (
	"context"
	"fmt"

	"github.com/adanyl0v/go-task-tracker/internal/config"
	"github.com/adanyl0v/go-task-tracker/internal/storage"
)

var globalDB *storage.DB

func MustOpenDatabase() {
	cfg := config.Global()
	dbLogger := globalLogger.With().
		Str("driver", cfg.Database.Driver).
		Logger()

	var err error
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		globalDB, err = storage.OpenPostgres(context.Background(), cfg.Postgres, dbLogger)
	case config.DriverSQLite:
		globalDB, err = storage.OpenSQLite(cfg.SQLite.Path, dbLogger)
	default:
		err = fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open database")
		panic(err)
	}
	globalLogger.Info().
		Str("driver", cfg.Database.Driver).
		Msg("opened database")

	if !cfg.Database.AutoMigrate {
		return
	}

	err = storage.Migrate(globalDB.DB)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to migrate database")
		panic(err)
	}
	globalLogger.Info().Msg("migrated database")
}

func CloseDatabase() {
	err := globalDB.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close database")
		return
	}
	globalLogger.Info().Msg("closed database")
}
