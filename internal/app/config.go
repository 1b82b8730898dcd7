package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-task-tracker/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("db_driver", cfg.Database.Driver).
		Bool("db_auto_migrate", cfg.Database.AutoMigrate).
		Msg("read env")

	config.SetGlobal(cfg)
}
