package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings cleanenv cannot express, namely those that
// are only required by the selected database driver.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		pg := c.Postgres
		if pg.Host == "" || pg.Username == "" || pg.Database == "" {
			return fmt.Errorf("postgres driver requires POSTGRES_HOST, POSTGRES_USERNAME and POSTGRES_DATABASE")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite driver requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	return nil
}
