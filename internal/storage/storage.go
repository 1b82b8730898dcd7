package storage

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/adanyl0v/go-task-tracker/internal/config"
	"github.com/adanyl0v/go-task-tracker/internal/models"
)

// DB is an open gorm handle together with whatever owns its connections.
type DB struct {
	*gorm.DB
	pool *pgxpool.Pool
}

func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}

func OpenPostgres(ctx context.Context, cfg config.PostgresConfig, logger zerolog.Logger) (*DB, error) {
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(pingCtx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), newGormConfig(logger, false))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return &DB{DB: gormDB, pool: pool}, nil
}

func OpenSQLite(path string, logger zerolog.Logger) (*DB, error) {
	// Foreign keys are off by default in sqlite and the pragma is per
	// connection, so it goes into the DSN.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	gormDB, err := gorm.Open(sqlite.Open(dsn), newGormConfig(logger, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return &DB{DB: gormDB}, nil
}

// Migrate creates or updates the schema of every entity.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Session{},
		&models.AuthSession{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Postgres errors are left untranslated so callers can inspect the
// SQLSTATE through pgconn.PgError.
func newGormConfig(logger zerolog.Logger, translateError bool) *gorm.Config {
	return &gorm.Config{
		Logger:         NewLogger(logger),
		TranslateError: translateError,
	}
}
