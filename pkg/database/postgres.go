package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"

	"github.com/Alijeyrad/simorq_sessions/internal/migrations"
	"github.com/Alijeyrad/simorq_sessions/internal/repo"
)

// Open connects with lib/pq, applies pool settings and pings.
func Open(cfg Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// NewClient opens the booking store, migrating first when AutoMigrate is set.
func NewClient(ctx context.Context, cfg Config) (*repo.Client, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	drv := entsql.OpenDB(dialect.Postgres, db)
	client := repo.NewClient(drv, repo.WithSlowQueryLog(cfg.SlowQueryThreshold()))
	slog.Info("database: connected", "host", cfg.Host, "db", cfg.DBName)
	return client, nil
}

// Migrate applies pending migrations, or rolls back the latest one when down is set.
func Migrate(ctx context.Context, cfg Config, down bool) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if down {
		return migrations.Down(ctx, db)
	}
	return migrations.Up(ctx, db)
}
