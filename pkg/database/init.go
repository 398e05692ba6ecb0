package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Alijeyrad/simorq_sessions/config"
)

// InitializeDatabases creates the configured database and any extra names in
// server.databases. It connects to the default 'postgres' database to do so.
func InitializeDatabases(cfg *config.Config) error {
	names := append([]string{cfg.Database.DBName}, cfg.Server.Databases...)

	admin := FromCentralConfig(cfg.Database)
	admin.DBName = "postgres"
	conn, err := Open(admin)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	seen := map[string]bool{}
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if err := createDatabaseIfNotExists(conn, name); err != nil {
			return fmt.Errorf("failed to create database %q: %w", name, err)
		}
	}
	return nil
}

func createDatabaseIfNotExists(conn *sql.DB, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
