package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockKey serializes concurrent migrators via pg_advisory_xact_lock.
const migrationLockKey = 7_202_604

type migration struct {
	version int
	name    string
	sql     string
}

func loadMigrations(source fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(source, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	out := make([]migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		v, err := scriptVersion(e.Name())
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(source, "migrations/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: v, name: e.Name(), sql: string(body)})
	}

	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	for i := 1; i < len(out); i++ {
		if out[i].version == out[i-1].version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].version)
		}
	}
	return out, nil
}

// scriptVersion extracts 2 from a file named like "0002_migration_name.sql".
func scriptVersion(filename string) (int, error) {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 0, fmt.Errorf("migration %q: missing version prefix", filename)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("migration %q: bad version prefix", filename)
	}
	return v, nil
}

// Migrate applies pending embedded migrations, each in its own transaction.
// It returns the number of migrations applied.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	migrations, err := loadMigrations(migrationFS)
	if err != nil {
		return 0, fmt.Errorf("postgres.Migrate: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		     version    INTEGER PRIMARY KEY,
		     name       TEXT        NOT NULL,
		     applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres.Migrate: create schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		ran := false
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
				return fmt.Errorf("lock: %w", err)
			}

			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check version: %w", err)
			}
			if exists {
				return nil
			}

			log.Debug().Str("migration", m.name).Msg("applying migration")
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("exec: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name,
			); err != nil {
				return fmt.Errorf("record version: %w", err)
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("postgres.Migrate: %s: %w", m.name, err)
		}
		if ran {
			applied++
		}
	}

	if applied > 0 {
		log.Info().Int("applied", applied).Msg("database migrated")
	}
	return applied, nil
}
