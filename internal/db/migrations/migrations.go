// Package migrations holds the versioned schema history of the students table.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// step holds the statements of one migration direction, keyed by dialect.
type step map[database.Dialect][]string

var createStudentsTable = struct{ up, down step }{
	up: step{
		database.DialectPostgres: {`
			CREATE TABLE students (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		database.DialectSQLite3: {`
			CREATE TABLE students (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name VARCHAR(255) NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	down: step{
		database.DialectPostgres: {`DROP TABLE students`},
		database.DialectSQLite3:  {`DROP TABLE students`},
	},
}

var addStudentDetails = struct{ up, down step }{
	up: step{
		database.DialectPostgres: {
			`ALTER TABLE students
				ADD COLUMN email VARCHAR(255) NOT NULL,
				ADD COLUMN graduation_year INTEGER,
				ADD COLUMN phone_number VARCHAR(255),
				ADD COLUMN gpa NUMERIC(3, 2)`,
			`ALTER TABLE students ADD CONSTRAINT students_email_unique UNIQUE (email)`,
		},
		// SQLite cannot add a NOT NULL column without a default, nor a
		// constraint to an existing table.
		database.DialectSQLite3: {
			`ALTER TABLE students ADD COLUMN email VARCHAR(255) NOT NULL DEFAULT ''`,
			`ALTER TABLE students ADD COLUMN graduation_year INTEGER`,
			`ALTER TABLE students ADD COLUMN phone_number VARCHAR(255)`,
			`ALTER TABLE students ADD COLUMN gpa NUMERIC(3, 2)`,
			`CREATE UNIQUE INDEX students_email_unique ON students (email)`,
		},
	},
	down: step{
		database.DialectPostgres: {
			`ALTER TABLE students
				DROP COLUMN email,
				DROP COLUMN graduation_year,
				DROP COLUMN phone_number,
				DROP COLUMN gpa`,
		},
		database.DialectSQLite3: {
			`DROP INDEX students_email_unique`,
			`ALTER TABLE students DROP COLUMN email`,
			`ALTER TABLE students DROP COLUMN graduation_year`,
			`ALTER TABLE students DROP COLUMN phone_number`,
			`ALTER TABLE students DROP COLUMN gpa`,
		},
	},
}

func run(d database.Dialect, s step) *goose.GoFunc {
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range s[d] {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// NewProvider builds a goose provider for db with the full migration history.
func NewProvider(db *bun.DB) (*goose.Provider, error) {
	var d database.Dialect
	switch db.Dialect().Name() {
	case dialect.PG:
		d = database.DialectPostgres
	case dialect.SQLite:
		d = database.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %s", db.Dialect().Name())
	}

	return goose.NewProvider(d, db.DB, nil,
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(
			goose.NewGoMigration(1, run(d, createStudentsTable.up), run(d, createStudentsTable.down)),
			goose.NewGoMigration(2, run(d, addStudentDetails.up), run(d, addStudentDetails.down)),
		),
	)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *bun.DB) error {
	provider, err := NewProvider(db)
	if err != nil {
		return fmt.Errorf("migrations: creating provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: applying: %w", err)
	}

	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	slog.Info("database migrations completed successfully", "applied", len(results))
	return nil
}

// Reset rolls every applied migration back.
func Reset(ctx context.Context, db *bun.DB) error {
	provider, err := NewProvider(db)
	if err != nil {
		return fmt.Errorf("migrations: creating provider: %w", err)
	}
	if _, err := provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("migrations: rolling back: %w", err)
	}
	return nil
}
