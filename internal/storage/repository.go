package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pledgestats/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the read-side accessor over the pledge store shared with
// the intake application. It implements the records ports; the only write it
// offers is Append, used by the seed tool.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CountAll implements records.CountReader.
func (r *SQLiteRepository) CountAll(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPledges(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pledges: %w", err)
	}
	return n, nil
}

// CountBetween implements records.CountReader.
func (r *SQLiteRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	n, err := r.queries.CountPledgesBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("count pledges between: %w", err)
	}
	return n, nil
}

// CreatedBetween implements records.TimeReader.
func (r *SQLiteRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	times, err := r.queries.GetCreatedAt(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("get creation times: %w", err)
	}
	return times, nil
}

// CountByField implements records.FieldReader.
func (r *SQLiteRepository) CountByField(ctx context.Context, field core.Field) ([]core.FieldCount, error) {
	rows, err := r.queries.CountGroupedByField(ctx, field)
	if err != nil {
		return nil, fmt.Errorf("count pledges by %s: %w", field, err)
	}
	return rows, nil
}

// CountByDistrict implements records.FieldReader.
func (r *SQLiteRepository) CountByDistrict(ctx context.Context, state string) ([]core.FieldCount, error) {
	rows, err := r.queries.CountGroupedByDistrict(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("count districts for state %s: %w", state, err)
	}
	return rows, nil
}

// BirthDates implements records.BirthDateReader.
func (r *SQLiteRepository) BirthDates(ctx context.Context) ([]core.BirthDate, error) {
	dobs, err := r.queries.GetBirthDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("get birth dates: %w", err)
	}
	return dobs, nil
}

// Append inserts one pledge record and returns its row id as a reference.
// Production writes belong to the intake workflow; this exists for the
// seed-pledges tool and tests.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.PledgeRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	id, err := r.queries.CreatePledge(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("create pledge: %w", err)
	}

	slog.InfoContext(ctx, "Pledge saved to SQLite",
		"id", id,
		"reference", rec.ReferenceNumber,
		"state", rec.State,
		"created_at", rec.CreatedAt)

	return strconv.FormatInt(id, 10), nil
}
