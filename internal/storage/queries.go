package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pledgestats/internal/core"
)

// Queries holds the SQL used by the repository. Counting and grouping run in
// the database so report reads never materialize the full record set.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const countPledges = `SELECT COUNT(*) FROM pledges WHERE is_active = 1`

func (q *Queries) CountPledges(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPledges).Scan(&n)
	return n, err
}

const countPledgesBetween = `
SELECT COUNT(*) FROM pledges
WHERE is_active = 1 AND created_at >= ? AND created_at < ?`

func (q *Queries) CountPledgesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPledgesBetween, from, to).Scan(&n)
	return n, err
}

// GetCreatedAt lists creation instants, oldest first. A zero bound leaves that
// side of the window open.
func (q *Queries) GetCreatedAt(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	query := `SELECT created_at FROM pledges WHERE is_active = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to)
	}
	query += ` ORDER BY created_at`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// fieldColumn whitelists groupable columns; field selectors never reach the
// SQL text directly.
func fieldColumn(field core.Field) (string, error) {
	switch field {
	case core.FieldState:
		return "state", nil
	case core.FieldSource:
		return "source", nil
	case core.FieldConsent:
		return "consent_type", nil
	case core.FieldGender:
		return "gender", nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

func (q *Queries) CountGroupedByField(ctx context.Context, field core.Field) ([]core.FieldCount, error) {
	column, err := fieldColumn(field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		`SELECT COALESCE(%s, ''), COUNT(*) FROM pledges WHERE is_active = 1 GROUP BY %s`,
		column, column)

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFieldCounts(rows)
}

const countGroupedByDistrict = `
SELECT district, COUNT(*) FROM pledges
WHERE is_active = 1 AND state = ? AND district IS NOT NULL AND district != ''
GROUP BY district`

func (q *Queries) CountGroupedByDistrict(ctx context.Context, state string) ([]core.FieldCount, error) {
	rows, err := q.db.QueryContext(ctx, countGroupedByDistrict, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFieldCounts(rows)
}

const getBirthDates = `SELECT date_of_birth FROM pledges WHERE is_active = 1`

func (q *Queries) GetBirthDates(ctx context.Context) ([]core.BirthDate, error) {
	rows, err := q.db.QueryContext(ctx, getBirthDates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.BirthDate
	for rows.Next() {
		var dob sql.NullTime
		if err := rows.Scan(&dob); err != nil {
			return nil, err
		}
		out = append(out, core.BirthDate{Valid: dob.Valid, Date: dob.Time})
	}
	return out, rows.Err()
}

const createPledge = `
INSERT INTO pledges (reference_number, created_at, state, district, source, consent_type, gender, date_of_birth, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreatePledge(ctx context.Context, rec core.PledgeRecord) (int64, error) {
	var dob any
	if rec.DateOfBirth.Valid {
		dob = rec.DateOfBirth.Date
	}
	var id int64
	err := q.db.QueryRowContext(ctx, createPledge,
		rec.ReferenceNumber,
		rec.CreatedAt.UTC(),
		nullIfEmpty(rec.State),
		nullIfEmpty(rec.District),
		rec.Source,
		rec.ConsentType,
		nullIfEmpty(rec.Gender),
		dob,
		rec.Active,
	).Scan(&id)
	return id, err
}

func scanFieldCounts(rows *sql.Rows) ([]core.FieldCount, error) {
	var out []core.FieldCount
	for rows.Next() {
		var fc core.FieldCount
		if err := rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
