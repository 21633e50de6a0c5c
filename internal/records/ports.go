package records

import (
	"context"
	"time"

	"pledgestats/internal/core"
)

// Ports over the pledge record store. The store is written only by the intake
// workflow; everything here is read-only. Inactive (soft-deleted) records are
// excluded from every result.
type (
	// CountReader provides scalar counts, pushed down to the store so a large
	// record set is never materialized for a plain total.
	CountReader interface {
		CountAll(ctx context.Context) (int64, error)
		// CountBetween counts pledges created in the half-open window [from, to).
		CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	}

	// TimeReader lists creation instants for temporal bucketing. A zero bound
	// leaves that side of the window open.
	TimeReader interface {
		CreatedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
	}

	// FieldReader returns pre-counted rows grouped by a categorical field.
	FieldReader interface {
		CountByField(ctx context.Context, field core.Field) ([]core.FieldCount, error)
		// CountByDistrict groups pledges of one state by district. Records
		// without a district are skipped.
		CountByDistrict(ctx context.Context, state string) ([]core.FieldCount, error)
	}

	// BirthDateReader lists donor birth dates for age-band derivation.
	BirthDateReader interface {
		BirthDates(ctx context.Context) ([]core.BirthDate, error)
	}

	RecordReader interface {
		CountReader
		TimeReader
		FieldReader
		BirthDateReader
	}
)
