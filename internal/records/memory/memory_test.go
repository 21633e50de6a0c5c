package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pledgestats/internal/core"
)

func record(ref string, created time.Time) core.PledgeRecord {
	return core.PledgeRecord{
		ReferenceNumber: ref,
		CreatedAt:       created,
		State:           "Maharashtra",
		District:        "Pune",
		Source:          "Online Form",
		ConsentType:     "Both Eyes",
		Gender:          "Female",
		Active:          true,
	}
}

func TestAppendAndCount(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, record("R1", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("Append() ref = %q, want mem:1", ref)
	}

	n, err := s.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountAll() = %d, want 1", n)
	}
}

func TestAppendRejectsInvalidRecords(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Append(ctx, core.PledgeRecord{CreatedAt: time.Now()})
	if !errors.Is(err, core.ErrEmptyReference) {
		t.Errorf("Append() without reference error = %v, want ErrEmptyReference", err)
	}

	_, err = s.Append(ctx, core.PledgeRecord{ReferenceNumber: "R"})
	if !errors.Is(err, core.ErrZeroCreatedAt) {
		t.Errorf("Append() without created_at error = %v, want ErrZeroCreatedAt", err)
	}
}

func TestCountBetweenWindowIsHalfOpen(t *testing.T) {
	boundary := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	s := New(
		record("R1", boundary.Add(-time.Second)),
		record("R2", boundary),
	)
	ctx := context.Background()

	n, err := s.CountBetween(ctx, boundary, boundary.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("CountBetween() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountBetween() = %d, want 1 (lower bound inclusive, prior second excluded)", n)
	}

	// Zero bounds leave the window open on that side.
	all, err := s.CreatedBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("CreatedBetween() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("CreatedBetween() open window = %d times, want 2", len(all))
	}
}

func TestCountByField(t *testing.T) {
	r1 := record("R1", time.Now())
	r2 := record("R2", time.Now())
	r2.State = "Karnataka"
	inactive := record("R3", time.Now())
	inactive.Active = false

	s := New(r1, r2, inactive)
	ctx := context.Background()

	rows, err := s.CountByField(ctx, core.FieldState)
	if err != nil {
		t.Fatalf("CountByField() error = %v", err)
	}
	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	if counts["Maharashtra"] != 1 || counts["Karnataka"] != 1 {
		t.Errorf("state counts = %v, want Maharashtra:1 Karnataka:1", counts)
	}

	if _, err := s.CountByField(ctx, core.Field("postcode")); err == nil {
		t.Error("CountByField() with unknown field succeeded, want error")
	}
}

func TestCountByDistrict(t *testing.T) {
	r1 := record("R1", time.Now())
	r2 := record("R2", time.Now())
	r2.District = "Mumbai"
	other := record("R3", time.Now())
	other.State = "Delhi"

	s := New(r1, r2, other)

	rows, err := s.CountByDistrict(context.Background(), "Maharashtra")
	if err != nil {
		t.Fatalf("CountByDistrict() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d districts, want 2 (other states excluded)", len(rows))
	}
}

func TestBirthDatesIncludeInvalidOnes(t *testing.T) {
	withDOB := record("R1", time.Now())
	withDOB.DateOfBirth = core.BirthDate{Valid: true, Date: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	withoutDOB := record("R2", time.Now())

	s := New(withDOB, withoutDOB)

	dobs, err := s.BirthDates(context.Background())
	if err != nil {
		t.Fatalf("BirthDates() error = %v", err)
	}
	if len(dobs) != 2 {
		t.Fatalf("got %d birth dates, want 2 (invalid ones included for the Unknown band)", len(dobs))
	}
	var valid int
	for _, d := range dobs {
		if d.Valid {
			valid++
		}
	}
	if valid != 1 {
		t.Errorf("valid birth dates = %d, want 1", valid)
	}
}
