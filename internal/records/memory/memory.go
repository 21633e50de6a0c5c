package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pledgestats/internal/core"
)

// Store is an in-memory pledge store used by tests and the dev backend. It
// implements the records ports with linear scans, which is fine at dev scale.
type Store struct {
	mu    sync.Mutex
	items []core.PledgeRecord
}

func New(records ...core.PledgeRecord) *Store {
	s := &Store{}
	s.items = append(s.items, records...)
	return s
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rec core.PledgeRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.items) + 1)
	s.items = append(s.items, rec)
	return fmt.Sprintf("mem:%d", rec.ID), nil
}

func (s *Store) CountAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.items {
		if rec.Active {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountBetween(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.items {
		if rec.Active && inWindow(rec.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreatedBetween(_ context.Context, from, to time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, rec := range s.items {
		if rec.Active && inWindow(rec.CreatedAt, from, to) {
			out = append(out, rec.CreatedAt)
		}
	}
	return out, nil
}

func (s *Store) CountByField(_ context.Context, field core.Field) ([]core.FieldCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, rec := range s.items {
		if !rec.Active {
			continue
		}
		v, err := fieldValue(rec, field)
		if err != nil {
			return nil, err
		}
		counts[v]++
	}
	return toRows(counts), nil
}

func (s *Store) CountByDistrict(_ context.Context, state string) ([]core.FieldCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, rec := range s.items {
		if rec.Active && rec.State == state && rec.District != "" {
			counts[rec.District]++
		}
	}
	return toRows(counts), nil
}

func (s *Store) BirthDates(_ context.Context) ([]core.BirthDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.BirthDate
	for _, rec := range s.items {
		if rec.Active {
			out = append(out, rec.DateOfBirth)
		}
	}
	return out, nil
}

// inWindow applies the half-open [from, to) window; a zero bound is open.
func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func fieldValue(rec core.PledgeRecord, field core.Field) (string, error) {
	switch field {
	case core.FieldState:
		return rec.State, nil
	case core.FieldSource:
		return rec.Source, nil
	case core.FieldConsent:
		return rec.ConsentType, nil
	case core.FieldGender:
		return rec.Gender, nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

func toRows(counts map[string]int64) []core.FieldCount {
	rows := make([]core.FieldCount, 0, len(counts))
	for v, n := range counts {
		rows = append(rows, core.FieldCount{Value: v, Count: n})
	}
	return rows
}
