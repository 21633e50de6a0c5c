package stats

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"pledgestats/internal/core"
	"pledgestats/internal/records/memory"
)

func testStore(times ...time.Time) *memory.Store {
	recs := make([]core.PledgeRecord, len(times))
	for i, ts := range times {
		recs[i] = core.PledgeRecord{
			ID:              int64(i + 1),
			ReferenceNumber: "REF-" + ts.Format("20060102150405"),
			CreatedAt:       ts,
			State:           "Maharashtra",
			Source:          "Online Form",
			ConsentType:     "Both Eyes",
			Gender:          "Female",
			Active:          true,
		}
	}
	return memory.New(recs...)
}

func newTestEngine(t *testing.T, store *memory.Store) *Engine {
	t.Helper()
	engine, err := New(store, DefaultOptions(time.UTC))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return engine
}

func TestMonthlyRange(t *testing.T) {
	engine := newTestEngine(t, testStore(
		date(2024, time.January, 15),
		date(2024, time.January, 20),
		date(2024, time.February, 1),
	))

	got, err := engine.MonthlyRange(context.Background(), date(2024, time.January, 1), date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("MonthlyRange() error = %v", err)
	}

	want := core.Series{Labels: []string{"Jan", "Feb"}, Data: []int64{2, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlyRange() = %+v, want %+v", got, want)
	}

	// A second identical call over unchanged data must match exactly.
	again, err := engine.MonthlyRange(context.Background(), date(2024, time.January, 1), date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("MonthlyRange() second call error = %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Errorf("MonthlyRange() is not idempotent: %+v vs %+v", got, again)
	}
}

func TestMonthlyWindowLength(t *testing.T) {
	engine := newTestEngine(t, testStore())
	now := date(2024, time.June, 15)

	got, err := engine.Monthly(context.Background(), now)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	if len(got.Labels) != 12 {
		t.Errorf("Monthly() spans %d months, want 12", len(got.Labels))
	}
	if got.Labels[len(got.Labels)-1] != "Jun" {
		t.Errorf("Monthly() last label = %q, want current month Jun", got.Labels[len(got.Labels)-1])
	}
	for i, n := range got.Data {
		if n != 0 {
			t.Errorf("empty store bucket %d = %d, want 0", i, n)
		}
	}
}

func TestMonthlyRangeRejectsInvalidWindow(t *testing.T) {
	engine := newTestEngine(t, testStore())

	_, err := engine.MonthlyRange(context.Background(), date(2024, time.March, 1), date(2024, time.January, 1))
	if !errors.Is(err, core.ErrInvalidWindow) {
		t.Errorf("MonthlyRange() reversed window error = %v, want ErrInvalidWindow", err)
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, testStore(
		now.Add(-2*time.Hour),           // today
		now.AddDate(0, 0, -1),           // yesterday
		date(2024, time.June, 3),        // this month
		date(2024, time.February, 10),   // this year
		date(2023, time.September, 5),   // last year
	))

	got, err := engine.Summary(context.Background(), now)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if got.TotalPledges != 5 {
		t.Errorf("TotalPledges = %d, want 5", got.TotalPledges)
	}
	if got.TodayPledges != 1 {
		t.Errorf("TodayPledges = %d, want 1", got.TodayPledges)
	}
	if got.ThisMonthPledges != 3 {
		t.Errorf("ThisMonthPledges = %d, want 3", got.ThisMonthPledges)
	}
	if got.ThisYearPledges != 4 {
		t.Errorf("ThisYearPledges = %d, want 4", got.ThisYearPledges)
	}
	if got.TodayChangePct != 0.0 {
		t.Errorf("TodayChangePct = %v, want 0.0 (1 today vs 1 yesterday)", got.TodayChangePct)
	}
}

func TestComparativeZeroBaseline(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	// All pledges in the current month: both baselines are zero except MoM's
	// current side.
	engine := newTestEngine(t, testStore(
		date(2024, time.June, 2),
		date(2024, time.June, 10),
	))

	got, err := engine.Comparative(context.Background(), now)
	if err != nil {
		t.Fatalf("Comparative() error = %v", err)
	}

	if !got.MoM.FromZero || got.MoM.Value != 100.0 {
		t.Errorf("MoM = %+v, want value 100.0 with from_zero", got.MoM)
	}
	if got.MoM.Count != 2 || got.MoM.PrevCount != 0 {
		t.Errorf("MoM counts = (%d, %d), want (2, 0)", got.MoM.Count, got.MoM.PrevCount)
	}
	if !got.YoY.FromZero || got.YoY.Value != 100.0 {
		t.Errorf("YoY = %+v, want value 100.0 with from_zero", got.YoY)
	}
}

func TestStatesRanking(t *testing.T) {
	var recs []core.PledgeRecord
	add := func(state string, n int) {
		for i := 0; i < n; i++ {
			recs = append(recs, core.PledgeRecord{
				ReferenceNumber: "R",
				CreatedAt:       date(2024, time.January, 1),
				State:           state,
				Active:          true,
			})
		}
	}
	add("Karnataka", 3)
	add("Maharashtra", 3)
	add("Delhi", 1)

	engine := newTestEngine(t, memory.New(recs...))
	engine.opts.TopStates = 2

	got, err := engine.States(context.Background())
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	want := []core.StateCount{{Label: "Karnataka", Count: 3}, {Label: "Maharashtra", Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("States() = %v, want %v", got, want)
	}
}

func TestInactiveRecordsAreExcluded(t *testing.T) {
	active := core.PledgeRecord{ReferenceNumber: "A", CreatedAt: date(2024, time.January, 5), Active: true}
	deleted := core.PledgeRecord{ReferenceNumber: "B", CreatedAt: date(2024, time.January, 6), Active: false}

	engine := newTestEngine(t, memory.New(active, deleted))

	got, err := engine.Summary(context.Background(), date(2024, time.January, 10))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.TotalPledges != 1 {
		t.Errorf("TotalPledges = %d, want 1 (soft-deleted record excluded)", got.TotalPledges)
	}
}

// failingStore simulates a store outage on every operation.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) CountAll(context.Context) (int64, error) { return 0, errStoreDown }
func (failingStore) CountBetween(context.Context, time.Time, time.Time) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) CreatedBetween(context.Context, time.Time, time.Time) ([]time.Time, error) {
	return nil, errStoreDown
}
func (failingStore) CountByField(context.Context, core.Field) ([]core.FieldCount, error) {
	return nil, errStoreDown
}
func (failingStore) CountByDistrict(context.Context, string) ([]core.FieldCount, error) {
	return nil, errStoreDown
}
func (failingStore) BirthDates(context.Context) ([]core.BirthDate, error) {
	return nil, errStoreDown
}

func TestStoreFailureIsUnavailableNotZero(t *testing.T) {
	engine, err := New(failingStore{}, DefaultOptions(time.UTC))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	now := date(2024, time.June, 1)
	ctx := context.Background()

	checks := map[string]func() error{
		"Summary":     func() error { _, err := engine.Summary(ctx, now); return err },
		"Monthly":     func() error { _, err := engine.Monthly(ctx, now); return err },
		"Hourly":      func() error { _, err := engine.Hourly(ctx); return err },
		"Comparative": func() error { _, err := engine.Comparative(ctx, now); return err },
		"States":      func() error { _, err := engine.States(ctx); return err },
		"Demographics": func() error {
			_, err := engine.Demographics(ctx, now)
			return err
		},
	}

	for name, call := range checks {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, core.ErrDataUnavailable) {
				t.Errorf("error = %v, want ErrDataUnavailable", err)
			}
			if !errors.Is(err, errStoreDown) {
				t.Errorf("error = %v, want underlying cause preserved", err)
			}
		})
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions(time.UTC)
	opts.TopStates = 0

	_, err := New(memory.New(), opts)
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("New() error = %v, want ErrConfiguration", err)
	}

	_, err = New(memory.New(), Options{})
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("New() with zero options error = %v, want ErrConfiguration", err)
	}
}
