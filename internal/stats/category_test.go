package stats

import (
	"reflect"
	"testing"
	"time"

	"pledgestats/internal/core"
)

func TestRankTopN(t *testing.T) {
	rows := []core.FieldCount{
		{Value: "C", Count: 1},
		{Value: "B", Count: 3},
		{Value: "A", Count: 3},
	}

	got := RankTopN(rows, 2)
	want := []core.FieldCount{{Value: "A", Count: 3}, {Value: "B", Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankTopN() = %v, want %v (ties break alphabetically)", got, want)
	}

	// Input order must not leak into the result.
	reversed := []core.FieldCount{rows[2], rows[1], rows[0]}
	if again := RankTopN(reversed, 2); !reflect.DeepEqual(again, want) {
		t.Errorf("RankTopN() on reordered input = %v, want %v", again, want)
	}

	if all := RankTopN(rows, 10); len(all) != 3 {
		t.Errorf("RankTopN() with n beyond len = %d rows, want 3", len(all))
	}
}

func TestFixedBreakdown(t *testing.T) {
	taxonomy := []string{"Online Form", "Donation Camp", "Hospital"}
	rows := []core.FieldCount{
		{Value: "Online Form", Count: 10},
		{Value: "Hospital", Count: 2},
		{Value: "Street Drive", Count: 3},
		{Value: "", Count: 1},
	}

	s := FixedBreakdown(rows, taxonomy)

	wantLabels := []string{"Online Form", "Donation Camp", "Hospital", "Other"}
	wantData := []int64{10, 0, 2, 4}
	if !reflect.DeepEqual(s.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v", s.Labels, wantLabels)
	}
	if !reflect.DeepEqual(s.Data, wantData) {
		t.Errorf("data = %v, want %v", s.Data, wantData)
	}

	// Totals reconcile: nothing outside the taxonomy is dropped.
	var total, input int64
	for _, n := range s.Data {
		total += n
	}
	for _, row := range rows {
		input += row.Count
	}
	if total != input {
		t.Errorf("breakdown total = %d, want %d", total, input)
	}
}

func TestFixedBreakdownKeepsExistingOther(t *testing.T) {
	s := FixedBreakdown(
		[]core.FieldCount{{Value: "Male", Count: 4}, {Value: "Unlisted", Count: 2}},
		[]string{"Male", "Female", "Other"},
	)
	if len(s.Labels) != 3 {
		t.Fatalf("got %d labels, want 3 (no duplicate Other)", len(s.Labels))
	}
	if s.Data[2] != 2 {
		t.Errorf("Other count = %d, want 2", s.Data[2])
	}
}

func TestAgeBreakdown(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	born := func(years int) core.BirthDate {
		return core.BirthDate{Valid: true, Date: now.AddDate(-years, 0, -30)}
	}

	dobs := []core.BirthDate{
		born(10),       // < 18
		born(18),       // 18-25
		born(25),       // 18-25
		born(30),       // 26-35
		born(61),       // 60+
		{Valid: false}, // Unknown
	}

	s := AgeBreakdown(dobs, DefaultAgeBands(), now)

	wantLabels := []string{"< 18", "18-25", "26-35", "36-45", "46-60", "60+", "Unknown"}
	if !reflect.DeepEqual(s.Labels, wantLabels) {
		t.Fatalf("labels = %v, want %v", s.Labels, wantLabels)
	}

	wantData := []int64{1, 2, 1, 0, 0, 1, 1}
	if !reflect.DeepEqual(s.Data, wantData) {
		t.Errorf("data = %v, want %v", s.Data, wantData)
	}

	var total int64
	for _, n := range s.Data {
		total += n
	}
	if total != int64(len(dobs)) {
		t.Errorf("breakdown total = %d, want %d", total, len(dobs))
	}
}

func TestAgeAtUsesFractionalYearDays(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	// 365 days is still age 0 under the 365.25-day year.
	if got := ageAt(now.AddDate(0, 0, -365), now); got != 0 {
		t.Errorf("ageAt(365 days) = %d, want 0", got)
	}
	if got := ageAt(now.AddDate(0, 0, -366), now); got != 1 {
		t.Errorf("ageAt(366 days) = %d, want 1", got)
	}
}
