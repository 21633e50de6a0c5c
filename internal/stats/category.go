package stats

import (
	"math"
	"sort"
	"time"

	"pledgestats/internal/core"
)

// Labels for records that fall outside a configured taxonomy. They are explicit
// buckets, never silently dropped, so breakdown totals always reconcile with
// the window total.
const (
	OtherLabel   = "Other"
	UnknownLabel = "Unknown"
)

// AgeBand maps a half-open age range [Min, Max) onto a display label. A
// negative Max leaves the band unbounded above.
type AgeBand struct {
	Label string
	Min   int
	Max   int
}

// DefaultAgeBands mirrors the bands the dashboard has always displayed.
func DefaultAgeBands() []AgeBand {
	return []AgeBand{
		{Label: "< 18", Min: 0, Max: 18},
		{Label: "18-25", Min: 18, Max: 26},
		{Label: "26-35", Min: 26, Max: 36},
		{Label: "36-45", Min: 36, Max: 46},
		{Label: "46-60", Min: 46, Max: 61},
		{Label: "60+", Min: 61, Max: -1},
	}
}

// RankTopN orders group counts by count descending, breaks ties by label
// ascending, and truncates to n. The ordering is total, so identical input
// always yields identical output.
func RankTopN(rows []core.FieldCount, n int) []core.FieldCount {
	ranked := make([]core.FieldCount, len(rows))
	copy(ranked, rows)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Value < ranked[j].Value
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// FixedBreakdown projects group counts onto a configured taxonomy. Every
// configured category appears even with count 0, in taxonomy order; values
// outside the taxonomy (including blanks) accumulate under a trailing "Other"
// category unless the taxonomy already carries one.
func FixedBreakdown(rows []core.FieldCount, taxonomy []string) core.Series {
	index := make(map[string]int, len(taxonomy))
	s := core.Series{
		Labels: make([]string, len(taxonomy)),
		Data:   make([]int64, len(taxonomy)),
	}
	for i, label := range taxonomy {
		index[label] = i
		s.Labels[i] = label
	}

	otherIdx, hasOther := index[OtherLabel]
	if !hasOther {
		s.Labels = append(s.Labels, OtherLabel)
		s.Data = append(s.Data, 0)
		otherIdx = len(s.Data) - 1
	}

	for _, row := range rows {
		if i, ok := index[row.Value]; ok {
			s.Data[i] += row.Count
		} else {
			s.Data[otherIdx] += row.Count
		}
	}
	return s
}

// AgeBreakdown buckets donor birth dates into the configured bands at the
// report reference instant. Age is floor(days / 365.25). Unknown birth dates
// land in a trailing "Unknown" band.
func AgeBreakdown(dobs []core.BirthDate, bands []AgeBand, now time.Time) core.Series {
	s := core.Series{
		Labels: make([]string, len(bands)+1),
		Data:   make([]int64, len(bands)+1),
	}
	for i, b := range bands {
		s.Labels[i] = b.Label
	}
	s.Labels[len(bands)] = UnknownLabel

	for _, dob := range dobs {
		if !dob.Valid {
			s.Data[len(bands)]++
			continue
		}
		age := ageAt(dob.Date, now)
		placed := false
		for i, b := range bands {
			if age >= b.Min && (b.Max < 0 || age < b.Max) {
				s.Data[i]++
				placed = true
				break
			}
		}
		if !placed {
			s.Data[len(bands)]++
		}
	}
	return s
}

func ageAt(dob, now time.Time) int {
	days := now.Sub(dob).Hours() / 24
	return int(math.Floor(days / 365.25))
}
