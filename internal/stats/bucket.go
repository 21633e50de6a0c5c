package stats

import (
	"fmt"
	"time"

	"pledgestats/internal/core"
)

// Granularity selects the calendar unit used to bucket pledge records.
type Granularity int

const (
	ByDay Granularity = iota
	ByWeek
	ByMonth
	ByYear
)

func (g Granularity) String() string {
	switch g {
	case ByDay:
		return "day"
	case ByWeek:
		return "week"
	case ByMonth:
		return "month"
	case ByYear:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Bucket is one half-open calendar interval [Start, End) with its pledge count.
type Bucket struct {
	Label string
	Start time.Time
	End   time.Time
	Count int64
}

// Bucketize groups creation instants into contiguous calendar buckets covering
// [from, to). Buckets are aligned to unit boundaries in loc, so the first
// bucket is the unit containing from. Buckets with no records carry count 0;
// an instant exactly on a boundary belongs to the bucket it opens.
func Bucketize(times []time.Time, from, to time.Time, g Granularity, loc *time.Location, weekStart time.Weekday) ([]Bucket, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: zero bound", core.ErrInvalidWindow)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from %s is not before to %s", core.ErrInvalidWindow, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	var buckets []Bucket
	for start := unitStart(from.In(loc), g, weekStart); start.Before(to); start = nextUnit(start, g) {
		end := nextUnit(start, g)
		buckets = append(buckets, Bucket{
			Label: unitLabel(start, g),
			Start: start,
			End:   end,
		})
	}

	counts := make(map[int64]int64, len(times))
	for _, t := range times {
		counts[unitStart(t.In(loc), g, weekStart).Unix()]++
	}
	for i := range buckets {
		buckets[i].Count = counts[buckets[i].Start.Unix()]
	}
	return buckets, nil
}

// HourHistogram builds the 24-slot hour-of-day activity histogram. Slots are
// hours of CreatedAt in loc aggregated over all supplied instants regardless
// of date; this is not a chronological series.
func HourHistogram(times []time.Time, loc *time.Location) core.Series {
	s := core.Series{
		Labels: make([]string, 24),
		Data:   make([]int64, 24),
	}
	for h := 0; h < 24; h++ {
		s.Labels[h] = fmt.Sprintf("%02d:00", h)
	}
	for _, t := range times {
		s.Data[t.In(loc).Hour()]++
	}
	return s
}

// ToSeries flattens buckets into the labels/data wire shape.
func ToSeries(buckets []Bucket) core.Series {
	s := core.Series{
		Labels: make([]string, len(buckets)),
		Data:   make([]int64, len(buckets)),
	}
	for i, b := range buckets {
		s.Labels[i] = b.Label
		s.Data[i] = b.Count
	}
	return s
}

// unitStart truncates t to the start of its calendar unit in t's location.
func unitStart(t time.Time, g Granularity, weekStart time.Weekday) time.Time {
	y, m, d := t.Date()
	switch g {
	case ByDay:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case ByWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		back := (int(t.Weekday()) - int(weekStart) + 7) % 7
		return day.AddDate(0, 0, -back)
	case ByMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case ByYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

// nextUnit advances a unit start to the next boundary. Month and year moves
// use day 1 so variable month lengths cannot skew the series.
func nextUnit(start time.Time, g Granularity) time.Time {
	y, m, d := start.Date()
	switch g {
	case ByDay:
		return time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
	case ByWeek:
		return time.Date(y, m, d+7, 0, 0, 0, 0, start.Location())
	case ByMonth:
		return time.Date(y, m+1, 1, 0, 0, 0, 0, start.Location())
	case ByYear:
		return time.Date(y+1, 1, 1, 0, 0, 0, 0, start.Location())
	default:
		return time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
	}
}

func unitLabel(start time.Time, g Granularity) string {
	switch g {
	case ByDay:
		return start.Format("02 Jan")
	case ByWeek:
		_, wk := start.ISOWeek()
		return fmt.Sprintf("Week %d", wk)
	case ByMonth:
		return start.Format("Jan")
	case ByYear:
		return start.Format("2006")
	default:
		return start.Format("02 Jan 2006")
	}
}

// monthLabelWithYear is used by multi-year series where bare month names
// would repeat.
func monthLabelWithYear(start time.Time) string {
	return start.Format("Jan 2006")
}
