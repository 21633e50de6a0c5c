package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pledgestats/internal/core"
	"pledgestats/internal/records"
)

// Options configures the report shapes. Taxonomies and window sizes are fixed
// per deployment, validated once at startup.
type Options struct {
	// Location is the canonical timezone: every calendar boundary (day, week,
	// month, year) is computed in it, never in UTC.
	Location  *time.Location
	WeekStart time.Weekday

	TopStates        int
	MonthlyMonths    int
	WeeklyDays       int
	YearlyYears      int
	HistoricalMonths int

	AgeBands     []AgeBand
	Genders      []string
	ConsentTypes []string
	Sources      []string
}

// DefaultOptions returns the report configuration the dashboard ships with.
func DefaultOptions(loc *time.Location) Options {
	return Options{
		Location:         loc,
		WeekStart:        time.Monday,
		TopStates:        5,
		MonthlyMonths:    12,
		WeeklyDays:       7,
		YearlyYears:      5,
		HistoricalMonths: 24,
		AgeBands:         DefaultAgeBands(),
		Genders:          []string{"Male", "Female", "Other"},
		ConsentTypes:     []string{"Both Eyes", "Single Eye", "Cornea Only"},
		Sources:          []string{"Online Form", "Donation Camp", "Hospital", "Partner Organisation"},
	}
}

func (o Options) Validate() error {
	var problems []string
	if o.Location == nil {
		problems = append(problems, "canonical timezone is not set")
	}
	if o.TopStates < 1 {
		problems = append(problems, fmt.Sprintf("top states must be at least 1, got %d", o.TopStates))
	}
	if o.MonthlyMonths < 1 || o.WeeklyDays < 1 || o.YearlyYears < 1 || o.HistoricalMonths < 1 {
		problems = append(problems, "report window sizes must be at least 1 unit")
	}
	if len(o.AgeBands) == 0 {
		problems = append(problems, "age band taxonomy is empty")
	}
	if len(o.Genders) == 0 || len(o.ConsentTypes) == 0 || len(o.Sources) == 0 {
		problems = append(problems, "categorical taxonomies must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", core.ErrConfiguration, problems)
	}
	return nil
}

// Engine assembles the fixed dashboard reports from the record store. It is
// stateless: every operation is an independent read-compute-serialize pass, so
// concurrent report calls never interfere. The report reference instant is an
// explicit parameter on every operation so tests can pin "now".
type Engine struct {
	store records.RecordReader
	opts  Options
}

func New(store records.RecordReader, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{store: store, opts: opts}, nil
}

// Summary returns the stat-card counts: all-time and current-day totals plus
// the short-horizon trend percentages.
func (e *Engine) Summary(ctx context.Context, now time.Time) (core.Summary, error) {
	now = now.In(e.opts.Location)
	var s core.Summary

	total, err := e.store.CountAll(ctx)
	if err != nil {
		return s, unavailable("count total pledges", err)
	}
	s.TotalPledges = total

	today := dayStart(now)
	counts := []struct {
		name     string
		from, to time.Time
		dst      *int64
	}{
		{"today", today, today.AddDate(0, 0, 1), &s.TodayPledges},
		{"this month", monthStart(now), monthStart(now).AddDate(0, 1, 0), &s.ThisMonthPledges},
		{"this year", yearStart(now), yearStart(now).AddDate(1, 0, 0), &s.ThisYearPledges},
	}
	for _, c := range counts {
		n, err := e.countUTC(ctx, c.from, c.to)
		if err != nil {
			return s, unavailable("count "+c.name+" pledges", err)
		}
		*c.dst = n
	}

	yesterday, err := e.countUTC(ctx, today.AddDate(0, 0, -1), today)
	if err != nil {
		return s, unavailable("count yesterday pledges", err)
	}
	prevMonth, err := e.countUTC(ctx, monthStart(now).AddDate(0, -1, 0), monthStart(now))
	if err != nil {
		return s, unavailable("count previous month pledges", err)
	}
	prevYTD, err := e.countUTC(ctx, yearStart(now).AddDate(-1, 0, 0), now.AddDate(-1, 0, 0))
	if err != nil {
		return s, unavailable("count previous year-to-date pledges", err)
	}
	last30, err := e.countUTC(ctx, today.AddDate(0, 0, -30), now)
	if err != nil {
		return s, unavailable("count trailing 30 day pledges", err)
	}

	s.TodayChangePct = Growth(s.TodayPledges, yesterday).Value
	s.MonthChangePct = Growth(s.ThisMonthPledges, prevMonth).Value
	s.YearChangePct = Growth(s.ThisYearPledges, prevYTD).Value
	s.AvgPerDay = round1(float64(last30) / 30)
	return s, nil
}

// Monthly returns the calendar-month series for the trailing MonthlyMonths
// months, current month included.
func (e *Engine) Monthly(ctx context.Context, now time.Time) (core.Series, error) {
	end := monthStart(now.In(e.opts.Location)).AddDate(0, 1, 0)
	return e.MonthlyRange(ctx, end.AddDate(0, -e.opts.MonthlyMonths, 0), end)
}

// MonthlyRange is Monthly with a caller-supplied window.
func (e *Engine) MonthlyRange(ctx context.Context, from, to time.Time) (core.Series, error) {
	return e.bucketSeries(ctx, from, to, ByMonth)
}

// Weekly returns the daily series for the trailing WeeklyDays days, today
// included.
func (e *Engine) Weekly(ctx context.Context, now time.Time) (core.Series, error) {
	end := dayStart(now.In(e.opts.Location)).AddDate(0, 0, 1)
	return e.WeeklyRange(ctx, end.AddDate(0, 0, -e.opts.WeeklyDays), end)
}

// WeeklyRange is Weekly with a caller-supplied window.
func (e *Engine) WeeklyRange(ctx context.Context, from, to time.Time) (core.Series, error) {
	return e.bucketSeries(ctx, from, to, ByDay)
}

// Yearly returns yearly totals for the trailing YearlyYears calendar years,
// current year included.
func (e *Engine) Yearly(ctx context.Context, now time.Time) (core.Series, error) {
	end := yearStart(now.In(e.opts.Location)).AddDate(1, 0, 0)
	return e.bucketSeries(ctx, end.AddDate(-e.opts.YearlyYears, 0, 0), end, ByYear)
}

// Historical returns monthly totals over the trailing HistoricalMonths months
// for long-range trend comparison. Labels carry the year since the window
// spans several.
func (e *Engine) Historical(ctx context.Context, now time.Time) (core.Series, error) {
	end := monthStart(now.In(e.opts.Location)).AddDate(0, 1, 0)
	from := end.AddDate(0, -e.opts.HistoricalMonths, 0)
	buckets, err := e.buckets(ctx, from, end, ByMonth)
	if err != nil {
		return core.Series{}, err
	}
	for i := range buckets {
		buckets[i].Label = monthLabelWithYear(buckets[i].Start)
	}
	return ToSeries(buckets), nil
}

// Hourly returns the 24-slot hour-of-day activity histogram over all records.
func (e *Engine) Hourly(ctx context.Context) (core.Series, error) {
	times, err := e.store.CreatedBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		return core.Series{}, unavailable("load pledge creation times", err)
	}
	return HourHistogram(times, e.opts.Location), nil
}

// Comparative returns the two standing growth reports: current calendar month
// vs the previous one, and year-to-date vs the same Jan-1-to-now window of the
// previous year.
func (e *Engine) Comparative(ctx context.Context, now time.Time) (core.Comparative, error) {
	now = now.In(e.opts.Location)
	var c core.Comparative

	thisMonth, err := e.countUTC(ctx, monthStart(now), monthStart(now).AddDate(0, 1, 0))
	if err != nil {
		return c, unavailable("count this month pledges", err)
	}
	lastMonth, err := e.countUTC(ctx, monthStart(now).AddDate(0, -1, 0), monthStart(now))
	if err != nil {
		return c, unavailable("count last month pledges", err)
	}
	ytd, err := e.countUTC(ctx, yearStart(now), now)
	if err != nil {
		return c, unavailable("count year-to-date pledges", err)
	}
	prevYTD, err := e.countUTC(ctx, yearStart(now).AddDate(-1, 0, 0), now.AddDate(-1, 0, 0))
	if err != nil {
		return c, unavailable("count previous year-to-date pledges", err)
	}

	c.MoM = Growth(thisMonth, lastMonth)
	c.YoY = Growth(ytd, prevYTD)
	return c, nil
}

// States returns the top contributing states ranked by count with a
// deterministic alphabetical tie-break.
func (e *Engine) States(ctx context.Context) ([]core.StateCount, error) {
	rows, err := e.store.CountByField(ctx, core.FieldState)
	if err != nil {
		return nil, unavailable("count pledges by state", err)
	}
	ranked := RankTopN(rows, e.opts.TopStates)
	out := make([]core.StateCount, len(ranked))
	for i, row := range ranked {
		out[i] = core.StateCount{Label: row.Value, Count: row.Count}
	}
	return out, nil
}

// Districts returns the per-district breakdown for one state, largest first.
func (e *Engine) Districts(ctx context.Context, state string) ([]core.DistrictCount, error) {
	rows, err := e.store.CountByDistrict(ctx, state)
	if err != nil {
		return nil, unavailable("count pledges by district", err)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Value < rows[j].Value
	})
	out := make([]core.DistrictCount, len(rows))
	for i, row := range rows {
		out[i] = core.DistrictCount{District: row.Value, Count: row.Count}
	}
	return out, nil
}

// Demographics returns the age-band and gender breakdowns. Both reconcile with
// the window total: missing birth dates count under "Unknown", unmapped gender
// values under "Other".
func (e *Engine) Demographics(ctx context.Context, now time.Time) (core.Demographics, error) {
	var d core.Demographics

	dobs, err := e.store.BirthDates(ctx)
	if err != nil {
		return d, unavailable("load donor birth dates", err)
	}
	d.Age = AgeBreakdown(dobs, e.opts.AgeBands, now.In(e.opts.Location))

	rows, err := e.store.CountByField(ctx, core.FieldGender)
	if err != nil {
		return d, unavailable("count pledges by gender", err)
	}
	d.Gender = FixedBreakdown(rows, e.opts.Genders)
	return d, nil
}

// Sources returns the pledge source breakdown over the configured taxonomy.
func (e *Engine) Sources(ctx context.Context) (core.Series, error) {
	rows, err := e.store.CountByField(ctx, core.FieldSource)
	if err != nil {
		return core.Series{}, unavailable("count pledges by source", err)
	}
	return FixedBreakdown(rows, e.opts.Sources), nil
}

// Consent returns the consent-type breakdown as labeled slices.
func (e *Engine) Consent(ctx context.Context) ([]core.CategoryCount, error) {
	rows, err := e.store.CountByField(ctx, core.FieldConsent)
	if err != nil {
		return nil, unavailable("count pledges by consent type", err)
	}
	s := FixedBreakdown(rows, e.opts.ConsentTypes)
	out := make([]core.CategoryCount, len(s.Labels))
	for i := range s.Labels {
		out[i] = core.CategoryCount{Label: s.Labels[i], Value: s.Data[i]}
	}
	return out, nil
}

func (e *Engine) buckets(ctx context.Context, from, to time.Time, g Granularity) ([]Bucket, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, fmt.Errorf("%w: [%s, %s)", core.ErrInvalidWindow, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	times, err := e.store.CreatedBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, unavailable("load pledge creation times", err)
	}
	return Bucketize(times, from, to, g, e.opts.Location, e.opts.WeekStart)
}

func (e *Engine) bucketSeries(ctx context.Context, from, to time.Time, g Granularity) (core.Series, error) {
	buckets, err := e.buckets(ctx, from, to, g)
	if err != nil {
		return core.Series{}, err
	}
	return ToSeries(buckets), nil
}

// countUTC counts a window given in the canonical timezone against the
// UTC-stored records.
func (e *Engine) countUTC(ctx context.Context, from, to time.Time) (int64, error) {
	return e.store.CountBetween(ctx, from.UTC(), to.UTC())
}

// unavailable wraps a store failure so callers can match ErrDataUnavailable
// while keeping the underlying cause in the chain. Zero-filling applies only
// to empty buckets inside a successful read, never to a failed one.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(core.ErrDataUnavailable, err))
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}
