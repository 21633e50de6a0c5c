package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pledgestats/internal/core"

	"golang.org/x/sync/errgroup"
)

const reportTimeout = 7 * time.Second

// handleSummary serves the stat-card counts. It is the one report polled
// continuously, so hits are answered from the cache and concurrent misses
// collapse into a single engine call.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	now := time.Now().In(s.loc)
	key := "summary:" + now.Format("2006-01-02")

	if data, found := s.summaryCache.Get(key); found {
		writeJSON(w, http.StatusOK, data)
		return
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
		defer cancel()
		return s.engine.Summary(ctx, now)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := v.(core.Summary)
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	from, to, override, err := parseWindow(r, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var series core.Series
	if override {
		series, err = s.engine.MonthlyRange(ctx, from, to)
	} else {
		series, err = s.engine.Monthly(ctx, time.Now())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	from, to, override, err := parseWindow(r, s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var series core.Series
	if override {
		series, err = s.engine.WeeklyRange(ctx, from, to)
	} else {
		series, err = s.engine.Weekly(ctx, time.Now())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	s.serveSeries(w, r, s.engine.Yearly)
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	s.serveSeries(w, r, s.engine.Historical)
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	series, err := s.engine.Hourly(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleComparative(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	comparative, err := s.engine.Comparative(ctx, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparative)
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	states, err := s.engine.States(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if states == nil {
		states = []core.StateCount{}
	}
	writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	state := strings.TrimPrefix(r.URL.Path, "/neb/api/stats/districts/")
	if state == "" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	districts, err := s.engine.Districts(ctx, state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if districts == nil {
		districts = []core.DistrictCount{}
	}
	writeJSON(w, http.StatusOK, districts)
}

func (s *Server) handleDemographics(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	demographics, err := s.engine.Demographics(ctx, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, demographics)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	sources, err := s.engine.Sources(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	consent, err := s.engine.Consent(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if consent == nil {
		consent = []core.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, consent)
}

// dashboardPayload bundles every report for clients that prefer one round
// trip over the dashboard's usual parallel fetches.
type dashboardPayload struct {
	Summary      core.Summary         `json:"summary"`
	Monthly      core.Series          `json:"monthly"`
	Weekly       core.Series          `json:"weekly"`
	Yearly       core.Series          `json:"yearly"`
	Hourly       core.Series          `json:"hourly"`
	Historical   core.Series          `json:"historical"`
	Comparative  core.Comparative     `json:"comparative"`
	States       []core.StateCount    `json:"states"`
	Demographics core.Demographics    `json:"demographics"`
	Sources      core.Series          `json:"sources"`
	Consent      []core.CategoryCount `json:"consent"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*reportTimeout)
	defer cancel()

	now := time.Now()
	var payload dashboardPayload

	// Each goroutine writes its own field; the engine itself is stateless.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { payload.Summary, err = s.engine.Summary(gctx, now); return })
	g.Go(func() (err error) { payload.Monthly, err = s.engine.Monthly(gctx, now); return })
	g.Go(func() (err error) { payload.Weekly, err = s.engine.Weekly(gctx, now); return })
	g.Go(func() (err error) { payload.Yearly, err = s.engine.Yearly(gctx, now); return })
	g.Go(func() (err error) { payload.Hourly, err = s.engine.Hourly(gctx); return })
	g.Go(func() (err error) { payload.Historical, err = s.engine.Historical(gctx, now); return })
	g.Go(func() (err error) { payload.Comparative, err = s.engine.Comparative(gctx, now); return })
	g.Go(func() (err error) { payload.States, err = s.engine.States(gctx); return })
	g.Go(func() (err error) { payload.Demographics, err = s.engine.Demographics(gctx, now); return })
	g.Go(func() (err error) { payload.Sources, err = s.engine.Sources(gctx); return })
	g.Go(func() (err error) { payload.Consent, err = s.engine.Consent(gctx); return })

	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// serveSeries handles the series reports whose window is fixed per report.
func (s *Server) serveSeries(w http.ResponseWriter, r *http.Request, report func(context.Context, time.Time) (core.Series, error)) {
	if !requireGet(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	series, err := report(ctx, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
