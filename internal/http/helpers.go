package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pledgestats/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses. The engine
// fails loudly; presentation of an empty state is the front end's job.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidWindow):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}

	slog.ErrorContext(r.Context(), "Report failed",
		"error", err,
		"url", r.URL.Path,
		"status", status)

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// parseWindow reads an optional from/to override (YYYY-MM-DD, interpreted in
// the canonical timezone). Both bounds must be supplied together; a malformed
// window is rejected, never coerced.
func parseWindow(r *http.Request, loc *time.Location) (from, to time.Time, ok bool, err error) {
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if fromStr == "" && toStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: both from and to are required", core.ErrInvalidWindow)
	}
	from, err = time.ParseInLocation("2006-01-02", fromStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: bad from date %q", core.ErrInvalidWindow, fromStr)
	}
	to, err = time.ParseInLocation("2006-01-02", toStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: bad to date %q", core.ErrInvalidWindow, toStr)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("%w: from %s is not before to %s", core.ErrInvalidWindow, fromStr, toStr)
	}
	return from, to, true, nil
}
