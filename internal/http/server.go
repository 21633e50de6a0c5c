package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pledgestats/internal/cache"
	"pledgestats/internal/core"
	"pledgestats/internal/stats"

	"golang.org/x/sync/singleflight"
)

// Server exposes the statistics reports as JSON. Every operation is a pure
// read; the only state shared between requests is the engine's store handle
// and the summary cache. The dashboard fetches most reports once on load but
// polls summary continuously, so summary alone is cached and collapsed with
// singleflight.
type Server struct {
	http.Server
	engine *stats.Engine
	loc    *time.Location

	summaryCache *cache.LRU[core.Summary]
	flight       singleflight.Group
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, engine *stats.Engine, loc *time.Location, summaryTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		engine:       engine,
		loc:          loc,
		summaryCache: cache.NewLRU[core.Summary](8, summaryTTL),
		caches:       cache.NewManager(),
	}

	s.caches.Register(s.summaryCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/neb/api/stats/summary", s.withRequestLog(s.handleSummary))
	mux.HandleFunc("/neb/api/stats/monthly", s.withRequestLog(s.handleMonthly))
	mux.HandleFunc("/neb/api/stats/weekly", s.withRequestLog(s.handleWeekly))
	mux.HandleFunc("/neb/api/stats/yearly", s.withRequestLog(s.handleYearly))
	mux.HandleFunc("/neb/api/stats/hourly", s.withRequestLog(s.handleHourly))
	mux.HandleFunc("/neb/api/stats/historical", s.withRequestLog(s.handleHistorical))
	mux.HandleFunc("/neb/api/stats/comparative", s.withRequestLog(s.handleComparative))
	mux.HandleFunc("/neb/api/stats/states", s.withRequestLog(s.handleStates))
	mux.HandleFunc("/neb/api/stats/districts/", s.withRequestLog(s.handleDistricts))
	mux.HandleFunc("/neb/api/stats/demographics", s.withRequestLog(s.handleDemographics))
	mux.HandleFunc("/neb/api/stats/sources", s.withRequestLog(s.handleSources))
	mux.HandleFunc("/neb/api/stats/consent", s.withRequestLog(s.handleConsent))
	mux.HandleFunc("/neb/api/stats/dashboard", s.withRequestLog(s.handleDashboard))

	return s
}

// InvalidateReports drops cached report data. Wired to pledge-created events
// so a fresh pledge shows up before the cache TTL runs out.
func (s *Server) InvalidateReports() {
	s.summaryCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLog adds security headers, a request ID and request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
