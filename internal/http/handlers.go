package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks templates and the session store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name string, detail string) {
		checks[name] = "failed: " + detail
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.sessions == nil:
		checks["sessions"] = "not_configured"
	default:
		if err := s.sessions.Ping(ctx); err != nil {
			fail("sessions", err.Error())
		} else {
			checks["sessions"] = "ok"
		}
	}

	checks["cache"] = map[string]any{
		"entries": s.cacheEntries(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) cacheEntries() int {
	n := 0
	for _, c := range s.svc.Caches() {
		if sized, ok := c.(interface{ Size() int }); ok {
			n += sized.Size()
		}
	}
	return n
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.trace.GetMetrics()
	cacheHits, cacheMisses := s.svc.CacheStats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_microseconds_avg", "gauge", "Average response time", traceMetrics.AverageResponseTime)

	metric("transactions_created_total", "counter", "Transactions created", s.appMetrics.transactionsCreated.Load())
	metric("records_saved_total", "counter", "Budgets and savings targets saved", s.appMetrics.recordsSaved.Load())
	metric("records_deleted_total", "counter", "Budgets and savings targets deleted", s.appMetrics.recordsDeleted.Load())
	metric("record_conflicts_total", "counter", "Submissions rejected because the period already has a record", s.appMetrics.conflicts.Load())
	metric("backend_errors_total", "counter", "Failed backend calls surfaced to users", s.appMetrics.backendErrors.Load())

	metric("cache_hits_total", "counter", "Total cache hits", cacheHits)
	metric("cache_misses_total", "counter", "Total cache misses", cacheMisses)
	metric("cache_entries", "gauge", "Current cache entries", s.cacheEntries())

	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("rate_limit_active_clients", "gauge", "Clients with an open rate limit window", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("invalid_ip_attempts_total", "counter", "Requests with an unparseable client address", securityMetrics.InvalidIPAttempts)

	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
