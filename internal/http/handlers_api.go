package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"salesjournal/internal/core"
	"salesjournal/internal/report"
)

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	TotalSales   float64            `json:"totalSales"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleAPITransactions returns every transaction in insertion order.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	txs, err := s.journal.List(ctx)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: txs,
		Count:        len(txs),
		TotalSales:   report.TotalSales(txs),
	})
}

// handleAPIDashboard returns the dashboard snapshot as JSON. It accepts the
// same period, top, n and days parameters as the dashboard page.
func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	d, err := s.dashboard(ctx, parseDashboardOptions(r))
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks templates and the backing store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "not_configured"
	default:
		if err := s.ready.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	checks["cache"] = map[string]interface{}{
		"dashboard_entries": s.dashboardCache.Size(),
		"status":            "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}

	w.WriteHeader(http.StatusOK)
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_microseconds", "gauge", "Moving average response time", traceMetrics.AverageResponseTime)
	metric("sales_recorded_total", "counter", "Sales recorded through the journal", atomic.LoadInt64(&s.appMetrics.salesRecorded))
	metric("sales_deleted_total", "counter", "Sales deleted through the journal", atomic.LoadInt64(&s.appMetrics.salesDeleted))
	metric("cache_hits_total", "counter", "Dashboard cache hits", atomic.LoadInt64(&s.appMetrics.cacheHits))
	metric("cache_misses_total", "counter", "Dashboard cache misses", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	metric("cache_entries", "gauge", "Current dashboard cache entries", int64(s.dashboardCache.Size()))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rateLimitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	metric("security_blocked_requests_total", "counter", "Requests rejected by method", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Seconds since server start", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
