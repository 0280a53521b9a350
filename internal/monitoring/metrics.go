package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/aashari/go-selection-relay/internal/logger"
)

// Metrics holds application metrics
type Metrics struct {
	mu               sync.RWMutex
	RequestCount     int64
	RequestDuration  time.Duration
	ErrorCount       int64
	StatusCodeCounts map[int]int64
	ResultCounts     map[string]int64
	ModeCounts       map[string]int64
	UpstreamDuration time.Duration
	UpstreamCalls    int64
	StartTime        time.Time
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	return &Metrics{
		StatusCodeCounts: make(map[int]int64),
		ResultCounts:     make(map[string]int64),
		ModeCounts:       make(map[string]int64),
		StartTime:        time.Now(),
	}
}

// Global metrics instance
var globalMetrics = NewMetrics()

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records an HTTP request with its duration and status
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount++
	m.RequestDuration += duration
	m.StatusCodeCounts[statusCode]++

	if statusCode >= 400 {
		m.ErrorCount++
	}
}

// RecordResult records one relay outcome. upstream is zero when no network
// call was made (disabled, or failure before the call).
func (m *Metrics) RecordResult(kind, mode string, upstream time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResultCounts[kind]++
	if mode != "" {
		m.ModeCounts[mode]++
	}
	if upstream > 0 {
		m.UpstreamCalls++
		m.UpstreamDuration += upstream
	}
}

// GetStats returns current statistics
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.StartTime)
	avgDuration := time.Duration(0)
	if m.RequestCount > 0 {
		avgDuration = m.RequestDuration / time.Duration(m.RequestCount)
	}
	avgUpstream := time.Duration(0)
	if m.UpstreamCalls > 0 {
		avgUpstream = m.UpstreamDuration / time.Duration(m.UpstreamCalls)
	}
	errorRate := 0.0
	if m.RequestCount > 0 {
		errorRate = float64(m.ErrorCount) / float64(m.RequestCount)
	}

	return map[string]interface{}{
		"uptime_seconds":      uptime.Seconds(),
		"total_requests":      m.RequestCount,
		"total_errors":        m.ErrorCount,
		"average_duration_ms": avgDuration.Milliseconds(),
		"error_rate":          errorRate,
		"status_code_counts":  copyCounts(m.StatusCodeCounts),
		"result_counts":       copyCounts(m.ResultCounts),
		"mode_counts":         copyCounts(m.ModeCounts),
		"upstream_calls":      m.UpstreamCalls,
		"average_upstream_ms": avgUpstream.Milliseconds(),
		"start_time":          m.StartTime.Format(time.RFC3339),
	}
}

func copyCounts[K comparable](in map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount = 0
	m.RequestDuration = 0
	m.ErrorCount = 0
	m.StatusCodeCounts = make(map[int]int64)
	m.ResultCounts = make(map[string]int64)
	m.ModeCounts = make(map[string]int64)
	m.UpstreamCalls = 0
	m.UpstreamDuration = 0
	m.StartTime = time.Now()
}

// MetricsMiddleware wraps HTTP handlers to collect metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		globalMetrics.RecordRequest(duration, wrapper.statusCode)

		logger.DebugCtx(r.Context(), "Request metrics recorded",
			"request_method", r.Method,
			"request_path", r.URL.Path,
			"response_status_code", wrapper.statusCode,
			"response_duration_ms", duration.Milliseconds(),
		)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// MetricsHandler returns current metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(globalMetrics.GetStats()); err != nil {
		logger.Error("Failed to encode metrics", "error", err)
	}
}
