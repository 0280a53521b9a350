// Package health runs the relay server's readiness checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/store"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string
	Description string
	Check       func(ctx context.Context) HealthCheckResult
	Timeout     time.Duration
	Critical    bool // If true, failure affects overall system health
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration_ns"`
}

// HealthChecker manages and executes health checks
type HealthChecker struct {
	checks map[string]*HealthCheck
	mutex  sync.RWMutex
	start  time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]*HealthCheck),
		start:  time.Now(),
	}
}

// RegisterCheck registers a new health check
func (hc *HealthChecker) RegisterCheck(check *HealthCheck) {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()

	if check.Timeout == 0 {
		check.Timeout = 5 * time.Second
	}
	hc.checks[check.Name] = check

	logger.Debug("Health check registered",
		"name", check.Name,
		"critical", check.Critical,
		"timeout", check.Timeout.String())
}

// Names lists the registered checks in order
func (hc *HealthChecker) Names() []string {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteCheck executes a single health check
func (hc *HealthChecker) ExecuteCheck(ctx context.Context, name string) (*HealthCheckResult, error) {
	hc.mutex.RLock()
	check, exists := hc.checks[name]
	hc.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("health check %s not found", name)
	}
	return hc.executeCheck(ctx, check), nil
}

// ExecuteAllChecks executes all registered health checks concurrently
func (hc *HealthChecker) ExecuteAllChecks(ctx context.Context) map[string]HealthCheckResult {
	hc.mutex.RLock()
	checks := make([]*HealthCheck, 0, len(hc.checks))
	for _, check := range hc.checks {
		checks = append(checks, check)
	}
	hc.mutex.RUnlock()

	results := make(map[string]HealthCheckResult, len(checks))
	var wg sync.WaitGroup
	var resultMutex sync.Mutex

	for _, check := range checks {
		wg.Add(1)
		go func(check *HealthCheck) {
			defer wg.Done()
			result := hc.executeCheck(ctx, check)

			resultMutex.Lock()
			results[check.Name] = *result
			resultMutex.Unlock()
		}(check)
	}

	wg.Wait()
	return results
}

func (hc *HealthChecker) executeCheck(ctx context.Context, check *HealthCheck) *HealthCheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	start := time.Now()
	result := check.Check(checkCtx)
	result.Timestamp = start
	result.Duration = time.Since(start)

	logger.DebugCtx(ctx, "Health check executed",
		"name", check.Name,
		"status", result.Status,
		"duration_ms", result.Duration.Milliseconds())
	return &result
}

// GetOverallHealth determines the overall system health: any critical failure
// is unhealthy, any other failure or degraded check is degraded
func (hc *HealthChecker) GetOverallHealth(ctx context.Context) (HealthStatus, map[string]HealthCheckResult) {
	results := hc.ExecuteAllChecks(ctx)

	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	overall := StatusHealthy
	for name, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			if hc.checks[name].Critical {
				return StatusUnhealthy, results
			}
			overall = StatusDegraded
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall, results
}

// StoreCheck reads the extension configuration back from st
func StoreCheck(st store.Store, backend string) *HealthCheck {
	return &HealthCheck{
		Name:        "store",
		Description: "configuration store is readable",
		Critical:    true,
		Check: func(ctx context.Context) HealthCheckResult {
			cfg, err := settings.Load(ctx, st)
			if err != nil {
				return HealthCheckResult{Status: StatusUnhealthy, Message: err.Error(), Details: map[string]interface{}{"backend": backend}}
			}
			return HealthCheckResult{
				Status: StatusHealthy,
				Details: map[string]interface{}{
					"backend": backend,
					"status":  string(cfg.Status),
					"mode":    string(cfg.Mode),
				},
			}
		},
	}
}

// PingCheck wraps a connectivity probe such as a database ping
func PingCheck(name string, critical bool, ping func(ctx context.Context) error) *HealthCheck {
	return &HealthCheck{
		Name:     name,
		Critical: critical,
		Check: func(ctx context.Context) HealthCheckResult {
			if err := ping(ctx); err != nil {
				return HealthCheckResult{Status: StatusUnhealthy, Message: err.Error()}
			}
			return HealthCheckResult{Status: StatusHealthy}
		},
	}
}

// Response is the body of /health
type Response struct {
	Status        HealthStatus                 `json:"status"`
	Timestamp     string                       `json:"timestamp"`
	UptimeSeconds int64                        `json:"uptime_seconds"`
	Version       string                       `json:"version"`
	Checks        map[string]HealthCheckResult `json:"checks"`
}

// Handler serves the overall health, or a single check with ?check=name
func Handler(hc *HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			status  HealthStatus
			results map[string]HealthCheckResult
		)
		if name := r.URL.Query().Get("check"); name != "" {
			result, err := hc.ExecuteCheck(ctx, name)
			if err != nil {
				http.Error(w, fmt.Sprintf("Health check not found: %s", name), http.StatusNotFound)
				return
			}
			status = result.Status
			results = map[string]HealthCheckResult{name: *result}
		} else {
			status, results = hc.GetOverallHealth(ctx)
		}

		statusCode := http.StatusOK
		if status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		version := os.Getenv("VERSION")
		if version == "" {
			version = "unknown"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		err := json.NewEncoder(w).Encode(Response{
			Status:        status,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			UptimeSeconds: int64(time.Since(hc.start).Seconds()),
			Version:       version,
			Checks:        results,
		})
		if err != nil {
			logger.ErrorCtx(ctx, "Failed to write health response", "error", err)
		}
	}
}
